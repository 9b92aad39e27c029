package handler

import (
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/itchan-dev/eventboard/shared/utils"
)

// ServeBlob serves files of one blob namespace under the URL prefix of the
// same name, so a stored path is also its URL.
func (h *Handler) ServeBlob(namespace string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// not path.Join: the store must see and reject ".." segments
		blobPath := namespace + "/" + urlParam(r, "*")

		rc, err := h.blobs.Open(r.Context(), blobPath)
		if err != nil {
			utils.WriteErrorAndStatusCode(w, err)
			return
		}
		defer rc.Close()

		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// local files support range requests and conditional GETs
		if f, ok := rc.(*os.File); ok {
			var modTime time.Time
			if info, err := f.Stat(); err == nil {
				modTime = info.ModTime()
			}
			http.ServeContent(w, r, path.Base(blobPath), modTime, f)
			return
		}

		contentType := mime.TypeByExtension(path.Ext(blobPath))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		io.Copy(w, rc)
	}
}

package setup

import (
	"context"
	"fmt"

	"github.com/itchan-dev/eventboard/backend/internal/handler"
	"github.com/itchan-dev/eventboard/backend/internal/service"
	"github.com/itchan-dev/eventboard/backend/internal/storage/fs"
	"github.com/itchan-dev/eventboard/backend/internal/storage/pg"
	"github.com/itchan-dev/eventboard/backend/internal/storage/s3"
	"github.com/itchan-dev/eventboard/backend/internal/utils"
	"github.com/itchan-dev/eventboard/shared/config"
	"github.com/itchan-dev/eventboard/shared/jwt"
	"github.com/itchan-dev/eventboard/shared/logger"
	"github.com/itchan-dev/eventboard/shared/markdown"
	mw "github.com/itchan-dev/eventboard/shared/middleware"
	shared_pg "github.com/itchan-dev/eventboard/shared/storage/pg"
)

// BlobStore is what both blob backends provide: request-path operations plus
// the listing the garbage collector needs.
type BlobStore interface {
	service.BlobStorage
	service.GCBlobStorage
}

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config         *config.Config
	Storage        *pg.Storage
	Blobs          BlobStore
	Handler        *handler.Handler
	AuthMiddleware *mw.Auth
	GC             *service.BlobGarbageCollector
}

// SetupDependencies connects the record store (running migrations), opens the
// configured blob backend and wires the services into the handler.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(ctx, shared_pg.DSN(cfg.Private.Pg))
	if err != nil {
		return nil, err
	}

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		storage.Cleanup()
		return nil, err
	}

	jwtService := jwt.New(cfg.JwtKey(), cfg.JwtTTL())

	auth := service.NewAuth(storage, jwtService)
	gallery := service.NewGallery(storage, blobs, &utils.EventNameValidator{})
	notices := service.NewNotices(storage, blobs, &utils.NoticeValidator{}, markdown.New())
	gc := service.NewBlobGarbageCollector(storage, blobs, gallery, cfg.Public.GC.SafetyThreshold)

	h := handler.New(auth, gallery, notices, blobs, storage, cfg)

	return &Dependencies{
		Config:         cfg,
		Storage:        storage,
		Blobs:          blobs,
		Handler:        h,
		AuthMiddleware: mw.NewAuth(jwtService),
		GC:             gc,
	}, nil
}

func newBlobStore(ctx context.Context, cfg *config.Config) (BlobStore, error) {
	switch cfg.Public.Blob.Backend {
	case "s3":
		client, err := s3.NewClient(ctx, cfg.Public.Blob.S3, cfg.Private.S3)
		if err != nil {
			return nil, err
		}
		logger.Log.Info("using s3 blob store", "bucket", cfg.Public.Blob.S3.Bucket, "endpoint", cfg.Public.Blob.S3.Endpoint)
		return s3.New(client, cfg.Public.Blob.S3.Bucket, cfg.Public.Blob.S3.Prefix), nil
	case "fs", "":
		logger.Log.Info("using local blob store", "root", cfg.Public.Blob.Root)
		store, err := fs.New(cfg.Public.Blob.Root)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Public.Blob.Backend)
	}
}

package service

import (
	"context"
	"sync"
	"time"

	"github.com/itchan-dev/eventboard/shared/domain"
	"github.com/itchan-dev/eventboard/shared/logger"
	"github.com/itchan-dev/eventboard/shared/middleware/metrics"
)

// BlobGarbageCollector removes blobs no image or notice record points to.
// Blobs younger than safetyThreshold are kept, as their record may not be
// committed yet.
type BlobGarbageCollector struct {
	storage         GCStorage
	blobs           GCBlobStorage
	relocations     RelocationGuard
	safetyThreshold time.Duration
	dirs            []string

	mu        sync.Mutex
	lastStats CleanupStats
}

// CleanupStats tracks metrics from the last garbage collection run.
type CleanupStats struct {
	RunAt         time.Time
	FilesScanned  int
	OrphanedFiles int
	FilesDeleted  int
	DurationMs    int64
	Errors        []string
}

// GCStorage defines the database operations needed for garbage collection.
type GCStorage interface {
	GetAllFilePaths(ctx context.Context) ([]string, error)
}

// RelocationGuard keeps blobs from moving to paths that are missing from a
// snapshot already taken. A moved file keeps its mod time, so the safety
// threshold does not cover it.
type RelocationGuard interface {
	HoldRelocations() (release func())
}

// NewBlobGarbageCollector creates a collector. relocations may be nil when
// nothing moves blobs.
func NewBlobGarbageCollector(storage GCStorage, blobs GCBlobStorage, relocations RelocationGuard, safetyThreshold time.Duration) *BlobGarbageCollector {
	return &BlobGarbageCollector{
		storage:         storage,
		blobs:           blobs,
		relocations:     relocations,
		safetyThreshold: safetyThreshold,
		dirs:            []string{domain.UploadsDir, domain.NoticesDir},
	}
}

// StartBackgroundCleanup runs a cleanup every interval until ctx is done.
func (gc *BlobGarbageCollector) StartBackgroundCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	logger.Log.Info("started blob garbage collector", "interval", interval, "safety_threshold", gc.safetyThreshold)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := gc.RunCleanup(ctx); err != nil {
					logger.Log.Error("blob gc: cleanup failed", "error", err)
					continue
				}
				stats := gc.GetLastCleanupStats()
				logger.Log.Info("blob gc: completed",
					"scanned", stats.FilesScanned,
					"orphans", stats.OrphanedFiles,
					"deleted", stats.FilesDeleted,
					"duration_ms", stats.DurationMs,
					"errors", len(stats.Errors),
				)
			case <-ctx.Done():
				logger.Log.Info("blob gc: shutting down")
				return
			}
		}
	}()
}

// RunCleanup executes a single garbage collection cycle.
func (gc *BlobGarbageCollector) RunCleanup(ctx context.Context) error {
	startTime := time.Now()
	stats := CleanupStats{
		RunAt:  startTime,
		Errors: []string{},
	}

	// the snapshot and the walk must see the same layout
	if gc.relocations != nil {
		defer gc.relocations.HoldRelocations()()
	}

	dbPaths, err := gc.storage.GetAllFilePaths(ctx)
	if err != nil {
		return err
	}
	referenced := make(map[string]struct{}, len(dbPaths))
	for _, p := range dbPaths {
		referenced[p] = struct{}{}
	}

	for _, dir := range gc.dirs {
		files, err := gc.blobs.WalkFiles(ctx, dir)
		if err != nil {
			return err
		}
		stats.FilesScanned += len(files)

		for _, p := range files {
			if _, ok := referenced[p]; ok {
				continue
			}

			modTime, err := gc.blobs.GetFileModTime(ctx, p)
			if err != nil {
				stats.Errors = append(stats.Errors, "stat error: "+p+": "+err.Error())
				continue
			}
			if time.Since(modTime) < gc.safetyThreshold {
				continue
			}

			stats.OrphanedFiles++
			if err := gc.blobs.DeleteFile(ctx, p); err != nil {
				stats.Errors = append(stats.Errors, "delete error: "+p+": "+err.Error())
				continue
			}
			stats.FilesDeleted++
		}
	}

	metrics.GCFilesDeleted(stats.FilesDeleted)
	stats.DurationMs = time.Since(startTime).Milliseconds()

	gc.mu.Lock()
	gc.lastStats = stats
	gc.mu.Unlock()
	return nil
}

func (gc *BlobGarbageCollector) GetLastCleanupStats() CleanupStats {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.lastStats
}

package ingest

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"duet/models"
)

// Sweeper reconciles the media root with the database: an ingestion aborted
// mid-pipeline (client disconnect, crash before insert) can leave a per-asset
// directory with no row. The sweeper removes such directories once they are
// older than the grace period. The grace period exists so a slow in-flight
// ingestion is never swept while it is still writing.
type Sweeper struct {
	db       *gorm.DB
	root     string
	grace    time.Duration
	interval time.Duration
	log      *zap.Logger
}

func NewSweeper(db *gorm.DB, root string, grace, interval time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{db: db, root: root, grace: grace, interval: interval, log: log}
}

// Run blocks until ctx is done. It sweeps on a ticker and additionally wakes
// up (debounced by the next tick) when the media root changes.
func (s *Sweeper) Run(ctx context.Context) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		s.log.Warn("sweeper: fsnotify unavailable, falling back to ticker only", zap.Error(err))
	} else {
		defer w.Close()
		if err := w.Add(s.root); err != nil {
			s.log.Warn("sweeper: cannot watch media root", zap.String("root", s.root), zap.Error(err))
		}
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	dirty := true // sweep once at startup
	for {
		var events chan fsnotify.Event
		var errs chan error
		if w != nil {
			events = w.Events
			errs = w.Errors
		}
		select {
		case <-ctx.Done():
			return
		case <-events:
			// just mark; the actual sweep waits for the next tick so we
			// never race a directory that is still being written
			dirty = true
		case err := <-errs:
			s.log.Warn("sweeper: watch error", zap.Error(err))
		case <-ticker.C:
			if !dirty {
				continue
			}
			dirty = false
			removed, err := s.SweepOnce()
			if err != nil {
				s.log.Error("sweep failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				s.log.Info("swept orphaned asset directories", zap.Int("removed", removed))
			}
		}
	}
}

// SweepOnce scans the media root once and removes orphaned asset directories.
// It returns the number of directories removed.
func (s *Sweeper) SweepOnce() (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, err
	}

	removed := 0
	cutoff := time.Now().Add(-s.grace)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		// only touch directories that look like asset ids; anything else in
		// the media root is not ours to delete
		if _, err := uuid.Parse(e.Name()); err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		var count int64
		if err := s.db.Model(&models.ImageAsset{}).Where("id = ?", e.Name()).Count(&count).Error; err != nil {
			return removed, err
		}
		if count > 0 {
			continue
		}

		dir := filepath.Join(s.root, e.Name())
		if err := os.RemoveAll(dir); err != nil {
			s.log.Error("sweep: failed to remove orphan directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		s.log.Info("sweep: removed orphan directory", zap.String("dir", dir))
		removed++
	}
	return removed, nil
}

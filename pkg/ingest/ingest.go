package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"duet/models"
)

// Config is the pipeline's injected configuration. The media root is a
// constructor parameter, never read from process-wide state inside helpers,
// so tests can point a pipeline at a temporary directory.
type Config struct {
	MediaRoot    string
	LargeMax     int
	SmallMax     int
	JPEGQuality  int
	ThumbQuality int
}

// Upload describes one inbound file handed to the pipeline after request
// validation has already accepted it.
type Upload struct {
	// TempPath is the temporary upload artifact on disk. Its lifetime is
	// bounded to one ingestion attempt: the pipeline removes it on both the
	// success and failure paths.
	TempPath     string
	OriginalName string

	CoupleID   uint
	UploaderID uint
	MemoryID   *uint

	// TypeTag overrides the extractor's fallback tag when it is a known
	// value; unknown or empty tags fall back silently.
	TypeTag string
	// TakenAt overrides the extracted capture timestamp when non-nil.
	TakenAt *time.Time
}

// recordWriter persists the ImageAsset row. It is an interface so tests can
// fail the insert after all files are written.
type recordWriter interface {
	insert(ctx context.Context, asset *models.ImageAsset) error
}

type gormRecordWriter struct {
	db *gorm.DB
}

func (w gormRecordWriter) insert(ctx context.Context, asset *models.ImageAsset) error {
	return w.db.WithContext(ctx).Create(asset).Error
}

// Pipeline ingests uploaded photos: normalize format, generate derivatives,
// extract metadata, write files under a per-asset directory and insert one
// row. Every asset lives under a directory named by its generated UUID, so
// concurrent ingestions cannot collide without any locking.
type Pipeline struct {
	db  *gorm.DB
	rec recordWriter
	cfg Config
	log *zap.Logger
}

func New(db *gorm.DB, cfg Config, log *zap.Logger) *Pipeline {
	return &Pipeline{
		db:  db,
		rec: gormRecordWriter{db: db},
		cfg: cfg,
		log: log,
	}
}

// Ingest runs the full pipeline for one upload. On any failure after partial
// file writes the per-asset directory is removed entirely; a row is only
// inserted once all four files exist, so the database never references a
// missing file. The returned asset is the inserted row.
func (p *Pipeline) Ingest(ctx context.Context, up Upload) (*models.ImageAsset, error) {
	// the temp artifact never outlives the attempt
	defer os.Remove(up.TempPath)

	ext := ExtensionOf(up.OriginalName)
	// redundant check, handlers validate before calling
	if !AllowedExtension(ext) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}

	raw, err := os.ReadFile(up.TempPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read upload: %v", ErrStorage, err)
	}

	// metadata is best-effort and independent of normalization
	meta := ExtractMetadata(raw)

	normalized, err := Normalize(raw, ext, p.cfg.JPEGQuality)
	if err != nil {
		return nil, err
	}

	large, small, err := Derivatives(normalized, p.cfg.LargeMax, p.cfg.SmallMax, p.cfg.ThumbQuality)
	if err != nil {
		return nil, err
	}

	// received -> original_written -> normalized_written -> derivatives_written
	id := uuid.NewString()
	dir := assetDir(p.cfg.MediaRoot, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: mkdir %s: %v", ErrStorage, dir, err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{originalName(ext), raw},
		{normalizedName, normalized},
		{largeName, large},
		{smallName, small},
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f.name), f.data, 0644); err != nil {
			p.rollback(id, dir)
			return nil, fmt.Errorf("%w: write %s: %v", ErrStorage, f.name, err)
		}
	}

	asset := &models.ImageAsset{
		ID:             id,
		CoupleID:       up.CoupleID,
		UploaderID:     up.UploaderID,
		MemoryID:       up.MemoryID,
		OriginalPath:   filepath.Join(dir, originalName(ext)),
		NormalizedPath: filepath.Join(dir, normalizedName),
		LargePath:      filepath.Join(dir, largeName),
		SmallPath:      filepath.Join(dir, smallName),
		TakenAt:        meta.TakenAt,
		Latitude:       meta.Latitude,
		Longitude:      meta.Longitude,
		Type:           meta.Type,
	}
	if up.TakenAt != nil {
		asset.TakenAt = *up.TakenAt
	}
	if models.ValidImageType(up.TypeTag) {
		asset.Type = up.TypeTag
	}

	// derivatives_written -> persisted; the insert is the visibility gate
	if err := p.rec.insert(ctx, asset); err != nil {
		p.rollback(id, dir)
		return nil, fmt.Errorf("%w: insert asset: %v", ErrPersistence, err)
	}

	p.log.Info("photo ingested",
		zap.String("asset_id", id),
		zap.Uint("couple_id", up.CoupleID),
		zap.String("ext", ext),
		zap.Bool("exif_time", meta.TimeSource == TimeExtracted),
		zap.Bool("gps", meta.Latitude != nil),
	)
	return asset, nil
}

// rollback removes everything written under the per-asset directory. It is
// best effort: a failed rollback is logged, never retried.
func (p *Pipeline) rollback(id, dir string) {
	if err := os.RemoveAll(dir); err != nil {
		p.log.Error("ingestion rollback failed, files orphaned",
			zap.String("asset_id", id),
			zap.String("dir", dir),
			zap.Error(err),
		)
	}
}

// Delete removes an asset: the four referenced files first, then the
// directory, then the database row. A failure while removing files is logged
// and deletion proceeds; that can orphan files (tolerated, the sweeper or an
// operator can reconcile) but never leaves a row referencing missing files
// since the row only disappears after the files do.
func (p *Pipeline) Delete(ctx context.Context, asset *models.ImageAsset) error {
	for _, path := range []string{asset.OriginalPath, asset.NormalizedPath, asset.LargePath, asset.SmallPath} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			p.log.Error("failed to remove asset file",
				zap.String("asset_id", asset.ID),
				zap.String("path", path),
				zap.Error(err),
			)
		}
	}
	dir := assetDir(p.cfg.MediaRoot, asset.ID)
	if err := os.RemoveAll(dir); err != nil {
		p.log.Error("failed to remove asset directory",
			zap.String("asset_id", asset.ID),
			zap.String("dir", dir),
			zap.Error(err),
		)
	}

	if err := p.db.WithContext(ctx).Delete(&models.ImageAsset{}, "id = ?", asset.ID).Error; err != nil {
		return fmt.Errorf("%w: delete asset row: %v", ErrPersistence, err)
	}
	return nil
}

package ingest

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"duet/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.ImageAsset{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestPipeline(t *testing.T) (*Pipeline, *gorm.DB, string) {
	t.Helper()
	db := newTestDB(t)
	root := t.TempDir()
	p := New(db, Config{
		MediaRoot:    root,
		LargeMax:     400,
		SmallMax:     200,
		JPEGQuality:  85,
		ThumbQuality: 75,
	}, zap.NewNop())
	return p, db, root
}

// stageUpload writes data to a temp file outside the media root, the way a
// handler stages a multipart upload before invoking the pipeline.
func stageUpload(t *testing.T, data []byte, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("stage upload: %v", err)
	}
	return path
}

func countRows(t *testing.T, db *gorm.DB, id string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.ImageAsset{}).Where("id = ?", id).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

func TestIngestSuccess(t *testing.T) {
	p, db, root := newTestPipeline(t)
	temp := stageUpload(t, encodeImage(t, 800, 600, imaging.PNG), "beach.png")

	asset, err := p.Ingest(context.Background(), Upload{
		TempPath:     temp,
		OriginalName: "beach.png",
		CoupleID:     1,
		UploaderID:   2,
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	for _, path := range []string{asset.OriginalPath, asset.NormalizedPath, asset.LargePath, asset.SmallPath} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected file %s: %v", path, err)
		}
	}
	dir := filepath.Join(root, asset.ID)
	if asset.OriginalPath != filepath.Join(dir, "original.png") {
		t.Errorf("original path = %s, want under %s", asset.OriginalPath, dir)
	}
	if n := countRows(t, db, asset.ID); n != 1 {
		t.Errorf("rows for asset = %d, want 1", n)
	}
	if _, err := os.Stat(temp); !os.IsNotExist(err) {
		t.Errorf("temp upload still exists after ingestion")
	}
	if asset.Type != models.TypeLandscape {
		t.Errorf("default type = %q, want %q", asset.Type, models.TypeLandscape)
	}
}

func TestIngestExtractsExifMetadata(t *testing.T) {
	p, db, _ := newTestPipeline(t)
	temp := stageUpload(t, jpegWithExif(t, 320, 240), "geotagged.jpg")

	asset, err := p.Ingest(context.Background(), Upload{
		TempPath:     temp,
		OriginalName: "geotagged.jpg",
		CoupleID:     1,
		UploaderID:   1,
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !asset.TakenAt.Equal(fixtureTakenAt) {
		t.Errorf("TakenAt = %v, want extracted %v", asset.TakenAt, fixtureTakenAt)
	}
	if asset.Latitude == nil || asset.Longitude == nil {
		t.Fatalf("coordinates = (%v, %v), want both present", asset.Latitude, asset.Longitude)
	}
	if *asset.Latitude != fixtureLatitude || *asset.Longitude != fixtureLongitude {
		t.Errorf("coordinates = (%v, %v), want (%v, %v)",
			*asset.Latitude, *asset.Longitude, fixtureLatitude, fixtureLongitude)
	}

	var stored models.ImageAsset
	if err := db.First(&stored, "id = ?", asset.ID).Error; err != nil {
		t.Fatalf("load stored row: %v", err)
	}
	if stored.Latitude == nil || stored.Longitude == nil {
		t.Error("stored row lost the extracted coordinates")
	}
}

func TestIngestHEIC(t *testing.T) {
	p, db, root := newTestPipeline(t)
	temp := stageUpload(t, sampleHEIC, "IMG_0042.HEIC")

	asset, err := p.Ingest(context.Background(), Upload{
		TempPath:     temp,
		OriginalName: "IMG_0042.HEIC",
		CoupleID:     1,
		UploaderID:   1,
	})
	if err != nil {
		t.Fatalf("Ingest heic: %v", err)
	}
	if asset.OriginalPath != filepath.Join(root, asset.ID, "original.heic") {
		t.Errorf("original path = %s, want original.heic under the asset dir", asset.OriginalPath)
	}
	for _, path := range []string{asset.NormalizedPath, asset.LargePath, asset.SmallPath} {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
			t.Errorf("%s is not a decodable jpeg: %v", path, err)
		}
	}
	if n := countRows(t, db, asset.ID); n != 1 {
		t.Errorf("rows for asset = %d, want 1", n)
	}
}

func TestIngestCorruptImage(t *testing.T) {
	p, _, root := newTestPipeline(t)
	temp := stageUpload(t, []byte("definitely not a jpeg"), "broken.jpg")

	_, err := p.Ingest(context.Background(), Upload{
		TempPath:     temp,
		OriginalName: "broken.jpg",
		CoupleID:     1,
		UploaderID:   1,
	})
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("Ingest corrupt image: err = %v, want ErrFormat", err)
	}

	entries, rerr := os.ReadDir(root)
	if rerr != nil {
		t.Fatalf("read media root: %v", rerr)
	}
	if len(entries) != 0 {
		t.Errorf("media root has %d entries after failed ingestion, want 0", len(entries))
	}
	if _, err := os.Stat(temp); !os.IsNotExist(err) {
		t.Errorf("temp upload still exists after failed ingestion")
	}
}

func TestIngestUnsupportedExtension(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	temp := stageUpload(t, encodeImage(t, 10, 10, imaging.PNG), "doc.bmp")

	_, err := p.Ingest(context.Background(), Upload{
		TempPath:     temp,
		OriginalName: "doc.bmp",
		CoupleID:     1,
		UploaderID:   1,
	})
	if !errors.Is(err, ErrUnsupportedExtension) {
		t.Fatalf("err = %v, want ErrUnsupportedExtension", err)
	}
}

func TestIngestStorageFailure(t *testing.T) {
	db := newTestDB(t)
	// a regular file where the media root's parent should be makes every
	// MkdirAll under it fail, regardless of the uid running the tests
	blocker := filepath.Join(t.TempDir(), "media")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	p := New(db, Config{
		MediaRoot:    filepath.Join(blocker, "assets"),
		LargeMax:     400,
		SmallMax:     200,
		JPEGQuality:  85,
		ThumbQuality: 75,
	}, zap.NewNop())
	temp := stageUpload(t, encodeImage(t, 50, 50, imaging.PNG), "pic.png")

	_, err := p.Ingest(context.Background(), Upload{
		TempPath:     temp,
		OriginalName: "pic.png",
		CoupleID:     1,
		UploaderID:   1,
	})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("err = %v, want ErrStorage", err)
	}
	var total int64
	db.Model(&models.ImageAsset{}).Count(&total)
	if total != 0 {
		t.Errorf("asset rows = %d after storage failure, want 0", total)
	}
	if _, err := os.Stat(temp); !os.IsNotExist(err) {
		t.Errorf("temp upload still exists after storage failure")
	}
}

type failingWriter struct{}

func (failingWriter) insert(ctx context.Context, asset *models.ImageAsset) error {
	return errors.New("insert rejected")
}

func TestIngestInsertFailureRollsBackFiles(t *testing.T) {
	p, db, root := newTestPipeline(t)
	p.rec = failingWriter{}
	temp := stageUpload(t, encodeImage(t, 640, 480, imaging.JPEG), "pic.jpg")

	_, err := p.Ingest(context.Background(), Upload{
		TempPath:     temp,
		OriginalName: "pic.jpg",
		CoupleID:     1,
		UploaderID:   1,
	})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}

	entries, rerr := os.ReadDir(root)
	if rerr != nil {
		t.Fatalf("read media root: %v", rerr)
	}
	if len(entries) != 0 {
		t.Errorf("media root has %d entries after insert failure, want 0", len(entries))
	}
	var total int64
	db.Model(&models.ImageAsset{}).Count(&total)
	if total != 0 {
		t.Errorf("asset rows = %d after insert failure, want 0", total)
	}
}

func TestIngestOverrides(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	temp := stageUpload(t, encodeImage(t, 100, 100, imaging.JPEG), "us.jpg")

	takenAt := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	asset, err := p.Ingest(context.Background(), Upload{
		TempPath:     temp,
		OriginalName: "us.jpg",
		CoupleID:     1,
		UploaderID:   1,
		TypeTag:      models.TypeCouple,
		TakenAt:      &takenAt,
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !asset.TakenAt.Equal(takenAt) {
		t.Errorf("TakenAt = %v, want override %v", asset.TakenAt, takenAt)
	}
	if asset.Type != models.TypeCouple {
		t.Errorf("Type = %q, want %q", asset.Type, models.TypeCouple)
	}

	// an unknown tag falls back instead of failing
	temp2 := stageUpload(t, encodeImage(t, 100, 100, imaging.JPEG), "us2.jpg")
	asset2, err := p.Ingest(context.Background(), Upload{
		TempPath:     temp2,
		OriginalName: "us2.jpg",
		CoupleID:     1,
		UploaderID:   1,
		TypeTag:      "panorama",
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if asset2.Type != models.TypeLandscape {
		t.Errorf("Type = %q, want fallback %q", asset2.Type, models.TypeLandscape)
	}
}

func TestDeleteRemovesFilesAndRow(t *testing.T) {
	p, db, root := newTestPipeline(t)
	temp := stageUpload(t, encodeImage(t, 300, 300, imaging.PNG), "old.png")

	asset, err := p.Ingest(context.Background(), Upload{
		TempPath:     temp,
		OriginalName: "old.png",
		CoupleID:     1,
		UploaderID:   1,
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if err := p.Delete(context.Background(), asset); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, asset.ID)); !os.IsNotExist(err) {
		t.Errorf("asset directory still exists after delete")
	}
	if n := countRows(t, db, asset.ID); n != 0 {
		t.Errorf("rows for asset = %d after delete, want 0", n)
	}
}

func TestDeleteToleratesMissingFiles(t *testing.T) {
	p, db, _ := newTestPipeline(t)
	temp := stageUpload(t, encodeImage(t, 300, 300, imaging.PNG), "gone.png")

	asset, err := p.Ingest(context.Background(), Upload{
		TempPath:     temp,
		OriginalName: "gone.png",
		CoupleID:     1,
		UploaderID:   1,
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if err := os.Remove(asset.NormalizedPath); err != nil {
		t.Fatalf("remove file: %v", err)
	}

	if err := p.Delete(context.Background(), asset); err != nil {
		t.Fatalf("Delete with missing file: %v", err)
	}
	if n := countRows(t, db, asset.ID); n != 0 {
		t.Errorf("rows for asset = %d after delete, want 0", n)
	}
}

package ingest

import "path/filepath"

// Fixed file names inside a per-asset directory. The original keeps its
// source extension; everything else is canonical JPEG.
const (
	normalizedName = "normalized.jpg"
	largeName      = "large.jpg"
	smallName      = "small.jpg"
	originalBase   = "original"
)

// assetDir is the single place that maps an asset identifier to its storage
// directory. A future move to sharded or content-addressed layout only has to
// touch this function.
func assetDir(root, id string) string {
	return filepath.Join(root, id)
}

func originalName(ext string) string {
	return originalBase + "." + ext
}

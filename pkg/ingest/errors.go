package ingest

import "errors"

// Internal error taxonomy. Handlers collapse all of these into one opaque
// ingestion failure for the client; the distinction only matters for
// server-side logs and tests.
var (
	// ErrUnsupportedExtension is a validation failure: the upload never
	// enters the pipeline and no side effects occur.
	ErrUnsupportedExtension = errors.New("unsupported file extension")

	// ErrFormat covers corrupt buffers, failed HEIC conversion and
	// unsupported codec paths.
	ErrFormat = errors.New("image format error")

	// ErrStorage covers directory creation and file write failures.
	ErrStorage = errors.New("storage error")

	// ErrPersistence covers database insert failures after all files are
	// written; cleanup still runs so no orphaned file set remains.
	ErrPersistence = errors.New("persistence error")
)

package internalerr

import "errors"

// Sentinel errors shared by training and serving. Callers wrap them with the
// concrete cause, e.g. fmt.Errorf("%w: column %q missing", ErrDataFormat, c).
var (
	// ErrDataFormat: malformed corpus, missing columns, out-of-enum labels.
	ErrDataFormat = errors.New("data format error")

	// ErrDataInsufficient: a class has no training examples or the corpus is
	// too small for the vocabulary thresholds.
	ErrDataInsufficient = errors.New("insufficient data")

	// ErrNotReady: transform or predict called before fit or load.
	ErrNotReady = errors.New("not ready")

	// ErrBundleLoad: artifact missing, corrupt, or its halves do not match.
	ErrBundleLoad = errors.New("bundle load error")

	// ErrInvalidInput is never surfaced by inference; non-text input is
	// recovered as empty text. Other packages use it for API misuse.
	ErrInvalidInput = errors.New("invalid input")

	ErrInvalidConfig = errors.New("invalid configuration")
	ErrNotFound      = errors.New("not found")
)

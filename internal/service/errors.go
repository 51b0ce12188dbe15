package service

import "errors"

// Pipeline error taxonomy. Handlers translate these with errors.Is; the
// pipeline wraps them with request context via fmt.Errorf and %w.
var (
	// ErrNotConfigured means a required external credential is missing; only
	// the affected capability is unavailable, not the whole process.
	ErrNotConfigured = errors.New("capability not configured")

	// ErrInference means the inference or embedding provider errored or kept
	// returning unparseable output after bounded retries.
	ErrInference = errors.New("inference service error")

	// ErrValidation means a required request field is missing or empty.
	ErrValidation = errors.New("invalid request")

	// ErrDataNotReady means the requested model has no ingested rows yet.
	ErrDataNotReady = errors.New("model has no ingested elements")

	// ErrQueryConstruction means an inference step omitted a field its task
	// requires (e.g. distinct without a target attribute).
	ErrQueryConstruction = errors.New("inference produced an incomplete query")
)

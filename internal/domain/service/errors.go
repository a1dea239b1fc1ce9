package service

import "errors"

// Error kinds surfaced by the scoring engine. Transports map these onto their own
// status codes with errors.Is and must not invent new kinds.
var (
	// ErrNotReady means the model-based scorer was called before its model was loaded.
	ErrNotReady = errors.New("scorer not ready")

	// ErrInitialization means the tokenizer or model could not be loaded. It is fatal.
	ErrInitialization = errors.New("scorer initialization failed")

	// ErrPrediction means tokenization or inference failed for a single input.
	ErrPrediction = errors.New("prediction failed")

	// ErrValidationViolation means a scorer produced a result that breaks the
	// distribution invariants. It indicates a scorer bug.
	ErrValidationViolation = errors.New("classification invariant violated")
)

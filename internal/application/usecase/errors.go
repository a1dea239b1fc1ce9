package usecase

import "errors"

// ErrInvalidRequest reports malformed input rejected before it reaches the engine.
var ErrInvalidRequest = errors.New("invalid request")

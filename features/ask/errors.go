package ask

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyQuestion  = errors.New("question must not be empty")
	ErrEmptySelection = errors.New("at least one document or link must be selected")
	ErrEmptyScope     = errors.New("no content for this selection")
)

// UpstreamError marks a failure in an external model call so the
// handler can answer 502 instead of 500.
type UpstreamError struct {
	Service string // "embedding" or "generation"
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream failed: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

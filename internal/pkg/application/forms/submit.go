package forms

import (
	"context"
	"errors"
	"sync"
)

var ErrSubmitInFlight = errors.New("a submit is already in flight")

// Submitter gates a form's submit action so a second tap while a request is
// in flight does nothing. Server rejections come back unchanged: when the
// error is a field-level *client.ApiError its message is surfaced verbatim by
// the caller.
type Submitter struct {
	mu       sync.Mutex
	inFlight bool
}

func (s *Submitter) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrSubmitInFlight
	}
	s.inFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	return fn(ctx)
}

func (s *Submitter) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuestion is returned by Submit when the pending question is
	// empty or whitespace only.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrSubmitInFlight is returned by Submit while another submission is
	// outstanding. State is left untouched.
	ErrSubmitInFlight = errors.New("a submission is already in flight")

	// ErrClosed is returned by Submit after Close, and for a submission whose
	// response arrived after Close.
	ErrClosed = errors.New("conversation closed")
)

// ServiceError wraps any failure of the answer service: transport errors,
// non-success statuses, unreadable responses, timeouts.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("answer service: %v", e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text shown to the user for any service failure.
func (e *ServiceError) UserMessage() string {
	return MsgServiceFailure
}

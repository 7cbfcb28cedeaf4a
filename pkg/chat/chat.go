// Package chat holds the conversation state for a single chat session and
// orchestrates the one outbound call that turns a question into an answer.
package chat

import (
	"context"
	"time"
)

// User-facing messages.
const (
	MsgEmptyQuestion  = "Please enter a question"
	MsgServiceFailure = "Failed to fetch the answer. Please try again."

	// NoAnswer is recorded as the answer when the service response carries no text.
	NoAnswer = "No answer found"
)

// DefaultTimeout bounds a single answer-generation call.
const DefaultTimeout = 60 * time.Second

// ChatTurn is one completed question/answer pair. Turns are immutable once
// appended to the history.
type ChatTurn struct {
	// ID is the transcript hash of the turn, chained to the turn before it.
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// State is a point-in-time copy of the conversation.
type State struct {
	// PendingQuestion is the input that has not been submitted yet.
	PendingQuestion string

	// History is every completed turn, oldest first.
	History []ChatTurn

	// IsLoading is true while an answer-generation call is outstanding.
	IsLoading bool

	// LastError is the user-facing message of the last rejected or failed
	// submission. Empty when there is none.
	LastError string

	// LastAnswer is the answer text of the most recent successful submission.
	LastAnswer string
}

// AnswerService turns a prompt into answer text.
// An empty answer with a nil error means the service produced no text.
type AnswerService interface {
	GenerateAnswer(ctx context.Context, prompt string) (string, error)
}

// AnswerFunc adapts a function to an AnswerService.
type AnswerFunc func(ctx context.Context, prompt string) (string, error)

// GenerateAnswer calls f.
func (f AnswerFunc) GenerateAnswer(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type requestIDKey struct{}

// WithRequestID returns a context carrying the submission's request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id set by the controller, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}

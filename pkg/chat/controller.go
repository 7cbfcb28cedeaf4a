package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatbox/pkg/transcript"
)

// Controller owns the conversation state and is its only writer.
// All methods are safe for concurrent use; at most one submission is in
// flight at a time and a concurrent Submit is rejected with ErrSubmitInFlight.
type Controller struct {
	service AnswerService
	logger  *zap.Logger
	timeout time.Duration

	// base is cancelled by Close so an outstanding call is abandoned.
	base   context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	pending    string
	history    *transcript.Log
	loading    bool
	lastError  string
	lastAnswer string
	closed     bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for diagnostic traces.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimeout bounds each answer-generation call. Non-positive values keep
// DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewController creates a Controller backed by the given answer service.
func NewController(service AnswerService, opts ...Option) *Controller {
	base, cancel := context.WithCancel(context.Background())

	c := &Controller{
		service: service,
		logger:  zap.NewNop(),
		timeout: DefaultTimeout,
		base:    base,
		cancel:  cancel,
		history: transcript.NewLog(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// UpdateQuestion overwrites the pending question. It is not validated here and
// may be called while a submission is in flight.
func (c *Controller) UpdateQuestion(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = text
}

// Submit sends the pending question to the answer service and waits for the
// result.
//
// On success the turn is appended to the history, the pending question is
// cleared and the answer is returned. A response without answer text is
// recorded as NoAnswer. On failure the returned error is a *ServiceError,
// LastError is set to MsgServiceFailure and the pending question is kept.
// An empty question returns ErrEmptyQuestion without calling the service.
func (c *Controller) Submit(ctx context.Context) (string, error) {
	prompt, requestID, err := c.begin()
	if err != nil {
		return "", err
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()
	callCtx = WithRequestID(callCtx, requestID)

	c.logger.Debug("submitting question",
		zap.String("request_id", requestID),
		zap.Int("prompt_len", len(prompt)),
	)

	start := time.Now()
	answer, callErr := c.call(callCtx, prompt)

	return c.finish(requestID, prompt, answer, callErr, time.Since(start))
}

// begin applies the Idle -> Submitting transition.
func (c *Controller) begin() (prompt, requestID string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed:
		return "", "", ErrClosed
	case c.loading:
		return "", "", ErrSubmitInFlight
	case strings.TrimSpace(c.pending) == "":
		c.lastError = MsgEmptyQuestion
		c.logger.Debug("rejected empty question")
		return "", "", ErrEmptyQuestion
	}

	c.lastError = ""
	c.loading = true

	return c.pending, uuid.NewString(), nil
}

// finish applies the Submitting -> Idle transition for both outcomes.
func (c *Controller) finish(requestID, prompt, answer string, callErr error, elapsed time.Duration) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.logger.Debug("discarding response after close",
			zap.String("request_id", requestID),
			zap.Bool("failed", callErr != nil),
		)
		return "", ErrClosed
	}

	c.loading = false

	if callErr != nil {
		c.lastError = MsgServiceFailure
		c.logger.Error("error fetching answer",
			zap.String("request_id", requestID),
			zap.Duration("duration", elapsed),
			zap.Error(callErr),
		)
		return "", &ServiceError{Err: callErr}
	}

	if answer == "" {
		answer = NoAnswer
	}

	entry := c.history.Append(prompt, answer)
	c.pending = ""
	c.lastAnswer = answer

	c.logger.Debug("answer received",
		zap.String("request_id", requestID),
		zap.String("turn", entry.Hash),
		zap.Int("history_len", c.history.Len()),
		zap.Duration("duration", elapsed),
	)

	return answer, nil
}

// call invokes the service, turning a panic into an ordinary failure so it
// never escapes the submission boundary.
func (c *Controller) call(ctx context.Context, prompt string) (answer string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("answer service panicked: %v", r)
		}
	}()

	return c.service.GenerateAnswer(ctx, prompt)
}

// callContext derives the context for one service call: bounded by the
// timeout and cancelled by either the caller or Close.
func (c *Controller) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	stop := context.AfterFunc(c.base, cancel)

	return callCtx, func() {
		stop()
		cancel()
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.history.Entries()
	history := make([]ChatTurn, len(entries))
	for i, e := range entries {
		history[i] = ChatTurn{ID: e.Hash, Question: e.Question, Answer: e.Answer}
	}

	return State{
		PendingQuestion: c.pending,
		History:         history,
		IsLoading:       c.loading,
		LastError:       c.lastError,
		LastAnswer:      c.lastAnswer,
	}
}

// Close tears the conversation down. An outstanding call is cancelled and its
// response, if one still arrives, is discarded. Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.loading = false
	c.mu.Unlock()

	c.cancel()
}

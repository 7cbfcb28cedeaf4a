// Package gemini is the answer service client for the generative-language
// generateContent REST endpoint.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatbox/pkg/chat"
	"github.com/papercomputeco/chatbox/pkg/llm"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-1.5-flash-latest"
	DefaultTimeout = 60 * time.Second

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 8 << 20
)

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("gemini: API key is not configured")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string

	// Detail is the decoded API error payload, when the body carried one.
	Detail *llm.ErrorDetail
}

func (e *StatusError) Error() string {
	if e.Detail != nil && e.Detail.Message != "" {
		return fmt.Sprintf("gemini returned %d %s: %s", e.StatusCode, e.Detail.Status, e.Detail.Message)
	}
	return fmt.Sprintf("gemini returned %d: %s", e.StatusCode, truncate(e.Body, 200))
}

// Client calls models/{model}:generateContent with a query-string API key.
type Client struct {
	config     Config
	endpoint   *url.URL
	logger     *zap.Logger
	httpClient *http.Client
}

var _ chat.AnswerService = (*Client)(nil)

// New creates a Client. Empty BaseURL, Model and Timeout take their defaults.
func New(config Config, logger *zap.Logger) (*Client, error) {
	config = config.withDefaults()

	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	endpoint, err := url.Parse(strings.TrimRight(config.BaseURL, "/") + "/models/" + config.Model + ":generateContent")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", config.BaseURL, err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config:   config,
		endpoint: endpoint,
		logger:   logger,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// Endpoint returns the request URL without the API key.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.config.Model
}

// GenerateAnswer sends prompt as a single-turn request and returns the text of
// the first part of the first candidate. It returns "" and a nil error when the
// response carries no answer text.
func (c *Client) GenerateAnswer(ctx context.Context, prompt string) (string, error) {
	requestID, ok := chat.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
	}

	reqBody, err := json.Marshal(llm.NewTextRequest(prompt, c.config.Generation))
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	c.logger.Debug("sending generateContent request",
		zap.String("request_id", requestID),
		zap.String("url", c.Endpoint()),
		zap.Int("body_size", len(reqBody)),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.requestURL(), bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", c.redact(err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("do request: %w", c.redact(err))
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", c.redact(err))
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: httpResp.StatusCode, Body: string(body)}
		if detail, ok := llm.ParseError(body); ok {
			statusErr.Detail = &detail
		}
		return "", statusErr
	}

	answer, found, err := llm.ExtractAnswer(body)
	if err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if !found {
		c.logger.Warn("response carried no answer text",
			zap.String("request_id", requestID),
			zap.String("finish_reason", llm.FinishReason(body)),
		)
		return "", nil
	}

	c.logger.Debug("received generateContent response",
		zap.String("request_id", requestID),
		zap.String("finish_reason", llm.FinishReason(body)),
		zap.String("content_preview", truncate(answer, 100)),
		zap.Duration("duration", time.Since(start)),
	)

	return answer, nil
}

func (c *Client) requestURL() string {
	u := *c.endpoint
	q := u.Query()
	q.Set("key", c.config.APIKey)
	u.RawQuery = q.Encode()
	return u.String()
}

// redact strips the API key from errors that embed the request URL.
func (c *Client) redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &url.Error{Op: urlErr.Op, URL: c.Endpoint(), Err: urlErr.Err}
	}
	return err
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

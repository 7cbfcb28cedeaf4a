package chatui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/chatbox/pkg/chat"
)

// RunLines drives the controller from line-oriented input, for pipes and dumb
// terminals. Each line is one question. It returns nil on EOF or when ctx is
// cancelled, and closes the controller on return.
func RunLines(ctx context.Context, ctrl *chat.Controller, in io.Reader, out io.Writer, logger *zap.Logger) error {
	defer ctrl.Close()

	if logger == nil {
		logger = zap.NewNop()
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lines := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		defer close(lines)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimRight(scanner.Text(), "\r"):
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errCh <- err
		}
	}()

	for {
		var line string
		var ok bool

		select {
		case <-ctx.Done():
			return nil
		case line, ok = <-lines:
		}

		if !ok {
			select {
			case err := <-errCh:
				return fmt.Errorf("reading input: %w", err)
			default:
				return nil
			}
		}

		ctrl.UpdateQuestion(line)
		answer, err := ctrl.Submit(ctx)
		switch {
		case err == nil:
			fmt.Fprintln(out, answer)
		case errors.Is(err, chat.ErrClosed):
			return nil
		default:
			logger.Debug("submission failed", zap.Error(err))
			if msg := ctrl.Snapshot().LastError; msg != "" {
				fmt.Fprintf(out, "! %s\n", msg)
			}
		}
	}
}

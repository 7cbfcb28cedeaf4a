package askcmder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatbox/cmd/chatbox/session"
)

const askLongDesc string = `Ask a single question and print the answer.

The question is sent on its own, with no earlier turns. On failure the
user-facing message is printed and the command exits non-zero.

Examples:
  chatbox ask "What is 2+2?"
  chatbox ask --model gemini-1.5-pro explain goroutines in one sentence`

const askShortDesc string = "Ask one question"

type askCommander struct {
	flags *session.Flags
}

func NewAskCmd(flags *session.Flags) *cobra.Command {
	cmder := &askCommander{flags: flags}

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, strings.Join(args, " "))
		},
	}

	return cmd
}

func (c *askCommander) run(ctx context.Context, cmd *cobra.Command, question string) error {
	s, err := session.Open(cmd, c.flags, false)
	if err != nil {
		return err
	}
	defer s.Close()

	s.Controller.UpdateQuestion(question)

	answer, err := s.Controller.Submit(ctx)
	if err != nil {
		if msg := s.Controller.Snapshot().LastError; msg != "" {
			return errors.New(msg)
		}
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}

package rootcmder

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/chatbox/cmd/chatbox/askcmder"
	"github.com/papercomputeco/chatbox/cmd/chatbox/session"
	"github.com/papercomputeco/chatbox/pkg/chatui"
)

const rootLongDesc string = `Chat with a generative-language model from the terminal.

Type a question and press Enter. Each answer is appended to the transcript
below the question that produced it. The transcript lives only as long as the
session. When input is not a terminal, each line read is one question.

The API key is read from CHATBOX_API_KEY or GEMINI_API_KEY (a .env file in
the working directory is loaded first), or from api_key in the config file.

Examples:
  chatbox
  echo "What is 2+2?" | chatbox
  chatbox --model gemini-1.5-pro --log-file /tmp/chatbox.log`

const rootShortDesc string = "Terminal chat for a generative-language model"

type rootCommander struct {
	flags session.Flags
	plain bool
	style string
}

func NewRootCmd() *cobra.Command {
	cmder := &rootCommander{}

	cmd := &cobra.Command{
		Use:          "chatbox",
		Short:        rootShortDesc,
		Long:         rootLongDesc,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmder.flags.Register(cmd)
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Read questions line by line instead of showing the full-screen UI")
	cmd.Flags().StringVar(&cmder.style, "style", "", "Markdown style for answers (dark, light, notty, ...)")

	cmd.AddCommand(askcmder.NewAskCmd(&cmder.flags))

	return cmd
}

func (c *rootCommander) run(ctx context.Context, cmd *cobra.Command) error {
	in, out := cmd.InOrStdin(), cmd.OutOrStdout()
	fullScreen := !c.plain && isTerminal(in) && isTerminal(out)

	s, err := session.Open(cmd, &c.flags, fullScreen)
	if err != nil {
		return err
	}
	defer s.Close()

	if !fullScreen {
		return chatui.RunLines(ctx, s.Controller, in, out, s.Logger)
	}

	style := c.style
	if style == "" {
		style = s.Config.Style
	}

	return chatui.Run(ctx, s.Controller, chatui.Options{
		Style:  style,
		Status: s.Client.Model(),
		Logger: s.Logger,
	}, in, out)
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

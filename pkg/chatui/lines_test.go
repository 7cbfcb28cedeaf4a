package chatui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatbox/pkg/chat"
)

var _ = Describe("RunLines", func() {
	It("answers one question per line", func() {
		ctrl := chat.NewController(chat.AnswerFunc(func(_ context.Context, prompt string) (string, error) {
			switch prompt {
			case "A":
				return "answer A", nil
			case "broken":
				return "", errors.New("boom")
			}
			return "", nil
		}))
		in := strings.NewReader("A\r\n\nbroken\nunknown\n")
		var out bytes.Buffer

		err := RunLines(context.Background(), ctrl, in, &out, nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(out.String()).To(Equal(strings.Join([]string{
			"answer A",
			"! " + chat.MsgEmptyQuestion,
			"! " + chat.MsgServiceFailure,
			chat.NoAnswer,
			"",
		}, "\n")))

		history := ctrl.Snapshot().History
		Expect(history).To(HaveLen(2))
		Expect(history[0].Question).To(Equal("A"))
		Expect(history[1].Question).To(Equal("unknown"))
	})

	It("returns when the context is cancelled", func() {
		ctrl := chat.NewController(chat.AnswerFunc(func(context.Context, string) (string, error) {
			return "never", nil
		}))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// A reader that never yields a line.
		pr, pw := io.Pipe()
		defer pw.Close()

		Expect(RunLines(ctx, ctrl, pr, &bytes.Buffer{}, nil)).To(Succeed())
	})
})

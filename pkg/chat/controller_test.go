package chat_test

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatbox/pkg/chat"
)

// stubService answers from a fixed map and counts calls.
type stubService struct {
	answers map[string]string
	err     error
	calls   atomic.Int32
	prompts []string
}

func (s *stubService) GenerateAnswer(_ context.Context, prompt string) (string, error) {
	s.calls.Add(1)
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.answers[prompt], nil
}

var _ = Describe("Controller", func() {
	var (
		ctx  context.Context
		svc  *stubService
		ctrl *chat.Controller
	)

	BeforeEach(func() {
		ctx = context.Background()
		svc = &stubService{answers: map[string]string{}}
		ctrl = chat.NewController(svc)
	})

	AfterEach(func() {
		ctrl.Close()
	})

	It("starts idle with an empty conversation", func() {
		state := ctrl.Snapshot()

		Expect(state.PendingQuestion).To(BeEmpty())
		Expect(state.History).To(BeEmpty())
		Expect(state.IsLoading).To(BeFalse())
		Expect(state.LastError).To(BeEmpty())
	})

	Describe("UpdateQuestion", func() {
		It("overwrites the pending question without validating it", func() {
			ctrl.UpdateQuestion("draft")
			ctrl.UpdateQuestion("")

			Expect(ctrl.Snapshot().PendingQuestion).To(BeEmpty())
			Expect(ctrl.Snapshot().LastError).To(BeEmpty())
		})
	})

	Describe("Submit", func() {
		DescribeTable("rejects empty input without calling the service",
			func(input string) {
				ctrl.UpdateQuestion(input)

				_, err := ctrl.Submit(ctx)

				Expect(err).To(MatchError(chat.ErrEmptyQuestion))
				state := ctrl.Snapshot()
				Expect(state.History).To(BeEmpty())
				Expect(state.LastError).To(Equal(chat.MsgEmptyQuestion))
				Expect(state.IsLoading).To(BeFalse())
				Expect(state.PendingQuestion).To(Equal(input))
				Expect(svc.calls.Load()).To(BeZero())
			},
			Entry("empty string", ""),
			Entry("spaces", "   "),
			Entry("mixed whitespace", " \t\n\r "),
		)

		It("records a successful turn", func() {
			svc.answers["What is 2+2?"] = "4"
			ctrl.UpdateQuestion("What is 2+2?")

			answer, err := ctrl.Submit(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(Equal("4"))
			state := ctrl.Snapshot()
			Expect(state.History).To(HaveLen(1))
			Expect(state.History[0].Question).To(Equal("What is 2+2?"))
			Expect(state.History[0].Answer).To(Equal("4"))
			Expect(state.History[0].ID).To(HaveLen(64))
			Expect(state.PendingQuestion).To(BeEmpty())
			Expect(state.LastError).To(BeEmpty())
			Expect(state.LastAnswer).To(Equal("4"))
			Expect(state.IsLoading).To(BeFalse())
		})

		It("sends the question verbatim", func() {
			ctrl.UpdateQuestion("  padded question  ")

			_, err := ctrl.Submit(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(svc.prompts).To(Equal([]string{"  padded question  "}))
		})

		It("falls back to the no-answer text without setting an error", func() {
			ctrl.UpdateQuestion("unanswerable")

			answer, err := ctrl.Submit(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(Equal(chat.NoAnswer))
			state := ctrl.Snapshot()
			Expect(state.History).To(HaveLen(1))
			Expect(state.History[0].Answer).To(Equal(chat.NoAnswer))
			Expect(state.LastError).To(BeEmpty())
		})

		It("keeps the question and history on failure", func() {
			svc.answers["A"] = "first"
			ctrl.UpdateQuestion("A")
			_, err := ctrl.Submit(ctx)
			Expect(err).NotTo(HaveOccurred())

			cause := errors.New("connection refused")
			svc.err = cause
			ctrl.UpdateQuestion("B")

			_, err = ctrl.Submit(ctx)

			var svcErr *chat.ServiceError
			Expect(errors.As(err, &svcErr)).To(BeTrue())
			Expect(err).To(MatchError(cause))
			Expect(svcErr.UserMessage()).To(Equal(chat.MsgServiceFailure))

			state := ctrl.Snapshot()
			Expect(state.History).To(HaveLen(1))
			Expect(state.LastError).To(Equal(chat.MsgServiceFailure))
			Expect(state.PendingQuestion).To(Equal("B"))
			Expect(state.IsLoading).To(BeFalse())
		})

		It("clears the previous error when a new attempt starts", func() {
			ctrl.UpdateQuestion(" ")
			_, _ = ctrl.Submit(ctx)
			Expect(ctrl.Snapshot().LastError).To(Equal(chat.MsgEmptyQuestion))

			ctrl.UpdateQuestion("retry")
			_, err := ctrl.Submit(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(ctrl.Snapshot().LastError).To(BeEmpty())
		})

		It("lets the user retry a failed question without retyping", func() {
			svc.err = errors.New("boom")
			ctrl.UpdateQuestion("flaky")
			_, err := ctrl.Submit(ctx)
			Expect(err).To(HaveOccurred())

			svc.err = nil
			svc.answers["flaky"] = "recovered"
			answer, err := ctrl.Submit(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(Equal("recovered"))
			Expect(ctrl.Snapshot().History).To(HaveLen(1))
		})

		It("appends turns in submission order", func() {
			svc.answers["A"] = "answer A"
			svc.answers["B"] = "answer B"

			ctrl.UpdateQuestion("A")
			_, err := ctrl.Submit(ctx)
			Expect(err).NotTo(HaveOccurred())
			ctrl.UpdateQuestion("B")
			_, err = ctrl.Submit(ctx)
			Expect(err).NotTo(HaveOccurred())

			history := ctrl.Snapshot().History
			Expect(history).To(HaveLen(2))
			Expect(history[0]).To(matchTurn("A", "answer A"))
			Expect(history[1]).To(matchTurn("B", "answer B"))
		})

		It("does not deduplicate repeated questions", func() {
			svc.answers["same"] = "again"
			for i := 0; i < 3; i++ {
				ctrl.UpdateQuestion("same")
				_, err := ctrl.Submit(ctx)
				Expect(err).NotTo(HaveOccurred())
			}

			Expect(ctrl.Snapshot().History).To(HaveLen(3))
		})

		It("returns copies of the history", func() {
			svc.answers["A"] = "1"
			ctrl.UpdateQuestion("A")
			_, _ = ctrl.Submit(ctx)

			state := ctrl.Snapshot()
			state.History[0].Answer = "changed"

			Expect(ctrl.Snapshot().History[0].Answer).To(Equal("1"))
		})

		It("turns a panicking service into a failure", func() {
			ctrl = chat.NewController(chat.AnswerFunc(func(context.Context, string) (string, error) {
				panic("unexpected payload")
			}))
			ctrl.UpdateQuestion("explode")

			_, err := ctrl.Submit(ctx)

			Expect(err).To(MatchError(ContainSubstring("unexpected payload")))
			Expect(ctrl.Snapshot().LastError).To(Equal(chat.MsgServiceFailure))
			Expect(ctrl.Snapshot().IsLoading).To(BeFalse())
		})

		It("passes a request id to the service", func() {
			var got string
			ctrl = chat.NewController(chat.AnswerFunc(func(ctx context.Context, _ string) (string, error) {
				got, _ = chat.RequestIDFromContext(ctx)
				return "ok", nil
			}))
			ctrl.UpdateQuestion("id please")

			_, err := ctrl.Submit(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(got).NotTo(BeEmpty())
		})
	})

	Describe("loading flag", func() {
		It("is set for the whole call and cleared afterwards", func() {
			var during []bool
			ctrl = chat.NewController(chat.AnswerFunc(func(context.Context, string) (string, error) {
				during = append(during, ctrl.Snapshot().IsLoading)
				return "", errors.New("fails")
			}))

			ctrl.UpdateQuestion("first")
			Expect(ctrl.Snapshot().IsLoading).To(BeFalse())
			_, _ = ctrl.Submit(ctx)
			Expect(ctrl.Snapshot().IsLoading).To(BeFalse())

			ctrl = chat.NewController(chat.AnswerFunc(func(context.Context, string) (string, error) {
				during = append(during, ctrl.Snapshot().IsLoading)
				return "done", nil
			}))
			ctrl.UpdateQuestion("second")
			_, _ = ctrl.Submit(ctx)
			Expect(ctrl.Snapshot().IsLoading).To(BeFalse())

			Expect(during).To(Equal([]bool{true, true}))
		})
	})

	Describe("concurrent submissions", func() {
		var (
			release chan struct{}
			started chan struct{}
		)

		BeforeEach(func() {
			release = make(chan struct{})
			started = make(chan struct{}, 1)
			ctrl = chat.NewController(chat.AnswerFunc(func(ctx context.Context, prompt string) (string, error) {
				started <- struct{}{}
				select {
				case <-release:
					return "answer to " + prompt, nil
				case <-ctx.Done():
					return "", ctx.Err()
				}
			}))
		})

		It("rejects a second submission while one is in flight", func() {
			ctrl.UpdateQuestion("slow")
			done := make(chan error, 1)
			go func() {
				_, err := ctrl.Submit(ctx)
				done <- err
			}()
			Eventually(started).Should(Receive())

			_, err := ctrl.Submit(ctx)
			Expect(err).To(MatchError(chat.ErrSubmitInFlight))
			Expect(ctrl.Snapshot().LastError).To(BeEmpty())
			Expect(ctrl.Snapshot().IsLoading).To(BeTrue())

			close(release)
			Eventually(done).Should(Receive(BeNil()))
			Expect(ctrl.Snapshot().History).To(HaveLen(1))
		})

		It("allows editing while a submission is in flight", func() {
			ctrl.UpdateQuestion("slow")
			done := make(chan error, 1)
			go func() {
				_, err := ctrl.Submit(ctx)
				done <- err
			}()
			Eventually(started).Should(Receive())

			ctrl.UpdateQuestion("next question")
			Expect(ctrl.Snapshot().PendingQuestion).To(Equal("next question"))

			close(release)
			Eventually(done).Should(Receive(BeNil()))

			history := ctrl.Snapshot().History
			Expect(history).To(HaveLen(1))
			Expect(history[0].Question).To(Equal("slow"))
			Expect(history[0].Answer).To(Equal("answer to slow"))
		})

		It("discards a response that arrives after Close", func() {
			ctrl.UpdateQuestion("slow")
			done := make(chan error, 1)
			go func() {
				_, err := ctrl.Submit(ctx)
				done <- err
			}()
			Eventually(started).Should(Receive())

			ctrl.Close()

			Eventually(done).Should(Receive(MatchError(chat.ErrClosed)))
			Expect(ctrl.Snapshot().History).To(BeEmpty())
			Expect(ctrl.Snapshot().LastError).To(BeEmpty())
		})

		It("rejects submissions after Close", func() {
			ctrl.Close()
			ctrl.UpdateQuestion("late")

			_, err := ctrl.Submit(ctx)

			Expect(err).To(MatchError(chat.ErrClosed))
		})
	})

	Describe("timeout", func() {
		It("fails a call that outlives the timeout", func() {
			ctrl = chat.NewController(chat.AnswerFunc(func(ctx context.Context, _ string) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			}), chat.WithTimeout(20*time.Millisecond))
			ctrl.UpdateQuestion("hang")

			_, err := ctrl.Submit(ctx)

			Expect(err).To(MatchError(context.DeadlineExceeded))
			Expect(ctrl.Snapshot().LastError).To(Equal(chat.MsgServiceFailure))
			Expect(ctrl.Snapshot().PendingQuestion).To(Equal("hang"))
		})
	})
})

// matchTurn matches a ChatTurn by question and answer.
func matchTurn(question, answer string) OmegaMatcher {
	return And(
		HaveField("Question", question),
		HaveField("Answer", answer),
	)
}

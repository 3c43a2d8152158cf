package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/switchboard/orchestrator/tools"
	"github.com/papercomputeco/switchboard/pkg/assistant"
	"github.com/papercomputeco/switchboard/pkg/summary"
	"github.com/papercomputeco/switchboard/pkg/teams"
	testutils "github.com/papercomputeco/switchboard/pkg/utils/test"
)

var _ = Describe("Registry", func() {
	It("falls back to Unsupported for unknown names", func() {
		r := tools.NewRegistry()

		res, err := r.Dispatch(context.Background(), tools.Call{Name: "launch_rockets"})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Answer).To(Equal(tools.AnswerUnrecognized))
		Expect(res.Output).NotTo(BeEmpty())
	})

	It("dispatches to the registered handler", func() {
		r := tools.NewRegistry()
		r.Register("echo", tools.HandlerFunc(func(_ context.Context, call tools.Call) (tools.Result, error) {
			return tools.Result{Answer: call.Arguments}, nil
		}))

		res, err := r.Dispatch(context.Background(), tools.Call{Name: "echo", Arguments: "hi"})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Answer).To(Equal("hi"))
		Expect(r.Names()).To(Equal([]string{"echo"}))
	})
})

var _ = Describe("TeamsTransfer", func() {
	var (
		client   *testutils.MockAssistantClient
		server   *httptest.Server
		mu       sync.Mutex
		posts    []teams.Payload
		status   int
		handler  *tools.TeamsTransfer
		notifier *teams.Notifier
	)

	BeforeEach(func() {
		posts = nil
		status = http.StatusOK

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			var p teams.Payload
			_ = json.Unmarshal(b, &p)
			mu.Lock()
			posts = append(posts, p)
			code := status
			mu.Unlock()
			w.WriteHeader(code)
		}))

		client = testutils.NewMockAssistantClient()
		client.CompletionText = "reset my password"
		client.SeedThread("thread_1",
			assistant.NewTextMessage(assistant.RoleUser, "I cannot log in"),
			assistant.NewTextMessage(assistant.RoleAssistant, "Have you tried resetting?"),
			assistant.NewTextMessage(assistant.RoleUser, "I want a human"),
		)

		notifier = teams.NewNotifier(teams.Config{URL: server.URL})
		handler = tools.NewTeamsTransfer(tools.TeamsTransferConfig{
			History:    client,
			Summarizer: summary.NewGenerator(client, summary.Config{Model: "gpt-4o"}),
			Notifier:   notifier,
		})
	})

	AfterEach(func() {
		server.Close()
	})

	call := tools.Call{ID: "call_1", Name: tools.NameTeamsTransfer, Arguments: `{"message":"human please"}`, ThreadID: "thread_1"}

	It("posts exactly one card embedding the summary", func() {
		res, err := handler.Handle(context.Background(), call)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Answer).To(Equal(tools.AnswerTransferInitiated))

		Expect(posts).To(HaveLen(1))
		Expect(posts[0].Attachments[0].Content).To(Equal("The user would like: reset my password\nCan you help?"))
		Expect(client.CompletionRequests[0].System).To(ContainSubstring("I cannot log in\nI want a human"))
	})

	It("keeps the success answer when the webhook fails", func() {
		status = http.StatusInternalServerError

		res, err := handler.Handle(context.Background(), call)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Answer).To(Equal(tools.AnswerTransferInitiated))
		Expect(posts).To(HaveLen(1))
	})

	It("fails when the summary cannot be generated", func() {
		client.CompleteErr = assistant.ErrEmptyCompletion

		_, err := handler.Handle(context.Background(), call)
		Expect(errors.Is(err, assistant.ErrEmptyCompletion)).To(BeTrue())
		Expect(posts).To(BeEmpty())
	})

	It("skips summarizing when no webhook is configured", func() {
		h := tools.NewTeamsTransfer(tools.TeamsTransferConfig{
			History:    client,
			Summarizer: summary.NewGenerator(client, summary.Config{}),
			Notifier:   teams.NewNotifier(teams.Config{}),
		})

		res, err := h.Handle(context.Background(), call)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Answer).To(Equal(tools.AnswerTransferInitiated))
		Expect(client.Calls("Complete")).To(Equal(0))
		Expect(posts).To(BeEmpty())
	})

	It("describes a required message parameter", func() {
		fn := tools.TeamsTransferSpec()
		Expect(fn.Name).To(Equal("transfer_to_teams_agent"))
		Expect(fn.Parameters["required"]).To(ConsistOf("message"))
	})
})

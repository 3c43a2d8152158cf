package chatcmder_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	chatcmder "github.com/papercomputeco/switchboard/cmd/switchboard/chat"
	"github.com/papercomputeco/switchboard/pkg/dotdir"
)

// turnServer answers chat turns and records the requests it saw.
type turnServer struct {
	mu       sync.Mutex
	requests []map[string]string
	status   int
}

func (s *turnServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Method != http.MethodPost || r.URL.Path != "/api/chatbotapi" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var req map[string]string
	_ = json.NewDecoder(r.Body).Decode(&req)
	s.requests = append(s.requests, req)

	if s.status != 0 {
		w.WriteHeader(s.status)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
		return
	}

	threadID := req["threadId"]
	if threadID == "" {
		threadID = "thread_new"
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"threadId":  threadID,
		"answer":    "Reset it from the portal [0]",
		"citations": []string{"handbook.pdf"},
	})
}

func (s *turnServer) seen() []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]string(nil), s.requests...)
}

var _ = Describe("NewChatCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Use).To(Equal("chat"))
	})

	It("has a --target flag with the configured default", func() {
		cmd := chatcmder.NewChatCmd()
		f := cmd.Flags().Lookup("target")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("t"))
		Expect(f.DefValue).To(Equal("http://localhost:8080"))
	})

	It("has --new and --log-file flags", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Flags().Lookup("new")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("log-file")).NotTo(BeNil())
	})
})

var _ = Describe("Chat session", func() {
	var (
		tmpDir  string
		origDir string
		backend *turnServer
		server  *httptest.Server
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "switchboard-chat-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.MkdirAll(filepath.Join(tmpDir, ".switchboard"), 0o755)).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())

		backend = &turnServer{}
		server = httptest.NewServer(backend)
	})

	AfterEach(func() {
		server.Close()
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	execute := func(input string, args ...string) string {
		var out bytes.Buffer
		cmd := chatcmder.NewChatCmd()
		cmd.SetIn(strings.NewReader(input))
		cmd.SetOut(&out)
		cmd.SetArgs(append([]string{"--target", server.URL}, args...))
		Expect(cmd.Execute()).To(Succeed())
		return out.String()
	}

	It("sends a turn, prints the answer and its sources", func() {
		out := execute("How do I reset my password?\n/exit\n")

		Expect(out).To(ContainSubstring("Reset it from the portal"))
		Expect(out).To(ContainSubstring("Sources:"))
		Expect(out).To(ContainSubstring("handbook.pdf"))

		reqs := backend.seen()
		Expect(reqs).To(HaveLen(1))
		Expect(reqs[0]["role"]).To(Equal("user"))
		Expect(reqs[0]["content"]).To(Equal("How do I reset my password?"))
		Expect(reqs[0]).NotTo(HaveKey("threadId"))
	})

	It("continues the returned thread and remembers it", func() {
		execute("first\nsecond\n")

		reqs := backend.seen()
		Expect(reqs).To(HaveLen(2))
		Expect(reqs[1]["threadId"]).To(Equal("thread_new"))

		session, err := dotdir.NewManager().LoadSession("")
		Expect(err).NotTo(HaveOccurred())
		Expect(session.ThreadID).To(Equal("thread_new"))
		Expect(session.Target).To(Equal(server.URL))
	})

	It("resumes the saved thread on the next run", func() {
		Expect(dotdir.NewManager().SaveSession(&dotdir.SessionState{
			ThreadID: "thread_saved",
			Target:   server.URL,
		}, "")).To(Succeed())

		out := execute("hello again\n")
		Expect(out).To(ContainSubstring("Resuming thread"))
		Expect(backend.seen()[0]["threadId"]).To(Equal("thread_saved"))
	})

	It("starts a new thread with --new", func() {
		Expect(dotdir.NewManager().SaveSession(&dotdir.SessionState{
			ThreadID: "thread_saved",
			Target:   server.URL,
		}, "")).To(Succeed())

		execute("hello\n", "--new")
		Expect(backend.seen()[0]).NotTo(HaveKey("threadId"))
	})

	It("ignores a thread saved for another server", func() {
		Expect(dotdir.NewManager().SaveSession(&dotdir.SessionState{
			ThreadID: "thread_elsewhere",
			Target:   "http://other:8080",
		}, "")).To(Succeed())

		execute("hello\n")
		Expect(backend.seen()[0]).NotTo(HaveKey("threadId"))
	})

	It("reports server errors and keeps going", func() {
		backend.status = http.StatusBadRequest

		out := execute("hello\n/exit\n")
		Expect(out).To(ContainSubstring("server returned status 400"))

		session, err := dotdir.NewManager().LoadSession("")
		Expect(err).NotTo(HaveOccurred())
		Expect(session).To(BeNil())
	})

	It("writes JSON logs when --log-file is set", func() {
		logPath := filepath.Join(tmpDir, "chat.log")
		execute("hello\n", "--log-file", logPath)

		data, err := os.ReadFile(logPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"msg":"sending turn"`))
	})
})

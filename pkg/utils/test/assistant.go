package testutils

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/papercomputeco/switchboard/pkg/assistant"
)

// ErrMockFailure is returned by MockAssistantClient when a Fail* knob is set.
var ErrMockFailure = errors.New("mock provider failure")

// MockAssistantClient is an in-memory assistant.Client. Threads and messages
// are kept in maps; run progress is scripted with RunStatuses.
type MockAssistantClient struct {
	mu sync.Mutex

	// RunStatuses is the status sequence a run reports: index 0 on create,
	// then one step per RetrieveRun. The last status repeats.
	// Empty means every run completes immediately.
	RunStatuses []assistant.RunStatus

	// ToolCalls is attached to runs reporting requires_action.
	ToolCalls []assistant.ToolCall

	// RunMessages are appended to the thread, tagged with the run ID, when a
	// run is created.
	RunMessages []assistant.Message

	// Files maps file IDs to filenames for RetrieveFile.
	Files map[string]string

	// CompletionText is returned by Complete.
	CompletionText string

	// CompleteErr, when set, is returned by Complete.
	CompleteErr error

	FailCreateThread bool
	FailAddMessage   bool
	FailRetrieveRun  bool
	FailSubmit       bool

	// CompletionRequests accumulates every Complete request.
	CompletionRequests []assistant.CompletionRequest

	// SubmittedOutputs accumulates every SubmitToolOutputs call.
	SubmittedOutputs [][]assistant.ToolOutput

	// CancelledRuns accumulates run IDs passed to CancelRun.
	CancelledRuns []string

	threads map[string][]assistant.Message
	runs    map[string]int
	calls   map[string]int
	nextID  int
}

var _ assistant.Client = (*MockAssistantClient)(nil)

// NewMockAssistantClient creates a new mock provider with no threads.
func NewMockAssistantClient() *MockAssistantClient {
	return &MockAssistantClient{
		Files:   map[string]string{},
		threads: map[string][]assistant.Message{},
		runs:    map[string]int{},
		calls:   map[string]int{},
	}
}

// Calls returns how many times the named method was invoked.
func (m *MockAssistantClient) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// TotalCalls returns the number of remote calls made so far.
func (m *MockAssistantClient) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// SeedThread creates a thread with the given ID and history.
func (m *MockAssistantClient) SeedThread(id string, history ...assistant.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads[id] = append([]assistant.Message(nil), history...)
}

// History returns a copy of a thread's messages, oldest first.
func (m *MockAssistantClient) History(threadID string) []assistant.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]assistant.Message(nil), m.threads[threadID]...)
}

func (m *MockAssistantClient) CreateThread(_ context.Context) (assistant.Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["CreateThread"]++

	if m.FailCreateThread {
		return assistant.Thread{}, ErrMockFailure
	}

	id := m.newID("thread")
	m.threads[id] = nil
	return assistant.Thread{ID: id}, nil
}

func (m *MockAssistantClient) RetrieveThread(_ context.Context, threadID string) (assistant.Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["RetrieveThread"]++

	if _, ok := m.threads[threadID]; !ok {
		return assistant.Thread{}, fmt.Errorf("retrieving thread %s: %w", threadID, assistant.ErrThreadNotFound)
	}
	return assistant.Thread{ID: threadID}, nil
}

func (m *MockAssistantClient) AddMessage(_ context.Context, threadID, role, content string) (assistant.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["AddMessage"]++

	if m.FailAddMessage {
		return assistant.Message{}, ErrMockFailure
	}

	msg := assistant.NewTextMessage(role, content)
	msg.ID = m.newID("msg")
	m.threads[threadID] = append(m.threads[threadID], msg)
	return msg, nil
}

func (m *MockAssistantClient) ListMessages(_ context.Context, threadID, runID string) ([]assistant.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["ListMessages"]++

	var out []assistant.Message
	for _, msg := range m.threads[threadID] {
		if runID != "" && msg.RunID != runID {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (m *MockAssistantClient) CreateRun(_ context.Context, threadID, _ string) (assistant.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["CreateRun"]++

	id := m.newID("run")
	m.runs[id] = 0

	for _, msg := range m.RunMessages {
		msg.RunID = id
		if msg.ID == "" {
			msg.ID = m.newID("msg")
		}
		m.threads[threadID] = append(m.threads[threadID], msg)
	}

	return m.runAt(id, threadID, 0), nil
}

func (m *MockAssistantClient) RetrieveRun(_ context.Context, threadID, runID string) (assistant.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["RetrieveRun"]++

	if m.FailRetrieveRun {
		return assistant.Run{}, ErrMockFailure
	}

	m.runs[runID]++
	return m.runAt(runID, threadID, m.runs[runID]), nil
}

func (m *MockAssistantClient) CancelRun(_ context.Context, threadID, runID string) (assistant.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["CancelRun"]++

	m.CancelledRuns = append(m.CancelledRuns, runID)
	return assistant.Run{ID: runID, ThreadID: threadID, Status: assistant.RunStatusCancelling}, nil
}

func (m *MockAssistantClient) SubmitToolOutputs(_ context.Context, threadID, runID string, outputs []assistant.ToolOutput) (assistant.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["SubmitToolOutputs"]++

	if m.FailSubmit {
		return assistant.Run{}, ErrMockFailure
	}

	m.SubmittedOutputs = append(m.SubmittedOutputs, outputs)
	return assistant.Run{ID: runID, ThreadID: threadID, Status: assistant.RunStatusQueued}, nil
}

func (m *MockAssistantClient) RetrieveFile(_ context.Context, fileID string) (assistant.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["RetrieveFile"]++

	name, ok := m.Files[fileID]
	if !ok {
		return assistant.File{}, fmt.Errorf("retrieving file %s: %w", fileID, ErrMockFailure)
	}
	return assistant.File{ID: fileID, Filename: name}, nil
}

func (m *MockAssistantClient) Complete(_ context.Context, req assistant.CompletionRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["Complete"]++

	m.CompletionRequests = append(m.CompletionRequests, req)
	if m.CompleteErr != nil {
		return "", m.CompleteErr
	}
	return m.CompletionText, nil
}

func (m *MockAssistantClient) runAt(runID, threadID string, step int) assistant.Run {
	status := assistant.RunStatusCompleted
	if n := len(m.RunStatuses); n > 0 {
		status = m.RunStatuses[min(step, n-1)]
	}

	run := assistant.Run{ID: runID, ThreadID: threadID, Status: status}
	if status == assistant.RunStatusRequiresAction {
		run.ToolCalls = append([]assistant.ToolCall(nil), m.ToolCalls...)
	}
	return run
}

func (m *MockAssistantClient) newID(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s_%d", prefix, m.nextID)
}

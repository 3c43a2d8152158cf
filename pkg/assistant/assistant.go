// Package assistant defines the provider-neutral object model switchboard
// needs from a hosted LLM assistant service: threads, messages, runs, files
// and a single chat completion call.
//
// Provider SDK responses are decoded into these types at the boundary
// (see pkg/assistant/openai) so the orchestrator never inspects loosely
// typed wire objects.
package assistant

import (
	"context"
	"errors"
)

var (
	// ErrThreadNotFound is returned when a caller supplied thread ID cannot be
	// retrieved from the provider.
	ErrThreadNotFound = errors.New("thread not found")

	// ErrEmptyCompletion is returned when a chat completion yields no choices.
	ErrEmptyCompletion = errors.New("completion returned no choices")
)

// Role names used by the provider.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Turn is one inbound chat turn.
type Turn struct {
	Role     string
	Content  string
	ThreadID string
}

// Thread is a provider-owned conversation context.
type Thread struct {
	ID string
}

// Run is one execution of the assistant over a thread.
type Run struct {
	ID       string
	ThreadID string
	Status   RunStatus

	// ToolCalls is populated when Status is RunStatusRequiresAction.
	ToolCalls []ToolCall
}

// ToolCall is a function invocation requested by the assistant.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolOutput is the result of a ToolCall submitted back to the run.
type ToolOutput struct {
	ToolCallID string
	Output     string
}

// File is a provider file referenced by citations.
type File struct {
	ID       string
	Filename string
}

// CompletionRequest is a single-shot chat completion.
type CompletionRequest struct {
	Model       string
	System      string
	Temperature float32
	MaxTokens   int
}

// Definition describes the assistant to ensure on the provider at startup.
type Definition struct {
	// ID, when set, skips lookup by name and uses the assistant directly.
	ID string

	Name          string
	Model         string
	Instructions  string
	VectorStoreID string
	Functions     []FunctionSpec
}

// FunctionSpec is a function tool exposed to the assistant.
type FunctionSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Client is the set of remote calls the orchestrator makes against the
// provider. Implementations must be safe for concurrent use.
type Client interface {
	CreateThread(ctx context.Context) (Thread, error)
	RetrieveThread(ctx context.Context, threadID string) (Thread, error)

	AddMessage(ctx context.Context, threadID, role, content string) (Message, error)

	// ListMessages returns the thread's messages oldest first. A non-empty
	// runID restricts the listing to messages produced by that run.
	ListMessages(ctx context.Context, threadID, runID string) ([]Message, error)

	CreateRun(ctx context.Context, threadID, assistantID string) (Run, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (Run, error)
	CancelRun(ctx context.Context, threadID, runID string) (Run, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (Run, error)

	RetrieveFile(ctx context.Context, fileID string) (File, error)

	// Complete issues one chat completion and returns the first choice text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

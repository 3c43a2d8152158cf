// Package tools dispatches function calls requested by the assistant to
// registered handlers.
package tools

import (
	"context"
	"sort"
)

const (
	// AnswerUnrecognized is the answer for function names with no handler.
	AnswerUnrecognized = "Unrecognized function."

	outputUnrecognized = `{"error":"unrecognized function"}`
)

// Call is a single function call requested by a run.
type Call struct {
	ID        string
	Name      string
	Arguments string

	// ThreadID is the thread the requesting run belongs to.
	ThreadID string
}

// Result is the outcome of handling a Call.
type Result struct {
	// Answer is the text returned to the chat caller.
	Answer string

	// Output is submitted back to the run as the tool output.
	Output string
}

// Handler handles one kind of function call.
type Handler interface {
	Handle(ctx context.Context, call Call) (Result, error)
}

// HandlerFunc adapts a function to a Handler.
type HandlerFunc func(ctx context.Context, call Call) (Result, error)

func (f HandlerFunc) Handle(ctx context.Context, call Call) (Result, error) {
	return f(ctx, call)
}

// Unsupported answers any call with AnswerUnrecognized.
type Unsupported struct{}

func (Unsupported) Handle(context.Context, Call) (Result, error) {
	return Result{Answer: AnswerUnrecognized, Output: outputUnrecognized}, nil
}

// Registry maps function names to handlers. It is not safe to Register
// concurrently with Dispatch.
type Registry struct {
	handlers map[string]Handler
	fallback Handler
}

// NewRegistry creates an empty registry that falls back to Unsupported.
func NewRegistry() *Registry {
	return &Registry{
		handlers: map[string]Handler{},
		fallback: Unsupported{},
	}
}

// Register binds name to h, replacing any previous handler.
func (r *Registry) Register(name string, h Handler) {
	r.handlers[name] = h
}

// Lookup returns the handler for name, or the fallback.
func (r *Registry) Lookup(name string) Handler {
	if h, ok := r.handlers[name]; ok {
		return h
	}
	return r.fallback
}

// Dispatch runs the handler registered for call.Name.
func (r *Registry) Dispatch(ctx context.Context, call Call) (Result, error) {
	return r.Lookup(call.Name).Handle(ctx, call)
}

// Names returns the registered function names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

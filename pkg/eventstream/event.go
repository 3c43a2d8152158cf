package eventstream

import (
	"time"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnHandled is emitted after a chat turn has been answered.
	EventTypeTurnHandled = "switchboard.turn.handled"
)

// TurnHandledEvent is a transport-neutral event payload for a handled turn.
type TurnHandledEvent struct {
	SchemaVersion int             `json:"schema_version"`
	EventType     string          `json:"event_type"`
	EventID       string          `json:"event_id"`
	EmittedAt     time.Time       `json:"emitted_at"`
	Source        EventSource     `json:"source"`
	RequestMeta   TurnRequestMeta `json:"request_meta"`
	Run           TurnRunMeta     `json:"run"`
}

// EventSource identifies the assistant that handled the turn.
type EventSource struct {
	AssistantID string `json:"assistant_id"`
	Provider    string `json:"provider"`
}

// TurnRequestMeta captures request lifecycle metadata for the event.
type TurnRequestMeta struct {
	ThreadID      string    `json:"thread_id"`
	CreatedThread bool      `json:"created_thread"`
	Role          string    `json:"role"`
	StartedAt     time.Time `json:"started_at"`
	CompletedAt   time.Time `json:"completed_at"`
	DurationMs    int64     `json:"duration_ms"`
}

// TurnRunMeta captures the run outcome for the event.
type TurnRunMeta struct {
	RunID         string   `json:"run_id"`
	Status        string   `json:"status"`
	Outcome       string   `json:"outcome"`
	Polls         int      `json:"polls"`
	ToolCalls     []string `json:"tool_calls,omitempty"`
	CitationCount int      `json:"citation_count"`
}

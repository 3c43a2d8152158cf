// Package orchestrator turns one inbound chat turn into the sequence of
// assistant calls that answers it: resolve the thread, append the message,
// start a run, poll it, then extract the answer, dispatch tool calls or report
// the failure.
//
// The orchestrator keeps no conversation state. Threads and their history live
// with the provider; callers continue a conversation by sending back the
// returned thread ID.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/papercomputeco/switchboard/orchestrator/tools"
	"github.com/papercomputeco/switchboard/orchestrator/worker"
	"github.com/papercomputeco/switchboard/pkg/assistant"
	"github.com/papercomputeco/switchboard/pkg/eventstream"
	"github.com/papercomputeco/switchboard/pkg/metrics"
)

const (
	// AnswerNoResponse is the answer when a completed run produced no
	// assistant message.
	AnswerNoResponse = "No response found."

	runFailedFormat = "Thread run failed: %s"

	tracerName = "github.com/papercomputeco/switchboard/orchestrator"
)

// Response is the result of a handled turn.
type Response struct {
	ThreadID  string   `json:"threadId"`
	Answer    string   `json:"answer"`
	Citations []string `json:"citations"`
}

// EventQueue accepts turn events for asynchronous publishing.
type EventQueue interface {
	Enqueue(job worker.Job) bool
}

// Orchestrator handles chat turns against one assistant.
type Orchestrator struct {
	config Config
	client assistant.Client
	tools  *tools.Registry
	events EventQueue
	logger *zap.Logger
}

// New creates a new Orchestrator.
func New(c Config, client assistant.Client, registry *tools.Registry, events EventQueue, logger *zap.Logger) (*Orchestrator, error) {
	if client == nil {
		return nil, errors.New("assistant client is required")
	}
	if c.AssistantID == "" {
		return nil, errors.New("assistant ID is required")
	}
	if registry == nil {
		registry = tools.NewRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Orchestrator{
		config: c.withDefaults(),
		client: client,
		tools:  registry,
		events: events,
		logger: logger,
	}, nil
}

// turnState accumulates what happened during one HandleTurn call for logs,
// metrics and the turn event.
type turnState struct {
	startedAt     time.Time
	threadID      string
	createdThread bool
	run           assistant.Run
	polls         int
	outcome       string
	toolCalls     []string
	citations     int
}

// HandleTurn relays turn to the assistant and returns the answer.
//
// Narrated outcomes (no response, unrecognized tool, failed run) are returned
// as a Response with a nil error. Errors are returned for provider failures,
// summary failures and run timeouts (*RunTimeoutError).
func (o *Orchestrator) HandleTurn(ctx context.Context, turn assistant.Turn) (*Response, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "orchestrator.HandleTurn")
	defer span.End()

	st := &turnState{startedAt: time.Now()}

	resp, err := o.handleTurn(ctx, turn, st)

	span.SetAttributes(
		attribute.String("switchboard.thread_id", st.threadID),
		attribute.String("switchboard.run_id", st.run.ID),
		attribute.String("switchboard.run_status", st.run.Status.String()),
		attribute.String("switchboard.outcome", st.outcome),
		attribute.Int("switchboard.polls", st.polls),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		st.outcome = metrics.OutcomeError
		if errors.Is(err, ErrRunTimeout) {
			st.outcome = metrics.OutcomeTimeout
		}
		metrics.TurnsTotal.WithLabelValues(st.outcome).Inc()

		o.logger.Error("turn failed",
			zap.String("thread_id", st.threadID),
			zap.String("run_id", st.run.ID),
			zap.String("outcome", st.outcome),
			zap.Error(err),
		)
		o.emit(turn, st)
		return nil, err
	}

	metrics.TurnsTotal.WithLabelValues(st.outcome).Inc()
	o.logger.Info("turn handled",
		zap.String("thread_id", st.threadID),
		zap.String("run_id", st.run.ID),
		zap.String("run_status", st.run.Status.String()),
		zap.String("outcome", st.outcome),
		zap.Int("polls", st.polls),
		zap.Int("citations", st.citations),
		zap.Duration("elapsed", time.Since(st.startedAt)),
	)
	o.emit(turn, st)

	return resp, nil
}

func (o *Orchestrator) handleTurn(ctx context.Context, turn assistant.Turn, st *turnState) (*Response, error) {
	threadID, created, err := o.resolveThread(ctx, turn.ThreadID)
	if err != nil {
		return nil, err
	}
	st.threadID = threadID
	st.createdThread = created

	if _, err := o.client.AddMessage(ctx, threadID, turn.Role, turn.Content); err != nil {
		return nil, err
	}

	run, err := o.client.CreateRun(ctx, threadID, o.config.AssistantID)
	if err != nil {
		return nil, err
	}
	st.run = run

	o.logger.Debug("run started",
		zap.String("thread_id", threadID),
		zap.String("run_id", run.ID),
		zap.Bool("created_thread", created),
	)

	run, err = o.awaitRun(ctx, run, st)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		ThreadID:  threadID,
		Citations: []string{},
	}

	switch {
	case run.Status == assistant.RunStatusCompleted:
		err = o.answerCompleted(ctx, run, resp, st)

	case run.Status == assistant.RunStatusRequiresAction:
		err = o.dispatchTools(ctx, run, resp, st)

	default:
		resp.Answer = fmt.Sprintf(runFailedFormat, run.Status)
		st.outcome = metrics.OutcomeRunFailed
	}
	if err != nil {
		return nil, err
	}

	st.citations = len(resp.Citations)
	return resp, nil
}

// resolveThread creates a thread when threadID is empty and otherwise
// retrieves it. It reports whether a thread was created.
func (o *Orchestrator) resolveThread(ctx context.Context, threadID string) (string, bool, error) {
	if threadID == "" {
		thread, err := o.client.CreateThread(ctx)
		if err != nil {
			return "", false, err
		}
		return thread.ID, true, nil
	}

	thread, err := o.client.RetrieveThread(ctx, threadID)
	if err != nil {
		return "", false, err
	}
	return thread.ID, false, nil
}

func (o *Orchestrator) answerCompleted(ctx context.Context, run assistant.Run, resp *Response, st *turnState) error {
	messages, err := o.client.ListMessages(ctx, run.ThreadID, run.ID)
	if err != nil {
		return err
	}

	msg, ok := assistant.LastByRole(messages, assistant.RoleAssistant)
	if !ok {
		resp.Answer = AnswerNoResponse
		st.outcome = metrics.OutcomeNoResponse
		return nil
	}

	answer, citations, err := ExtractAnswer(ctx, o.client, msg.Content)
	if err != nil {
		return err
	}

	resp.Answer = answer
	resp.Citations = citations
	st.outcome = metrics.OutcomeAnswered
	return nil
}

// dispatchTools handles every requested call in order. The answer of the last
// call wins. Outputs are submitted back to the run afterwards so the thread
// is not left waiting on this run.
func (o *Orchestrator) dispatchTools(ctx context.Context, run assistant.Run, resp *Response, st *turnState) error {
	st.outcome = metrics.OutcomeToolCall

	outputs := make([]assistant.ToolOutput, 0, len(run.ToolCalls))
	for _, call := range run.ToolCalls {
		st.toolCalls = append(st.toolCalls, call.Name)

		o.logger.Info("dispatching tool call",
			zap.String("thread_id", run.ThreadID),
			zap.String("run_id", run.ID),
			zap.String("function", call.Name),
		)

		res, err := o.tools.Dispatch(ctx, tools.Call{
			ID:        call.ID,
			Name:      call.Name,
			Arguments: call.Arguments,
			ThreadID:  run.ThreadID,
		})
		if err != nil {
			return fmt.Errorf("handling tool call %s: %w", call.Name, err)
		}

		resp.Answer = res.Answer
		outputs = append(outputs, assistant.ToolOutput{ToolCallID: call.ID, Output: res.Output})
	}

	if len(outputs) == 0 {
		return nil
	}

	if _, err := o.client.SubmitToolOutputs(ctx, run.ThreadID, run.ID, outputs); err != nil {
		o.logger.Warn("failed to submit tool outputs",
			zap.String("thread_id", run.ThreadID),
			zap.String("run_id", run.ID),
			zap.Error(err),
		)
	}
	return nil
}

func (o *Orchestrator) emit(turn assistant.Turn, st *turnState) {
	if o.events == nil {
		return
	}

	now := time.Now().UTC()
	o.events.Enqueue(worker.Job{
		Event: &eventstream.TurnHandledEvent{
			SchemaVersion: eventstream.SchemaVersionV1,
			EventType:     eventstream.EventTypeTurnHandled,
			EventID:       uuid.NewString(),
			EmittedAt:     now,
			Source: eventstream.EventSource{
				AssistantID: o.config.AssistantID,
				Provider:    o.config.Provider,
			},
			RequestMeta: eventstream.TurnRequestMeta{
				ThreadID:      st.threadID,
				CreatedThread: st.createdThread,
				Role:          turn.Role,
				StartedAt:     st.startedAt.UTC(),
				CompletedAt:   now,
				DurationMs:    now.Sub(st.startedAt).Milliseconds(),
			},
			Run: eventstream.TurnRunMeta{
				RunID:         st.run.ID,
				Status:        st.run.Status.String(),
				Outcome:       st.outcome,
				Polls:         st.polls,
				ToolCalls:     st.toolCalls,
				CitationCount: st.citations,
			},
		},
	})
}

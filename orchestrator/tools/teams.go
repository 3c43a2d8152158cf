package tools

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/switchboard/pkg/assistant"
	"github.com/papercomputeco/switchboard/pkg/utils"
)

const (
	// NameTeamsTransfer is the function the assistant calls to hand the
	// conversation to a human agent on Teams.
	NameTeamsTransfer = "transfer_to_teams_agent"

	// AnswerTransferInitiated is returned once the transfer was attempted,
	// whatever the webhook outcome.
	AnswerTransferInitiated = "Transfer to a Teams agent has been initiated."

	outputTransferInitiated = `{"status":"transfer_initiated"}`
)

// HistoryLister lists a thread's messages oldest first.
type HistoryLister interface {
	ListMessages(ctx context.Context, threadID, runID string) ([]assistant.Message, error)
}

// Summarizer condenses a conversation history.
type Summarizer interface {
	Summarize(ctx context.Context, history []assistant.Message) (string, error)
}

// Notifier delivers card text to the Teams channel.
type Notifier interface {
	Enabled() bool
	Deliver(ctx context.Context, text string) error
}

// TeamsTransferConfig configures a TeamsTransfer handler.
type TeamsTransferConfig struct {
	History    HistoryLister
	Summarizer Summarizer
	Notifier   Notifier
	Logger     *zap.Logger
}

// TeamsTransfer summarizes the thread and posts it to Teams.
type TeamsTransfer struct {
	config TeamsTransferConfig
	logger *zap.Logger
}

// NewTeamsTransfer creates a new TeamsTransfer handler.
func NewTeamsTransfer(c TeamsTransferConfig) *TeamsTransfer {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return &TeamsTransfer{config: c, logger: c.Logger}
}

// Handle implements Handler. Summary failures are returned; delivery failures
// follow the notifier's policy.
func (t *TeamsTransfer) Handle(ctx context.Context, call Call) (Result, error) {
	result := Result{Answer: AnswerTransferInitiated, Output: outputTransferInitiated}

	if !t.config.Notifier.Enabled() {
		t.logger.Warn("teams webhook URL not configured, skipping transfer",
			zap.String("thread_id", call.ThreadID),
		)
		return result, nil
	}

	history, err := t.config.History.ListMessages(ctx, call.ThreadID, "")
	if err != nil {
		return Result{}, fmt.Errorf("loading thread history: %w", err)
	}

	summary, err := t.config.Summarizer.Summarize(ctx, history)
	if err != nil {
		return Result{}, fmt.Errorf("generating summary: %w", err)
	}

	t.logger.Debug("transferring conversation to teams",
		zap.String("thread_id", call.ThreadID),
		zap.Int("history_len", len(history)),
		zap.String("summary", utils.Truncate(summary, 120)),
	)

	if err := t.config.Notifier.Deliver(ctx, CardText(summary)); err != nil {
		return Result{}, fmt.Errorf("delivering teams card: %w", err)
	}

	return result, nil
}

// CardText is the card body posted to Teams for a summary.
func CardText(summary string) string {
	return "The user would like: " + summary + "\nCan you help?"
}

// TeamsTransferSpec is the function definition registered on the assistant.
func TeamsTransferSpec() assistant.FunctionSpec {
	return assistant.FunctionSpec{
		Name:        NameTeamsTransfer,
		Description: "Detects when the user wants to talk to an agent via Teams and performs the transfer.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"message": map[string]any{
					"type":        "string",
					"description": "The user's message asking to be put in contact with an agent via Teams",
				},
			},
			"required": []string{"message"},
		},
	}
}

package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/switchboard/pkg/assistant"
)

var (
	sendTurnToolName    = "send_turn"
	sendTurnDescription = "Send a chat message to the switchboard assistant. Returns the answer, the thread ID to continue the conversation with, and the filenames cited by the answer."
)

// SendTurnInput represents the input arguments for the send_turn tool.
type SendTurnInput struct {
	Content  string `json:"content" jsonschema:"the message text to send"`
	Role     string `json:"role,omitempty" jsonschema:"message role (default: user)"`
	ThreadID string `json:"thread_id,omitempty" jsonschema:"thread to continue; omit to start a new conversation"`
}

// SendTurnOutput represents the output of the send_turn tool.
type SendTurnOutput struct {
	ThreadID  string   `json:"thread_id"`
	Answer    string   `json:"answer"`
	Citations []string `json:"citations"`
}

// handleSendTurn relays a turn through the orchestrator.
func (s *Server) handleSendTurn(ctx context.Context, _ *mcp.CallToolRequest, input SendTurnInput) (*mcp.CallToolResult, SendTurnOutput, error) {
	logger := s.config.Logger

	if strings.TrimSpace(input.Content) == "" {
		return errorResult("content is required"), newSendTurnOutput("", "", nil), nil
	}

	role := input.Role
	if role == "" {
		role = assistant.RoleUser
	}

	logger.Debug("MCP send_turn request",
		zap.String("role", role),
		zap.String("thread_id", input.ThreadID),
	)

	resp, err := s.config.Turns.HandleTurn(ctx, assistant.Turn{
		Role:     role,
		Content:  input.Content,
		ThreadID: input.ThreadID,
	})
	if err != nil {
		logger.Error("MCP send_turn failed", zap.Error(err))
		return errorResult(fmt.Sprintf("Failed to handle turn: %v", err)), newSendTurnOutput(input.ThreadID, "", nil), nil
	}

	output := newSendTurnOutput(resp.ThreadID, resp.Answer, resp.Citations)

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: formatAnswer(output)},
		},
	}, output, nil
}

// newSendTurnOutput builds a tool output whose citations always encode as a
// JSON array, as the output schema requires.
func newSendTurnOutput(threadID, answer string, citations []string) SendTurnOutput {
	if citations == nil {
		citations = []string{}
	}
	return SendTurnOutput{
		ThreadID:  threadID,
		Answer:    answer,
		Citations: citations,
	}
}

func formatAnswer(out SendTurnOutput) string {
	var b strings.Builder
	b.WriteString(out.Answer)
	if len(out.Citations) > 0 {
		b.WriteString("\n\nSources:")
		for i, c := range out.Citations {
			fmt.Fprintf(&b, "\n[%d] %s", i, c)
		}
	}
	fmt.Fprintf(&b, "\n\nthread_id: %s", out.ThreadID)
	return b.String()
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

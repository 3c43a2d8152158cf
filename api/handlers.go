package api

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/switchboard/orchestrator"
	"github.com/papercomputeco/switchboard/pkg/assistant"
	"github.com/papercomputeco/switchboard/pkg/metrics"
)

// TurnRequest is the body of POST /api/chatbotapi.
type TurnRequest struct {
	Role     string `json:"role" validate:"required"`
	Content  string `json:"content" validate:"required"`
	ThreadID string `json:"threadId,omitempty"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleChatTurn relays one chat turn. Validation failures are 400, run
// timeouts 504 and other failures 500, all as plain text. Every other
// outcome, including failed runs, is a 200 with a JSON orchestrator.Response.
func (s *Server) handleChatTurn(c *fiber.Ctx) error {
	turn, err := s.parseTurn(c.Body())
	if err != nil {
		metrics.TurnsTotal.WithLabelValues(metrics.OutcomeInvalidInput).Inc()
		s.logger.Debug("rejected chat turn", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}

	resp, err := s.turns.HandleTurn(c.UserContext(), turn)
	if err != nil {
		if errors.Is(err, orchestrator.ErrRunTimeout) {
			return c.Status(fiber.StatusGatewayTimeout).SendString("assistant run timed out")
		}
		return c.Status(fiber.StatusInternalServerError).SendString("failed to handle chat turn")
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// parseTurn decodes and validates a request body. No remote call is made
// before it succeeds.
func (s *Server) parseTurn(body []byte) (assistant.Turn, error) {
	var req TurnRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return assistant.Turn{}, ErrInvalidRequest
	}

	if err := s.validate.Struct(req); err != nil {
		return assistant.Turn{}, ErrMissingField
	}

	return assistant.Turn{
		Role:     req.Role,
		Content:  req.Content,
		ThreadID: req.ThreadID,
	}, nil
}

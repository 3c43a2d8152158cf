// Package summary condenses a thread's user messages into a short description
// of what the user wants, for handing the conversation to a human agent.
package summary

import (
	"context"
	"strings"

	"github.com/papercomputeco/switchboard/pkg/assistant"
)

// Instruction prefixes every summary prompt.
const Instruction = "Summarize the user's request based on the following messages, " +
	"clearly highlighting what they want:\n\n" +
	"Do not mention in the summary that the user wants to talk to an agent via Teams. "

const (
	defaultTemperature float32 = 0.3
	defaultMaxTokens           = 50
)

// Completer issues a single chat completion.
type Completer interface {
	Complete(ctx context.Context, req assistant.CompletionRequest) (string, error)
}

// Config configures a Generator.
type Config struct {
	// Model is the model or deployment used for the completion.
	Model string

	// Temperature defaults to 0.3.
	Temperature float32

	// MaxTokens bounds the summary length. Defaults to 50.
	MaxTokens int
}

// Generator produces conversation summaries.
type Generator struct {
	completer Completer
	config    Config
}

// NewGenerator creates a new Generator.
func NewGenerator(completer Completer, c Config) *Generator {
	if c.Temperature == 0 {
		c.Temperature = defaultTemperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = defaultMaxTokens
	}

	return &Generator{
		completer: completer,
		config:    c,
	}
}

// Summarize summarizes the user messages in history, which is expected
// oldest first. Completion errors are returned unchanged.
func (g *Generator) Summarize(ctx context.Context, history []assistant.Message) (string, error) {
	text, err := g.completer.Complete(ctx, assistant.CompletionRequest{
		Model:       g.config.Model,
		System:      Prompt(UserText(history)),
		Temperature: g.config.Temperature,
		MaxTokens:   g.config.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(text), nil
}

// UserText joins the text blocks of every user message with newlines.
func UserText(history []assistant.Message) string {
	var parts []string
	for _, msg := range history {
		if msg.Role != assistant.RoleUser {
			continue
		}
		parts = append(parts, msg.TextValues()...)
	}
	return strings.Join(parts, "\n")
}

// Prompt builds the system prompt sent for the summary completion.
func Prompt(conversation string) string {
	return Instruction + conversation + "\n\nSummary:"
}

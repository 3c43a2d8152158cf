// Package openai implements assistant.Client on top of the OpenAI and Azure
// OpenAI Assistants API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/switchboard/pkg/assistant"
)

const (
	// TypeAzure selects Azure OpenAI endpoint and api-version handling.
	TypeAzure = "azure"

	// TypeOpenAI selects the public OpenAI API (or a compatible endpoint).
	TypeOpenAI = "openai"

	// DefaultAPIVersion is the Azure api-version with Assistants v2 support.
	DefaultAPIVersion = "2024-05-01-preview"

	listPageSize = 100
	listOrderAsc = "asc"
)

// Config holds the provider connection settings.
type Config struct {
	// Type is TypeAzure or TypeOpenAI. Empty defaults to TypeAzure.
	Type string

	// Endpoint is the Azure resource endpoint, or the API base URL for
	// TypeOpenAI (defaults to https://api.openai.com/v1).
	Endpoint string

	APIKey     string
	APIVersion string

	// Deployment is the Azure deployment every model name maps to.
	Deployment string
}

// Client is an assistant.Client backed by go-openai.
type Client struct {
	client *openai.Client
}

var _ assistant.Client = (*Client)(nil)

// New creates a new provider client.
func New(c Config) (*Client, error) {
	cfg, err := clientConfig(c)
	if err != nil {
		return nil, err
	}

	return &Client{client: openai.NewClientWithConfig(cfg)}, nil
}

func clientConfig(c Config) (openai.ClientConfig, error) {
	switch strings.ToLower(c.Type) {
	case TypeAzure, "":
		if c.Endpoint == "" {
			return openai.ClientConfig{}, errors.New("azure endpoint is required")
		}
		cfg := openai.DefaultAzureConfig(c.APIKey, c.Endpoint)
		cfg.APIVersion = DefaultAPIVersion
		if c.APIVersion != "" {
			cfg.APIVersion = c.APIVersion
		}
		if c.Deployment != "" {
			deployment := c.Deployment
			cfg.AzureModelMapperFunc = func(string) string {
				return deployment
			}
		}
		return cfg, nil

	case TypeOpenAI:
		cfg := openai.DefaultConfig(c.APIKey)
		if c.Endpoint != "" {
			cfg.BaseURL = strings.TrimSuffix(c.Endpoint, "/")
		}
		return cfg, nil

	default:
		return openai.ClientConfig{}, fmt.Errorf("unknown provider type: %q (available: %s, %s)", c.Type, TypeAzure, TypeOpenAI)
	}
}

func (c *Client) CreateThread(ctx context.Context) (assistant.Thread, error) {
	t, err := c.client.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return assistant.Thread{}, fmt.Errorf("creating thread: %w", err)
	}
	return assistant.Thread{ID: t.ID}, nil
}

func (c *Client) RetrieveThread(ctx context.Context, threadID string) (assistant.Thread, error) {
	t, err := c.client.RetrieveThread(ctx, threadID)
	if err != nil {
		if isNotFound(err) {
			return assistant.Thread{}, fmt.Errorf("retrieving thread %s: %w: %w", threadID, assistant.ErrThreadNotFound, err)
		}
		return assistant.Thread{}, fmt.Errorf("retrieving thread %s: %w", threadID, err)
	}
	return assistant.Thread{ID: t.ID}, nil
}

func (c *Client) AddMessage(ctx context.Context, threadID, role, content string) (assistant.Message, error) {
	m, err := c.client.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    role,
		Content: content,
	})
	if err != nil {
		return assistant.Message{}, fmt.Errorf("creating message: %w", err)
	}
	return decodeMessage(m)
}

func (c *Client) ListMessages(ctx context.Context, threadID, runID string) ([]assistant.Message, error) {
	limit := listPageSize
	order := listOrderAsc

	var runFilter *string
	if runID != "" {
		runFilter = &runID
	}

	var (
		after    *string
		messages []assistant.Message
	)
	for {
		page, err := c.client.ListMessage(ctx, threadID, &limit, &order, after, nil, runFilter)
		if err != nil {
			return nil, fmt.Errorf("listing messages: %w", err)
		}

		for _, m := range page.Messages {
			msg, err := decodeMessage(m)
			if err != nil {
				return nil, err
			}
			messages = append(messages, msg)
		}

		if !page.HasMore || page.LastID == nil || len(page.Messages) == 0 {
			break
		}
		after = page.LastID
	}

	return messages, nil
}

func (c *Client) CreateRun(ctx context.Context, threadID, assistantID string) (assistant.Run, error) {
	r, err := c.client.CreateRun(ctx, threadID, openai.RunRequest{
		AssistantID: assistantID,
	})
	if err != nil {
		return assistant.Run{}, fmt.Errorf("creating run: %w", err)
	}
	return decodeRun(r)
}

func (c *Client) RetrieveRun(ctx context.Context, threadID, runID string) (assistant.Run, error) {
	r, err := c.client.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return assistant.Run{}, fmt.Errorf("retrieving run %s: %w", runID, err)
	}
	return decodeRun(r)
}

func (c *Client) CancelRun(ctx context.Context, threadID, runID string) (assistant.Run, error) {
	r, err := c.client.CancelRun(ctx, threadID, runID)
	if err != nil {
		return assistant.Run{}, fmt.Errorf("cancelling run %s: %w", runID, err)
	}
	return decodeRun(r)
}

func (c *Client) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []assistant.ToolOutput) (assistant.Run, error) {
	req := openai.SubmitToolOutputsRequest{
		ToolOutputs: make([]openai.ToolOutput, 0, len(outputs)),
	}
	for _, out := range outputs {
		req.ToolOutputs = append(req.ToolOutputs, openai.ToolOutput{
			ToolCallID: out.ToolCallID,
			Output:     out.Output,
		})
	}

	r, err := c.client.SubmitToolOutputs(ctx, threadID, runID, req)
	if err != nil {
		return assistant.Run{}, fmt.Errorf("submitting tool outputs for run %s: %w", runID, err)
	}
	return decodeRun(r)
}

func (c *Client) RetrieveFile(ctx context.Context, fileID string) (assistant.File, error) {
	f, err := c.client.GetFile(ctx, fileID)
	if err != nil {
		return assistant.File{}, fmt.Errorf("retrieving file %s: %w", fileID, err)
	}
	return assistant.File{ID: f.ID, Filename: f.FileName}, nil
}

func (c *Client) Complete(ctx context.Context, req assistant.CompletionRequest) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("creating chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", assistant.ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

// isNotFound reports whether err is a provider 404.
func isNotFound(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusNotFound
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusNotFound
	}

	return false
}

// reencode round-trips an SDK object through its JSON wire form into one of
// the wire types in wire.go.
func reencode[T any](v any) (T, error) {
	var out T

	data, err := json.Marshal(v)
	if err != nil {
		return out, fmt.Errorf("encoding provider object: %w", err)
	}

	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decoding provider object: %w", err)
	}

	return out, nil
}

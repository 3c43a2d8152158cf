package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/switchboard/pkg/assistant"
)

// EnsureAssistant makes sure an assistant matching def exists on the provider
// and returns its ID.
//
// With def.ID set the assistant is retrieved as-is. Otherwise the assistant is
// looked up by name, created when missing, and modified when its model or
// instructions drifted from def.
func (c *Client) EnsureAssistant(ctx context.Context, def assistant.Definition) (string, error) {
	if def.ID != "" {
		a, err := c.client.RetrieveAssistant(ctx, def.ID)
		if err != nil {
			return "", fmt.Errorf("retrieving assistant %s: %w", def.ID, err)
		}
		return a.ID, nil
	}

	if def.Name == "" {
		return "", errors.New("assistant name is required")
	}

	existing, err := c.findAssistant(ctx, def.Name)
	if err != nil {
		return "", err
	}

	req := assistantRequest(def)

	if existing == nil {
		a, err := c.client.CreateAssistant(ctx, req)
		if err != nil {
			return "", fmt.Errorf("creating assistant %s: %w", def.Name, err)
		}
		return a.ID, nil
	}

	if existing.Model != def.Model || existing.Instructions == nil || *existing.Instructions != def.Instructions {
		a, err := c.client.ModifyAssistant(ctx, existing.ID, req)
		if err != nil {
			return "", fmt.Errorf("modifying assistant %s: %w", def.Name, err)
		}
		return a.ID, nil
	}

	return existing.ID, nil
}

func (c *Client) findAssistant(ctx context.Context, name string) (*openai.Assistant, error) {
	limit := listPageSize

	var after *string
	for {
		page, err := c.client.ListAssistants(ctx, &limit, nil, after, nil)
		if err != nil {
			return nil, fmt.Errorf("listing assistants: %w", err)
		}

		for i := range page.Assistants {
			a := page.Assistants[i]
			if a.Name != nil && *a.Name == name {
				return &a, nil
			}
		}

		if !page.HasMore || page.LastID == nil || len(page.Assistants) == 0 {
			return nil, nil
		}
		after = page.LastID
	}
}

func assistantRequest(def assistant.Definition) openai.AssistantRequest {
	name := def.Name
	instructions := def.Instructions

	tools := []openai.AssistantTool{
		{Type: openai.AssistantToolTypeFileSearch},
	}
	for _, fn := range def.Functions {
		tools = append(tools, openai.AssistantTool{
			Type: openai.AssistantToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        fn.Name,
				Description: fn.Description,
				Parameters:  fn.Parameters,
			},
		})
	}

	req := openai.AssistantRequest{
		Model:        def.Model,
		Name:         &name,
		Instructions: &instructions,
		Tools:        tools,
	}

	if def.VectorStoreID != "" {
		req.ToolResources = &openai.AssistantToolResource{
			FileSearch: &openai.AssistantToolFileSearch{
				VectorStoreIDs: []string{def.VectorStoreID},
			},
		}
	}

	return req
}

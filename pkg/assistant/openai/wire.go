package openai

import (
	"github.com/papercomputeco/switchboard/pkg/assistant"
)

// The SDK models annotations as untyped values, so messages and runs are
// decoded from their wire JSON into these shapes and then converted into the
// tagged assistant types.

type wireMessage struct {
	ID        string        `json:"id"`
	Role      string        `json:"role"`
	RunID     *string       `json:"run_id"`
	CreatedAt int64         `json:"created_at"`
	Content   []wireContent `json:"content"`
}

type wireContent struct {
	Type string    `json:"type"`
	Text *wireText `json:"text"`
}

type wireText struct {
	Value       string           `json:"value"`
	Annotations []wireAnnotation `json:"annotations"`
}

type wireAnnotation struct {
	Type         string            `json:"type"`
	Text         string            `json:"text"`
	StartIndex   int               `json:"start_index"`
	EndIndex     int               `json:"end_index"`
	FileCitation *wireFileCitation `json:"file_citation"`
}

type wireFileCitation struct {
	FileID string `json:"file_id"`
}

type wireRun struct {
	ID             string              `json:"id"`
	ThreadID       string              `json:"thread_id"`
	Status         string              `json:"status"`
	RequiredAction *wireRequiredAction `json:"required_action"`
}

type wireRequiredAction struct {
	Type              string                 `json:"type"`
	SubmitToolOutputs *wireSubmitToolOutputs `json:"submit_tool_outputs"`
}

type wireSubmitToolOutputs struct {
	ToolCalls []wireToolCall `json:"tool_calls"`
}

type wireToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function wireFunctionCall `json:"function"`
}

type wireFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

func decodeMessage(v any) (assistant.Message, error) {
	w, err := reencode[wireMessage](v)
	if err != nil {
		return assistant.Message{}, err
	}

	msg := assistant.Message{
		ID:        w.ID,
		Role:      w.Role,
		CreatedAt: w.CreatedAt,
		Content:   make([]assistant.ContentBlock, 0, len(w.Content)),
	}
	if w.RunID != nil {
		msg.RunID = *w.RunID
	}

	for _, c := range w.Content {
		block := assistant.ContentBlock{Kind: assistant.ContentKind(c.Type)}
		if block.Kind == assistant.ContentKindText && c.Text != nil {
			block.Text = &assistant.TextContent{
				Value:       c.Text.Value,
				Annotations: decodeAnnotations(c.Text.Annotations),
			}
		}
		msg.Content = append(msg.Content, block)
	}

	return msg, nil
}

func decodeAnnotations(wire []wireAnnotation) []assistant.Annotation {
	if len(wire) == 0 {
		return nil
	}

	annotations := make([]assistant.Annotation, 0, len(wire))
	for _, w := range wire {
		a := assistant.Annotation{
			Kind:       assistant.AnnotationKind(w.Type),
			Text:       w.Text,
			StartIndex: w.StartIndex,
			EndIndex:   w.EndIndex,
		}
		if w.FileCitation != nil {
			a.FileCitation = &assistant.FileCitation{FileID: w.FileCitation.FileID}
		}
		annotations = append(annotations, a)
	}
	return annotations
}

func decodeRun(v any) (assistant.Run, error) {
	w, err := reencode[wireRun](v)
	if err != nil {
		return assistant.Run{}, err
	}

	run := assistant.Run{
		ID:       w.ID,
		ThreadID: w.ThreadID,
		Status:   assistant.RunStatus(w.Status),
	}

	if w.RequiredAction != nil && w.RequiredAction.SubmitToolOutputs != nil {
		for _, call := range w.RequiredAction.SubmitToolOutputs.ToolCalls {
			run.ToolCalls = append(run.ToolCalls, assistant.ToolCall{
				ID:        call.ID,
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			})
		}
	}

	return run, nil
}

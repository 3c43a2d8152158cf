package assistant

import "strings"

// ContentKind discriminates message content blocks.
type ContentKind string

const (
	ContentKindText      ContentKind = "text"
	ContentKindImageFile ContentKind = "image_file"
	ContentKindImageURL  ContentKind = "image_url"
)

// AnnotationKind discriminates text annotations.
type AnnotationKind string

const (
	AnnotationKindFileCitation AnnotationKind = "file_citation"
	AnnotationKindFilePath     AnnotationKind = "file_path"
)

// Message is a turn stored in a thread.
type Message struct {
	ID        string
	Role      string
	RunID     string
	CreatedAt int64
	Content   []ContentBlock
}

// ContentBlock is one block of message content. Text is set only when Kind
// is ContentKindText.
type ContentBlock struct {
	Kind ContentKind
	Text *TextContent
}

// TextContent is the value of a text block and the spans annotated in it.
type TextContent struct {
	Value       string
	Annotations []Annotation
}

// Annotation marks a span of generated text that points at supporting
// evidence.
type Annotation struct {
	Kind AnnotationKind

	// Text is the exact span in TextContent.Value this annotation covers.
	Text       string
	StartIndex int
	EndIndex   int

	// FileCitation is set for AnnotationKindFileCitation.
	FileCitation *FileCitation
}

// FileCitation references a provider file quoted by the assistant.
type FileCitation struct {
	FileID string
}

// NewTextMessage builds a message with a single text block.
func NewTextMessage(role, text string) Message {
	return Message{
		Role: role,
		Content: []ContentBlock{
			{Kind: ContentKindText, Text: &TextContent{Value: text}},
		},
	}
}

// TextValues returns the values of the message's text blocks in order.
func (m Message) TextValues() []string {
	values := make([]string, 0, len(m.Content))
	for _, block := range m.Content {
		if block.Kind == ContentKindText && block.Text != nil {
			values = append(values, block.Text.Value)
		}
	}
	return values
}

// Text joins the message's text blocks without a separator.
func (m Message) Text() string {
	return strings.Join(m.TextValues(), "")
}

// LastByRole returns the most recent message with the given role from a
// chronologically ordered slice.
func LastByRole(messages []Message, role string) (Message, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == role {
			return messages[i], true
		}
	}
	return Message{}, false
}

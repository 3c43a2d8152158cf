package orchestrator

import (
	"context"
	"strconv"
	"strings"

	"github.com/papercomputeco/switchboard/pkg/assistant"
)

// FileResolver resolves file IDs referenced by citations.
type FileResolver interface {
	RetrieveFile(ctx context.Context, fileID string) (assistant.File, error)
}

// ExtractAnswer concatenates the text blocks of an assistant message and
// rewrites its annotations.
//
// Within each block, every occurrence of annotation i's span text is replaced
// with "[i]", i counting from zero per block. File citations are resolved to
// filenames and returned in processing order across blocks. Citations is
// never nil.
func ExtractAnswer(ctx context.Context, files FileResolver, blocks []assistant.ContentBlock) (string, []string, error) {
	var answer strings.Builder
	citations := []string{}

	for _, block := range blocks {
		if block.Kind != assistant.ContentKindText || block.Text == nil {
			continue
		}

		value := block.Text.Value
		for i, ann := range block.Text.Annotations {
			if ann.Text != "" {
				value = strings.ReplaceAll(value, ann.Text, "["+strconv.Itoa(i)+"]")
			}

			if ann.FileCitation == nil {
				continue
			}

			file, err := files.RetrieveFile(ctx, ann.FileCitation.FileID)
			if err != nil {
				return "", nil, err
			}
			citations = append(citations, file.Filename)
		}

		answer.WriteString(value)
	}

	return answer.String(), citations, nil
}

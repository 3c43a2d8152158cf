package orchestrator_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/switchboard/orchestrator"
	"github.com/papercomputeco/switchboard/pkg/assistant"
	testutils "github.com/papercomputeco/switchboard/pkg/utils/test"
)

var _ = Describe("ExtractAnswer", func() {
	var files *testutils.MockAssistantClient

	BeforeEach(func() {
		files = testutils.NewMockAssistantClient()
		files.Files["f1"] = "one.md"
		files.Files["f2"] = "two.md"
		files.Files["f3"] = "three.md"
	})

	text := func(value string, anns ...assistant.Annotation) assistant.ContentBlock {
		return assistant.ContentBlock{
			Kind: assistant.ContentKindText,
			Text: &assistant.TextContent{Value: value, Annotations: anns},
		}
	}

	It("restarts marker numbering in each block", func() {
		blocks := []assistant.ContentBlock{
			text("a† b‡ ", fileCitation("†", "f1"), fileCitation("‡", "f2")),
			{Kind: assistant.ContentKindImageFile},
			text("c§", fileCitation("§", "f3")),
		}

		answer, citations, err := orchestrator.ExtractAnswer(context.Background(), files, blocks)
		Expect(err).NotTo(HaveOccurred())
		Expect(answer).To(Equal("a[0] b[1] c[0]"))
		Expect(citations).To(Equal([]string{"one.md", "two.md", "three.md"}))
	})

	It("replaces annotations without a file citation but cites nothing", func() {
		blocks := []assistant.ContentBlock{
			text("see ref", assistant.Annotation{Kind: assistant.AnnotationKindFilePath, Text: "ref"}),
		}

		answer, citations, err := orchestrator.ExtractAnswer(context.Background(), files, blocks)
		Expect(err).NotTo(HaveOccurred())
		Expect(answer).To(Equal("see [0]"))
		Expect(citations).To(BeEmpty())
		Expect(files.Calls("RetrieveFile")).To(Equal(0))
	})

	It("leaves text alone for empty spans", func() {
		blocks := []assistant.ContentBlock{
			text("abc", fileCitation("", "f1")),
		}

		answer, citations, err := orchestrator.ExtractAnswer(context.Background(), files, blocks)
		Expect(err).NotTo(HaveOccurred())
		Expect(answer).To(Equal("abc"))
		Expect(citations).To(Equal([]string{"one.md"}))
	})

	It("allows duplicate citations", func() {
		blocks := []assistant.ContentBlock{
			text("x y", fileCitation("x", "f1"), fileCitation("y", "f1")),
		}

		_, citations, err := orchestrator.ExtractAnswer(context.Background(), files, blocks)
		Expect(err).NotTo(HaveOccurred())
		Expect(citations).To(Equal([]string{"one.md", "one.md"}))
	})

	It("returns an empty, non-nil citation list for plain text", func() {
		answer, citations, err := orchestrator.ExtractAnswer(context.Background(), files, []assistant.ContentBlock{text("plain")})
		Expect(err).NotTo(HaveOccurred())
		Expect(answer).To(Equal("plain"))
		Expect(citations).NotTo(BeNil())
	})
})

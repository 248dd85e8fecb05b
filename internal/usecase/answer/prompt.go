package answer

import (
	"fmt"
	"strings"

	"github.com/claimsdesk/claimsdesk/internal/domain"
)

const promptTemplate = `You are an expert in United Kingdom Benefit Claims and Medical Negligence Claims. Answer the QUESTION based on the CONTEXT from
the FAQ databases of Benefits database and NHS claims management.
Use only the facts from the CONTEXT when answering the QUESTION.

QUESTION: %s

CONTEXT:
%s`

// BuildPrompt renders the answering prompt: the question followed by the
// retrieved FAQ entries as labelled context blocks.
func BuildPrompt(question string, docs []domain.FAQDocument) string {
	entries := make([]string, len(docs))
	for i, doc := range docs {
		entries[i] = fmt.Sprintf(
			"category: %s\nquestion: %s\nanswer: %s\nsection: %s\n",
			doc.Category, doc.Question, doc.Answer, doc.Section,
		)
	}
	context := strings.Join(entries, "\n\n")
	return strings.TrimSpace(fmt.Sprintf(promptTemplate, question, context))
}

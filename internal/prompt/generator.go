// Package prompt renders the LLM prompts of the tutor.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mathbuddy/mathbuddy-go/internal/emotion"
	"github.com/mathbuddy/mathbuddy-go/internal/model"
)

// Generator builds description, QA and tutor prompts.
type Generator struct{}

// NewGenerator creates a prompt generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// TutorInput optional signals rendered into the tutor prompt. Zero values are
// left out; a merged sentiment also adds the pedagogical mapping.
type TutorInput struct {
	Conversation    []model.Message
	MergedSentiment emotion.Sentiment
	QAPairs         string
}

// DescriptionPrompt asks for a description of the student's notes.
func (g *Generator) DescriptionPrompt(conversation []model.Message) string {
	return fmt.Sprintf(descriptionPrompt, ConversationJSON(conversation))
}

// QAPrompt asks for question-answer pairs about description.
func (g *Generator) QAPrompt(conversation []model.Message, description string) string {
	return fmt.Sprintf(qaPrompt, ConversationJSON(conversation), description)
}

// TutorPrompt renders the prompt that drafts the next tutor reply.
func (g *Generator) TutorPrompt(in TutorInput) string {
	mapping := ""
	if in.MergedSentiment != "" {
		mapping = pedagogicalMapping
	}

	var b strings.Builder
	fmt.Fprintf(&b, tutorPrompt, mapping, ConversationJSON(in.Conversation))

	if in.MergedSentiment != "" {
		fmt.Fprintf(&b, mergedSentimentSection, in.MergedSentiment.Title())
	}
	if in.QAPairs != "" {
		fmt.Fprintf(&b, qaPairsSection, in.QAPairs)
	}
	b.WriteString(responseTrailer)

	return b.String()
}

// ConversationJSON renders conversation as [{"text":..., "user": ...}].
func ConversationJSON(conversation []model.Message) string {
	parts := make([]string, len(conversation))
	for i, m := range conversation {
		parts[i] = fmt.Sprintf(`{"text":%s, "user": %s}`, quote(m.Content), quote(string(m.Role)))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// quote JSON-encodes s without HTML escaping.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

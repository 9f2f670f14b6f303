package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// GeneratedQuestion is the shape the model is asked to produce for quiz
// generation.
type GeneratedQuestion struct {
	Text          string   `json:"text"`
	Type          string   `json:"type"` // multiple-choice|short-answer
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer"`
	Points        int      `json:"points"`
}

// GenerateQuizQuestions asks the model for n questions over the given
// material and decodes the structured reply.
func (c *Client) GenerateQuizQuestions(ctx context.Context, topic, content string, n int) ([]GeneratedQuestion, error) {
	if n <= 0 {
		n = 5
	}
	system := "You are an expert assessment creator."

	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate %d quiz questions based on the following topic and content.\n", n)
	fmt.Fprintf(&sb, "Topic: %s\nContent:\n%s\n\n", topic, truncate(content, 4000))
	sb.WriteString("Mix multiple-choice and short-answer questions. For multiple-choice provide exactly 4 options and one correct answer that matches an option verbatim.\n")
	sb.WriteString(`Respond ONLY with a JSON object: {"questions": [{"text": "...", "type": "multiple-choice"|"short-answer", "options": ["..."], "correct_answer": "...", "points": <positive integer>}]}`)

	raw, err := c.CompleteJSON(ctx, system, sb.String())
	if err != nil {
		return nil, err
	}

	var out struct {
		Questions []GeneratedQuestion `json:"questions"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("parse generated questions: %w (raw: %s)", err, raw)
	}
	return out.Questions, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

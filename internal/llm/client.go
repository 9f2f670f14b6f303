package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// GradeRequest carries everything the model needs to score one free-text
// answer.
type GradeRequest struct {
	QuestionText  string
	CorrectAnswer string // canonical answer, may be empty
	StudentAnswer string
	MaxPoints     int
}

// GradeResult is the structured reply contract. The model is instructed to
// return exactly this JSON shape; anything else is an error, never a guess.
type GradeResult struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// Grader is what the scoring engine depends on. Satisfied by Client and by
// test doubles.
type Grader interface {
	GradeAnswer(ctx context.Context, req GradeRequest) (GradeResult, error)
}

// Client wraps an OpenAI-compatible completion API.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// New builds a client. baseURL may be empty for the default endpoint;
// timeout bounds every individual completion call.
func New(baseURL, apiKey, model string, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{api: openai.NewClientWithConfig(cfg), model: model, timeout: timeout}
}

// GradeAnswer asks the model to score a free-text answer out of MaxPoints.
// One retry on transport-level failure; a malformed reply is returned as an
// error without retrying, since the model already answered.
func (c *Client) GradeAnswer(ctx context.Context, req GradeRequest) (GradeResult, error) {
	system := "You are an educational assistant grading student answers. " +
		"Respond ONLY with a JSON object: {\"score\": <number between 0 and the maximum>, \"feedback\": \"<brief rationale>\"}."

	prompt := fmt.Sprintf("Question: %s\n", req.QuestionText)
	if req.CorrectAnswer != "" {
		prompt += fmt.Sprintf("Reference answer: %s\n", req.CorrectAnswer)
	}
	prompt += fmt.Sprintf("Student answer: %s\nMaximum points: %d\n", req.StudentAnswer, req.MaxPoints)
	prompt += "Partial credit is allowed. Grade the student answer."

	raw, err := c.complete(ctx, system, prompt, true)
	if err != nil {
		return GradeResult{}, err
	}

	var res GradeResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return GradeResult{}, fmt.Errorf("grader returned malformed reply: %w (raw: %s)", err, raw)
	}
	return res, nil
}

// Complete is the generic passthrough used by the AI endpoints.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	return c.complete(ctx, system, prompt, false)
}

// CompleteJSON requests a JSON-object reply for endpoints that parse the
// result (quiz generation, outlines).
func (c *Client) CompleteJSON(ctx context.Context, system, prompt string) (string, error) {
	return c.complete(ctx, system, prompt, true)
}

func (c *Client) complete(ctx context.Context, system, prompt string, jsonMode bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.api.CreateChatCompletion(callCtx, req)
		cancel()
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", errors.New("completion API returned no choices")
			}
			return resp.Choices[0].Message.Content, nil
		}
		lastErr = err
		if !retryable(err) || ctx.Err() != nil {
			break
		}
		slog.Warn("completion call failed, retrying once", "err", err)
	}
	return "", fmt.Errorf("completion API call: %w", lastErr)
}

// retryable reports whether the failure is worth one more attempt: transport
// errors and throttling/5xx statuses. A well-formed 4xx is final.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	return !errors.Is(err, context.Canceled)
}

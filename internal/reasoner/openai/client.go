package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Moniqchege/resume-builder/internal/reasoner"
	"github.com/Moniqchege/resume-builder/internal/shared/telemetry"
)

const apiURL = "https://api.openai.com/v1/chat/completions"

// Per-capability sampling temperatures. Extraction and scoring need
// repeatable output; suggestions benefit from variety; the rewrite sits
// in between so the text stays natural without drifting from the facts.
const (
	tempExtract float32 = 0.1
	tempScore   float32 = 0.1
	tempSuggest float32 = 0.7
	tempRewrite float32 = 0.4
)

// Client implements reasoner.Client using OpenAI Chat Completions.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new OpenAI client.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("REASONER_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: apiURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float32        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (c *Client) ExtractKeywords(ctx context.Context, jobDescription string) (reasoner.KeywordSet, error) {
	raw, err := c.chatJSON(ctx, "extract_keywords", tempExtract, extractSystemPrompt, extractUserPrompt(jobDescription))
	if err != nil {
		return reasoner.KeywordSet{}, err
	}
	var set reasoner.KeywordSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return reasoner.KeywordSet{}, fmt.Errorf("keyword payload: %w: %v", reasoner.ErrMalformed, err)
	}
	if len(set.Required) == 0 {
		return reasoner.KeywordSet{}, fmt.Errorf("keyword payload missing required list: %w", reasoner.ErrMalformed)
	}
	return set, nil
}

func (c *Client) ScoreResume(ctx context.Context, input reasoner.ScoreInput) (reasoner.SubScores, error) {
	raw, err := c.chatJSON(ctx, "score_resume", tempScore, scoreSystemPrompt, scoreUserPrompt(input))
	if err != nil {
		return reasoner.SubScores{}, err
	}
	var scores reasoner.SubScores
	if err := json.Unmarshal(raw, &scores); err != nil {
		return reasoner.SubScores{}, fmt.Errorf("score payload: %w: %v", reasoner.ErrMalformed, err)
	}
	return scores, nil
}

func (c *Client) SuggestImprovements(ctx context.Context, input reasoner.SuggestInput) ([]reasoner.Suggestion, error) {
	raw, err := c.chatJSON(ctx, "suggest_improvements", tempSuggest, suggestSystemPrompt, suggestUserPrompt(input))
	if err != nil {
		return nil, err
	}
	var payload struct {
		Suggestions []reasoner.Suggestion `json:"suggestions"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("suggestion payload: %w: %v", reasoner.ErrMalformed, err)
	}
	return payload.Suggestions, nil
}

func (c *Client) RewriteResume(ctx context.Context, input reasoner.RewriteInput) (string, error) {
	content, err := c.chatOnce(ctx, "rewrite_resume", tempRewrite, nil, rewriteSystemPrompt, rewriteUserPrompt(input))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("rewrite returned empty text: %w", reasoner.ErrMalformed)
	}
	return content, nil
}

// chatJSON runs a capability that must return a JSON object.
func (c *Client) chatJSON(ctx context.Context, capability string, temp float32, system, user string) (json.RawMessage, error) {
	content, err := c.chatOnce(ctx, capability, temp, &responseFormat{Type: "json_object"}, system, user)
	if err != nil {
		return nil, err
	}
	raw := json.RawMessage(stripCodeFence(content))
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%s returned invalid JSON: %w", capability, reasoner.ErrMalformed)
	}
	return raw, nil
}

func (c *Client) chatOnce(ctx context.Context, capability string, temp float32, format *responseFormat, system, user string) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    &temp,
		ResponseFormat: format,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("openai request timeout: %w", err)
		}
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai response missing choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("openai response empty content")
	}
	logUsage(c.model, capability, parsed)
	return content, nil
}

// stripCodeFence removes a ```json fence some models wrap around JSON output.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func logUsage(model, capability string, parsed chatResponse) {
	fields := map[string]any{
		"model":      model,
		"capability": capability,
	}
	if parsed.Usage != nil {
		fields["prompt_tokens"] = parsed.Usage.PromptTokens
		fields["completion_tokens"] = parsed.Usage.CompletionTokens
		fields["total_tokens"] = parsed.Usage.TotalTokens
	}
	telemetry.Info("reasoner.response", fields)
}

var _ reasoner.Client = (*Client)(nil)

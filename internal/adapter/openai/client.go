package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/peakline/corridor-vibes/internal/domain"
	"github.com/peakline/corridor-vibes/internal/observability"
)

const systemPrompt = "You normalize highway incident reports for a traveler-facing app. " +
	"Given a raw incident message, its type, and its severity, respond with JSON " +
	`{"summary": string, "penalty": number}. The summary is one plain sentence under ` +
	"100 characters with no jargon or road-agency codes. The penalty is 0-10, where 0 " +
	"means no impact on traffic flow and 10 means the road is impassable."

// Client implements domain.TextNormalizer using the OpenAI chat completions API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an OpenAI text-normalization client.
func NewClient(apiKey, model, baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// Normalize cleans a raw incident message into a summary and penalty.
// Responses that violate the summary or penalty contract are errors; the
// caller applies its own fallback.
func (c *Client) Normalize(ctx context.Context, rawText, incidentType, severity string) (domain.Normalization, error) {
	start := time.Now()
	norm, err := c.normalize(ctx, rawText, incidentType, severity)
	if c.metrics != nil {
		c.metrics.NormalizeAPIDuration.Observe(time.Since(start).Seconds())
	}
	return norm, err
}

func (c *Client) normalize(ctx context.Context, rawText, incidentType, severity string) (domain.Normalization, error) {
	userPrompt := fmt.Sprintf("Type: %s\nSeverity: %s\nMessage: %s", incidentType, severity, rawText)

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
		Temperature:    0,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return domain.Normalization{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return domain.Normalization{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Normalization{}, fmt.Errorf("normalize request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Normalization{}, fmt.Errorf("openai API error: status %d: %s", resp.StatusCode, body)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return domain.Normalization{}, fmt.Errorf("decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return domain.Normalization{}, fmt.Errorf("empty choices in response")
	}

	var norm domain.Normalization
	if err := json.Unmarshal([]byte(chatResp.Choices[0].Message.Content), &norm); err != nil {
		return domain.Normalization{}, fmt.Errorf("decode normalization content: %w", err)
	}
	if err := domain.ValidateNormalization(norm); err != nil {
		return domain.Normalization{}, fmt.Errorf("invalid normalization: %w", err)
	}

	return norm, nil
}

// OpenAI chat completions API types, limited to the fields used.

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

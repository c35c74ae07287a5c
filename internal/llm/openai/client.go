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

	"studyhub-backend/internal/llm"
	"studyhub-backend/internal/shared/telemetry"
)

const (
	chatURL   = "https://api.openai.com/v1/chat/completions"
	imagesURL = "https://api.openai.com/v1/images/generations"
)

// Client implements llm.Client using the OpenAI chat completions and
// image generation APIs.
type Client struct {
	apiKey     string
	model      string
	imageModel string
	httpClient *http.Client

	// overridable in tests
	chatEndpoint   string
	imagesEndpoint string
}

// NewClient constructs an OpenAI client.
func NewClient(apiKey, model, imageModel string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(imageModel) == "" {
		imageModel = "dall-e-3"
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		apiKey:         apiKey,
		model:          model,
		imageModel:     imageModel,
		httpClient:     &http.Client{Timeout: timeout},
		chatEndpoint:   chatURL,
		imagesEndpoint: imagesURL,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float32        `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
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
	Error *apiError `json:"error,omitempty"`
}

// Complete sends one chat completion request.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (llm.Completion, error) {
	temp := req.Temperature
	body := chatRequest{
		Model:       c.model,
		Temperature: &temp,
		MaxTokens:   req.MaxTokens,
	}
	if strings.TrimSpace(req.System) != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.System})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.Prompt})
	if req.Shape == llm.ShapeJSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return llm.Completion{}, err
	}

	raw, err := c.post(ctx, c.chatEndpoint, payload)
	if err != nil {
		return llm.Completion{}, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return llm.Completion{}, fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return llm.Completion{}, providerError(parsed.Error)
	}
	if len(parsed.Choices) == 0 {
		return llm.Completion{}, fmt.Errorf("%w: response missing choices", llm.ErrMalformedResponse)
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return llm.Completion{}, fmt.Errorf("%w: response empty content", llm.ErrMalformedResponse)
	}
	if req.Shape == llm.ShapeJSON && !json.Valid([]byte(content)) {
		return llm.Completion{}, fmt.Errorf("%w: invalid JSON from provider", llm.ErrMalformedResponse)
	}
	result := llm.Completion{Content: content}
	if parsed.Usage != nil {
		result.TokensUsed = parsed.Usage.TotalTokens
		telemetry.Info("openai.usage", map[string]any{
			"model":            parsed.Model,
			"promptTokens":     parsed.Usage.PromptTokens,
			"completionTokens": parsed.Usage.CompletionTokens,
			"totalTokens":      parsed.Usage.TotalTokens,
		})
	}
	return result, nil
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size,omitempty"`
	Quality        string `json:"quality,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
}

type imageResponse struct {
	Data []struct {
		URL           string `json:"url"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

// GenerateImage sends one image generation request.
func (c *Client) GenerateImage(ctx context.Context, req llm.ImageRequest) (llm.Image, error) {
	body := imageRequest{
		Model:          c.imageModel,
		Prompt:         req.Prompt,
		N:              1,
		Size:           req.Size,
		Quality:        req.Quality,
		ResponseFormat: "url",
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return llm.Image{}, err
	}

	raw, err := c.post(ctx, c.imagesEndpoint, payload)
	if err != nil {
		return llm.Image{}, err
	}

	var parsed imageResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return llm.Image{}, fmt.Errorf("openai image response parse: %w", err)
	}
	if parsed.Error != nil {
		return llm.Image{}, providerError(parsed.Error)
	}
	if len(parsed.Data) == 0 || strings.TrimSpace(parsed.Data[0].URL) == "" {
		return llm.Image{}, fmt.Errorf("%w: image response missing data", llm.ErrMalformedResponse)
	}
	return llm.Image{
		URL:           parsed.Data[0].URL,
		RevisedPrompt: parsed.Data[0].RevisedPrompt,
	}, nil
}

func (c *Client) post(ctx context.Context, url string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, fmt.Errorf("openai request timeout: %w", err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return nil, llm.ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, llm.ErrUnauthorized
	}
	return body, nil
}

func providerError(apiErr *apiError) error {
	switch apiErr.Type {
	case "insufficient_quota", "rate_limit_exceeded":
		return llm.ErrRateLimited
	case "invalid_api_key", "authentication_error":
		return llm.ErrUnauthorized
	}
	return fmt.Errorf("openai error: %s (%s)", apiErr.Message, apiErr.Type)
}

package llm

import (
	"context"
	"errors"
)

// Shape tells the provider what form the completion must take.
type Shape string

const (
	// ShapeText asks for free-form prose.
	ShapeText Shape = "text"
	// ShapeJSON asks for a single JSON object.
	ShapeJSON Shape = "json"
)

// CompletionRequest captures one chat completion call.
type CompletionRequest struct {
	System      string
	Prompt      string
	Shape       Shape
	Temperature float32
	MaxTokens   int
}

// ImageRequest captures one image generation call.
type ImageRequest struct {
	Prompt  string
	Size    string
	Quality string
}

// Image is the result of an image generation call.
type Image struct {
	URL           string
	RevisedPrompt string
}

// Completion is the result of a chat completion call.
type Completion struct {
	Content    string
	TokensUsed int
}

// Client abstracts the LLM provider behind the assistant features.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
	GenerateImage(ctx context.Context, req ImageRequest) (Image, error)
}

var (
	// ErrRateLimited indicates the provider throttled the request.
	ErrRateLimited = errors.New("llm provider rate limited")
	// ErrUnauthorized indicates the provider rejected the API key.
	ErrUnauthorized = errors.New("llm provider rejected credentials")
	// ErrMalformedResponse indicates the provider returned content that
	// does not satisfy the requested shape.
	ErrMalformedResponse = errors.New("llm provider returned malformed content")
)

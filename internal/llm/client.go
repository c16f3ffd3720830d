package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/domain"
)

// Config configures access to an OpenAI-compatible API.
type Config struct {
	APIKey  string
	BaseURL string
}

// NewClient builds the shared API client used by the embedder and the
// completer. BaseURL may point at any OpenAI-compatible endpoint.
func NewClient(cfg Config) *openai.Client {
	c := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(c)
}

// wrapTimeout marks deadline expiry with the timeout error so callers can
// tell a slow backend apart from a hard failure.
func wrapTimeout(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	return err
}

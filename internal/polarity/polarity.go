// Package polarity scores free text on a [-1, 1] sentiment scale.
package polarity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	BackendVader  = "vader"
	BackendOpenAI = "openai"

	DefaultOpenAIModel = "gpt-5-mini"
)

// ErrUnknownBackend is returned by New for a backend name it does not know.
var ErrUnknownBackend = errors.New("unknown polarity backend")

// Scorer returns a polarity in [-1, 1] for text. Blank text scores 0.
type Scorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// Config selects and configures a scorer backend.
type Config struct {
	Backend      string
	OpenAIAPIKey string
	OpenAIModel  string
}

// New builds the scorer named by cfg.Backend. It is meant to be called once
// per run and the result shared.
func New(cfg Config) (Scorer, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendVader:
		return NewVader(), nil
	case BackendOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("openai backend requires an API key")
		}
		model := cfg.OpenAIModel
		if model == "" {
			model = DefaultOpenAIModel
		}
		client := openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey))
		return NewOpenAI(&client.Responses, model), nil
	default:
		return nil, fmt.Errorf("%w: %q (must be %s or %s)", ErrUnknownBackend, cfg.Backend, BackendVader, BackendOpenAI)
	}
}

func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

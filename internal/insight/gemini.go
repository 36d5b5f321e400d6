package insight

import (
	"context"
	"errors"
	"fmt"

	"fleet-dashboard/internal/config"

	log "github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// ErrNotConfigured is returned by generators that have no API key.
var ErrNotConfigured = errors.New("insight generator is not configured")

// GeminiGenerator generates reports with the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a Gemini-backed generator.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-3-flash-preview"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate content failed: %w", err)
	}
	return resp.Text(), nil
}

// unconfigured fails every request so the fallback report is shown.
type unconfigured struct{}

func (unconfigured) Generate(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}

// NewGenerator picks the Gemini generator when an API key is configured.
// Without a key, or if the client cannot be created, it returns a generator
// that always fails.
func NewGenerator(ctx context.Context, cfg config.InsightConfig) Generator {
	if cfg.APIKey == "" {
		log.Warn("No GEMINI_API_KEY set, insight reports will use the fallback message")
		return unconfigured{}
	}

	generator, err := NewGeminiGenerator(ctx, cfg.APIKey, cfg.Model)
	if err != nil {
		log.WithError(err).Error("Failed to initialize Gemini generator")
		return unconfigured{}
	}

	log.WithField("model", generator.model).Info("Gemini insight generator ready")
	return generator
}

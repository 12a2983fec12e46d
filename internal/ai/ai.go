// Package ai generates legal document drafts with Google Gemini.
package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/diewo77/go-lawfirm/internal/apperr"
	"github.com/diewo77/go-lawfirm/internal/config"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const service = "gemini"

var (
	ErrNotConfigured = errors.New("gemini api key is not configured")
	ErrEmptyResponse = errors.New("gemini returned no text")
)

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gemini calls the Gemini API. Errors are wrapped as apperr.ErrExternalService.
type Gemini struct {
	client *genai.Client
	model  string
}

// New returns a Gemini generator, or Disabled when no API key is configured.
func New(ctx context.Context, cfg config.GeminiConfig) (Generator, error) {
	if !cfg.Enabled() {
		return Disabled{}, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, apperr.External(service, err)
	}
	return &Gemini{client: client, model: cfg.Model}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	m := g.client.GenerativeModel(g.model)
	m.SetTemperature(0.7)
	m.SetMaxOutputTokens(4096)
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", apperr.External(service, err)
	}
	text := ResponseText(resp)
	if text == "" {
		return "", apperr.External(service, ErrEmptyResponse)
	}
	return text, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error { return g.client.Close() }

// ResponseText concatenates the text parts of the first candidate.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}

// Disabled is used when no API key is configured. Every call fails with
// apperr.ErrExternalService.
type Disabled struct{}

func (Disabled) Generate(context.Context, string) (string, error) {
	return "", apperr.External(service, ErrNotConfigured)
}

package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/go-lawfirm/internal/apperr"
	"github.com/diewo77/go-lawfirm/internal/config"
	"github.com/google/generative-ai-go/genai"
)

func TestNewWithoutKeyIsDisabled(t *testing.T) {
	g, err := New(context.Background(), config.GeminiConfig{})
	if err != nil {
		t.Fatal(err)
	}
	_, err = g.Generate(context.Background(), "dilekçe")
	if !errors.Is(err, apperr.ErrExternalService) || !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected external service error, got %v", err)
	}
}

func TestResponseText(t *testing.T) {
	if got := ResponseText(nil); got != "" {
		t.Fatalf("nil response: %q", got)
	}
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text("Sayın "), genai.Text("Mahkeme\n")}},
	}}}
	if got := ResponseText(resp); got != "Sayın Mahkeme" {
		t.Fatalf("got %q", got)
	}
	empty := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}
	if got := ResponseText(empty); got != "" {
		t.Fatalf("candidate without content: %q", got)
	}
}

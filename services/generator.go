package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"promptparty/models"
)

const systemPrompt = `Create a simple HTML game.

Requirements:
- HTML, CSS and JavaScript only
- Self-contained in a single file
- Responsive layout
- A simple game that is fun within five seconds

Output: only the complete HTML code starting with <!DOCTYPE html>. No comments or explanations.`

// Generator produces raw game text for a prompt. Implementations report the
// provider's finish reason so the extraction pipeline can decide whether
// truncated output is repairable.
type Generator interface {
	Generate(ctx context.Context, prompt string, recent []models.PromptRecord, theme models.Theme) (string, FinishReason, error)
}

// GeminiGenerator backs Generator with the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key not configured")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create generative client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, recent []models.PromptRecord, theme models.Theme) (string, FinishReason, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetMaxOutputTokens(8192)
	model.SetTemperature(0.7)
	model.SetTopP(0.8)

	resp, err := model.GenerateContent(ctx, genai.Text(buildGenerationPrompt(prompt, recent, theme)))
	if err != nil {
		return "", "", fmt.Errorf("generation request failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", "", errors.New("no candidates in response")
	}

	candidate := resp.Candidates[0]
	var b strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				b.WriteString(string(txt))
			}
		}
	}
	return b.String(), mapFinishReason(candidate.FinishReason), nil
}

func buildGenerationPrompt(prompt string, recent []models.PromptRecord, theme models.Theme) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")

	if theme.Title != "" {
		b.WriteString("Theme: " + theme.Title + "\n")
	}

	// Only the three most recent refinements are carried forward.
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	if len(recent) > 0 {
		b.WriteString("Previous refinements: ")
		for i, p := range recent {
			fmt.Fprintf(&b, "%d.%s ", i+1, p.Text)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Instruction: %s\n\nHTML:", prompt)
	return b.String()
}

func mapFinishReason(reason genai.FinishReason) FinishReason {
	switch reason {
	case genai.FinishReasonStop, genai.FinishReasonUnspecified:
		return FinishStop
	case genai.FinishReasonMaxTokens:
		return FinishMaxTokens
	default:
		return FinishReason(reason.String())
	}
}

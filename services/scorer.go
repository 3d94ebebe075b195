package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"promptparty/models"
)

// ScoreResult is what the external evaluator returns for one artifact.
type ScoreResult struct {
	DetailScores map[string]int `json:"detailScores"`
	TotalScore   int            `json:"totalScore"`
	Comment      string         `json:"comment"`
}

// Scorer evaluates a generated game against its theme and prompt history.
type Scorer interface {
	Score(ctx context.Context, htmlContent string, theme models.Theme, promptHistory []string) (*ScoreResult, error)
}

// GeminiScorer backs Scorer with the Gemini API.
type GeminiScorer struct {
	client *genai.Client
	model  string
}

func NewGeminiScorer(ctx context.Context, apiKey, model string) (*GeminiScorer, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key not configured")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create generative client: %w", err)
	}
	return &GeminiScorer{client: client, model: model}, nil
}

func (s *GeminiScorer) Close() error {
	return s.client.Close()
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

func (s *GeminiScorer) Score(ctx context.Context, htmlContent string, theme models.Theme, promptHistory []string) (*ScoreResult, error) {
	model := s.client.GenerativeModel(s.model)

	resp, err := model.GenerateContent(ctx, genai.Text(buildScoringPrompt(htmlContent, theme, promptHistory)))
	if err != nil {
		return nil, fmt.Errorf("scoring request failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("no candidates in scoring response")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}

	raw := jsonObjectRe.FindString(b.String())
	if raw == "" {
		return nil, errors.New("scoring response contains no JSON object")
	}

	var result ScoreResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("failed to parse scoring response: %w", err)
	}
	if result.DetailScores == nil {
		return nil, errors.New("invalid scoring result: detailScores missing")
	}
	return &result, nil
}

func buildScoringPrompt(htmlContent string, theme models.Theme, promptHistory []string) string {
	var history strings.Builder
	for i, p := range promptHistory {
		fmt.Fprintf(&history, "%d. %s\n", i+1, p)
	}
	if history.Len() == 0 {
		history.WriteString("1. (no prompts recorded)\n")
	}

	return fmt.Sprintf(`You are an expert prompt evaluator. Judge the following game-building
challenge on how well the participants' prompts satisfied the brief.

[Brief]
Title: %s
Description: %s
Required features: %s

[Participants' prompt history]
%s
[The game the AI generated]
%s

[Scoring criteria] (1000 points total)
This challenge is a contest of prompting skill. Rate how well the participants
directed the AI:

1. requiredFeatures (200): did the prompts capture the brief's requirements
2. completeness (200): does the result hold together as a finished game
3. uiUx (200): visual and interaction quality
4. playability (200): is it actually fun to play
5. creativity (200): original ideas and clever touches

Grade strictly: 400-550 is average, 650-750 is excellent. Use single-point
granularity and give every category a different value. Short prompts that
satisfy the brief score high; long prompts with poor results score low.

Respond with JSON only, in this exact shape:
{
  "detailScores": {
    "requiredFeatures": 0,
    "completeness": 0,
    "uiUx": 0,
    "playability": 0,
    "creativity": 0
  },
  "comment": "two or three sentences on the game and how the prompts shaped it, slightly casual and blunt"
}`,
		theme.Title, theme.Description, strings.Join(theme.Requirements, ", "),
		history.String(), htmlContent)
}

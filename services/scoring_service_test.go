package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptparty/models"
)

type mockScorer struct {
	scoreFn func(ctx context.Context, htmlContent string, theme models.Theme, promptHistory []string) (*ScoreResult, error)
	calls   int
}

func (m *mockScorer) Score(ctx context.Context, htmlContent string, theme models.Theme, promptHistory []string) (*ScoreResult, error) {
	m.calls++
	return m.scoreFn(ctx, htmlContent, theme, promptHistory)
}

func fixedScore(total int) *ScoreResult {
	return &ScoreResult{
		DetailScores: map[string]int{
			"requiredFeatures": total / 5,
			"completeness":     total / 5,
			"uiUx":             total / 5,
			"playability":      total / 5,
			"creativity":       total - 4*(total/5),
		},
		Comment: "solid entry",
	}
}

func newTestScoringService(t *testing.T, scorer Scorer) (*ScoringService, string) {
	t.Helper()
	dir := t.TempDir()
	service, err := NewScoringService(dir, scorer, testLogger())
	require.NoError(t, err)
	return service, filepath.Join(dir, "scores")
}

func scoredArtifact(participant string) *models.GameArtifact {
	return &models.GameArtifact{
		Participant:   participant,
		Prompt:        "make a clicker",
		PromptHistory: []string{"make a clicker"},
		FileName:      "game_001_" + participant + ".html",
		CreatedAt:     time.Now(),
		HTML:          wellFormedDoc,
	}
}

func TestScoringServiceScoreGame(t *testing.T) {
	theme := models.Theme{Title: "Build a game that tests reflexes!"}

	t.Run("persists the record and computes the total", func(t *testing.T) {
		scorer := &mockScorer{scoreFn: func(ctx context.Context, html string, th models.Theme, history []string) (*ScoreResult, error) {
			return fixedScore(850), nil
		}}
		service, scoresDir := newTestScoringService(t, scorer)

		record, err := service.ScoreGame(context.Background(), "game1", scoredArtifact("Aki"), theme)
		require.NoError(t, err)
		assert.Equal(t, 850, record.TotalScore)
		assert.Equal(t, "Aki", record.Participant)
		assert.Equal(t, theme.Title, record.Theme)
		assert.Equal(t, 1, record.PromptCount)

		_, err = os.Stat(filepath.Join(scoresDir, "score_game1.json"))
		assert.NoError(t, err)
		_, err = os.Stat(filepath.Join(scoresDir, "rankings.json"))
		assert.NoError(t, err, "a score write rebuilds the snapshot")
	})

	t.Run("write-once: a second call returns the stored record", func(t *testing.T) {
		scorer := &mockScorer{scoreFn: func(ctx context.Context, html string, th models.Theme, history []string) (*ScoreResult, error) {
			return fixedScore(850), nil
		}}
		service, _ := newTestScoringService(t, scorer)

		first, err := service.ScoreGame(context.Background(), "game1", scoredArtifact("Aki"), theme)
		require.NoError(t, err)
		second, err := service.ScoreGame(context.Background(), "game1", scoredArtifact("Aki"), theme)
		require.NoError(t, err)

		assert.Equal(t, 1, scorer.calls, "the evaluator runs once")
		assert.True(t, first.ScoredAt.Equal(second.ScoredAt), "identical scoredAt proves the cache hit")
	})

	t.Run("rejects a response missing a category", func(t *testing.T) {
		scorer := &mockScorer{scoreFn: func(ctx context.Context, html string, th models.Theme, history []string) (*ScoreResult, error) {
			result := fixedScore(850)
			delete(result.DetailScores, "creativity")
			return result, nil
		}}
		service, _ := newTestScoringService(t, scorer)

		_, err := service.ScoreGame(context.Background(), "game1", scoredArtifact("Aki"), theme)
		assert.Error(t, err)
	})

	t.Run("rejects an out-of-range category", func(t *testing.T) {
		scorer := &mockScorer{scoreFn: func(ctx context.Context, html string, th models.Theme, history []string) (*ScoreResult, error) {
			result := fixedScore(850)
			result.DetailScores["creativity"] = 201
			return result, nil
		}}
		service, _ := newTestScoringService(t, scorer)

		_, err := service.ScoreGame(context.Background(), "game1", scoredArtifact("Aki"), theme)
		assert.Error(t, err)
	})

	t.Run("evaluator failure surfaces and persists nothing", func(t *testing.T) {
		scorer := &mockScorer{scoreFn: func(ctx context.Context, html string, th models.Theme, history []string) (*ScoreResult, error) {
			return nil, errors.New("quota exceeded")
		}}
		service, scoresDir := newTestScoringService(t, scorer)

		_, err := service.ScoreGame(context.Background(), "game1", scoredArtifact("Aki"), theme)
		require.Error(t, err)
		_, err = os.Stat(filepath.Join(scoresDir, "score_game1.json"))
		assert.True(t, os.IsNotExist(err))
	})
}

func TestScoringServiceGetScore(t *testing.T) {
	scorer := &mockScorer{scoreFn: func(ctx context.Context, html string, th models.Theme, history []string) (*ScoreResult, error) {
		return fixedScore(700), nil
	}}
	service, _ := newTestScoringService(t, scorer)

	_, err := service.GetScore("game1")
	assert.ErrorIs(t, err, ErrScoreNotFound)

	_, err = service.ScoreGame(context.Background(), "game1", scoredArtifact("Aki"), models.Theme{Title: "t"})
	require.NoError(t, err)

	record, err := service.GetScore("game1")
	require.NoError(t, err)
	assert.Equal(t, 700, record.TotalScore)
}

func TestScoringServiceRankings(t *testing.T) {
	totals := map[string]int{"game1": 900, "game2": 700, "game3": 850}
	scorer := &mockScorer{}
	scorer.scoreFn = func(ctx context.Context, html string, th models.Theme, history []string) (*ScoreResult, error) {
		// One call per game in submission order.
		switch scorer.calls {
		case 1:
			return fixedScore(totals["game1"]), nil
		case 2:
			return fixedScore(totals["game2"]), nil
		default:
			return fixedScore(totals["game3"]), nil
		}
	}
	service, _ := newTestScoringService(t, scorer)

	theme := models.Theme{Title: "t"}
	for _, gameID := range []string{"game1", "game2", "game3"} {
		_, err := service.ScoreGame(context.Background(), gameID, scoredArtifact("Aki"), theme)
		require.NoError(t, err)
	}

	snapshot, err := service.GetRankings(0)
	require.NoError(t, err)
	require.Len(t, snapshot.Rankings, 3)
	assert.Equal(t, []int{900, 850, 700}, []int{
		snapshot.Rankings[0].TotalScore,
		snapshot.Rankings[1].TotalScore,
		snapshot.Rankings[2].TotalScore,
	})
	for i, entry := range snapshot.Rankings {
		assert.Equal(t, i+1, entry.Rank)
	}

	t.Run("limit truncates", func(t *testing.T) {
		snapshot, err := service.GetRankings(2)
		require.NoError(t, err)
		assert.Len(t, snapshot.Rankings, 2)
	})
}

func TestScoringServiceStats(t *testing.T) {
	scorer := &mockScorer{}
	scorer.scoreFn = func(ctx context.Context, html string, th models.Theme, history []string) (*ScoreResult, error) {
		if scorer.calls == 1 {
			return fixedScore(900), nil
		}
		return fixedScore(700), nil
	}
	service, _ := newTestScoringService(t, scorer)

	t.Run("empty ledger", func(t *testing.T) {
		stats, err := service.Stats()
		require.NoError(t, err)
		assert.Equal(t, 0, stats.TotalScored)
	})

	theme := models.Theme{Title: "t"}
	_, err := service.ScoreGame(context.Background(), "game1", scoredArtifact("Aki"), theme)
	require.NoError(t, err)
	_, err = service.ScoreGame(context.Background(), "game2", scoredArtifact("Yui"), theme)
	require.NoError(t, err)

	stats, err := service.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalScored)
	assert.Equal(t, 900, stats.HighestScore)
	assert.Equal(t, 700, stats.LowestScore)
	assert.Equal(t, 800.0, stats.AverageScore)
}

package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"promptparty/models"
)

// scoreCategories are the only keys an evaluator response may carry, each in
// [0, 200].
var scoreCategories = []string{
	"requiredFeatures",
	"completeness",
	"uiUx",
	"playability",
	"creativity",
}

// ScoringService is the write-once score ledger. One score_<gameId>.json per
// scored game plus a rankings.json snapshot rebuilt from disk on every
// write, so it stays consistent with external writers.
type ScoringService struct {
	mu        sync.Mutex
	scoresDir string
	scorer    Scorer
	log       *logrus.Logger
}

// ScoreStats aggregates the persisted score records under the same
// enumerate-on-read rule as the other views.
type ScoreStats struct {
	TotalScored  int     `json:"totalScored"`
	AverageScore float64 `json:"averageScore"`
	HighestScore int     `json:"highestScore"`
	LowestScore  int     `json:"lowestScore"`
}

func NewScoringService(dataDir string, scorer Scorer, log *logrus.Logger) (*ScoringService, error) {
	scoresDir := filepath.Join(dataDir, "scores")
	if err := os.MkdirAll(scoresDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scores directory: %w", err)
	}
	return &ScoringService{scoresDir: scoresDir, scorer: scorer, log: log}, nil
}

func (s *ScoringService) scorePath(gameID string) string {
	return filepath.Join(s.scoresDir, "score_"+gameID+".json")
}

// ScoreGame evaluates an artifact once. A second call for the same game id
// returns the persisted record untouched.
func (s *ScoringService) ScoreGame(ctx context.Context, gameID string, artifact *models.GameArtifact, theme models.Theme) (*models.ScoreRecord, error) {
	if gameID == "" {
		gameID = GameID(artifact)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, err := s.getRecord(gameID); err == nil {
		s.log.WithField("game_id", gameID).Info("returning existing score")
		return existing, nil
	}

	result, err := s.scorer.Score(ctx, artifact.HTML, theme, artifact.PromptHistory)
	if err != nil {
		return nil, fmt.Errorf("scoring failed: %w", err)
	}
	if err := validateDetailScores(result.DetailScores); err != nil {
		return nil, err
	}
	total := result.TotalScore
	if total == 0 {
		for _, v := range result.DetailScores {
			total += v
		}
	}

	record := &models.ScoreRecord{
		GameID:        gameID,
		Participant:   artifact.Participant,
		Theme:         theme.Title,
		DetailScores:  result.DetailScores,
		TotalScore:    total,
		Comment:       result.Comment,
		PromptHistory: artifact.PromptHistory,
		PromptCount:   len(artifact.PromptHistory),
		CreatedAt:     artifact.CreatedAt,
		ScoredAt:      time.Now(),
	}
	if err := writeJSONFile(s.scorePath(gameID), record); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"game_id": gameID, "total": total}).Info("game scored")

	if err := s.rebuildRankings(); err != nil {
		s.log.WithError(err).Error("failed to rebuild rankings")
	}
	return record, nil
}

// GetScore returns the persisted record for a game id.
func (s *ScoringService) GetScore(gameID string) (*models.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getRecord(gameID)
}

// GetRankings reads the snapshot, rebuilding it when absent. limit <= 0
// returns everything.
func (s *ScoringService) GetRankings(limit int) (*models.RankingSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snapshot models.RankingSnapshot
	if err := readJSONFile(filepath.Join(s.scoresDir, "rankings.json"), &snapshot); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := s.rebuildRankings(); err != nil {
			return nil, err
		}
		if err := readJSONFile(filepath.Join(s.scoresDir, "rankings.json"), &snapshot); err != nil {
			return nil, err
		}
	}
	if limit > 0 && limit < len(snapshot.Rankings) {
		snapshot.Rankings = snapshot.Rankings[:limit]
	}
	return &snapshot, nil
}

// Stats sums over every persisted score record.
func (s *ScoringService) Stats() (*ScoreStats, error) {
	s.mu.Lock()
	records, err := s.readAllRecords()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	stats := &ScoreStats{TotalScored: len(records)}
	if len(records) == 0 {
		return stats, nil
	}
	total := 0
	stats.HighestScore = records[0].TotalScore
	stats.LowestScore = records[0].TotalScore
	for _, r := range records {
		total += r.TotalScore
		if r.TotalScore > stats.HighestScore {
			stats.HighestScore = r.TotalScore
		}
		if r.TotalScore < stats.LowestScore {
			stats.LowestScore = r.TotalScore
		}
	}
	stats.AverageScore = round1(float64(total) / float64(len(records)))
	return stats, nil
}

func (s *ScoringService) getRecord(gameID string) (*models.ScoreRecord, error) {
	var record models.ScoreRecord
	if err := readJSONFile(s.scorePath(gameID), &record); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrScoreNotFound
		}
		return nil, err
	}
	return &record, nil
}

// rebuildRankings re-reads every score file from disk and rewrites
// rankings.json: descending total score, stable under read order, rank is
// the 1-based position. Callers hold s.mu.
func (s *ScoringService) rebuildRankings() error {
	records, err := s.readAllRecords()
	if err != nil {
		return err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].TotalScore > records[j].TotalScore
	})

	snapshot := models.RankingSnapshot{
		LastUpdated: time.Now(),
		Rankings:    make([]models.RankingEntry, 0, len(records)),
	}
	for i, r := range records {
		snapshot.Rankings = append(snapshot.Rankings, models.RankingEntry{
			Rank:        i + 1,
			GameID:      r.GameID,
			Participant: r.Participant,
			Theme:       r.Theme,
			TotalScore:  r.TotalScore,
			CreatedAt:   r.CreatedAt,
			ScoredAt:    r.ScoredAt,
		})
	}
	return writeJSONFile(filepath.Join(s.scoresDir, "rankings.json"), &snapshot)
}

func (s *ScoringService) readAllRecords() ([]models.ScoreRecord, error) {
	entries, err := os.ReadDir(s.scoresDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	var records []models.ScoreRecord
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "score_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		var record models.ScoreRecord
		if err := readJSONFile(filepath.Join(s.scoresDir, name), &record); err != nil {
			s.log.WithError(err).WithField("file", name).Warn("skipping unreadable score record")
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func validateDetailScores(scores map[string]int) error {
	if len(scores) != len(scoreCategories) {
		return fmt.Errorf("evaluator returned %d categories, want %d", len(scores), len(scoreCategories))
	}
	for _, category := range scoreCategories {
		v, ok := scores[category]
		if !ok {
			return fmt.Errorf("evaluator response missing category %q", category)
		}
		if v < 0 || v > 200 {
			return fmt.Errorf("category %q score %d out of range [0, 200]", category, v)
		}
	}
	return nil
}

// GameID derives the ledger key from the artifact file name so the same
// file always maps to the same record.
func GameID(artifact *models.GameArtifact) string {
	id := strings.TrimSuffix(artifact.FileName, ".html")
	if artifact.SessionID != "" {
		return artifact.SessionID + "_" + id
	}
	return id
}

package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"

	"promptparty/models"
)

// FlatStore keeps every game file in a single games/ directory and retains
// only the latest artifact per participant: saving deletes that
// participant's earlier files first.
type FlatStore struct {
	gamesDir string
	log      *logrus.Logger
}

// FlatStats mirrors the flat directory's contents at call time.
type FlatStats struct {
	TotalGames        int      `json:"totalGames"`
	TotalParticipants int      `json:"totalParticipants"`
	Participants      []string `json:"participants"`
}

func NewFlatStore(dataDir string, log *logrus.Logger) (*FlatStore, error) {
	gamesDir := filepath.Join(dataDir, "games")
	if err := os.MkdirAll(gamesDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create games directory: %w", err)
	}
	return &FlatStore{gamesDir: gamesDir, log: log}, nil
}

// SaveArtifact replaces the participant's previous game with the new one and
// returns the written file name.
func (s *FlatStore) SaveArtifact(a *models.GameArtifact) (string, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	safeName := sanitizeFileName(a.Participant)
	if err := s.removeParticipantFiles(safeName); err != nil {
		return "", err
	}

	fileName := fmt.Sprintf("game_%s_%s.html", a.CreatedAt.Format("20060102150405"), safeName)
	content := buildArtifactHeader(a, models.StorageFlat) + a.HTML
	path := filepath.Join(s.gamesDir, fileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write game file: %w", err)
	}
	if err := writeJSONFile(sidecarPath(path), recordFromArtifact(a)); err != nil {
		return "", err
	}
	a.FileName = fileName
	a.FileSize = int64(len(content))
	a.URL = "/data/games/" + fileName
	return fileName, nil
}

// GetArtifact reads a single flat-mode game file.
func (s *FlatStore) GetArtifact(fileName string) (*models.GameArtifact, error) {
	path := filepath.Join(s.gamesDir, fileName)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to read game file: %w", err)
	}

	artifact := &models.GameArtifact{
		FileName: fileName,
		URL:      "/data/games/" + fileName,
	}
	var record artifactRecord
	if err := readJSONFile(sidecarPath(path), &record); err == nil {
		record.apply(artifact)
	} else {
		parseArtifactContent(string(content), artifact)
	}
	artifact.HTML = artifactBody(string(content))

	if info, err := os.Stat(path); err == nil {
		artifact.FileSize = info.Size()
		if artifact.CreatedAt.IsZero() {
			artifact.CreatedAt = info.ModTime()
		}
	}
	return artifact, nil
}

// ListArtifacts scans the flat directory, newest first.
func (s *FlatStore) ListArtifacts() ([]models.GameArtifact, error) {
	entries, err := os.ReadDir(s.gamesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	var artifacts []models.GameArtifact
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "game_") || !strings.HasSuffix(name, ".html") {
			continue
		}
		artifact, err := s.GetArtifact(name)
		if err != nil {
			s.log.WithError(err).WithField("file", name).Warn("skipping unreadable game file")
			continue
		}
		artifacts = append(artifacts, *artifact)
	}
	sort.SliceStable(artifacts, func(i, j int) bool {
		return artifacts[i].CreatedAt.After(artifacts[j].CreatedAt)
	})
	return artifacts, nil
}

// DeleteArtifact removes a game file and its sidecar.
func (s *FlatStore) DeleteArtifact(fileName string) error {
	path := filepath.Join(s.gamesDir, fileName)
	if _, err := os.Stat(path); err != nil {
		return ErrGameNotFound
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete game file: %w", err)
	}
	os.Remove(sidecarPath(path))
	return nil
}

// Stats counts games and distinct participants from the directory contents.
func (s *FlatStore) Stats() (*FlatStats, error) {
	artifacts, err := s.ListArtifacts()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	stats := &FlatStats{TotalGames: len(artifacts), Participants: []string{}}
	for _, a := range artifacts {
		if a.Participant == "" || seen[a.Participant] {
			continue
		}
		seen[a.Participant] = true
		stats.Participants = append(stats.Participants, a.Participant)
	}
	sort.Strings(stats.Participants)
	stats.TotalParticipants = len(stats.Participants)
	return stats, nil
}

func (s *FlatStore) removeParticipantFiles(safeName string) error {
	entries, err := os.ReadDir(s.gamesDir)
	if err != nil {
		return fmt.Errorf("failed to list games: %w", err)
	}
	suffix := "_" + safeName + ".html"
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "game_") || !strings.HasSuffix(name, suffix) {
			continue
		}
		path := filepath.Join(s.gamesDir, name)
		if err := os.Remove(path); err != nil {
			s.log.WithError(err).WithField("file", name).Warn("failed to remove previous game file")
			continue
		}
		os.Remove(sidecarPath(path))
	}
	return nil
}

// sanitizeFileName maps a participant name onto a filesystem-safe token.
func sanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

package services

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"promptparty/models"
)

// SessionStore persists sessions and their artifacts as one directory per
// session under sessions/. Nothing indexes this data: every read re-derives
// state from the directory listing and file contents.
type SessionStore struct {
	sessionsDir string
	log         *logrus.Logger
}

// StoreStats are the aggregate counters derived by enumerating the store.
// They are never persisted, which keeps them immune to drift.
type StoreStats struct {
	TotalSessions             int     `json:"totalSessions"`
	TotalParticipants         int     `json:"totalParticipants"`
	TotalGames                int     `json:"totalGames"`
	AvgParticipantsPerSession float64 `json:"avgParticipantsPerSession"`
	AvgGamesPerSession        float64 `json:"avgGamesPerSession"`
}

func NewSessionStore(dataDir string, log *logrus.Logger) (*SessionStore, error) {
	sessionsDir := filepath.Join(dataDir, "sessions")
	if err := os.MkdirAll(sessionsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return &SessionStore{sessionsDir: sessionsDir, log: log}, nil
}

func (s *SessionStore) sessionDir(sessionID string) string {
	return filepath.Join(s.sessionsDir, sessionID)
}

// CreateSession writes the session directory and its session.json.
func (s *SessionStore) CreateSession(session *models.Session) error {
	dir := s.sessionDir(session.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	return s.SaveSession(session)
}

// SaveSession overwrites session.json and participants.json for the session.
func (s *SessionStore) SaveSession(session *models.Session) error {
	dir := s.sessionDir(session.ID)
	if _, err := os.Stat(dir); err != nil {
		return ErrSessionNotFound
	}
	session.LastUpdated = time.Now()
	if err := writeJSONFile(filepath.Join(dir, "session.json"), session); err != nil {
		return err
	}
	if session.Participants != nil {
		if err := writeJSONFile(filepath.Join(dir, "participants.json"), session.Participants); err != nil {
			return err
		}
	}
	return nil
}

// GetSession reads session.json plus the optional participants.json.
func (s *SessionStore) GetSession(sessionID string) (*models.Session, error) {
	dir := s.sessionDir(sessionID)
	var session models.Session
	if err := readJSONFile(filepath.Join(dir, "session.json"), &session); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var participants []models.Participant
	if err := readJSONFile(filepath.Join(dir, "participants.json"), &participants); err == nil {
		session.Participants = participants
	}
	return &session, nil
}

// ListSessions enumerates every session directory holding a session.json.
func (s *SessionStore) ListSessions() ([]models.Session, error) {
	entries, err := os.ReadDir(s.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	sessions := make([]models.Session, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		session, err := s.GetSession(entry.Name())
		if err != nil {
			s.log.WithError(err).WithField("session_id", entry.Name()).Warn("skipping unreadable session")
			continue
		}
		sessions = append(sessions, *session)
	}
	return sessions, nil
}

// DeleteSession removes the session directory and everything in it.
func (s *SessionStore) DeleteSession(sessionID string) error {
	dir := s.sessionDir(sessionID)
	if _, err := os.Stat(dir); err != nil {
		return ErrSessionNotFound
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// SaveArtifact writes one game file plus its JSON sidecar and returns the
// file name. Whole-file overwrite, no locking.
func (s *SessionStore) SaveArtifact(a *models.GameArtifact) (string, error) {
	dir := s.sessionDir(a.SessionID)
	if _, err := os.Stat(dir); err != nil {
		return "", ErrSessionNotFound
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	index := a.GameIndex
	if index < 1 {
		index = 1
	}
	fileName := fmt.Sprintf("game_%03d_%s.html", index, a.Participant)
	content := buildArtifactHeader(a, models.StorageSession) + a.HTML
	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write game file: %w", err)
	}
	if err := writeJSONFile(sidecarPath(path), recordFromArtifact(a)); err != nil {
		return "", err
	}
	a.FileName = fileName
	a.FileSize = int64(len(content))
	a.URL = fmt.Sprintf("/data/sessions/%s/%s", a.SessionID, fileName)
	return fileName, nil
}

// GetArtifact reads a single game file back from its session directory.
func (s *SessionStore) GetArtifact(sessionID, fileName string) (*models.GameArtifact, error) {
	return s.readArtifact(s.sessionDir(sessionID), fileName, sessionID)
}

// DeleteArtifact removes a game file and its sidecar.
func (s *SessionStore) DeleteArtifact(sessionID, fileName string) error {
	path := filepath.Join(s.sessionDir(sessionID), fileName)
	if _, err := os.Stat(path); err != nil {
		return ErrGameNotFound
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete game file: %w", err)
	}
	os.Remove(sidecarPath(path))
	return nil
}

// SessionArtifacts reconstructs a session's game history purely from the
// directory scan, newest last (insertion order by game index).
func (s *SessionStore) SessionArtifacts(sessionID string) ([]models.GameArtifact, error) {
	dir := s.sessionDir(sessionID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to list session artifacts: %w", err)
	}
	var artifacts []models.GameArtifact
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "game_") || !strings.HasSuffix(name, ".html") {
			continue
		}
		artifact, err := s.readArtifact(dir, name, sessionID)
		if err != nil {
			s.log.WithError(err).WithField("file", name).Warn("skipping unreadable game file")
			continue
		}
		artifacts = append(artifacts, *artifact)
	}
	sort.SliceStable(artifacts, func(i, j int) bool {
		return artifacts[i].GameIndex < artifacts[j].GameIndex
	})
	return artifacts, nil
}

// AllArtifacts enumerates every session's game files joined with the owning
// session's name and theme, newest first. Recomputed on every call.
func (s *SessionStore) AllArtifacts() ([]models.GameArtifact, error) {
	entries, err := os.ReadDir(s.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	var all []models.GameArtifact
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sessionID := entry.Name()
		sessionName := "Unknown Session"
		sessionTheme := "Unknown Theme"
		if session, err := s.GetSession(sessionID); err == nil {
			if session.Name != "" {
				sessionName = session.Name
			}
			if session.Theme.Title != "" {
				sessionTheme = session.Theme.Title
			}
		}
		artifacts, err := s.SessionArtifacts(sessionID)
		if err != nil {
			s.log.WithError(err).WithField("session_id", sessionID).Warn("skipping session during gallery scan")
			continue
		}
		for i := range artifacts {
			artifacts[i].SessionName = sessionName
			artifacts[i].SessionTheme = sessionTheme
		}
		all = append(all, artifacts...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}

// Stats sums over the enumerated sessions; nothing is cached.
func (s *SessionStore) Stats() (*StoreStats, error) {
	sessions, err := s.ListSessions()
	if err != nil {
		return nil, err
	}
	stats := &StoreStats{TotalSessions: len(sessions)}
	for _, session := range sessions {
		stats.TotalParticipants += len(session.Participants)
		artifacts, err := s.SessionArtifacts(session.ID)
		if err != nil {
			continue
		}
		stats.TotalGames += len(artifacts)
	}
	if stats.TotalSessions > 0 {
		stats.AvgParticipantsPerSession = round1(float64(stats.TotalParticipants) / float64(stats.TotalSessions))
		stats.AvgGamesPerSession = round1(float64(stats.TotalGames) / float64(stats.TotalSessions))
	}
	return stats, nil
}

func (s *SessionStore) readArtifact(dir, fileName, sessionID string) (*models.GameArtifact, error) {
	path := filepath.Join(dir, fileName)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to read game file: %w", err)
	}

	artifact := &models.GameArtifact{
		SessionID: sessionID,
		FileName:  fileName,
		URL:       fmt.Sprintf("/data/sessions/%s/%s", sessionID, fileName),
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

func sidecarPath(htmlPath string) string {
	return strings.TrimSuffix(htmlPath, ".html") + ".json"
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"promptparty/models"
	"promptparty/validation"
)

const warningThreshold = 30

// Broadcaster pushes live session events to watchers. *Hub is the production
// implementation.
type Broadcaster interface {
	BroadcastToSession(sessionID, messageType string, payload interface{})
	BroadcastParticipants(sessionID string, participants []models.Participant)
}

// Engine owns the turn and timer state machine. Runtime state lives in a
// session-id-keyed map guarded by one mutex; the persisted session on disk is
// the durable record and the runtime only carries what a restart may lose
// (turn pointer, countdown, tick bookkeeping).
type Engine struct {
	mu           sync.Mutex
	runtimes     map[string]*sessionRuntime
	sessions     *SessionStore
	flat         *FlatStore
	generator    Generator
	hub          Broadcaster
	log          *logrus.Logger
	duration     int
	tickInterval time.Duration
}

type sessionRuntime struct {
	turnIndex int
	remaining int
	warned    bool
	gameCount int
	done      chan struct{}
}

func NewEngine(sessions *SessionStore, flat *FlatStore, generator Generator, hub Broadcaster, duration int, log *logrus.Logger) *Engine {
	if duration <= 0 {
		duration = 300
	}
	return &Engine{
		runtimes:     make(map[string]*sessionRuntime),
		sessions:     sessions,
		flat:         flat,
		generator:    generator,
		hub:          hub,
		log:          log,
		duration:     duration,
		tickInterval: time.Second,
	}
}

// CreateSession validates the name and theme, mints an id and persists a
// fresh waiting session.
func (e *Engine) CreateSession(name, theme string, mode models.StorageMode) (*models.Session, error) {
	nameRes := validation.SessionName(name)
	if !nameRes.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, nameRes.Message)
	}
	themeRes := validation.Theme(theme)
	if !themeRes.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, themeRes.Message)
	}
	if mode == "" {
		mode = models.StorageSession
	}

	now := time.Now()
	session := &models.Session{
		ID:           newSessionID(now),
		Name:         nameRes.Sanitized,
		Theme:        models.Theme{Title: themeRes.Sanitized},
		CreatedAt:    now,
		State:        models.StateWaiting,
		StorageMode:  mode,
		Participants: []models.Participant{},
		Prompts:      []models.PromptRecord{},
	}
	if err := e.sessions.CreateSession(session); err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{"session_id": session.ID, "mode": mode}).Info("session created")
	return session, nil
}

// AddParticipants registers a signup batch on a waiting session.
func (e *Engine) AddParticipants(sessionID string, names []string) (*models.Session, error) {
	batch := validation.ParticipantNames(names)
	if !batch.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, batch.Message)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	session, err := e.sessions.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.State != models.StateWaiting {
		e.logStateMismatch(sessionID, "add_participants", session.State)
		return session, nil
	}

	now := time.Now()
	for _, name := range batch.Names {
		session.Participants = append(session.Participants, models.Participant{Name: name, JoinedAt: now})
	}
	if err := e.sessions.SaveSession(session); err != nil {
		return nil, err
	}
	e.hub.BroadcastParticipants(sessionID, session.Participants)
	return session, nil
}

// Start moves a waiting session with at least one participant into playing,
// picks a theme and begins the countdown. Started from any other state it is
// a logged no-op.
func (e *Engine) Start(sessionID string) (*models.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	session, err := e.sessions.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.State != models.StateWaiting {
		e.logStateMismatch(sessionID, "start", session.State)
		return session, nil
	}
	if len(session.Participants) == 0 {
		return nil, fmt.Errorf("%w: at least one participant is required", ErrInvalidInput)
	}

	if session.Theme.Title == "" || session.Theme.Title == validation.DefaultTheme {
		session.Theme = randomTheme()
	}
	session.State = models.StatePlaying
	if err := e.sessions.SaveSession(session); err != nil {
		return nil, err
	}

	rt := &sessionRuntime{
		remaining: e.duration,
		done:      make(chan struct{}),
	}
	e.runtimes[sessionID] = rt
	go e.runTimer(sessionID, rt)

	e.log.WithFields(logrus.Fields{
		"session_id":   sessionID,
		"theme":        session.Theme.Title,
		"participants": len(session.Participants),
	}).Info("session started")
	e.hub.BroadcastToSession(sessionID, "session_started", map[string]interface{}{
		"session":       session,
		"timeRemaining": rt.remaining,
	})
	return session, nil
}

// SubmitResult is the outcome of one prompt submission. Artifact is nil when
// the submission was refused as a state no-op.
type SubmitResult struct {
	Session  *models.Session      `json:"session"`
	Artifact *models.GameArtifact `json:"artifact,omitempty"`
}

// SubmitPrompt runs the full turn: validate, record the prompt, generate,
// extract (error document on failure), persist and rotate. The generation
// call happens outside the engine lock.
func (e *Engine) SubmitPrompt(ctx context.Context, sessionID, promptText string) (*SubmitResult, error) {
	promptRes := validation.Prompt(promptText)
	if !promptRes.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, promptRes.Message)
	}

	e.mu.Lock()
	session, err := e.sessions.GetSession(sessionID)
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	if session.State != models.StatePlaying {
		e.logStateMismatch(sessionID, "submit_prompt", session.State)
		e.mu.Unlock()
		return &SubmitResult{Session: session}, nil
	}
	rt, ok := e.runtimes[sessionID]
	if !ok {
		e.mu.Unlock()
		return nil, fmt.Errorf("session %s has no active runtime", sessionID)
	}

	participant := session.Participants[rt.turnIndex].Name
	record := models.PromptRecord{
		Participant: participant,
		Text:        promptRes.Sanitized,
		Order:       len(session.Prompts) + 1,
		Timestamp:   time.Now(),
	}
	session.Prompts = append(session.Prompts, record)
	recent := recentPrompts(session.Prompts[:len(session.Prompts)-1], 3)
	theme := session.Theme
	gameIndex := rt.gameCount + 1
	if err := e.sessions.SaveSession(session); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	e.mu.Unlock()

	e.hub.BroadcastToSession(sessionID, "prompt_submitted", map[string]interface{}{
		"participant": participant,
		"prompt":      record.Text,
		"order":       record.Order,
	})

	html := e.generateHTML(ctx, record.Text, recent, theme)

	artifact := &models.GameArtifact{
		SessionID:     sessionID,
		Participant:   participant,
		Prompt:        record.Text,
		PromptHistory: promptTexts(append(recent, record)),
		GameIndex:     gameIndex,
		CreatedAt:     time.Now(),
		HTML:          html,
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if session.StorageMode == models.StorageFlat {
		if _, err := e.flat.SaveArtifact(artifact); err != nil {
			return nil, err
		}
	} else {
		if _, err := e.sessions.SaveArtifact(artifact); err != nil {
			return nil, err
		}
	}
	if rt, ok := e.runtimes[sessionID]; ok {
		rt.gameCount++
		if n := len(session.Participants); n > 0 {
			rt.turnIndex = (rt.turnIndex + 1) % n
		}
	}

	e.hub.BroadcastToSession(sessionID, "artifact_created", map[string]interface{}{
		"fileName":    artifact.FileName,
		"participant": artifact.Participant,
		"gameIndex":   artifact.GameIndex,
		"url":         artifact.URL,
	})
	return &SubmitResult{Session: session, Artifact: artifact}, nil
}

// Stop aborts a playing session. It is destructive: participants, prompts
// and the turn state are discarded. The caller must have confirmed.
func (e *Engine) Stop(sessionID string, confirmed bool) (*models.Session, error) {
	if !confirmed {
		return nil, fmt.Errorf("%w: stop requires confirmation", ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	session, err := e.sessions.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.State != models.StatePlaying {
		e.logStateMismatch(sessionID, "stop", session.State)
		return session, nil
	}

	e.cancelRuntime(sessionID)
	session.State = models.StateStopped
	session.Participants = []models.Participant{}
	session.Prompts = []models.PromptRecord{}
	if err := e.sessions.SaveSession(session); err != nil {
		return nil, err
	}
	e.log.WithField("session_id", sessionID).Info("session stopped")
	e.hub.BroadcastToSession(sessionID, "session_end", map[string]interface{}{"reason": "stopped"})
	return session, nil
}

// Complete ends a playing session normally, keeping its history.
func (e *Engine) Complete(sessionID string) (*models.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.finishLocked(sessionID, "completed")
}

// Reset discards any runtime for the session and returns a brand-new waiting
// session carrying the same name and storage mode. Previously persisted
// artifacts stay on disk.
func (e *Engine) Reset(sessionID string) (*models.Session, error) {
	e.mu.Lock()
	e.cancelRuntime(sessionID)
	old, err := e.sessions.GetSession(sessionID)
	e.mu.Unlock()

	name := ""
	mode := models.StorageSession
	if err == nil {
		name = old.Name
		if old.StorageMode != "" {
			mode = old.StorageMode
		}
		e.hub.BroadcastToSession(sessionID, "session_end", map[string]interface{}{"reason": "reset"})
	}
	return e.CreateSession(name, "", mode)
}

// Remaining reports the countdown for a playing session, or -1 when the
// session has no active runtime.
func (e *Engine) Remaining(sessionID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if rt, ok := e.runtimes[sessionID]; ok {
		return rt.remaining
	}
	return -1
}

// ActiveParticipant names whose turn it is, or "" outside playing.
func (e *Engine) ActiveParticipant(sessionID string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	rt, ok := e.runtimes[sessionID]
	if !ok {
		return ""
	}
	session, err := e.sessions.GetSession(sessionID)
	if err != nil || len(session.Participants) == 0 {
		return ""
	}
	return session.Participants[rt.turnIndex%len(session.Participants)].Name
}

// GenerateOnce serves the stateless generation endpoint: no session, no
// turn bookkeeping, error document on any failure.
func (e *Engine) GenerateOnce(ctx context.Context, promptText string, previous []string, themeTitle string) (string, error) {
	promptRes := validation.Prompt(promptText)
	if !promptRes.Valid {
		return "", fmt.Errorf("%w: %s", ErrInvalidInput, promptRes.Message)
	}
	themeRes := validation.Theme(themeTitle)
	if !themeRes.Valid {
		return "", fmt.Errorf("%w: %s", ErrInvalidInput, themeRes.Message)
	}

	recent := make([]models.PromptRecord, 0, len(previous))
	for i, text := range previous {
		recent = append(recent, models.PromptRecord{Text: text, Order: i + 1})
	}
	recent = recentPrompts(recent, 3)
	html := e.generateHTML(ctx, promptRes.Sanitized, recent, models.Theme{Title: themeRes.Sanitized})
	return html, nil
}

// generateHTML calls the generator and extraction pipeline and substitutes
// the synthetic error document on any failure, so callers always receive a
// complete HTML document.
func (e *Engine) generateHTML(ctx context.Context, prompt string, recent []models.PromptRecord, theme models.Theme) string {
	raw, reason, err := e.generator.Generate(ctx, prompt, recent, theme)
	if err != nil {
		e.log.WithError(err).Warn("generation failed")
		return ErrorDocument("The game could not be generated. Please try a different prompt.")
	}
	html, err := ExtractHTML(raw, reason)
	if err != nil {
		e.log.WithError(err).Warn("extraction failed")
		return ErrorDocument("The generated content was not a complete game. Please try again.")
	}
	return html
}

// runTimer drives one session's countdown at a fixed one-second cadence
// until the session leaves playing.
func (e *Engine) runTimer(sessionID string, rt *sessionRuntime) {
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rt.done:
			return
		case <-ticker.C:
			if e.tick(sessionID) {
				return
			}
		}
	}
}

// tick advances the countdown by one second. It returns true when the tick
// ended the session.
func (e *Engine) tick(sessionID string) bool {
	e.mu.Lock()
	rt, ok := e.runtimes[sessionID]
	if !ok {
		e.mu.Unlock()
		return true
	}
	rt.remaining--
	remaining := rt.remaining
	warn := remaining == warningThreshold && !rt.warned
	if warn {
		rt.warned = true
	}
	e.mu.Unlock()

	e.hub.BroadcastToSession(sessionID, "timer_update", map[string]interface{}{"timeRemaining": remaining})
	if warn {
		e.log.WithField("session_id", sessionID).Info("timer warning")
		e.hub.BroadcastToSession(sessionID, "timer_warning", map[string]interface{}{"timeRemaining": remaining})
	}
	if remaining > 0 {
		return false
	}

	e.mu.Lock()
	if _, err := e.finishLocked(sessionID, "timeout"); err != nil {
		e.log.WithError(err).WithField("session_id", sessionID).Error("failed to finish timed-out session")
	}
	e.mu.Unlock()
	return true
}

// finishLocked moves a playing session to finished and cancels its runtime.
// Callers hold e.mu.
func (e *Engine) finishLocked(sessionID, reason string) (*models.Session, error) {
	session, err := e.sessions.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.State != models.StatePlaying {
		e.logStateMismatch(sessionID, reason, session.State)
		return session, nil
	}

	e.cancelRuntime(sessionID)
	session.State = models.StateFinished
	if err := e.sessions.SaveSession(session); err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{"session_id": sessionID, "reason": reason}).Info("session finished")
	e.hub.BroadcastToSession(sessionID, "session_end", map[string]interface{}{"reason": reason})
	return session, nil
}

// cancelRuntime stops the timer goroutine and drops the runtime entry.
// Callers hold e.mu.
func (e *Engine) cancelRuntime(sessionID string) {
	if rt, ok := e.runtimes[sessionID]; ok {
		close(rt.done)
		delete(e.runtimes, sessionID)
	}
}

func (e *Engine) logStateMismatch(sessionID, op string, state models.SessionState) {
	e.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"operation":  op,
		"state":      state,
	}).Warn("operation ignored in current state")
}

func newSessionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("session_%s_%s", now.Format("20060102150405"), suffix)
}

func recentPrompts(prompts []models.PromptRecord, n int) []models.PromptRecord {
	if len(prompts) <= n {
		return append([]models.PromptRecord(nil), prompts...)
	}
	return append([]models.PromptRecord(nil), prompts[len(prompts)-n:]...)
}

func promptTexts(prompts []models.PromptRecord) []string {
	texts := make([]string, 0, len(prompts))
	for _, p := range prompts {
		texts = append(texts, p.Text)
	}
	return texts
}

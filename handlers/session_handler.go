package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"promptparty/models"
	"promptparty/services"
)

type SessionHandler struct {
	engine *services.Engine
	store  *services.SessionStore
}

func NewSessionHandler(engine *services.Engine, store *services.SessionStore) *SessionHandler {
	return &SessionHandler{
		engine: engine,
		store:  store,
	}
}

type CreateSessionRequest struct {
	Name         string             `json:"sessionName"`
	Theme        string             `json:"theme"`
	StorageMode  models.StorageMode `json:"storageMode"`
	Participants []string           `json:"participants"`
}

func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.engine.CreateSession(req.Name, req.Theme, req.StorageMode)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(req.Participants) > 0 {
		session, err = h.engine.AddParticipants(session.ID, req.Participants)
		if err != nil {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "session": session})
}

func (h *SessionHandler) ListSessions(c *gin.Context) {
	sessions, err := h.store.ListSessions()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sessions": sessions})
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	sessionID := c.Param("id")
	session, err := h.store.GetSession(sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	games, err := h.store.SessionArtifacts(sessionID)
	if err != nil {
		games = nil
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"session":       session,
		"games":         games,
		"timeRemaining": h.engine.Remaining(sessionID),
	})
}

type UpdateSessionRequest struct {
	Name string `json:"sessionName"`
}

func (h *SessionHandler) UpdateSession(c *gin.Context) {
	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.store.GetSession(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if req.Name != "" {
		session.Name = req.Name
	}
	if err := h.store.SaveSession(session); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": session})
}

func (h *SessionHandler) DeleteSession(c *gin.Context) {
	if err := h.store.DeleteSession(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type AddParticipantsRequest struct {
	Participants []string `json:"participants"`
}

func (h *SessionHandler) AddParticipants(c *gin.Context) {
	var req AddParticipantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.engine.AddParticipants(c.Param("id"), req.Participants)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": session})
}

func (h *SessionHandler) StartSession(c *gin.Context) {
	session, err := h.engine.Start(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"session":       session,
		"timeRemaining": h.engine.Remaining(session.ID),
	})
}

type SubmitPromptRequest struct {
	Prompt string `json:"prompt"`
}

func (h *SessionHandler) SubmitPrompt(c *gin.Context) {
	var req SubmitPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.engine.SubmitPrompt(c.Request.Context(), c.Param("id"), req.Prompt)
	if err != nil {
		respondError(c, err)
		return
	}
	if result.Artifact == nil {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   "session is not accepting prompts",
			"session": result.Session,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"session":  result.Session,
		"artifact": result.Artifact,
		"html":     result.Artifact.HTML,
	})
}

type StopSessionRequest struct {
	Confirmed bool `json:"confirmed"`
}

func (h *SessionHandler) StopSession(c *gin.Context) {
	var req StopSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.engine.Stop(c.Param("id"), req.Confirmed)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": session})
}

func (h *SessionHandler) CompleteSession(c *gin.Context) {
	session, err := h.engine.Complete(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": session})
}

func (h *SessionHandler) ResetSession(c *gin.Context) {
	session, err := h.engine.Reset(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": session})
}

// respondError maps service errors onto HTTP statuses with the shared
// {"success": false, "error": …} body.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrGameNotFound),
		errors.Is(err, services.ErrScoreNotFound):
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

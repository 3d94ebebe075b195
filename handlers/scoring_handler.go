package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"promptparty/models"
	"promptparty/services"
)

type ScoringHandler struct {
	scoring *services.ScoringService
	store   *services.SessionStore
	flat    *services.FlatStore
}

func NewScoringHandler(scoring *services.ScoringService, store *services.SessionStore, flat *services.FlatStore) *ScoringHandler {
	return &ScoringHandler{
		scoring: scoring,
		store:   store,
		flat:    flat,
	}
}

type ScoreGameRequest struct {
	Theme string `json:"theme"`
}

// ScoreGame evaluates one session-scoped artifact. Scoring is write-once:
// repeated calls return the persisted record.
func (h *ScoringHandler) ScoreGame(c *gin.Context) {
	// Body is optional; a bare POST scores against the session's own theme.
	var req ScoreGameRequest
	_ = c.ShouldBindJSON(&req)

	sessionID := c.Param("sessionId")
	fileName, err := gameFileName(c)
	if err != nil {
		respondError(c, err)
		return
	}

	artifact, err := h.store.GetArtifact(sessionID, fileName)
	if err != nil {
		respondError(c, err)
		return
	}

	theme := models.Theme{Title: req.Theme}
	if theme.Title == "" {
		if session, err := h.store.GetSession(sessionID); err == nil {
			theme = session.Theme
		}
	}

	record, err := h.scoring.ScoreGame(c.Request.Context(), sessionLedgerID(sessionID, fileName), artifact, theme)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "score": record})
}

func (h *ScoringHandler) GetScore(c *gin.Context) {
	record, err := h.scoring.GetScore(sessionLedgerID(c.Param("sessionId"), c.Param("fileName")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "score": record})
}

// ScoreFlatGame evaluates one flat-mode artifact.
func (h *ScoringHandler) ScoreFlatGame(c *gin.Context) {
	var req ScoreGameRequest
	_ = c.ShouldBindJSON(&req)

	fileName, err := flatGameFileName(c)
	if err != nil {
		respondError(c, err)
		return
	}
	artifact, err := h.flat.GetArtifact(fileName)
	if err != nil {
		respondError(c, err)
		return
	}

	record, err := h.scoring.ScoreGame(c.Request.Context(), flatLedgerID(fileName), artifact, models.Theme{Title: req.Theme})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "score": record})
}

func (h *ScoringHandler) GetFlatScore(c *gin.Context) {
	record, err := h.scoring.GetScore(flatLedgerID(c.Param("fileName")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "score": record})
}

func (h *ScoringHandler) GetRankings(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	snapshot, err := h.scoring.GetRankings(limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "rankings": snapshot})
}

func (h *ScoringHandler) ScoreStats(c *gin.Context) {
	stats, err := h.scoring.Stats()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

func sessionLedgerID(sessionID, fileName string) string {
	return sessionID + "_" + strings.TrimSuffix(fileName, ".html")
}

func flatLedgerID(fileName string) string {
	return strings.TrimSuffix(fileName, ".html")
}

package handlers

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"promptparty/services"
	"promptparty/validation"
)

type GameHandler struct {
	engine *services.Engine
	store  *services.SessionStore
	flat   *services.FlatStore
}

func NewGameHandler(engine *services.Engine, store *services.SessionStore, flat *services.FlatStore) *GameHandler {
	return &GameHandler{
		engine: engine,
		store:  store,
		flat:   flat,
	}
}

type GenerateRequest struct {
	Prompt          string   `json:"prompt"`
	PreviousPrompts []string `json:"previousPrompts"`
	Theme           string   `json:"theme"`
}

// Generate is the stateless generation endpoint: no session bookkeeping,
// just prompt in, complete HTML document out.
func (h *GameHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	html, err := h.engine.GenerateOnce(c.Request.Context(), req.Prompt, req.PreviousPrompts, req.Theme)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "html": html})
}

// AllGames returns the gallery: session-scoped artifacts joined with their
// session metadata plus the flat-directory artifacts, merged newest first.
func (h *GameHandler) AllGames(c *gin.Context) {
	sessionGames, err := h.store.AllArtifacts()
	if err != nil {
		respondError(c, err)
		return
	}
	flatGames, err := h.flat.ListArtifacts()
	if err != nil {
		respondError(c, err)
		return
	}

	games := append(sessionGames, flatGames...)
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].CreatedAt.After(games[j].CreatedAt)
	})
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"games":   games,
		"total":   len(games),
	})
}

func (h *GameHandler) GetGame(c *gin.Context) {
	fileName, err := gameFileName(c)
	if err != nil {
		respondError(c, err)
		return
	}
	artifact, err := h.store.GetArtifact(c.Param("sessionId"), fileName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "game": artifact, "html": artifact.HTML})
}

func (h *GameHandler) DeleteGame(c *gin.Context) {
	fileName, err := gameFileName(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.store.DeleteArtifact(c.Param("sessionId"), fileName); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *GameHandler) GetFlatGame(c *gin.Context) {
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
	c.JSON(http.StatusOK, gin.H{"success": true, "game": artifact, "html": artifact.HTML})
}

func (h *GameHandler) DeleteFlatGame(c *gin.Context) {
	fileName, err := flatGameFileName(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.flat.DeleteArtifact(fileName); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// gameFileName validates the fileName path parameter against the
// session-mode artifact naming scheme. Sidecar and session metadata files
// live in the same directory, so a raw parameter must never reach the store.
func gameFileName(c *gin.Context) (string, error) {
	res := validation.GameFileName(c.Param("fileName"))
	if !res.Valid {
		return "", fmt.Errorf("%w: %s", services.ErrInvalidInput, res.Message)
	}
	return res.Sanitized, nil
}

func flatGameFileName(c *gin.Context) (string, error) {
	res := validation.FlatGameFileName(c.Param("fileName"))
	if !res.Valid {
		return "", fmt.Errorf("%w: %s", services.ErrInvalidInput, res.Message)
	}
	return res.Sanitized, nil
}

// Stats aggregates both stores for the dashboard.
func (h *GameHandler) Stats(c *gin.Context) {
	sessionStats, err := h.store.Stats()
	if err != nil {
		respondError(c, err)
		return
	}
	flatStats, err := h.flat.Stats()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"sessions": sessionStats,
		"games":    flatStats,
	})
}

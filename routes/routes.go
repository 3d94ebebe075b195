package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"promptparty/handlers"
	"promptparty/services"
	"promptparty/validation"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func SetupRoutes(
	router *gin.Engine,
	sessionHandler *handlers.SessionHandler,
	gameHandler *handlers.GameHandler,
	scoringHandler *handlers.ScoringHandler,
	hub *services.Hub,
) {
	api := router.Group("/api")
	{
		sessions := api.Group("/sessions")
		{
			sessions.POST("", sessionHandler.CreateSession)
			sessions.GET("", sessionHandler.ListSessions)
			sessions.GET("/:id", sessionHandler.GetSession)
			sessions.PUT("/:id", sessionHandler.UpdateSession)
			sessions.DELETE("/:id", sessionHandler.DeleteSession)

			sessions.POST("/:id/participants", sessionHandler.AddParticipants)
			sessions.POST("/:id/start", sessionHandler.StartSession)
			sessions.POST("/:id/submit", sessionHandler.SubmitPrompt)
			sessions.POST("/:id/stop", sessionHandler.StopSession)
			sessions.POST("/:id/complete", sessionHandler.CompleteSession)
			sessions.POST("/:id/reset", sessionHandler.ResetSession)
		}

		api.POST("/generate", gameHandler.Generate)

		games := api.Group("/games")
		{
			games.GET("/all", gameHandler.AllGames)
			games.GET("/flat/:fileName", gameHandler.GetFlatGame)
			games.DELETE("/flat/:fileName", gameHandler.DeleteFlatGame)
			games.POST("/flat/:fileName/score", scoringHandler.ScoreFlatGame)
			games.GET("/flat/:fileName/score", scoringHandler.GetFlatScore)
			games.GET("/:sessionId/:fileName", gameHandler.GetGame)
			games.DELETE("/:sessionId/:fileName", gameHandler.DeleteGame)
			games.POST("/:sessionId/:fileName/score", scoringHandler.ScoreGame)
			games.GET("/:sessionId/:fileName/score", scoringHandler.GetScore)
		}

		api.GET("/rankings", scoringHandler.GetRankings)
		api.GET("/scores/stats", scoringHandler.ScoreStats)
		api.GET("/stats", gameHandler.Stats)

		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":    "ok",
				"timestamp": time.Now().Format(time.RFC3339),
			})
		})
	}

	// Live session feed. Clients subscribe to one session and receive
	// timer, prompt and artifact events.
	router.GET("/ws/:sessionId", func(c *gin.Context) {
		sessionID := c.Param("sessionId")
		if res := validation.SessionID(sessionID); !res.Valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": res.Message})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upgrade connection"})
			return
		}
		hub.RegisterClient(conn, sessionID, c.Query("participant"))
	})
}

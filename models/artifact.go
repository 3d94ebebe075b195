package models

import "time"

// GameArtifact is the HTML produced for one prompt turn, together with the
// metadata needed to reconstruct it from a directory scan alone.
type GameArtifact struct {
	SessionID     string    `json:"sessionId,omitempty"`
	SessionName   string    `json:"sessionName,omitempty"`
	SessionTheme  string    `json:"sessionTheme,omitempty"`
	FileName      string    `json:"fileName"`
	Participant   string    `json:"participant"`
	Prompt        string    `json:"prompt"`
	PromptHistory []string  `json:"promptHistory,omitempty"`
	GameIndex     int       `json:"gameIndex,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	FileSize      int64     `json:"fileSize"`
	URL           string    `json:"url,omitempty"`
	HTML          string    `json:"-"`
}

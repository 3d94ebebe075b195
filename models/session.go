package models

import "time"

type SessionState string

const (
	StateWaiting  SessionState = "waiting"
	StatePlaying  SessionState = "playing"
	StateStopped  SessionState = "stopped"
	StateFinished SessionState = "finished"
)

// StorageMode selects the on-disk layout for a session's artifacts.
type StorageMode string

const (
	// StorageSession keeps one directory per session with an artifact per turn.
	StorageSession StorageMode = "session"
	// StorageFlat keeps a single games directory with at most one live
	// artifact per participant.
	StorageFlat StorageMode = "flat"
)

type Session struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Theme        Theme          `json:"theme"`
	CreatedAt    time.Time      `json:"createdAt"`
	State        SessionState   `json:"gameState"`
	LastUpdated  time.Time      `json:"lastUpdated"`
	StorageMode  StorageMode    `json:"storageMode,omitempty"`
	Participants []Participant  `json:"participants"`
	Prompts      []PromptRecord `json:"promptHistory"`
}

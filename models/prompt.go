package models

import "time"

// PromptRecord is one submitted prompt. Records are immutable once appended;
// Order is 1-based and gapless within a session.
type PromptRecord struct {
	Participant string    `json:"participant"`
	Text        string    `json:"prompt"`
	Order       int       `json:"order"`
	Timestamp   time.Time `json:"timestamp"`
}

package models

import "time"

// ScoreRecord is the AI evaluation of one artifact. Write-once: a second
// scoring attempt for the same game returns the existing record.
type ScoreRecord struct {
	GameID        string         `json:"gameId"`
	Participant   string         `json:"participant"`
	Theme         string         `json:"theme"`
	DetailScores  map[string]int `json:"detailScores"`
	TotalScore    int            `json:"totalScore"`
	Comment       string         `json:"comment"`
	PromptHistory []string       `json:"promptHistory,omitempty"`
	PromptCount   int            `json:"promptCount"`
	CreatedAt     time.Time      `json:"createdAt"`
	ScoredAt      time.Time      `json:"scoredAt"`
}

type RankingEntry struct {
	Rank        int       `json:"rank"`
	GameID      string    `json:"gameId"`
	Participant string    `json:"participant"`
	Theme       string    `json:"theme"`
	TotalScore  int       `json:"totalScore"`
	CreatedAt   time.Time `json:"createdAt"`
	ScoredAt    time.Time `json:"scoredAt"`
}

// RankingSnapshot is fully recomputed from the persisted score records on
// every score write.
type RankingSnapshot struct {
	LastUpdated time.Time      `json:"lastUpdated"`
	Rankings    []RankingEntry `json:"rankings"`
}

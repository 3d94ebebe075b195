package models

import "time"

type Participant struct {
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joinedAt"`
}

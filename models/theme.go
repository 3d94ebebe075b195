package models

// Theme is the challenge shown to participants for a session: a title, a
// short description, and the features the finished game is expected to have.
type Theme struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Requirements []string `json:"requirements"`
}

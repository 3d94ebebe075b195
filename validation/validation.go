package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	maxPromptLength          = 1000
	maxParticipantNameLength = 50
	maxSessionNameLength     = 100
	maxThemeLength           = 200
	maxParticipants          = 10
)

// DefaultTheme is substituted when no theme is supplied.
const DefaultTheme = "Build a mini game you can enjoy in five seconds!"

var (
	sessionIDPattern        = regexp.MustCompile(`^session_\d{14}_[a-z0-9]+$`)
	gameFileNamePattern     = regexp.MustCompile(`^game_\d{3}_[\p{L}\p{N}\s\-_]+\.html$`)
	flatGameFileNamePattern = regexp.MustCompile(`^game_\d{14}_[\p{L}\p{N}\-_]+\.html$`)
)

// Result is the outcome of a single validation. When Valid is true, Sanitized
// holds the value to use downstream; otherwise Message explains the rejection.
type Result struct {
	Valid     bool   `json:"valid"`
	Message   string `json:"message,omitempty"`
	Sanitized string `json:"sanitized,omitempty"`
}

func invalid(message string) Result {
	return Result{Valid: false, Message: message}
}

func valid(sanitized string) Result {
	return Result{Valid: true, Sanitized: sanitized}
}

// Prompt checks a prompt submission: 1-1000 characters after trimming.
func Prompt(prompt string) Result {
	trimmed := strings.TrimSpace(prompt)
	if len(trimmed) == 0 {
		return invalid("a prompt is required")
	}
	if len([]rune(trimmed)) > maxPromptLength {
		return invalid(fmt.Sprintf("prompt must be %d characters or fewer", maxPromptLength))
	}
	return valid(trimmed)
}

// ParticipantName checks a single participant name: 1-50 characters after
// trimming.
func ParticipantName(name string) Result {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) == 0 {
		return invalid("a participant name is required")
	}
	if len([]rune(trimmed)) > maxParticipantNameLength {
		return invalid(fmt.Sprintf("participant name must be %d characters or fewer", maxParticipantNameLength))
	}
	return valid(trimmed)
}

// ParticipantNames checks a signup batch. An empty batch is itself an error,
// the batch is capped at ten names, and a duplicate rejects the whole batch
// naming the first duplicate found. On success Sanitized holds the trimmed
// names joined by commas and Names carries them individually.
type BatchResult struct {
	Result
	Names []string `json:"names,omitempty"`
}

func ParticipantNames(names []string) BatchResult {
	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return BatchResult{Result: invalid("at least one participant name is required")}
	}
	if len(cleaned) > maxParticipants {
		return BatchResult{Result: invalid(fmt.Sprintf("up to %d participants can join", maxParticipants))}
	}
	seen := make(map[string]bool, len(cleaned))
	for _, name := range cleaned {
		if res := ParticipantName(name); !res.Valid {
			return BatchResult{Result: res}
		}
		if seen[name] {
			return BatchResult{Result: invalid(fmt.Sprintf("duplicate participant name: %s", name))}
		}
		seen[name] = true
	}
	return BatchResult{Result: valid(strings.Join(cleaned, ",")), Names: cleaned}
}

// SessionName substitutes a timestamped default when absent and enforces a
// 100 character ceiling when present.
func SessionName(name string) Result {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return valid(fmt.Sprintf("Session %s", time.Now().Format("2006-01-02 15:04:05")))
	}
	if len([]rune(trimmed)) > maxSessionNameLength {
		return invalid(fmt.Sprintf("session name must be %d characters or fewer", maxSessionNameLength))
	}
	return valid(trimmed)
}

// Theme substitutes the default theme when absent and enforces a 200
// character ceiling when present.
func Theme(theme string) Result {
	trimmed := strings.TrimSpace(theme)
	if trimmed == "" {
		return valid(DefaultTheme)
	}
	if len([]rune(trimmed)) > maxThemeLength {
		return invalid(fmt.Sprintf("theme must be %d characters or fewer", maxThemeLength))
	}
	return valid(trimmed)
}

// SessionID checks the structural pattern
// session_<14-digit timestamp>_<lowercase alphanumeric suffix>.
func SessionID(sessionID string) Result {
	if sessionID == "" {
		return invalid("a session id is required")
	}
	if !sessionIDPattern.MatchString(sessionID) {
		return invalid("invalid session id")
	}
	return valid(sessionID)
}

// GameFileName checks the session-mode artifact file name shape
// game_<3-digit index>_<participant>.html.
func GameFileName(fileName string) Result {
	if fileName == "" {
		return invalid("a file name is required")
	}
	if !gameFileNamePattern.MatchString(fileName) {
		return invalid("invalid game file name")
	}
	return valid(fileName)
}

// FlatGameFileName checks the flat-mode artifact file name shape
// game_<14-digit timestamp>_<sanitized participant>.html. Sanitized
// participant names never contain spaces.
func FlatGameFileName(fileName string) Result {
	if fileName == "" {
		return invalid("a file name is required")
	}
	if !flatGameFileNamePattern.MatchString(fileName) {
		return invalid("invalid game file name")
	}
	return valid(fileName)
}

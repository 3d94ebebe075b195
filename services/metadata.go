package services

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"promptparty/models"
)

// unknownField is substituted for any metadata field a stored file is missing.
const unknownField = "Unknown"

var (
	sessionIDFieldRe     = regexp.MustCompile(`Session ID: (.*)`)
	participantFieldRe   = regexp.MustCompile(`Participant: (.*)`)
	promptFieldRe        = regexp.MustCompile(`Prompt: (.*)`)
	promptHistoryFieldRe = regexp.MustCompile(`PromptHistory: (.*)`)
	gameIndexFieldRe     = regexp.MustCompile(`Game Index: (.*)`)
	generatedFieldRe     = regexp.MustCompile(`Generated: (.*)`)
)

// artifactRecord is the JSON sidecar written next to every artifact HTML
// file. It carries the same fields as the comment header in a shape that can
// be read back without regex extraction; the header stays bit-exact for
// other tools that read it.
type artifactRecord struct {
	SessionID     string   `json:"sessionId,omitempty"`
	Participant   string   `json:"participant"`
	Prompt        string   `json:"prompt"`
	PromptHistory []string `json:"promptHistory,omitempty"`
	GameIndex     int      `json:"gameIndex,omitempty"`
	Generated     string   `json:"generated"`
}

func recordFromArtifact(a *models.GameArtifact) artifactRecord {
	return artifactRecord{
		SessionID:     a.SessionID,
		Participant:   a.Participant,
		Prompt:        a.Prompt,
		PromptHistory: a.PromptHistory,
		GameIndex:     a.GameIndex,
		Generated:     a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (r artifactRecord) apply(a *models.GameArtifact) {
	a.SessionID = r.SessionID
	a.Participant = orUnknown(r.Participant)
	a.Prompt = orUnknown(r.Prompt)
	a.PromptHistory = r.PromptHistory
	a.GameIndex = r.GameIndex
	if t, err := time.Parse(time.RFC3339, r.Generated); err == nil {
		a.CreatedAt = t
	}
}

// buildArtifactHeader renders the HTML comment block that prefixes every
// stored artifact. Session mode and flat mode carry different field sets.
func buildArtifactHeader(a *models.GameArtifact, mode models.StorageMode) string {
	generated := a.CreatedAt.UTC().Format(time.RFC3339)
	if mode == models.StorageFlat {
		history, _ := json.Marshal(a.PromptHistory)
		return fmt.Sprintf("<!--\nParticipant: %s\nPrompt: %s\nPromptHistory: %s\nGenerated: %s\n-->\n",
			a.Participant, a.Prompt, history, generated)
	}
	return fmt.Sprintf("<!--\nSession ID: %s\nParticipant: %s\nPrompt: %s\nGame Index: %d\nGenerated: %s\n-->\n",
		a.SessionID, a.Participant, a.Prompt, a.GameIndex, generated)
}

// parseArtifactContent extracts header fields from a stored file. Every field
// is optional on read: a missing participant or prompt degrades to "Unknown"
// and a missing timestamp leaves CreatedAt for the caller's stat fallback.
func parseArtifactContent(content string, a *models.GameArtifact) {
	if m := sessionIDFieldRe.FindStringSubmatch(content); m != nil {
		a.SessionID = strings.TrimSpace(m[1])
	}
	a.Participant = matchOrUnknown(participantFieldRe, content)
	a.Prompt = matchOrUnknown(promptFieldRe, content)
	if m := promptHistoryFieldRe.FindStringSubmatch(content); m != nil {
		var history []string
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &history); err == nil {
			a.PromptHistory = history
		}
	}
	if m := gameIndexFieldRe.FindStringSubmatch(content); m != nil {
		fmt.Sscanf(strings.TrimSpace(m[1]), "%d", &a.GameIndex)
	}
	if m := generatedFieldRe.FindStringSubmatch(content); m != nil {
		if t, err := time.Parse(time.RFC3339, strings.TrimSpace(m[1])); err == nil {
			a.CreatedAt = t
		}
	}
}

// artifactBody strips the comment header, returning the HTML document that
// follows the "-->" delimiter. Files without a header pass through whole.
func artifactBody(content string) string {
	if _, body, ok := strings.Cut(content, "-->"); ok {
		return strings.TrimSpace(body)
	}
	return content
}

func matchOrUnknown(re *regexp.Regexp, content string) string {
	if m := re.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return unknownField
}

func orUnknown(value string) string {
	if value == "" {
		return unknownField
	}
	return value
}

// writeJSONFile persists v as UTF-8, 2-space-indented JSON.
func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func readJSONFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

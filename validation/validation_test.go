package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompt(t *testing.T) {
	t.Run("accepts trimmed prompt", func(t *testing.T) {
		res := Prompt("  make a clicker game  ")
		require.True(t, res.Valid)
		assert.Equal(t, "make a clicker game", res.Sanitized)
	})

	t.Run("rejects empty prompt", func(t *testing.T) {
		res := Prompt("   ")
		require.False(t, res.Valid)
		assert.NotEmpty(t, res.Message)
	})

	t.Run("accepts prompt at the length limit", func(t *testing.T) {
		res := Prompt(strings.Repeat("a", 1000))
		assert.True(t, res.Valid)
	})

	t.Run("rejects prompt over the length limit", func(t *testing.T) {
		res := Prompt(strings.Repeat("a", 1001))
		assert.False(t, res.Valid)
	})

	t.Run("counts runes not bytes", func(t *testing.T) {
		res := Prompt(strings.Repeat("あ", 1000))
		assert.True(t, res.Valid)
	})
}

func TestParticipantName(t *testing.T) {
	t.Run("accepts and trims", func(t *testing.T) {
		res := ParticipantName(" Aki ")
		require.True(t, res.Valid)
		assert.Equal(t, "Aki", res.Sanitized)
	})

	t.Run("rejects empty", func(t *testing.T) {
		assert.False(t, ParticipantName("").Valid)
	})

	t.Run("rejects over fifty characters", func(t *testing.T) {
		assert.False(t, ParticipantName(strings.Repeat("x", 51)).Valid)
	})
}

func TestParticipantNames(t *testing.T) {
	t.Run("accepts a batch", func(t *testing.T) {
		res := ParticipantNames([]string{"Aki", " Yui ", "Ren"})
		require.True(t, res.Valid)
		assert.Equal(t, []string{"Aki", "Yui", "Ren"}, res.Names)
	})

	t.Run("empty batch is an error", func(t *testing.T) {
		res := ParticipantNames(nil)
		assert.False(t, res.Valid)
	})

	t.Run("blank-only batch is an error", func(t *testing.T) {
		res := ParticipantNames([]string{"", "   "})
		assert.False(t, res.Valid)
	})

	t.Run("names the first duplicate", func(t *testing.T) {
		res := ParticipantNames([]string{"Aki", "Yui", "Aki", "Yui"})
		require.False(t, res.Valid)
		assert.Contains(t, res.Message, "Aki")
	})

	t.Run("caps the batch at ten", func(t *testing.T) {
		names := make([]string, 11)
		for i := range names {
			names[i] = string(rune('a' + i))
		}
		assert.False(t, ParticipantNames(names).Valid)
	})
}

func TestSessionName(t *testing.T) {
	t.Run("substitutes a default when empty", func(t *testing.T) {
		res := SessionName("")
		require.True(t, res.Valid)
		assert.True(t, strings.HasPrefix(res.Sanitized, "Session "))
	})

	t.Run("keeps a supplied name", func(t *testing.T) {
		res := SessionName("Friday night")
		require.True(t, res.Valid)
		assert.Equal(t, "Friday night", res.Sanitized)
	})

	t.Run("rejects names over one hundred characters", func(t *testing.T) {
		assert.False(t, SessionName(strings.Repeat("n", 101)).Valid)
	})
}

func TestTheme(t *testing.T) {
	t.Run("substitutes the default when empty", func(t *testing.T) {
		res := Theme("  ")
		require.True(t, res.Valid)
		assert.Equal(t, DefaultTheme, res.Sanitized)
	})

	t.Run("rejects themes over two hundred characters", func(t *testing.T) {
		assert.False(t, Theme(strings.Repeat("t", 201)).Valid)
	})
}

func TestSessionID(t *testing.T) {
	t.Run("accepts the canonical shape", func(t *testing.T) {
		assert.True(t, SessionID("session_20250831120000_k3j9x2m4q").Valid)
	})

	t.Run("rejects short timestamps", func(t *testing.T) {
		assert.False(t, SessionID("session_20250831_k3j9x2m4q").Valid)
	})

	t.Run("rejects uppercase suffixes", func(t *testing.T) {
		assert.False(t, SessionID("session_20250831120000_K3J9X2M4Q").Valid)
	})

	t.Run("rejects empty ids", func(t *testing.T) {
		assert.False(t, SessionID("").Valid)
	})
}

func TestGameFileName(t *testing.T) {
	t.Run("accepts the session-mode shape", func(t *testing.T) {
		assert.True(t, GameFileName("game_001_Aki.html").Valid)
	})

	t.Run("accepts non-latin participant names", func(t *testing.T) {
		assert.True(t, GameFileName("game_012_ゆい.html").Valid)
	})

	t.Run("rejects a missing index", func(t *testing.T) {
		assert.False(t, GameFileName("game_Aki.html").Valid)
	})

	t.Run("rejects metadata file names", func(t *testing.T) {
		assert.False(t, GameFileName("session.json").Valid)
		assert.False(t, GameFileName("participants.json").Valid)
	})
}

func TestFlatGameFileName(t *testing.T) {
	t.Run("accepts the flat-mode shape", func(t *testing.T) {
		assert.True(t, FlatGameFileName("game_20250831120000_Aki.html").Valid)
	})

	t.Run("accepts sanitized non-latin participant names", func(t *testing.T) {
		assert.True(t, FlatGameFileName("game_20250831120000_ゆい.html").Valid)
	})

	t.Run("rejects session-mode names", func(t *testing.T) {
		assert.False(t, FlatGameFileName("game_001_Aki.html").Valid)
	})

	t.Run("rejects spaces", func(t *testing.T) {
		assert.False(t, FlatGameFileName("game_20250831120000_two words.html").Valid)
	})

	t.Run("rejects an empty name", func(t *testing.T) {
		assert.False(t, FlatGameFileName("").Valid)
	})
}

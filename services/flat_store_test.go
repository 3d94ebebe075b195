package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptparty/models"
)

func newTestFlatStore(t *testing.T) (*FlatStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewFlatStore(dir, testLogger())
	require.NoError(t, err)
	return store, filepath.Join(dir, "games")
}

func flatArtifact(participant, prompt string) *models.GameArtifact {
	return &models.GameArtifact{
		Participant:   participant,
		Prompt:        prompt,
		PromptHistory: []string{prompt},
		HTML:          wellFormedDoc,
	}
}

func TestFlatStoreRoundTrip(t *testing.T) {
	store, gamesDir := newTestFlatStore(t)

	fileName, err := store.SaveArtifact(flatArtifact("Yui", "make a clicker"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(fileName, "game_"))
	assert.True(t, strings.HasSuffix(fileName, "_Yui.html"))

	raw, err := os.ReadFile(filepath.Join(gamesDir, fileName))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Participant: Yui")
	assert.Contains(t, string(raw), `PromptHistory: ["make a clicker"]`)

	got, err := store.GetArtifact(fileName)
	require.NoError(t, err)
	assert.Equal(t, "Yui", got.Participant)
	assert.Equal(t, "make a clicker", got.Prompt)
	assert.Equal(t, []string{"make a clicker"}, got.PromptHistory)
	assert.Equal(t, wellFormedDoc, got.HTML)
}

func TestFlatStoreReplacement(t *testing.T) {
	store, gamesDir := newTestFlatStore(t)

	first := flatArtifact("Yui", "make a clicker")
	first.CreatedAt = time.Now().Add(-time.Minute)
	_, err := store.SaveArtifact(first)
	require.NoError(t, err)
	_, err = store.SaveArtifact(flatArtifact("Aki", "make a puzzle"))
	require.NoError(t, err)

	second := flatArtifact("Yui", "make it faster")
	_, err = store.SaveArtifact(second)
	require.NoError(t, err)

	// Exactly one live file per participant.
	entries, err := os.ReadDir(gamesDir)
	require.NoError(t, err)
	var yuiFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), "_Yui.html") {
			yuiFiles = append(yuiFiles, entry.Name())
		}
	}
	require.Len(t, yuiFiles, 1)

	got, err := store.GetArtifact(yuiFiles[0])
	require.NoError(t, err)
	assert.Equal(t, "make it faster", got.Prompt)

	// The other participant's file is untouched.
	artifacts, err := store.ListArtifacts()
	require.NoError(t, err)
	assert.Len(t, artifacts, 2)
}

func TestFlatStoreSanitizesParticipantNames(t *testing.T) {
	store, gamesDir := newTestFlatStore(t)

	fileName, err := store.SaveArtifact(flatArtifact("A/k:i !", "p"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(fileName, "_A_k_i__.html"))

	_, err = os.Stat(filepath.Join(gamesDir, fileName))
	assert.NoError(t, err)
}

func TestFlatStoreList(t *testing.T) {
	store, _ := newTestFlatStore(t)

	older := flatArtifact("Aki", "first")
	older.CreatedAt = time.Now().Add(-time.Hour)
	_, err := store.SaveArtifact(older)
	require.NoError(t, err)
	_, err = store.SaveArtifact(flatArtifact("Yui", "second"))
	require.NoError(t, err)

	artifacts, err := store.ListArtifacts()
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	assert.Equal(t, "Yui", artifacts[0].Participant, "newest first")
	assert.Equal(t, "Aki", artifacts[1].Participant)
}

func TestFlatStoreNotFound(t *testing.T) {
	store, _ := newTestFlatStore(t)

	_, err := store.GetArtifact("game_20250831120000_Nobody.html")
	assert.ErrorIs(t, err, ErrGameNotFound)

	err = store.DeleteArtifact("game_20250831120000_Nobody.html")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestFlatStoreStats(t *testing.T) {
	store, _ := newTestFlatStore(t)

	_, err := store.SaveArtifact(flatArtifact("Aki", "p"))
	require.NoError(t, err)
	_, err = store.SaveArtifact(flatArtifact("Yui", "p"))
	require.NoError(t, err)
	_, err = store.SaveArtifact(flatArtifact("Yui", "p2"))
	require.NoError(t, err)

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalGames)
	assert.Equal(t, 2, stats.TotalParticipants)
	assert.ElementsMatch(t, []string{"Aki", "Yui"}, stats.Participants)
}

func TestFlatStoreDelete(t *testing.T) {
	store, gamesDir := newTestFlatStore(t)

	fileName, err := store.SaveArtifact(flatArtifact("Aki", "p"))
	require.NoError(t, err)
	require.NoError(t, store.DeleteArtifact(fileName))

	_, err = os.Stat(filepath.Join(gamesDir, fileName))
	assert.True(t, os.IsNotExist(err))
	// The sidecar goes with it.
	_, err = os.Stat(filepath.Join(gamesDir, strings.TrimSuffix(fileName, ".html")+".json"))
	assert.True(t, os.IsNotExist(err))
}

package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".sercha-ingest", "prompts"), store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptSegmentScore)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Reply with the number only.")
	assert.Contains(t, prompt, "%s")

	for _, f := range []string{"segment_score.txt", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()
	custom := "Score this passage: %s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "segment_score.txt"), []byte("  "+custom+"\n\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptSegmentScore)
	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, _ = store.Load(driven.PromptSegmentScore)
	require.NoError(t, os.Remove(filepath.Join(dir, "segment_score.txt")))
	store.Reload()

	prompt, err := store.Load(driven.PromptSegmentScore)
	require.NoError(t, err)
	builtin, ok := defaultPrompt(driven.PromptSegmentScore)
	require.True(t, ok)
	assert.Equal(t, builtin, prompt)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent_prompt")
	assert.Error(t, err)
}

func TestPromptStore_Reload_ClearsCache(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptSegmentScore)
	require.NoError(t, err)

	path := filepath.Join(dir, "segment_score.txt")
	require.NoError(t, os.WriteFile(path, []byte("Edited: %s"), 0600))

	cached, err := store.Load(driven.PromptSegmentScore)
	require.NoError(t, err)
	assert.NotEqual(t, "Edited: %s", cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptSegmentScore)
	require.NoError(t, err)
	assert.Equal(t, "Edited: %s", fresh)
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "segment_score.txt")
	require.NoError(t, os.WriteFile(path, []byte("mine: %s"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	_, err = store.Load(driven.PromptSegmentScore)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mine: %s", string(data))
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prompt, err := store.Load(driven.PromptSegmentScore)
			assert.NoError(t, err)
			assert.NotEmpty(t, prompt)
		}()
	}
	wg.Wait()
}

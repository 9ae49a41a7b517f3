package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

func TestConfigCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range configCmd.Commands() {
		names = append(names, c.Name())
		assert.Contains(t, c.Annotations, skipWiring, c.Name())
	}
	assert.ElementsMatch(t, []string{"get", "set", "list", "path"}, names)
}

func TestConfigSet_TypesValueByKey(t *testing.T) {
	ts, cleanup := installTestServices()
	defer cleanup()

	out, err := execute(t, "config", "set", file.KeySegmenterThreshold, "0.25")
	require.NoError(t, err)
	assert.Contains(t, out, "segmenter.threshold = 0.25")

	v, ok := ts.config.Get(file.KeySegmenterThreshold)
	require.True(t, ok)
	assert.Equal(t, 0.25, v)

	_, err = execute(t, "config", "set", file.KeyFilterDedupe, "true")
	require.NoError(t, err)
	v, _ = ts.config.Get(file.KeyFilterDedupe)
	assert.Equal(t, true, v)
}

func TestConfigSet_InvalidValue(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "config", "set", file.KeyPipelineConcurrency, "many")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConfigSet_UnknownKey(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "config", "set", "nope.key", "1")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConfigGet(t *testing.T) {
	ts, cleanup := installTestServices()
	defer cleanup()

	out, err := execute(t, "config", "get", file.KeyIndexBackend)
	require.NoError(t, err)
	assert.Contains(t, out, "(not set)")

	require.NoError(t, ts.config.Set(file.KeyIndexBackend, "sqlite"))
	out, err = execute(t, "config", "get", file.KeyIndexBackend)
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite")
}

func TestConfigGet_UnknownKey(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "config", "get", "nope.key")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown key")
}

func TestConfigGet_MasksAPIKey(t *testing.T) {
	ts, cleanup := installTestServices()
	defer cleanup()
	require.NoError(t, ts.config.Set(file.KeyEmbeddingAPIKey, "sk-abcdefghijklmnop"))

	out, err := execute(t, "config", "get", file.KeyEmbeddingAPIKey)

	require.NoError(t, err)
	assert.Contains(t, out, "sk-a...mnop")
	assert.NotContains(t, out, "abcdefghijkl")
}

func TestConfigList(t *testing.T) {
	ts, cleanup := installTestServices()
	defer cleanup()
	require.NoError(t, ts.config.Set(file.KeyOutputFormat, "yaml"))

	out, err := execute(t, "config", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "[segmenter]")
	assert.Contains(t, out, "[embedding]")
	assert.Contains(t, out, "output.format = yaml")
	assert.Contains(t, out, "segmenter.threshold = (default)")
}

func TestConfigPath(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "config", "path")

	require.NoError(t, err)
	assert.Contains(t, out, ":memory:")
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", "****"},
		{"short", "****"},
		{"12345678", "****"},
		{"sk-1234567890abcdef", "sk-1...cdef"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, maskAPIKey(tt.key))
	}
}

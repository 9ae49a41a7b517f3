package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embedServer(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.WriteHeader(http.StatusOK)
		case "/api/embed":
			var req struct {
				Model string   `json:"model"`
				Input []string `json:"input"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if req.Model == "missing" {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"error":"model \"missing\" not found"}`))
				return
			}
			embeddings := make([][]float32, len(req.Input))
			for i := range req.Input {
				vec := make([]float32, dims)
				vec[0] = float32(i + 1)
				embeddings[i] = vec
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"model":      req.Model,
				"embeddings": embeddings,
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	s, err := NewEmbeddingService(Config{BaseURL: DefaultBaseURL})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, s.ModelName())
	assert.Equal(t, DefaultDimensions, s.Dimensions())
	assert.NoError(t, s.Close())
}

func TestEmbeddingService_EmbedBatch(t *testing.T) {
	srv := embedServer(t, 4)
	s, err := NewEmbeddingService(Config{BaseURL: srv.URL, Model: "test", Dimensions: 4})
	require.NoError(t, err)

	vecs, err := s.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	for i, v := range vecs {
		assert.Len(t, v, 4)
		assert.Equal(t, float32(i+1), v[0])
	}
}

func TestEmbeddingService_Embed(t *testing.T) {
	srv := embedServer(t, 3)
	s, err := NewEmbeddingService(Config{BaseURL: srv.URL, Model: "test", Dimensions: 3})
	require.NoError(t, err)

	vec, err := s.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, vec)
}

func TestEmbeddingService_EmptyBatch(t *testing.T) {
	s, err := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	vecs, err := s.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}

func TestEmbeddingService_Error(t *testing.T) {
	srv := embedServer(t, 3)
	s, err := NewEmbeddingService(Config{BaseURL: srv.URL, Model: "missing"})
	require.NoError(t, err)

	_, err = s.Embed(context.Background(), "hello")
	assert.Error(t, err)
}

func TestEmbeddingService_Ping(t *testing.T) {
	srv := embedServer(t, 3)
	s, err := NewEmbeddingService(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	assert.NoError(t, s.Ping(context.Background()))
}

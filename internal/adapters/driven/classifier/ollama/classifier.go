// Package ollama provides a classifier that scores text with a local
// Ollama model.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Classifier implements the interfaces.
var (
	_ driven.Classifier       = (*Classifier)(nil)
	_ driven.PromptStoreAware = (*Classifier)(nil)
)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2:3b"
)

// DefaultPrompt asks the model for a single completeness score.
const DefaultPrompt = `You decide where a document should be split into self-contained passages.
Rate how complete and self-contained the following passage is as a unit of meaning,
from 0 (fragment, clearly continues) to 1 (finished, coherent thought).
Reply with the number only.

Passage:
%s`

var numberPattern = regexp.MustCompile(`[-+]?\d*\.?\d+`)

// Config holds configuration for the Ollama classifier.
type Config struct {
	// BaseURL is the Ollama API base URL. Empty uses OLLAMA_HOST.
	BaseURL string

	// Model is the generation model (default: llama3.2:3b).
	Model string

	// HTTPClient overrides the transport. Nil uses http.DefaultClient.
	HTTPClient *http.Client
}

// Classifier scores candidates by prompting an Ollama model.
type Classifier struct {
	client  *api.Client
	model   string
	prompts driven.PromptStore
}

// NewClassifier creates a new Ollama classifier.
func NewClassifier(cfg Config) (*Classifier, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := newClient(cfg.BaseURL, cfg.HTTPClient)
	if err != nil {
		return nil, err
	}

	return &Classifier{client: client, model: cfg.Model}, nil
}

// Score returns the model's completeness rating clamped to [0,1].
func (c *Classifier) Score(ctx context.Context, text string) (float64, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:   c.model,
		Prompt:  fmt.Sprintf(c.template(), text),
		Stream:  &stream,
		Options: map[string]any{"temperature": 0},
	}

	var out strings.Builder
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("ollama generate: %w", err)
	}

	return ParseScore(out.String())
}

// SetPromptStore lets users override the scoring prompt.
func (c *Classifier) SetPromptStore(store driven.PromptStore) {
	c.prompts = store
}

// template returns the stored prompt when it still carries exactly one
// %s placeholder, otherwise the built-in one.
func (c *Classifier) template() string {
	if c.prompts == nil {
		return DefaultPrompt
	}
	tmpl, err := c.prompts.Load(driven.PromptSegmentScore)
	if err != nil || strings.Count(tmpl, "%s") != 1 || strings.Count(tmpl, "%") != 1 {
		return DefaultPrompt
	}
	return tmpl
}

// Ping checks that the Ollama server is reachable.
func (c *Classifier) Ping(ctx context.Context) error {
	if err := c.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	return nil
}

// ParseScore extracts the first number in a model reply and clamps it to
// [0,1].
func ParseScore(reply string) (float64, error) {
	match := numberPattern.FindString(reply)
	if match == "" {
		return 0, fmt.Errorf("no score in reply %q", strings.TrimSpace(reply))
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("parse score %q: %w", match, err)
	}
	return min(max(v, 0), 1), nil
}

func newClient(baseURL string, httpClient *http.Client) (*api.Client, error) {
	if baseURL == "" {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("create ollama client: %w", err)
		}
		return client, nil
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse ollama host: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return api.NewClient(u, httpClient), nil
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed chunks",
	Long: `Embeds the query and returns the nearest indexed chunks by Euclidean
distance, closest first. Requires a configured embedding provider and the
sqlite index backend to search documents processed in earlier runs.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}
	if settings.IndexBackend == domain.IndexBackendMemory {
		logger.Warn("index.backend is memory; only documents processed in this run are searchable")
	}

	results, err := searchService.Search(cmd.Context(), args[0], domain.SearchOptions{Limit: searchLimit})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	outputSearchTable(cmd, results)
	return nil
}

// searchResultJSON is the JSON shape of a search result.
type searchResultJSON struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	URI        string  `json:"uri"`
	Position   int     `json:"position"`
	Ordinal    int     `json:"ordinal"`
	Distance   float64 `json:"distance"`
	Content    string  `json:"content"`
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	out := make([]searchResultJSON, len(results))
	for i := range results {
		out[i] = searchResultJSON{
			DocumentID: results[i].Document.ID,
			Title:      results[i].Document.Title,
			URI:        results[i].Document.URI,
			Position:   results[i].Chunk.Position,
			Ordinal:    results[i].Ordinal,
			Distance:   results[i].Distance,
			Content:    results[i].Chunk.Content,
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	st := newStyles(cmd.OutOrStdout())
	cmd.Println(st.title.Render("Results:"))
	cmd.Println()
	for i := range results {
		title := results[i].Document.Title
		if title == "" {
			title = results[i].Document.ID
		}

		cmd.Printf("  [%d] %s %s\n", i+1, st.label.Render(title),
			st.muted.Render(fmt.Sprintf("(%.4f)", results[i].Distance)))
		cmd.Printf("      %s\n", st.muted.Render(results[i].Document.URI))
		cmd.Printf("      %s\n", results[i].Chunk.Content)
		cmd.Println()
	}
}

package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/export"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

var (
	processPages   string
	processOutput  string
	processFormat  string
	processNoWrite bool
)

var processCmd = &cobra.Command{
	Use:   "process [path]",
	Short: "Process a file or directory",
	Long: `Runs documents through extraction, cleaning, segmentation, filtering,
embedding and indexing.

A file is processed on its own; --pages selects a 1-based inclusive range
such as 2-5, 3- or -4. A directory is processed as a batch: documents that
fail are reported and skipped, and the surviving records are written to
chunks.json (or chunks.yaml) in the output directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&processPages, "pages", "p", "", "page range for a single file, e.g. 2-5")
	processCmd.Flags().StringVarP(&processOutput, "output", "o", "", "output directory (default from output.dir)")
	processCmd.Flags().StringVarP(&processFormat, "format", "f", "", "output format: json or yaml (default from output.format)")
	processCmd.Flags().BoolVar(&processNoWrite, "no-write", false, "do not write the batch output file")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if !info.IsDir() {
		return processFile(cmd, path)
	}
	if processPages != "" {
		return fmt.Errorf("%w: --pages applies to a single file", domain.ErrInvalidInput)
	}
	return processDirectory(cmd, path)
}

func processFile(cmd *cobra.Command, path string) error {
	pages, err := parsePageRange(processPages)
	if err != nil {
		return err
	}

	record, err := pipelineService.ProcessDocument(cmd.Context(), path, pages)
	if err != nil {
		return fmt.Errorf("process %s: %w", path, err)
	}

	st := newStyles(cmd.OutOrStdout())
	cmd.Println(st.title.Render(path))
	cmd.Printf("  %s %d of %d kept\n", st.label.Render("Chunks:"),
		record.Stats.FilteredChunkCount, record.Stats.InitialChunkCount)
	for _, c := range record.Chunks {
		cmd.Printf("  %s %s\n", st.muted.Render(fmt.Sprintf("[%d]", c.ID)), c.Text)
	}
	return nil
}

func processDirectory(cmd *cobra.Command, dir string) error {
	result, err := pipelineService.ProcessDirectory(cmd.Context(), dir)
	if err != nil {
		return fmt.Errorf("process %s: %w", dir, err)
	}

	st := newStyles(cmd.OutOrStdout())
	totals := result.Totals()
	cmd.Println(st.title.Render("Batch summary"))
	cmd.Printf("  %s %s\n", st.label.Render("Processed:"),
		st.success.Render(strconv.Itoa(result.Processed())))
	cmd.Printf("  %s %d of %d kept\n", st.label.Render("Chunks:   "),
		totals.FilteredChunkCount, totals.InitialChunkCount)
	if len(result.Failures) > 0 {
		cmd.Printf("  %s %s\n", st.label.Render("Failed:   "),
			st.failure.Render(strconv.Itoa(len(result.Failures))))
		for _, f := range result.Failures {
			cmd.Printf("    %s %s: %s\n", st.warning.Render(f.Stage.String()), f.URI, f.Reason)
		}
	}

	if processNoWrite {
		return nil
	}
	written, err := writeBatch(cmd, result)
	if err != nil {
		return err
	}
	cmd.Printf("  %s %s\n", st.label.Render("Output:   "), written)
	return nil
}

func writeBatch(cmd *cobra.Command, result *domain.BatchResult) (string, error) {
	dir := settings.OutputDir
	if processOutput != "" {
		dir = processOutput
	}
	format := settings.OutputFormat
	if processFormat != "" {
		format = domain.OutputFormat(strings.ToLower(processFormat))
	}

	writer, err := export.NewWriter(dir, format)
	if err != nil {
		return "", err
	}
	return writer.Write(cmd.Context(), result)
}

// parsePageRange parses "", "N", "N-M", "N-" and "-M".
func parsePageRange(s string) (domain.PageRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.PageRange{}, nil
	}

	startStr, endStr, isRange := strings.Cut(s, "-")
	if !isRange {
		endStr = startStr
	}

	var r domain.PageRange
	var err error
	if startStr != "" {
		if r.Start, err = strconv.Atoi(startStr); err != nil || r.Start < 1 {
			return domain.PageRange{}, fmt.Errorf("%w: page range %q", domain.ErrInvalidInput, s)
		}
	}
	if endStr != "" {
		if r.End, err = strconv.Atoi(endStr); err != nil || r.End < 1 {
			return domain.PageRange{}, fmt.Errorf("%w: page range %q", domain.ErrInvalidInput, s)
		}
	}
	if r.IsZero() {
		return domain.PageRange{}, fmt.Errorf("%w: page range %q", domain.ErrInvalidInput, s)
	}
	return r, nil
}

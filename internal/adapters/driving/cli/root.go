// Package cli provides the cobra command tree of sercha-ingest.
//
// Commands read the package-level services. The root command's pre-run
// hook opens the configuration and wires the services from it unless they
// are already set, which is how tests inject mocks.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

// Flags shared by every command.
var (
	verbose   bool
	configDir string
	envFile   string
)

// Services used by the commands.
var (
	configStore     driven.ConfigStore
	settings        = domain.DefaultSettings()
	pipelineService driving.PipelineService
	searchService   driving.SearchService
	documentService driving.DocumentService
	watchService    driving.WatchService

	// closeServices releases whatever wire opened.
	closeServices func() error
)

// skipWiring marks commands that only need the config store.
const skipWiring = "skip-wiring"

var rootCmd = &cobra.Command{
	Use:   "sercha-ingest",
	Short: "Segment, filter, embed and index local documents",
	Long: `sercha-ingest turns PDF and text files into semantically coherent chunks.

Each document is extracted, cleaned, split into chunks by a classifier,
filtered for low-value segments, embedded and added to an exact vector
index that can be searched by similarity.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.sercha-ingest)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded at startup, if present")
}

// Execute runs the root command and releases the services it opened.
func Execute() error {
	err := rootCmd.Execute()
	if cerr := teardown(); err == nil {
		err = cerr
	}
	return err
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// setup configures logging, loads the environment and configuration and
// wires the services the command needs.
func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.SetOutput(cmd.ErrOrStderr())

	if err := loadEnv(envFile); err != nil {
		return err
	}

	if configStore == nil {
		store, err := file.NewConfigStore(configDir)
		if err != nil {
			return fmt.Errorf("open config: %w", err)
		}
		configStore = store
	}
	settings = file.LoadSettings(configStore)

	if _, skip := cmd.Annotations[skipWiring]; skip || pipelineService != nil {
		return nil
	}

	a, err := wire(settings, promptDir())
	if err != nil {
		return err
	}
	pipelineService = a.pipeline
	searchService = a.search
	documentService = a.documents
	watchService = a.watch
	closeServices = a.Close
	return nil
}

func teardown() error {
	if closeServices == nil {
		return nil
	}
	err := closeServices()
	closeServices = nil
	return err
}

// loadEnv loads a dotenv file. A missing file is not an error; variables
// already set in the environment win.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	logger.Debug("loaded environment from %s", path)
	return nil
}

// promptDir returns the prompt directory next to the config file.
func promptDir() string {
	if configDir == "" {
		return ""
	}
	return filepath.Join(configDir, "prompts")
}

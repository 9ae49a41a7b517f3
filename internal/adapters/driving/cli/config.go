package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/config/file"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and change configuration",
	Long: `Reads and writes keys in config.toml.

Keys use dot notation, e.g. segmenter.threshold or embedding.provider.
Run "config list" to see every key with its stored value.`,
	Annotations: map[string]string{skipWiring: "true"},
}

var configGetCmd = &cobra.Command{
	Use:         "get [key]",
	Short:       "Print a stored value",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{skipWiring: "true"},
	RunE:        runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:         "set [key] [value]",
	Short:       "Store a value",
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{skipWiring: "true"},
	RunE:        runConfigSet,
}

var configListCmd = &cobra.Command{
	Use:         "list",
	Short:       "List every key",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipWiring: "true"},
	RunE:        runConfigList,
}

var configPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Print the config file path",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipWiring: "true"},
	RunE:        runConfigPath,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key := args[0]
	if !file.IsKey(key) {
		return fmt.Errorf("unknown key %q", key)
	}
	v, ok := configStore.Get(key)
	if !ok {
		cmd.Println("(not set)")
		return nil
	}
	cmd.Println(formatConfigValue(key, v))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key, raw := args[0], args[1]
	v, err := file.ParseValue(key, raw)
	if err != nil {
		return err
	}
	if err := configStore.Set(key, v); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}

	cmd.Printf("%s = %s\n", key, formatConfigValue(key, v))
	return nil
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	st := newStyles(cmd.OutOrStdout())
	section := ""
	for _, key := range file.Keys() {
		if s, _, _ := strings.Cut(key, "."); s != section {
			if section != "" {
				cmd.Println()
			}
			section = s
			cmd.Println(st.title.Render("[" + section + "]"))
		}

		value := st.muted.Render("(default)")
		if v, ok := configStore.Get(key); ok {
			value = formatConfigValue(key, v)
		}
		cmd.Printf("  %s = %s\n", key, value)
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}
	cmd.Println(configStore.Path())
	return nil
}

// formatConfigValue renders a stored value, masking secrets.
func formatConfigValue(key string, v any) string {
	if key == file.KeyEmbeddingAPIKey {
		s, _ := v.(string)
		return maskAPIKey(s)
	}
	return fmt.Sprintf("%v", v)
}

// maskAPIKey masks an API key for display, showing only the first and
// last 4 characters.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

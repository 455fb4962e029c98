package cli

import (
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/oakum-labs/docq-cli/internal/adapters/driven/config/file"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Prints the configuration file path and the effective settings,
including defaults for anything the file does not set.`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, _ []string) error {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return err
	}

	data, err := toml.Marshal(store.Config())
	if err != nil {
		return err
	}

	cmd.Printf("# %s\n", store.Path())
	cmd.Print(string(data))
	return nil
}

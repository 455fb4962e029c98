package cli

import (
	"errors"
	"sort"

	"github.com/spf13/cobra"

	"github.com/oakum-labs/docq-cli/internal/core/domain"
)

// errDegraded drives a non-zero exit code; the detail is already printed.
var errDegraded = errors.New("one or more backends are unreachable")

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the pipeline's backends",
	Long: `Pings the embedding service, the generation service and the vector
index, and reports which of them are reachable.`,
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	health := a.health.Check(cmd.Context())
	cmd.Printf("Status: %s\n", health.Status)

	names := make([]string, 0, len(health.Components))
	for name := range health.Components {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		detail := health.Components[name]
		if detail == "" {
			cmd.Printf("  %-12s ok\n", name)
		} else {
			cmd.Printf("  %-12s %s\n", name, detail)
		}
	}

	if health.Status != domain.StatusHealthy {
		cmd.SilenceErrors = true
		return errDegraded
	}
	return nil
}

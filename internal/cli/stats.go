package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsProject string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize stored memories",
	Long:  `Print totals, counts by type, average importance and time range as JSON.`,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsProject, "project", "", "restrict the summary to one project")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	summary, err := rt.engine.Summary(cmd.Context(), statsProject)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

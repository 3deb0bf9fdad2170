package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var reembedBatchSize int

var reembedCmd = &cobra.Command{
	Use:   "reembed",
	Short: "Refresh embeddings for stored memories",
	Long: `Compute embeddings for memories that lack one or whose embedding no
longer matches the configured provider's dimension. Prints the sweep
statistics as JSON.`,
	RunE: runReembed,
}

func init() {
	reembedCmd.Flags().IntVar(&reembedBatchSize, "batch-size", 100, "maximum number of memories to process")
	rootCmd.AddCommand(reembedCmd)
}

func runReembed(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	stats, err := rt.engine.UpdateExistingEmbeddings(cmd.Context(), reembedBatchSize)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mnemo-ai/mnemo/pkg/maintenance"
	"github.com/mnemo-ai/mnemo/pkg/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the memory engine over MCP stdio",
	Long: `Start the MCP server on stdin/stdout so an assistant client can call
the memory tools. Logs go to stderr and the configured log file. When
maintenance is enabled, a background job periodically refreshes missing
embeddings.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if rt.cfg.Maintenance.Enabled {
		scheduler, err := maintenance.New(maintenance.Config{
			Engine:    rt.engine,
			Schedule:  rt.cfg.Maintenance.Schedule,
			BatchSize: rt.cfg.Maintenance.BatchSize,
			Logger:    rt.log.GetZerolog(),
		})
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := mcp.New(rt.engine, version, rt.log.GetZerolog())
	return server.Run(ctx)
}

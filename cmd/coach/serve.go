package main

import (
	"context"

	"github.com/aretw0/coach/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves conversations over a JSON API with server-sent events.

Each request runs one turn against a session kept in the memory, file or redis store.
The OpenAPI description is served at /openapi.yaml and Prometheus metrics at /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()
		return cli.RunServe(sigCtx, cfg, logger, debugEnabled(cmd))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("store", "", "Session store: memory, file or redis")
	serveCmd.Flags().String("store-dir", "", "Directory of the file session store")
	serveCmd.Flags().String("redis", "", "Redis address of the redis session store")
	serveCmd.Flags().Bool("instant", false, "Disable the typing simulation")
}

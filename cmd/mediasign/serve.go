package main

import (
	"github.com/spf13/cobra"

	"github.com/estatly/mediasign/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the signing service",
	Long: `Serve POST /api/media/presign, /api/media/fetch and /api/media/upload
plus /health, /readyz, /info and /metrics until SIGINT or SIGTERM.

The service starts without object storage settings and answers presign
and upload requests with 500 MISCONFIGURED until they are provided.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	if _, err := service.Register(app); err != nil {
		return err
	}
	return app.Run(cmd.Context())
}

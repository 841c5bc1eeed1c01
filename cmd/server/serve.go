package main

import (
	"github.com/spf13/cobra"

	"github.com/iliyamo/indias-got-voice/internal/app"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply pending migrations before serving")
}

func runServe(cmd *cobra.Command, _ []string) error {
	opts, log, err := loadServer()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	srv, err := app.New(opts, log, serveMigrate)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()
	return srv.Run(ctx)
}

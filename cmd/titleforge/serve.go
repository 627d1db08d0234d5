package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/entrhq/titleforge/pkg/config"
	"github.com/entrhq/titleforge/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API used by the desktop shell.

Routes:
  POST /startbrowser   open the browser window
  GET  /scrape         read titles from the current page
  POST /setcontext     {"context": "..."}
  POST /setconfig      {"key": "...", "modelKey": "flash"}
  POST /generatetitle  returns {"generatedTitle": [[rationale, title], ...]}
  POST /closebrowser, GET /status, GET /health, GET /metrics

Example:
  titleforge serve --addr :3000`,
	RunE: runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :3000)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srvCfg := config.GetServer()
	if serveAddr != "" {
		srvCfg.SetAddr(serveAddr)
	}
	if err := srvCfg.Validate(); err != nil {
		return fmt.Errorf("invalid server configuration: %w", err)
	}
	settings := srvCfg.Snapshot()

	ctrl, router, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := ctrl.Shutdown(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "browser shutdown: %v\n", err)
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(router, server.Options{
		Addr:           settings.Addr,
		AllowedOrigins: settings.AllowedOrigins,
		Metrics:        server.NewMetrics(),
	})

	fmt.Fprintf(cmd.ErrOrStderr(), "titleforge listening on %s\n", settings.Addr)
	return srv.Run(ctx)
}

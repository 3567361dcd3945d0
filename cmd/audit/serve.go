package main

import (
	"github.com/gin-gonic/gin"
	"github.com/juparave/gapaudit/internal/config"
	"github.com/juparave/gapaudit/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the review session over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(func(cfg *config.Config) {
				if addr != "" {
					cfg.Server.Addr = addr
				}
			})
			if err != nil {
				return err
			}

			if !cfg.Verbose {
				gin.SetMode(gin.ReleaseMode)
			}

			runner, err := newRunner(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			return server.New(cfg.Server, runner, logger).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default :8080)")

	return cmd
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/draftmill/draftmill/config"
	srv "github.com/draftmill/draftmill/internal/server"
)

func serveCMD() *cobra.Command {
	var cfgPath string
	var addr string

	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}
			failOnMissing(cfg, config.OpServe)

			return srv.Run(cfg)
		},
	}
	serve.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	serve.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return serve
}

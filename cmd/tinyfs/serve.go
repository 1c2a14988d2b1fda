package main

import (
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var host, port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the workspace over HTTP",
		Long: `Serve the workspace as a JSON API until interrupted.

Nobody can answer a prompt over HTTP, so with the "prompt" approval mode
every request that asks for confirmation is denied. Use -y or
--approval allow to let mutating requests through.

Examples:
  tinyfs -w ./sandbox serve --port 8085
  tinyfs -w ./sandbox --approval allow serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.cfg
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			srv, err := server.NewServer(&cfg, a.logger)
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}

	defaults := config.Default().Server
	cmd.Flags().StringVar(&host, "host", defaults.Host, "Listen host")
	cmd.Flags().StringVar(&port, "port", defaults.Port, "Listen port")
	return cmd
}

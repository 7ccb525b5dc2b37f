package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"promptbridge/internal/config"
	providerfactory "promptbridge/internal/provider/factory"
	"promptbridge/internal/router"
	"promptbridge/internal/server"
)

var (
	serveConfigPath   string
	serveOverridePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "path to YAML configuration file (required)")
	serveCmd.Flags().IntVar(&serveOverridePort, "port", 0, "override server port from configuration")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command) error {
	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return err
	}

	if serveOverridePort != 0 {
		if serveOverridePort <= 0 || serveOverridePort > 65535 {
			return fmt.Errorf("port override %d must be a valid TCP port", serveOverridePort)
		}
		cfg.Server.Port = serveOverridePort
	}

	capability, err := providerfactory.NewConfiguredProvider(cfg)
	if err != nil {
		return err
	}

	rt := router.New(capability, cfg.Server.DefaultModel)

	srv, err := server.New(cfg, rt)
	if err != nil {
		return err
	}

	return srv.Run(cmd.Context())
}

package main

import (
	"github.com/spf13/cobra"

	"changewatch/internal/app"
	"changewatch/internal/logger"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var port int
	var udpPort int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept camera uploads over HTTP and compare after every upload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("udp-port") {
				cfg.UDPPort = udpPort
			}

			log := logger.NewLogger(cfg)
			defer log.Close()

			application, err := app.NewApp(cfg, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := application.Close(); err != nil {
					log.Error("Shutdown: %v", err)
				}
			}()

			return application.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 3000, "HTTP port")
	cmd.Flags().IntVar(&udpPort, "udp-port", 0, "UDP port for JPEG frame ingest; 0 disables it")
	return cmd
}

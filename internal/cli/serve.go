package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"AIrchitect-CLI/internal/api"
)

func (a *app) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the plugin HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			host, err := a.openHost(cmd)
			if err != nil {
				return err
			}
			defer host.Close()

			if addr == "" {
				addr = host.Config.Server.Address
			}
			err = api.NewServer(addr, host.Manager, host.Metrics).Start(cmd.Context())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "监听地址，默认读取配置 server.address")
	return cmd
}

package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (c *cli) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the API is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := c.app.Container
			if err := d.Client.Health(cmd.Context()); err != nil {
				d.Logger.Warn("health check failed", zap.Error(err))
				d.Notifier.Error("API is unreachable at " + d.Client.BaseURL())
				return reported(err)
			}
			d.Notifier.Success("API is healthy at " + d.Client.BaseURL())
			return nil
		},
	}
}

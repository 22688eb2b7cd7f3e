package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/magnet/cmd/magnet/handlers"
	"github.com/imamik/magnet/internal/config"
)

// List returns the list command.
func List(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the instances of the cluster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.List(cmd.Context(), cfg)
		},
	}
}

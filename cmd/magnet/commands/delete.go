package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/magnet/cmd/magnet/handlers"
	"github.com/imamik/magnet/internal/config"
)

// Delete returns the delete command.
func Delete(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "delete",
		Aliases: []string{"destroy"},
		Short:   "Delete every resource of the cluster",
		Long: `Delete removes every resource whose name starts with --prefix:
  - Compute instances
  - DNS records under --dnsdomain
  - Chef nodes
  - Chef clients
  - Object-storage buckets (when [s3] is enabled)

Systems without credentials are skipped. A failing step does not stop the
others; re-running picks up whatever was left behind.

Example:
  magnet delete --prefix staging- --dnsdomain example.com

WARNING: This operation is irreversible.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Destroy(cmd.Context(), cfg)
		},
	}
}

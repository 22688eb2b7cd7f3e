package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/magnet/cmd/magnet/handlers"
	"github.com/imamik/magnet/internal/config"
)

// Probe returns the probe command.
func Probe(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check the health of every instance of the cluster",
		Long: `Probe pings every instance whose name starts with --prefix and checks
over SSH that its hostname matches the instance name. The command fails
when any instance is unhealthy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Probe(cmd.Context(), cfg)
		},
	}
}

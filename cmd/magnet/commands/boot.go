package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/magnet/cmd/magnet/handlers"
	"github.com/imamik/magnet/internal/config"
)

// Boot returns the boot command.
func Boot(cfg *config.Config) *cobra.Command {
	opts := handlers.BootOptions{}

	cmd := &cobra.Command{
		Use:   "boot TEMPLATE",
		Short: "Boot the servers of a cluster template",
		Long: `Boot creates every server of TEMPLATE, named <prefix><server>.

TEMPLATE is looked up in the templates file. If the file does not exist or
does not define it, a single server named TEMPLATE is booted from --image,
--flavor and --network.

Optional phases:
  --wait          probe each instance (ping and SSH hostname check)
  --register-dns  add A/AAAA records under --dnsdomain
  --converge      run chef-client over SSH in the template's chef_runs order

Nothing is rolled back on failure. Use "magnet delete" to clean up.

Example:
  magnet boot web --prefix staging- --wait --register-dns --dnsdomain example.com`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Template = args[0]
			return handlers.Boot(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Image, "image", "12.04", "Image name or ID for implicit single-server templates")
	cmd.Flags().StringVar(&opts.Flavor, "flavor", "4", "Flavor or server type for implicit single-server templates")
	cmd.Flags().StringVar(&opts.Network, "network", "", "Network name or ID for implicit single-server templates")
	cmd.Flags().StringVar(&cfg.SSHPublicKeyPath, "sshpubkey", cfg.SSHPublicKeyPath, "SSH public key injected into new instances")
	cmd.Flags().StringVar(&cfg.TemplatesFile, "templates", cfg.TemplatesFile, "Path to the cluster templates file")
	cmd.Flags().BoolVar(&opts.RegisterDNS, "register-dns", false, "Register instance addresses in DNS")
	cmd.Flags().BoolVar(&opts.Wait, "wait", false, "Wait until every instance is healthy")
	cmd.Flags().BoolVar(&opts.Converge, "converge", false, "Run chef-client on the instances (implies --wait)")

	return cmd
}

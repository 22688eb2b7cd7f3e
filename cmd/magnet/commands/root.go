// Package commands defines the CLI command structure and flag bindings.
//
// Cobra commands parse arguments and flags into a config.Config and
// delegate execution to the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/magnet/internal/config"
)

// Root returns the root command for the magnet CLI.
//
// Global flags are bound to a single config.Config shared by all
// subcommands of this tree.
func Root() *cobra.Command {
	cfg := config.Default()

	cmd := &cobra.Command{
		Use:           "magnet",
		Short:         "Boot and tear down prefix-scoped cloud clusters",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	bindGlobalFlags(cmd, cfg)

	cmd.AddCommand(Boot(cfg))
	cmd.AddCommand(Delete(cfg))
	cmd.AddCommand(Probe(cfg))
	cmd.AddCommand(List(cfg))
	cmd.AddCommand(Version())

	return cmd
}

func bindGlobalFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.PersistentFlags()

	flags.StringVar(&cfg.Prefix, "prefix", cfg.Prefix, "Name prefix that scopes every resource of the cluster")
	flags.StringVar(&cfg.CredentialsFile, "config", cfg.CredentialsFile, "Path to the credentials INI file")
	flags.StringVar(&cfg.CredentialsFile, "pyraxcfg", cfg.CredentialsFile, "Alias for --config")
	_ = flags.MarkHidden("pyraxcfg")
	flags.StringVar(&cfg.DNSDomain, "dnsdomain", cfg.DNSDomain, "DNS domain of the cluster records (default $"+config.EnvDNSDomain+")")
	flags.StringVar(&cfg.Provider, "provider", "", "Compute provider: openstack or hcloud (default from the credentials file, else openstack)")
	flags.StringVar(&cfg.DNSProvider, "dns-provider", "", "DNS provider: designate, cloudflare or none")
	flags.StringVar(&cfg.SSHUser, "ssh-user", cfg.SSHUser, "Remote user for health checks and chef-client runs")
	flags.StringVar(&cfg.SSHPrivateKeyPath, "sshkey", cfg.SSHPrivateKeyPath, "SSH private key used to reach instances")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	flags.StringVar(&cfg.Pushgateway, "pushgateway", "", "Prometheus Pushgateway URL to push run metrics to")
}

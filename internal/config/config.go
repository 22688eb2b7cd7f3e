package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultPrefix is prepended to every instance name of a cluster.
	DefaultPrefix = "magnet-"

	// EnvDNSDomain supplies the default --dnsdomain value.
	EnvDNSDomain = "MAGNET_DNS_DOMAIN"

	// DefaultSSHUser is the administrative account used for health checks
	// and convergence runs.
	DefaultSSHUser = "root"

	// ProviderOpenStack selects the Nova/Neutron compute backend.
	ProviderOpenStack = "openstack"
	// ProviderHCloud selects the Hetzner Cloud compute backend.
	ProviderHCloud = "hcloud"

	// DNSProviderDesignate selects OpenStack Designate for DNS records.
	DNSProviderDesignate = "designate"
	// DNSProviderCloudflare selects Cloudflare for DNS records.
	DNSProviderCloudflare = "cloudflare"
	// DNSProviderNone disables DNS handling entirely.
	DNSProviderNone = "none"
)

const (
	defaultCredentialsFile = "~/.magnet.cfg"
	defaultTemplatesFile   = "~/.magnet/templates.yaml"
	defaultSSHPublicKey    = "~/.ssh/id_rsa.pub"
	defaultSSHPrivateKey   = "~/.ssh/id_rsa"
)

// Config is the resolved configuration of a single command invocation.
type Config struct {
	Prefix          string
	CredentialsFile string
	DNSDomain       string
	Provider        string
	DNSProvider     string
	TemplatesFile   string

	SSHUser           string
	SSHPublicKeyPath  string
	SSHPrivateKeyPath string

	LogLevel    string
	Pushgateway string

	Credentials *Credentials
	Timeouts    *Timeouts
}

// Default returns a Config populated with the built-in defaults.
// Provider fields are left empty so that the credentials file can choose.
func Default() *Config {
	return &Config{
		Prefix:            DefaultPrefix,
		CredentialsFile:   defaultCredentialsFile,
		DNSDomain:         os.Getenv(EnvDNSDomain),
		TemplatesFile:     defaultTemplatesFile,
		SSHUser:           DefaultSSHUser,
		SSHPublicKeyPath:  defaultSSHPublicKey,
		SSHPrivateKeyPath: defaultSSHPrivateKey,
		LogLevel:          "info",
		Timeouts:          LoadTimeouts(),
	}
}

// ApplyCredentials attaches creds and fills provider choices that were not
// set on the command line from the credentials file.
func (c *Config) ApplyCredentials(creds *Credentials) {
	c.Credentials = creds
	if c.Provider == "" {
		c.Provider = creds.Provider
	}
	if c.DNSProvider == "" {
		c.DNSProvider = creds.DNSProvider
	}
	if c.Provider == "" {
		c.Provider = ProviderOpenStack
	}
	if c.DNSProvider == "" {
		c.DNSProvider = defaultDNSProviderFor(c.Provider)
	}
}

// defaultDNSProviderFor picks the DNS service that naturally accompanies a
// compute provider. Hetzner has no DNS API in the supported SDK.
func defaultDNSProviderFor(provider string) string {
	if provider == ProviderOpenStack {
		return DNSProviderDesignate
	}
	return DNSProviderCloudflare
}

// Validate checks the invocation-level settings.
func (c *Config) Validate() error {
	if c.Prefix == "" {
		return fmt.Errorf("prefix must not be empty: an empty prefix matches every resource")
	}

	switch c.Provider {
	case ProviderOpenStack, ProviderHCloud:
	default:
		return fmt.Errorf("unsupported provider %q (expected %s or %s)", c.Provider, ProviderOpenStack, ProviderHCloud)
	}

	switch c.DNSProvider {
	case DNSProviderDesignate, DNSProviderCloudflare, DNSProviderNone:
	default:
		return fmt.Errorf("unsupported dns provider %q", c.DNSProvider)
	}

	if c.DNSProvider == DNSProviderDesignate && c.Provider != ProviderOpenStack {
		return fmt.Errorf("dns provider %s requires provider %s", DNSProviderDesignate, ProviderOpenStack)
	}

	if c.SSHUser == "" {
		return fmt.Errorf("ssh user must not be empty")
	}

	return nil
}

// DNSEnabled reports whether DNS records should be touched at all.
func (c *Config) DNSEnabled() bool {
	return c.DNSDomain != "" && c.DNSProvider != DNSProviderNone
}

// ExpandHome replaces a leading "~" with the current user's home directory.
// Paths without a leading "~" are returned unchanged.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

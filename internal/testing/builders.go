package testing

import (
	"github.com/imamik/magnet/internal/compute"
	"github.com/imamik/magnet/internal/config"
)

// ConfigBuilder provides a fluent interface for constructing test configs.
// Each method returns a new builder (immutable) for chaining.
type ConfigBuilder struct {
	cfg config.Config
}

// NewConfigBuilder creates a new ConfigBuilder with test defaults: the
// OpenStack compute provider and DNS disabled.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		cfg: config.Config{
			Prefix:            config.DefaultPrefix,
			Provider:          config.ProviderOpenStack,
			DNSProvider:       config.DNSProviderNone,
			SSHUser:           config.DefaultSSHUser,
			SSHPublicKeyPath:  "testdata/id_rsa.pub",
			SSHPrivateKeyPath: "testdata/id_rsa",
			LogLevel:          "info",
			Credentials:       &config.Credentials{},
			Timeouts:          config.LoadTimeouts(),
		},
	}
}

// WithPrefix sets the cluster prefix.
func (b *ConfigBuilder) WithPrefix(prefix string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Prefix = prefix
	return newBuilder
}

// WithDNSDomain sets the DNS domain and selects the Designate DNS provider
// unless one is already chosen.
func (b *ConfigBuilder) WithDNSDomain(domain string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.DNSDomain = domain
	if newBuilder.cfg.DNSProvider == config.DNSProviderNone {
		newBuilder.cfg.DNSProvider = config.DNSProviderDesignate
	}
	return newBuilder
}

// WithProvider sets the compute provider.
func (b *ConfigBuilder) WithProvider(provider string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Provider = provider
	return newBuilder
}

// WithDNSProvider sets the DNS provider.
func (b *ConfigBuilder) WithDNSProvider(provider string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.DNSProvider = provider
	return newBuilder
}

// WithChef configures Chef server credentials.
func (b *ConfigBuilder) WithChef(serverURL, clientName string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Credentials.Chef.ServerURL = serverURL
	newBuilder.cfg.Credentials.Chef.ClientName = clientName
	newBuilder.cfg.Credentials.Chef.ClientKey = "testdata/client.pem"
	return newBuilder
}

// Build returns the constructed config.
func (b *ConfigBuilder) Build() *config.Config {
	cfg := b.clone().cfg
	return &cfg
}

func (b *ConfigBuilder) clone() *ConfigBuilder {
	cfg := b.cfg
	if b.cfg.Credentials != nil {
		creds := *b.cfg.Credentials
		cfg.Credentials = &creds
	}
	if b.cfg.Timeouts != nil {
		timeouts := *b.cfg.Timeouts
		cfg.Timeouts = &timeouts
	}
	return &ConfigBuilder{cfg: cfg}
}

// NewInstance returns an active instance with an address.
func NewInstance(id, name, address string) *compute.Instance {
	return &compute.Instance{
		ID:      id,
		Name:    name,
		Status:  compute.StatusActive,
		Address: address,
	}
}

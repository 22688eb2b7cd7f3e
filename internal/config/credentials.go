package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/ini.v1"
)

// Credentials holds the secrets and endpoints of every external system.
// Each section of the INI file maps onto one of the nested structs.
type Credentials struct {
	Provider    string `ini:"provider"`
	DNSProvider string `ini:"dns_provider"`

	OpenStack  OpenStackCredentials  `ini:"-"`
	HCloud     HCloudCredentials     `ini:"-"`
	Cloudflare CloudflareCredentials `ini:"-"`
	Chef       ChefCredentials       `ini:"-"`
	S3         S3Credentials         `ini:"-"`
}

// OpenStackCredentials authenticate against Keystone.
type OpenStackCredentials struct {
	AuthURL     string `ini:"auth_url"`
	Username    string `ini:"username"`
	Password    string `ini:"password"`
	ProjectName string `ini:"project_name"`
	ProjectID   string `ini:"project_id"`
	DomainName  string `ini:"domain_name"`
	Region      string `ini:"region"`
}

// HCloudCredentials authenticate against the Hetzner Cloud API.
type HCloudCredentials struct {
	Token string `ini:"token"`
}

// CloudflareCredentials authenticate against the Cloudflare API.
type CloudflareCredentials struct {
	APIToken string `ini:"api_token"`
}

// ChefCredentials identify the API client used against the Chef server.
type ChefCredentials struct {
	ServerURL  string `ini:"server_url"`
	ClientName string `ini:"client_name"`
	ClientKey  string `ini:"client_key"`
	SkipSSL    bool   `ini:"skip_ssl"`
}

// Configured reports whether enough is known to talk to a Chef server.
func (c ChefCredentials) Configured() bool {
	return c.ServerURL != "" && c.ClientName != "" && c.ClientKey != ""
}

// S3Credentials configure the optional object-storage sweep on teardown.
type S3Credentials struct {
	Enabled   bool   `ini:"enabled"`
	Endpoint  string `ini:"endpoint"`
	Region    string `ini:"region"`
	AccessKey string `ini:"access_key"`
	SecretKey string `ini:"secret_key"`
}

// Configured reports whether the bucket sweep can run.
func (c S3Credentials) Configured() bool {
	return c.Enabled && c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != ""
}

// LoadCredentials reads the INI credentials file at path and applies
// environment overrides on top. A missing file is not an error: every value
// may come from the environment instead.
func LoadCredentials(path string) (*Credentials, error) {
	creds := &Credentials{}

	file, err := ini.Load(ExpandHome(path))
	switch {
	case err == nil:
		if err := mapSections(file, creds); err != nil {
			return nil, fmt.Errorf("failed to parse credentials file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// environment only
	default:
		return nil, fmt.Errorf("failed to read credentials file %s: %w", path, err)
	}

	applyEnvOverrides(creds)
	return creds, nil
}

func mapSections(file *ini.File, creds *Credentials) error {
	sections := []struct {
		name   string
		target any
	}{
		{"magnet", creds},
		{"openstack", &creds.OpenStack},
		{"hcloud", &creds.HCloud},
		{"cloudflare", &creds.Cloudflare},
		{"chef", &creds.Chef},
		{"s3", &creds.S3},
	}

	for _, s := range sections {
		if !file.HasSection(s.name) {
			continue
		}
		if err := file.Section(s.name).StrictMapTo(s.target); err != nil {
			return fmt.Errorf("section [%s]: %w", s.name, err)
		}
	}
	return nil
}

// applyEnvOverrides uses the conventional variable names of each ecosystem
// (OS_* for OpenStack clients, HCLOUD_TOKEN for the hcloud CLI).
func applyEnvOverrides(creds *Credentials) {
	override(&creds.Provider, "MAGNET_PROVIDER")
	override(&creds.DNSProvider, "MAGNET_DNS_PROVIDER")

	override(&creds.OpenStack.AuthURL, "OS_AUTH_URL")
	override(&creds.OpenStack.Username, "OS_USERNAME")
	override(&creds.OpenStack.Password, "OS_PASSWORD")
	override(&creds.OpenStack.ProjectName, "OS_TENANT_NAME")
	override(&creds.OpenStack.ProjectName, "OS_PROJECT_NAME")
	override(&creds.OpenStack.ProjectID, "OS_PROJECT_ID")
	override(&creds.OpenStack.DomainName, "OS_USER_DOMAIN_NAME")
	override(&creds.OpenStack.Region, "OS_REGION_NAME")

	override(&creds.HCloud.Token, "HCLOUD_TOKEN")
	override(&creds.Cloudflare.APIToken, "CLOUDFLARE_API_TOKEN")

	override(&creds.Chef.ServerURL, "CHEF_SERVER_URL")
	override(&creds.Chef.ClientName, "CHEF_CLIENT_NAME")
	override(&creds.Chef.ClientKey, "CHEF_CLIENT_KEY")

	override(&creds.S3.Endpoint, "MAGNET_S3_ENDPOINT")
	override(&creds.S3.Region, "MAGNET_S3_REGION")
	override(&creds.S3.AccessKey, "MAGNET_S3_ACCESS_KEY")
	override(&creds.S3.SecretKey, "MAGNET_S3_SECRET_KEY")
}

func override(dst *string, envVar string) {
	if v, ok := os.LookupEnv(envVar); ok && v != "" {
		*dst = v
	}
}

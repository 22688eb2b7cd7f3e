package openstack

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gophercloud/gophercloud"
	goopenstack "github.com/gophercloud/gophercloud/openstack"

	"github.com/imamik/magnet/internal/config"
)

// Client talks to the compute, network and DNS services of one region.
// The DNS service client is nil when the cloud has no Designate endpoint.
type Client struct {
	compute *gophercloud.ServiceClient
	network *gophercloud.ServiceClient
	dns     *gophercloud.ServiceClient
}

// NewClient authenticates against Keystone and resolves the service
// endpoints of the configured region.
func NewClient(creds config.OpenStackCredentials) (*Client, error) {
	if creds.AuthURL == "" {
		return nil, fmt.Errorf("openstack auth_url is required")
	}

	provider, err := goopenstack.AuthenticatedClient(gophercloud.AuthOptions{
		IdentityEndpoint: creds.AuthURL,
		Username:         creds.Username,
		Password:         creds.Password,
		TenantName:       creds.ProjectName,
		TenantID:         creds.ProjectID,
		DomainName:       creds.DomainName,
		AllowReauth:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate against %s: %w", creds.AuthURL, err)
	}

	endpoint := gophercloud.EndpointOpts{Region: creds.Region}

	computeClient, err := goopenstack.NewComputeV2(provider, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to find compute endpoint: %w", err)
	}
	networkClient, err := goopenstack.NewNetworkV2(provider, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to find network endpoint: %w", err)
	}
	dnsClient, err := goopenstack.NewDNSV2(provider, endpoint)
	if err != nil && !isEndpointNotFoundErr(err) {
		return nil, fmt.Errorf("failed to find dns endpoint: %w", err)
	}

	return &Client{compute: computeClient, network: networkClient, dns: dnsClient}, nil
}

// HasDNS reports whether the cloud offers Designate.
func (c *Client) HasDNS() bool {
	return c.dns != nil
}

func isNotFoundErr(err error) bool {
	var errNotFound gophercloud.ErrDefault404
	var errResource gophercloud.ErrResourceNotFound
	return errors.As(err, &errNotFound) || errors.As(err, &errResource)
}

func isEndpointNotFoundErr(err error) bool {
	var endpointNotFoundErr *gophercloud.ErrEndpointNotFound
	// gophercloud returns this one both as pointer and as value
	return errors.As(err, &endpointNotFoundErr) || errors.As(err, &gophercloud.ErrEndpointNotFound{})
}

// withTrailingDot returns name as an absolute DNS name, which Designate
// requires for zone and record set names.
func withTrailingDot(name string) string {
	if strings.HasSuffix(name, ".") {
		return name
	}
	return name + "."
}

package hcloud

import (
	"time"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/magnet/internal/compute"
	"github.com/imamik/magnet/internal/config"
)

const defaultDeleteTimeout = 5 * time.Minute

var _ compute.Provider = (*RealClient)(nil)

// RealClient implements compute.Provider using the Hetzner Cloud API.
type RealClient struct {
	client        *hcloud.Client
	timeouts      *config.Timeouts
	deleteTimeout time.Duration
}

// ClientOption configures a RealClient.
type ClientOption func(*RealClient)

// WithTimeouts sets custom retry parameters for the client.
func WithTimeouts(t *config.Timeouts) ClientOption {
	return func(c *RealClient) {
		c.timeouts = t
	}
}

// WithDeleteTimeout bounds a single server deletion including retries.
func WithDeleteTimeout(d time.Duration) ClientOption {
	return func(c *RealClient) {
		c.deleteTimeout = d
	}
}

// WithHCloudClient sets a custom hcloud client (useful for testing).
func WithHCloudClient(hc *hcloud.Client) ClientOption {
	return func(c *RealClient) {
		c.client = hc
	}
}

// NewRealClient creates a new RealClient with optional configuration.
func NewRealClient(token string, opts ...ClientOption) *RealClient {
	c := &RealClient{
		client:        hcloud.NewClient(hcloud.WithToken(token), hcloud.WithApplication("magnet", "")),
		timeouts:      config.LoadTimeouts(),
		deleteTimeout: defaultDeleteTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

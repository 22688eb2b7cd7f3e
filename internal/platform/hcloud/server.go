package hcloud

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"gopkg.in/yaml.v3"

	"github.com/imamik/magnet/internal/compute"
	"github.com/imamik/magnet/internal/util/retry"
)

// ListInstances returns every server of the project.
func (c *RealClient) ListInstances(ctx context.Context) ([]compute.Instance, error) {
	servers, err := c.client.Server.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}

	out := make([]compute.Instance, 0, len(servers))
	for _, s := range servers {
		out = append(out, toInstance(s))
	}
	return out, nil
}

// GetInstance returns the current state of the server with the given ID.
func (c *RealClient) GetInstance(ctx context.Context, id string) (*compute.Instance, error) {
	serverID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	server, _, err := c.client.Server.GetByID(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get server: %w", err)
	}
	if server == nil {
		return nil, &compute.NotFoundError{Kind: compute.KindInstance, Identifier: id}
	}

	instance := toInstance(server)
	return &instance, nil
}

// CreateInstance creates a server without waiting for it to boot. The
// public key reaches the server through cloud-init.
func (c *RealClient) CreateInstance(ctx context.Context, opts compute.CreateOpts) (*compute.Instance, error) {
	imageID, err := parseID(opts.ImageID)
	if err != nil {
		return nil, err
	}

	createOpts := hcloud.ServerCreateOpts{
		Name:       opts.Name,
		ServerType: &hcloud.ServerType{Name: opts.Flavor},
		Image:      &hcloud.Image{ID: imageID},
		Labels:     opts.Labels,
	}
	for _, id := range opts.NetworkIDs {
		networkID, err := parseID(id)
		if err != nil {
			return nil, err
		}
		createOpts.Networks = append(createOpts.Networks, &hcloud.Network{ID: networkID})
	}
	if opts.SSHPublicKey != "" {
		userData, err := cloudConfig(opts.SSHPublicKey)
		if err != nil {
			return nil, err
		}
		createOpts.UserData = userData
	}

	// Create is not idempotent: only rejections that guarantee nothing was
	// created are retried.
	var result hcloud.ServerCreateResult
	err = retry.WithExponentialBackoff(ctx, func() error {
		res, _, err := c.client.Server.Create(ctx, createOpts)
		if err != nil {
			if isRejectedCreate(err) {
				return err
			}
			return retry.Fatal(err)
		}
		result = res
		return nil
	}, retry.WithMaxRetries(c.timeouts.RetryMaxAttempts), retry.WithInitialDelay(c.timeouts.RetryInitialDelay))
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	instance := toInstance(result.Server)
	return &instance, nil
}

// DeleteInstance deletes the server with the given ID.
func (c *RealClient) DeleteInstance(ctx context.Context, id string) error {
	serverID, err := parseID(id)
	if err != nil {
		return err
	}

	return (&DeleteOperation[*hcloud.Server]{
		ID:           serverID,
		ResourceType: compute.KindInstance,
		Get:          c.client.Server.GetByID,
		Delete: func(ctx context.Context, server *hcloud.Server) (*hcloud.Response, error) {
			_, resp, err := c.client.Server.DeleteWithResult(ctx, server)
			return resp, err
		},
	}).Execute(ctx, c)
}

// ListImages returns system images and snapshots. Snapshots have no name
// and are listed under their description.
func (c *RealClient) ListImages(ctx context.Context) ([]compute.Image, error) {
	images, err := c.client.Image.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	out := make([]compute.Image, 0, len(images))
	for _, img := range images {
		name := img.Name
		if name == "" {
			name = img.Description
		}
		out = append(out, compute.Image{ID: strconv.FormatInt(img.ID, 10), Name: name})
	}
	return out, nil
}

// ListNetworks returns every private network of the project.
func (c *RealClient) ListNetworks(ctx context.Context) ([]compute.Network, error) {
	networks, err := c.client.Network.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list networks: %w", err)
	}

	out := make([]compute.Network, 0, len(networks))
	for _, n := range networks {
		out = append(out, compute.Network{ID: strconv.FormatInt(n.ID, 10), Name: n.Name})
	}
	return out, nil
}

func toInstance(s *hcloud.Server) compute.Instance {
	return compute.Instance{
		ID:      strconv.FormatInt(s.ID, 10),
		Name:    s.Name,
		Status:  mapStatus(s.Status),
		Address: ServerAddress(s),
	}
}

// mapStatus normalises Hetzner server states. Hetzner has no error state:
// a failed creation surfaces as a failed action instead.
func mapStatus(status hcloud.ServerStatus) compute.Status {
	switch status {
	case hcloud.ServerStatusInitializing:
		return compute.StatusBuilding
	case hcloud.ServerStatusStarting:
		return compute.StatusSpawning
	case hcloud.ServerStatusRunning:
		return compute.StatusActive
	default:
		return compute.StatusOther
	}
}

// ServerAddress returns the public IPv4 of a server, falling back to the
// first address of its public IPv6 network and then to its first private IP.
func ServerAddress(s *hcloud.Server) string {
	if ip := s.PublicNet.IPv4.IP; ip != nil && !ip.IsUnspecified() {
		return ip.String()
	}
	if network := s.PublicNet.IPv6.Network; network != nil && len(network.IP) == net.IPv6len {
		host := make(net.IP, len(network.IP))
		copy(host, network.IP)
		host[len(host)-1] |= 1
		return host.String()
	}
	for _, priv := range s.PrivateNet {
		if priv.IP != nil {
			return priv.IP.String()
		}
	}
	return ""
}

type cloudConfigDoc struct {
	SSHAuthorizedKeys []string `yaml:"ssh_authorized_keys"`
}

// cloudConfig renders the user-data document that authorizes key for root.
func cloudConfig(key string) (string, error) {
	body, err := yaml.Marshal(cloudConfigDoc{SSHAuthorizedKeys: []string{strings.TrimSpace(key)}})
	if err != nil {
		return "", fmt.Errorf("failed to render cloud-config: %w", err)
	}
	return "#cloud-config\n" + string(body), nil
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hcloud id: %q", id)
	}
	return n, nil
}

package openstack

import (
	"context"
	"fmt"
	"net/netip"
	"sort"

	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/extendedstatus"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/images"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/servers"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/networks"
	"github.com/gophercloud/gophercloud/pagination"

	"github.com/imamik/magnet/internal/compute"
)

var _ compute.Provider = (*Client)(nil)

type serverWithExt struct {
	servers.Server
	extendedstatus.ServerExtendedStatusExt
}

// ListImages returns every image visible to the project.
func (c *Client) ListImages(ctx context.Context) ([]compute.Image, error) {
	var out []compute.Image
	err := images.ListDetail(c.compute, images.ListOpts{}).EachPage(func(page pagination.Page) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		list, err := images.ExtractImages(page)
		if err != nil {
			return false, err
		}
		for _, img := range list {
			out = append(out, compute.Image{ID: img.ID, Name: img.Name})
		}
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	return out, nil
}

// ListNetworks returns every Neutron network visible to the project.
func (c *Client) ListNetworks(ctx context.Context) ([]compute.Network, error) {
	var out []compute.Network
	err := networks.List(c.network, networks.ListOpts{}).EachPage(func(page pagination.Page) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		list, err := networks.ExtractNetworks(page)
		if err != nil {
			return false, err
		}
		for _, n := range list {
			out = append(out, compute.Network{ID: n.ID, Name: n.Name})
		}
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list networks: %w", err)
	}
	return out, nil
}

// ListInstances returns every server of the project.
func (c *Client) ListInstances(ctx context.Context) ([]compute.Instance, error) {
	var out []compute.Instance
	err := servers.List(c.compute, servers.ListOpts{}).EachPage(func(page pagination.Page) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		var list []serverWithExt
		if err := servers.ExtractServersInto(page, &list); err != nil {
			return false, err
		}
		for i := range list {
			out = append(out, toInstance(&list[i]))
		}
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	return out, nil
}

// GetInstance returns the current state of server id.
func (c *Client) GetInstance(ctx context.Context, id string) (*compute.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var server serverWithExt
	if err := servers.Get(c.compute, id).ExtractInto(&server); err != nil {
		if isNotFoundErr(err) {
			return nil, &compute.NotFoundError{Kind: compute.KindInstance, Identifier: id}
		}
		return nil, fmt.Errorf("failed to get server %s: %w", id, err)
	}

	instance := toInstance(&server)
	return &instance, nil
}

// CreateInstance boots a server. The public key is injected as a
// personality file.
func (c *Client) CreateInstance(ctx context.Context, opts compute.CreateOpts) (*compute.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	createOpts := servers.CreateOpts{
		Name:      opts.Name,
		ImageRef:  opts.ImageID,
		FlavorRef: opts.Flavor,
		Metadata:  opts.Labels,
	}
	if len(opts.NetworkIDs) > 0 {
		nets := make([]servers.Network, 0, len(opts.NetworkIDs))
		for _, id := range opts.NetworkIDs {
			nets = append(nets, servers.Network{UUID: id})
		}
		createOpts.Networks = nets
	}

	paths := make([]string, 0, len(opts.Files))
	for path := range opts.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		createOpts.Personality = append(createOpts.Personality, &servers.File{
			Path:     path,
			Contents: opts.Files[path],
		})
	}

	var server serverWithExt
	if err := servers.Create(c.compute, createOpts).ExtractInto(&server); err != nil {
		return nil, fmt.Errorf("failed to create server %s: %w", opts.Name, err)
	}

	instance := toInstance(&server)
	if instance.Name == "" {
		instance.Name = opts.Name
	}
	if server.Status == "" {
		// The create response carries only id, links and the admin password.
		instance.Status = compute.StatusBuilding
	}
	return &instance, nil
}

// DeleteInstance deletes server id.
func (c *Client) DeleteInstance(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := servers.Delete(c.compute, id).ExtractErr(); err != nil {
		if isNotFoundErr(err) {
			return &compute.NotFoundError{Kind: compute.KindInstance, Identifier: id}
		}
		return fmt.Errorf("failed to delete server %s: %w", id, err)
	}
	return nil
}

func toInstance(s *serverWithExt) compute.Instance {
	return compute.Instance{
		ID:      s.ID,
		Name:    s.Name,
		Status:  mapStatus(s.Status, s.TaskState),
		Address: primaryAddress(&s.Server),
	}
}

// mapStatus normalises Nova's server status. A server in BUILD whose task
// is "spawning" has been scheduled onto a hypervisor.
func mapStatus(status, taskState string) compute.Status {
	switch status {
	case "BUILD":
		if taskState == "spawning" {
			return compute.StatusSpawning
		}
		return compute.StatusBuilding
	case "ACTIVE":
		return compute.StatusActive
	case "ERROR":
		return compute.StatusError
	default:
		return compute.StatusOther
	}
}

// primaryAddress picks the address operators reach the server on: the
// access IPv4, then a floating IPv4, then any IPv4, then any IPv6.
// Networks are visited in name order.
func primaryAddress(s *servers.Server) string {
	if s.AccessIPv4 != "" {
		return s.AccessIPv4
	}

	names := make([]string, 0, len(s.Addresses))
	for name := range s.Addresses {
		names = append(names, name)
	}
	sort.Strings(names)

	var floating, v4, v6 string
	for _, name := range names {
		entries, ok := s.Addresses[name].([]interface{})
		if !ok {
			continue
		}
		for _, e := range entries {
			entry, ok := e.(map[string]interface{})
			if !ok {
				continue
			}
			raw, _ := entry["addr"].(string)
			addr, err := netip.ParseAddr(raw)
			if err != nil {
				continue
			}
			kind, _ := entry["OS-EXT-IPS:type"].(string)
			switch {
			case addr.Is4() && kind == "floating" && floating == "":
				floating = raw
			case addr.Is4() && v4 == "":
				v4 = raw
			case addr.Is6() && v6 == "":
				v6 = raw
			}
		}
	}

	switch {
	case floating != "":
		return floating
	case v4 != "":
		return v4
	case s.AccessIPv6 != "":
		return s.AccessIPv6
	default:
		return v6
	}
}

package compute

import (
	"context"
	"strings"
)

// Kinds of resources, used in NotFoundError.
const (
	KindImage    = "image"
	KindNetwork  = "network"
	KindInstance = "instance"
)

// Find returns the first item whose id equals identifier or whose name
// contains identifier, ignoring case. Ties resolve to provider list order.
func Find[T Resource](kind string, items []T, identifier string) (T, error) {
	needle := strings.ToLower(identifier)
	for _, item := range items {
		if item.ResourceID() == identifier || strings.Contains(strings.ToLower(item.ResourceName()), needle) {
			return item, nil
		}
	}

	var zero T
	return zero, &NotFoundError{Kind: kind, Identifier: identifier}
}

// Locator resolves identifiers against the full listings of a provider.
type Locator struct {
	provider Provider
}

// NewLocator creates a Locator backed by provider.
func NewLocator(provider Provider) *Locator {
	return &Locator{provider: provider}
}

// FindImage resolves an image by id or name substring.
func (l *Locator) FindImage(ctx context.Context, identifier string) (Image, error) {
	images, err := l.provider.ListImages(ctx)
	if err != nil {
		return Image{}, &ProviderError{Op: "list images", Err: err}
	}
	return Find(KindImage, images, identifier)
}

// FindNetwork resolves a network by id or name substring.
func (l *Locator) FindNetwork(ctx context.Context, identifier string) (Network, error) {
	networks, err := l.provider.ListNetworks(ctx)
	if err != nil {
		return Network{}, &ProviderError{Op: "list networks", Err: err}
	}
	return Find(KindNetwork, networks, identifier)
}

// FindInstance resolves an instance by id or name substring.
func (l *Locator) FindInstance(ctx context.Context, identifier string) (Instance, error) {
	instances, err := l.provider.ListInstances(ctx)
	if err != nil {
		return Instance{}, &ProviderError{Op: "list instances", Err: err}
	}
	return Find(KindInstance, instances, identifier)
}

// Package configmgmt removes a cluster's registrations from the
// configuration-management server.
//
// Nodes and API clients are registered by the chef-client bootstrap on each
// instance, never by magnet; teardown only deletes them. The [Inventory]
// interface hides how each kind is enumerated on the server.
package configmgmt

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/imamik/magnet/internal/util/naming"
)

// Kind is a registration type on the configuration-management server.
type Kind string

const (
	KindNode   Kind = "node"
	KindClient Kind = "client"
)

// ErrNotFound matches inventory answers for registrations that do not exist.
var ErrNotFound = errors.New("not found")

// Inventory is the configuration-management API consumed by the Deregistrar.
type Inventory interface {
	// ListNames may return names beyond those asked for; callers filter.
	ListNames(ctx context.Context, kind Kind) ([]string, error)
	// Delete returns an error matching ErrNotFound for unknown names.
	Delete(ctx context.Context, kind Kind, name string) error
}

// ProviderError wraps a failed configuration-management API call.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("config management: %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Deregistrar deletes node and client registrations by name prefix.
type Deregistrar struct {
	inventory Inventory
	log       logr.Logger
}

// NewDeregistrar creates a Deregistrar backed by inventory.
func NewDeregistrar(inventory Inventory, log logr.Logger) *Deregistrar {
	return &Deregistrar{inventory: inventory, log: log.WithName("configmgmt")}
}

// RemoveNodesByPrefix deletes every node whose name starts with prefix.
func (d *Deregistrar) RemoveNodesByPrefix(ctx context.Context, prefix string) (int, error) {
	return d.removeByPrefix(ctx, KindNode, prefix)
}

// RemoveClientsByPrefix deletes every API client whose name starts with prefix.
func (d *Deregistrar) RemoveClientsByPrefix(ctx context.Context, prefix string) (int, error) {
	return d.removeByPrefix(ctx, KindClient, prefix)
}

func (d *Deregistrar) removeByPrefix(ctx context.Context, kind Kind, prefix string) (int, error) {
	names, err := d.inventory.ListNames(ctx, kind)
	if err != nil {
		return 0, &ProviderError{Op: fmt.Sprintf("list %ss", kind), Err: err}
	}

	deleted := 0
	var errs []error
	for _, name := range names {
		if !naming.Owned(name, prefix) {
			continue
		}

		d.log.Info("[Teardown] Removing chef registration", "kind", kind, "name", name)
		err := d.inventory.Delete(ctx, kind, name)
		switch {
		case err == nil:
			deleted++
		case errors.Is(err, ErrNotFound):
			d.log.V(1).Info("[Teardown] Chef registration already gone", "kind", kind, "name", name)
		default:
			errs = append(errs, &ProviderError{Op: fmt.Sprintf("delete %s %s", kind, name), Err: err})
		}
	}

	return deleted, errors.Join(errs...)
}

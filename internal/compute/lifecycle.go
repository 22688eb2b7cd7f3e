package compute

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-logr/logr"

	"github.com/imamik/magnet/internal/util/naming"
)

// CreateRequest names the instance to create and the unresolved identifiers
// of its image and network. Network is optional.
type CreateRequest struct {
	Name             string
	Image            string
	Flavor           string
	Network          string
	SSHPublicKeyPath string
	Labels           map[string]string
}

// Lifecycle creates instances and sweeps them by name prefix.
type Lifecycle struct {
	provider Provider
	locator  *Locator
	log      logr.Logger

	readFile func(string) ([]byte, error)
}

// NewLifecycle creates a Lifecycle backed by provider.
func NewLifecycle(provider Provider, log logr.Logger) *Lifecycle {
	return &Lifecycle{
		provider: provider,
		locator:  NewLocator(provider),
		log:      log.WithName("compute"),
		readFile: os.ReadFile,
	}
}

// Create resolves the image and optional network of req, reads the SSH
// public key and provisions the instance. Nothing is rolled back on failure.
func (l *Lifecycle) Create(ctx context.Context, req CreateRequest) (*Instance, error) {
	image, err := l.locator.FindImage(ctx, req.Image)
	if err != nil {
		return nil, err
	}

	var networkIDs []string
	if req.Network != "" {
		network, err := l.locator.FindNetwork(ctx, req.Network)
		if err != nil {
			return nil, err
		}
		networkIDs = append(networkIDs, network.ID)
	}

	key, err := l.readFile(req.SSHPublicKeyPath)
	if err != nil {
		return nil, &KeyFileError{Path: req.SSHPublicKeyPath, Err: err}
	}

	l.log.Info("[Boot] Creating instance", "name", req.Name, "image", image.Name, "flavor", req.Flavor, "networks", networkIDs)

	instance, err := l.provider.CreateInstance(ctx, CreateOpts{
		Name:         req.Name,
		ImageID:      image.ID,
		Flavor:       req.Flavor,
		NetworkIDs:   networkIDs,
		Files:        map[string][]byte{AuthorizedKeysPath: key},
		SSHPublicKey: strings.TrimSpace(string(key)),
		Labels:       req.Labels,
	})
	if err != nil {
		return nil, &ProviderError{Op: fmt.Sprintf("create instance %s", req.Name), Err: err}
	}

	l.log.Info("[Boot] Instance created", "name", instance.Name, "id", instance.ID, "status", instance.Status)
	return instance, nil
}

// ListByPrefix returns the instances whose name starts with prefix, in
// provider order.
func (l *Lifecycle) ListByPrefix(ctx context.Context, prefix string) ([]Instance, error) {
	instances, err := l.provider.ListInstances(ctx)
	if err != nil {
		return nil, &ProviderError{Op: "list instances", Err: err}
	}

	var matched []Instance
	for _, instance := range instances {
		if naming.Owned(instance.Name, prefix) {
			matched = append(matched, instance)
		}
	}
	return matched, nil
}

// DeleteByPrefix deletes every instance whose name starts with prefix
// (case-sensitive) and returns how many were deleted. Instances that vanish
// between listing and deletion are not errors. Failures on individual
// instances do not stop the sweep; they are joined into the returned error.
func (l *Lifecycle) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	instances, err := l.ListByPrefix(ctx, prefix)
	if err != nil {
		return 0, err
	}

	deleted := 0
	var errs []error
	for _, instance := range instances {
		l.log.Info("[Teardown] Deleting instance", "name", instance.Name, "id", instance.ID)

		err := l.provider.DeleteInstance(ctx, instance.ID)
		switch {
		case err == nil:
			deleted++
		case errors.Is(err, ErrNotFound):
			l.log.V(1).Info("[Teardown] Instance already gone", "name", instance.Name)
		default:
			errs = append(errs, &ProviderError{Op: fmt.Sprintf("delete instance %s", instance.Name), Err: err})
		}
	}

	return deleted, errors.Join(errs...)
}

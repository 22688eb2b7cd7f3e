package hcloud

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/magnet/internal/compute"
	"github.com/imamik/magnet/internal/util/retry"
)

// DeleteOperation encapsulates deletion logic for any hcloud resource.
// It provides consistent retry, timeout, and error handling across resource types.
//
// Usage example:
//
//	func (c *RealClient) DeleteInstance(ctx context.Context, id string) error {
//	    return (&DeleteOperation[*hcloud.Server]{
//	        ID:           serverID,
//	        ResourceType: "server",
//	        Get:          c.client.Server.GetByID,
//	        Delete:       deleteServer,
//	    }).Execute(ctx, c)
//	}
type DeleteOperation[T any] struct {
	ID           int64
	ResourceType string

	// Get retrieves the resource by ID; a nil resource means it does not exist
	Get func(ctx context.Context, id int64) (T, *hcloud.Response, error)

	// Delete removes the resource
	Delete func(ctx context.Context, resource T) (*hcloud.Response, error)
}

// Execute performs the delete operation with retry logic and timeout handling.
// A resource that does not exist yields an error matching compute.ErrNotFound.
// Locked resources are retried with exponential backoff.
func (op *DeleteOperation[T]) Execute(ctx context.Context, client *RealClient) error {
	ctx, cancel := context.WithTimeout(ctx, client.deleteTimeout)
	defer cancel()

	notFound := &compute.NotFoundError{Kind: op.ResourceType, Identifier: fmt.Sprint(op.ID)}

	return retry.WithExponentialBackoff(ctx, func() error {
		resource, _, err := op.Get(ctx, op.ID)
		if err != nil {
			if isResourceLocked(err) {
				return err
			}
			return retry.Fatal(fmt.Errorf("failed to get %s: %w", op.ResourceType, err))
		}

		if reflect.ValueOf(resource).IsNil() {
			return retry.Fatal(notFound)
		}

		_, err = op.Delete(ctx, resource)
		switch {
		case err == nil:
			return nil
		case IsNotFound(err):
			return retry.Fatal(notFound)
		case isResourceLocked(err):
			return err
		default:
			return retry.Fatal(err)
		}
	},
		retry.WithMaxRetries(client.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(client.timeouts.RetryInitialDelay))
}

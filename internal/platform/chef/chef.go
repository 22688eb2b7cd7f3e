// Package chef adapts the Chef server API to the configmgmt.Inventory
// interface.
//
// Nodes are enumerated through the search index, clients through the client
// listing. The go-chef client has no context support, so cancellation is
// checked between calls.
package chef

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	gochef "github.com/go-chef/chef"

	"github.com/imamik/magnet/internal/config"
	"github.com/imamik/magnet/internal/configmgmt"
)

var _ configmgmt.Inventory = (*Inventory)(nil)

// Inventory lists and deletes Chef nodes and clients.
type Inventory struct {
	client    *gochef.Client
	nodeQuery string
}

// Option configures an Inventory.
type Option func(*Inventory)

// WithNodePrefix narrows the node search to names starting with prefix.
func WithNodePrefix(prefix string) Option {
	return func(i *Inventory) {
		i.nodeQuery = "name:" + prefix + "*"
	}
}

// NewInventory creates an Inventory on top of an existing go-chef client.
func NewInventory(client *gochef.Client, opts ...Option) *Inventory {
	inv := &Inventory{
		client:    client,
		nodeQuery: "name:*",
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// NewClient builds a go-chef client from credentials. ClientKey is the path
// of the client's PEM private key.
func NewClient(creds config.ChefCredentials) (*gochef.Client, error) {
	if !creds.Configured() {
		return nil, errors.New("chef server_url, client_name and client_key are required")
	}

	key, err := os.ReadFile(creds.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read chef client key: %w", err)
	}

	baseURL := creds.ServerURL
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	client, err := gochef.NewClient(&gochef.Config{
		Name:    creds.ClientName,
		Key:     string(key),
		BaseURL: baseURL,
		SkipSSL: creds.SkipSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chef client: %w", err)
	}
	return client, nil
}

// ListNames returns node names from the search index or client names from
// the client listing.
func (i *Inventory) ListNames(ctx context.Context, kind configmgmt.Kind) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch kind {
	case configmgmt.KindNode:
		return i.searchNodes()
	case configmgmt.KindClient:
		clients, err := i.client.Clients.List()
		if err != nil {
			return nil, fmt.Errorf("list clients: %w", err)
		}
		names := make([]string, 0, len(clients))
		for name := range clients {
			names = append(names, name)
		}
		return names, nil
	default:
		return nil, fmt.Errorf("unsupported kind %q", kind)
	}
}

func (i *Inventory) searchNodes() ([]string, error) {
	result, err := i.client.Search.Exec("node", i.nodeQuery)
	if err != nil {
		return nil, fmt.Errorf("search nodes %q: %w", i.nodeQuery, err)
	}

	names := make([]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		obj, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		if name, ok := obj["name"].(string); ok && name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// Delete removes a node or client. Unknown names match configmgmt.ErrNotFound.
func (i *Inventory) Delete(ctx context.Context, kind configmgmt.Kind, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var err error
	switch kind {
	case configmgmt.KindNode:
		err = i.client.Nodes.Delete(name)
	case configmgmt.KindClient:
		err = i.client.Clients.Delete(name)
	default:
		return fmt.Errorf("unsupported kind %q", kind)
	}

	if isNotFound(err) {
		return fmt.Errorf("%s %s: %w", kind, name, configmgmt.ErrNotFound)
	}
	return err
}

func isNotFound(err error) bool {
	var errResp *gochef.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode == http.StatusNotFound
	}
	return false
}

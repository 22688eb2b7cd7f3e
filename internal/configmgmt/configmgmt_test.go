package configmgmt

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInventory struct {
	names      map[Kind][]string
	listErr    error
	deleteErrs map[string]error
	deleted    map[Kind][]string
}

func newFakeInventory(nodes, clients []string) *fakeInventory {
	return &fakeInventory{
		names:   map[Kind][]string{KindNode: nodes, KindClient: clients},
		deleted: map[Kind][]string{},
	}
}

func (f *fakeInventory) ListNames(_ context.Context, kind Kind) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string(nil), f.names[kind]...), nil
}

func (f *fakeInventory) Delete(_ context.Context, kind Kind, name string) error {
	if err := f.deleteErrs[name]; err != nil {
		return err
	}
	for i, n := range f.names[kind] {
		if n == name {
			f.names[kind] = append(f.names[kind][:i], f.names[kind][i+1:]...)
			f.deleted[kind] = append(f.deleted[kind], name)
			return nil
		}
	}
	return ErrNotFound
}

func TestDeregistrar_RemoveNodesByPrefix(t *testing.T) {
	inv := newFakeInventory(
		[]string{"magnet-web1", "magnet-db1", "prod-magnet-web1", "workstation"},
		nil,
	)
	d := NewDeregistrar(inv, logr.Discard())

	count, err := d.RemoveNodesByPrefix(context.Background(), "magnet-")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"magnet-web1", "magnet-db1"}, inv.deleted[KindNode])
	assert.Equal(t, []string{"prod-magnet-web1", "workstation"}, inv.names[KindNode])
	assert.Empty(t, inv.deleted[KindClient])
}

func TestDeregistrar_RemoveClientsByPrefix(t *testing.T) {
	inv := newFakeInventory(
		[]string{"magnet-web1"},
		[]string{"magnet-web1", "chef-validator", "x-magnet-db1"},
	)
	d := NewDeregistrar(inv, logr.Discard())

	count, err := d.RemoveClientsByPrefix(context.Background(), "magnet-")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"magnet-web1"}, inv.deleted[KindClient])
	assert.Equal(t, []string{"magnet-web1"}, inv.names[KindNode], "nodes must be untouched")

	again, err := d.RemoveClientsByPrefix(context.Background(), "magnet-")
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestDeregistrar_Failures(t *testing.T) {
	t.Run("listing fails", func(t *testing.T) {
		inv := newFakeInventory(nil, nil)
		inv.listErr = errors.New("401 unauthorized")

		_, err := NewDeregistrar(inv, logr.Discard()).RemoveNodesByPrefix(context.Background(), "magnet-")
		var perr *ProviderError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "list nodes", perr.Op)
	})

	t.Run("one deletion fails, others proceed", func(t *testing.T) {
		inv := newFakeInventory([]string{"magnet-a", "magnet-b", "magnet-c"}, nil)
		inv.deleteErrs = map[string]error{"magnet-a": errors.New("500"), "magnet-b": ErrNotFound}

		count, err := NewDeregistrar(inv, logr.Discard()).RemoveNodesByPrefix(context.Background(), "magnet-")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "delete node magnet-a")
		assert.Equal(t, 1, count)
		assert.Equal(t, []string{"magnet-c"}, inv.deleted[KindNode])
	})
}

package compute

import (
	"context"
	"fmt"
	"sync"
)

// fakeProvider is an in-memory Provider.
type fakeProvider struct {
	mu sync.Mutex

	images    []Image
	networks  []Network
	instances []Instance

	listErr    error
	createErr  error
	deleteErrs map[string]error

	created []CreateOpts
	deleted []string
}

func (f *fakeProvider) ListImages(_ context.Context) ([]Image, error) {
	return f.images, f.listErr
}

func (f *fakeProvider) ListNetworks(_ context.Context) ([]Network, error) {
	return f.networks, f.listErr
}

func (f *fakeProvider) ListInstances(_ context.Context) ([]Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]Instance(nil), f.instances...), nil
}

func (f *fakeProvider) GetInstance(_ context.Context, id string) (*Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, i := range f.instances {
		if i.ID == id {
			inst := i
			return &inst, nil
		}
	}
	return nil, fmt.Errorf("instance %s: %w", id, ErrNotFound)
}

func (f *fakeProvider) CreateInstance(_ context.Context, opts CreateOpts) (*Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, opts)
	inst := Instance{ID: fmt.Sprintf("id-%d", len(f.instances)+1), Name: opts.Name, Status: StatusBuilding}
	f.instances = append(f.instances, inst)
	return &inst, nil
}

func (f *fakeProvider) DeleteInstance(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deleteErrs[id]; err != nil {
		return err
	}
	for i, inst := range f.instances {
		if inst.ID == id {
			f.instances = append(f.instances[:i], f.instances[i+1:]...)
			f.deleted = append(f.deleted, inst.Name)
			return nil
		}
	}
	return fmt.Errorf("instance %s: %w", id, ErrNotFound)
}

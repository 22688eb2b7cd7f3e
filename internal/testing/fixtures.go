package testing

import (
	"fmt"

	"github.com/stretchr/testify/mock"

	"github.com/imamik/magnet/internal/compute"
)

// ClusterFixture provides pre-configured mock infrastructure for a cluster
// of active instances named prefix+server.
type ClusterFixture struct {
	Instances []compute.Instance

	compute *MockComputeProvider
}

// NewClusterFixture creates a fixture with one active instance per server
// name, addressed 10.0.0.1, 10.0.0.2, ... in order.
func NewClusterFixture(prefix string, servers ...string) *ClusterFixture {
	f := &ClusterFixture{compute: &MockComputeProvider{}}
	for i, server := range servers {
		f.Instances = append(f.Instances, compute.Instance{
			ID:      fmt.Sprintf("id-%d", i+1),
			Name:    prefix + server,
			Status:  compute.StatusActive,
			Address: fmt.Sprintf("10.0.0.%d", i+1),
		})
	}
	return f
}

// Compute returns a MockComputeProvider that lists the fixture's instances
// and returns them by id.
func (f *ClusterFixture) Compute() *MockComputeProvider {
	f.compute.On("ListInstances", mock.Anything).Return(f.Instances, nil).Maybe()
	for i := range f.Instances {
		instance := f.Instances[i]
		f.compute.On("GetInstance", mock.Anything, instance.ID).Return(&instance, nil).Maybe()
	}
	return f.compute
}

// Pointers returns the fixture's instances as pointers.
func (f *ClusterFixture) Pointers() []*compute.Instance {
	out := make([]*compute.Instance, len(f.Instances))
	for i := range f.Instances {
		instance := f.Instances[i]
		out[i] = &instance
	}
	return out
}

package testing

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/imamik/magnet/internal/compute"
	"github.com/imamik/magnet/internal/configmgmt"
	"github.com/imamik/magnet/internal/dns"
	"github.com/imamik/magnet/internal/platform/ssh"
)

// MockComputeProvider is a mock implementation of compute.Provider.
type MockComputeProvider struct {
	mock.Mock
}

var _ compute.Provider = (*MockComputeProvider)(nil)

// ListImages returns the mocked image list.
func (m *MockComputeProvider) ListImages(ctx context.Context) ([]compute.Image, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]compute.Image), args.Error(1)
}

// ListNetworks returns the mocked network list.
func (m *MockComputeProvider) ListNetworks(ctx context.Context) ([]compute.Network, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]compute.Network), args.Error(1)
}

// ListInstances returns the mocked instance list.
func (m *MockComputeProvider) ListInstances(ctx context.Context) ([]compute.Instance, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]compute.Instance), args.Error(1)
}

// GetInstance returns the mocked instance.
func (m *MockComputeProvider) GetInstance(ctx context.Context, id string) (*compute.Instance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*compute.Instance), args.Error(1)
}

// CreateInstance records the creation payload.
func (m *MockComputeProvider) CreateInstance(ctx context.Context, opts compute.CreateOpts) (*compute.Instance, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*compute.Instance), args.Error(1)
}

// DeleteInstance records the deletion.
func (m *MockComputeProvider) DeleteInstance(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockDNSProvider is a mock implementation of dns.Provider.
type MockDNSProvider struct {
	mock.Mock
}

var _ dns.Provider = (*MockDNSProvider)(nil)

// FindZone returns the mocked zone.
func (m *MockDNSProvider) FindZone(ctx context.Context, name string) (dns.Zone, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(dns.Zone), args.Error(1)
}

// ListRecords returns the mocked records.
func (m *MockDNSProvider) ListRecords(ctx context.Context, zone dns.Zone) ([]dns.Record, error) {
	args := m.Called(ctx, zone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dns.Record), args.Error(1)
}

// AddRecords records the added records.
func (m *MockDNSProvider) AddRecords(ctx context.Context, zone dns.Zone, records []dns.Record) error {
	return m.Called(ctx, zone, records).Error(0)
}

// DeleteRecord records the deletion.
func (m *MockDNSProvider) DeleteRecord(ctx context.Context, zone dns.Zone, record dns.Record) error {
	return m.Called(ctx, zone, record).Error(0)
}

// MockInventory is a mock implementation of configmgmt.Inventory.
type MockInventory struct {
	mock.Mock
}

var _ configmgmt.Inventory = (*MockInventory)(nil)

// ListNames returns the mocked registration names of kind.
func (m *MockInventory) ListNames(ctx context.Context, kind configmgmt.Kind) ([]string, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// Delete records the deletion.
func (m *MockInventory) Delete(ctx context.Context, kind configmgmt.Kind, name string) error {
	return m.Called(ctx, kind, name).Error(0)
}

// MockPinger is a mock ICMP pinger.
type MockPinger struct {
	mock.Mock
}

// Ping records the echo request.
func (m *MockPinger) Ping(ctx context.Context, address string) error {
	return m.Called(ctx, address).Error(0)
}

// MockRemoteRunner is a mock SSH command runner.
type MockRemoteRunner struct {
	mock.Mock
}

// Run returns the mocked command result.
func (m *MockRemoteRunner) Run(ctx context.Context, host, command string) (ssh.ExecResult, error) {
	args := m.Called(ctx, host, command)
	return args.Get(0).(ssh.ExecResult), args.Error(1)
}

// MockBucketSweeper is a mock object-storage sweeper.
type MockBucketSweeper struct {
	mock.Mock
}

// DeleteBucketsByPrefix returns the mocked deletion count.
func (m *MockBucketSweeper) DeleteBucketsByPrefix(ctx context.Context, prefix string) (int, error) {
	args := m.Called(ctx, prefix)
	return args.Int(0), args.Error(1)
}

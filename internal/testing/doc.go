// Package testing provides test utilities, builders, and fixtures for unit tests.
//
// This package centralizes common testing patterns to avoid duplication across test files:
//   - ConfigBuilder: Fluent builder for creating test configurations
//   - ClusterFixture: Pre-configured mock providers for a small cluster
//   - MockComputeProvider, MockDNSProvider, MockInventory, MockPinger,
//     MockRemoteRunner, MockBucketSweeper: shared testify mocks
//
// Usage:
//
//	cfg := testing.NewConfigBuilder().
//	    WithPrefix("test-").
//	    WithDNSDomain("example.com").
//	    Build()
//
//	fixture := testing.NewClusterFixture("magnet-", "web1", "db1")
//	provider := fixture.Compute()
package testing

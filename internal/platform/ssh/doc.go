// Package ssh runs single commands on cluster instances over SSH.
//
// It is used by the health prober to read an instance's hostname and by the
// boot orchestrator to trigger chef-client convergence. The runner supports
// key-based authentication with configurable dial retries.
package ssh

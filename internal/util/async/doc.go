// Package async runs named tasks concurrently and gathers their failures.
//
// It is used where a batch of independent remote operations (for example
// chef-client runs on every server of one convergence step) must all finish
// before the caller moves on.
package async

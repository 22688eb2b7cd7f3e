// Package hcloud adapts the Hetzner Cloud API to magnet's compute interface.
//
// Servers, images and networks map one-to-one onto compute instances, images
// and networks. Hetzner Cloud has no personality files: the operator's public
// key is delivered through a cloud-init user-data document instead, so no
// SSH key resources are left behind on teardown.
//
// Deletions go through DeleteOperation, which retries while a server is
// locked by a running action and treats a missing server as already deleted.
//
// Retry parameters come from the shared timeouts:
//
//   - MAGNET_RETRY_MAX_ATTEMPTS: Maximum retry attempts (default: 5)
//   - MAGNET_RETRY_INITIAL_DELAY: Initial retry delay (default: 1s)
package hcloud

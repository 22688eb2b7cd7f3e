// Package compute resolves and manages the instances of a cluster.
//
// It is provider-agnostic: everything goes through the [Provider] interface,
// implemented by the OpenStack and Hetzner Cloud adapters under
// internal/platform. The [Locator] resolves human identifiers (an exact id or
// a case-insensitive name substring) to images, networks and instances; the
// [Lifecycle] creates instances and deletes every instance whose name starts
// with a cluster prefix.
package compute

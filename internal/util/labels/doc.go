// Package labels builds the provider labels attached to every instance.
//
// Hetzner Cloud stores them as server labels, OpenStack as server metadata.
// They identify which cluster prefix, template and template server an
// instance was booted from; teardown still matches on names only.
package labels

// Package naming derives resource names from a cluster prefix.
//
// Every resource magnet creates is named {prefix}{server}, and teardown
// selects resources purely by that leading prefix. Matching is a plain,
// case-sensitive string prefix test.
package naming

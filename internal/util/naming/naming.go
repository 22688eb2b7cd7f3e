package naming

import "strings"

// Instance returns the name of the instance booted for a template server.
func Instance(prefix, server string) string {
	return prefix + server
}

// Owned reports whether name belongs to the cluster identified by prefix.
// An empty prefix owns everything.
func Owned(name, prefix string) bool {
	return strings.HasPrefix(name, prefix)
}

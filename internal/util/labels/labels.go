package labels

import "strings"

// Standard label keys, namespaced under magnet.io.
const (
	// KeyPrefix holds the cluster prefix the instance was booted with.
	KeyPrefix = "magnet.io/prefix"

	// KeyTemplate holds the name of the cluster template.
	KeyTemplate = "magnet.io/template"

	// KeyServer holds the template-relative server name.
	KeyServer = "magnet.io/server"

	// KeyManagedBy identifies the management system.
	KeyManagedBy = "magnet.io/managed-by"
)

// ManagedByMagnet is the KeyManagedBy value of instances booted by magnet.
const ManagedByMagnet = "magnet"

const maxValueLength = 63

// LabelBuilder provides a fluent interface for building instance labels.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a new label builder with the prefix pre-set.
func NewLabelBuilder(prefix string) *LabelBuilder {
	lb := &LabelBuilder{
		labels: map[string]string{
			KeyManagedBy: ManagedByMagnet,
		},
	}
	lb.set(KeyPrefix, prefix)
	return lb
}

// WithTemplate adds the template name.
func (lb *LabelBuilder) WithTemplate(template string) *LabelBuilder {
	lb.set(KeyTemplate, template)
	return lb
}

// WithServer adds the template-relative server name.
func (lb *LabelBuilder) WithServer(server string) *LabelBuilder {
	lb.set(KeyServer, server)
	return lb
}

// Merge adds all labels from the provided map.
func (lb *LabelBuilder) Merge(extra map[string]string) *LabelBuilder {
	for k, v := range extra {
		lb.set(k, v)
	}
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}

// set stores the sanitized value, dropping values that sanitize to empty.
func (lb *LabelBuilder) set(key, value string) {
	value = Sanitize(value)
	if value == "" {
		delete(lb.labels, key)
		return
	}
	lb.labels[key] = value
}

// Sanitize turns value into a valid Hetzner label value: at most 63
// characters of [a-zA-Z0-9-_.], beginning and ending with an alphanumeric
// character. Invalid characters become '-'.
func Sanitize(value string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '.':
			return r
		default:
			return '-'
		}
	}, value)

	if len(mapped) > maxValueLength {
		mapped = mapped[:maxValueLength]
	}
	return strings.TrimFunc(mapped, func(r rune) bool {
		return r == '-' || r == '_' || r == '.'
	})
}

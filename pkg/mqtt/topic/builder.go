package topic

import (
	"strings"
)

// Builder encapsulates the logic for constructing MQTT topic strings.
type Builder struct {
	// root is the base namespace for all topics (e.g., "can", "vehicle/vh-001/can").
	root string
}

// NewBuilder creates a new instance of Builder with the specified root namespace.
func NewBuilder(root string) *Builder {
	return &Builder{root: strings.Trim(root, "/")}
}

// Root returns the namespace the builder was created with.
func (b *Builder) Root() string {
	return b.root
}

// Build joins the root, the segment and any trailing identifiers.
// Pattern: {root}/{segment}[/{id}...]
func (b *Builder) Build(segment string, ids ...string) string {
	parts := make([]string, 0, len(ids)+2)
	if b.root != "" {
		parts = append(parts, b.root)
	}
	parts = append(parts, segment)
	parts = append(parts, ids...)
	return strings.Join(parts, "/")
}

// BuildWildcard returns {root}/{segment}/+ for subscribing to every identifier.
func (b *Builder) BuildWildcard(segment string) string {
	return b.Build(segment, Wildcard)
}

// Shared prefixes a topic filter so that subscribers in the same group
// receive each message once. An empty group returns the filter unchanged.
func Shared(group, filter string) string {
	if group == "" {
		return filter
	}
	return SharePrefix + "/" + group + "/" + filter
}

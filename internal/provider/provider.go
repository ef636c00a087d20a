// Package provider identifies the AI coding tools whose logs aitracker measures.
package provider

// ID is the stable identifier for a usage source. It is what gets written into
// the cost cache, so values must never change once shipped.
type ID string

const (
	Claude   ID = "claude"
	Codex    ID = "codex"
	VertexAI ID = "vertex_ai"
)

// All returns every known provider in display order.
func All() []ID {
	return []ID{Claude, Codex, VertexAI}
}

// FromID parses a provider identifier, accepting the historical aliases that
// older cache files may contain.
func FromID(s string) (ID, bool) {
	switch s {
	case "claude":
		return Claude, true
	case "codex":
		return Codex, true
	case "vertex_ai", "vertex-ai", "vertexai":
		return VertexAI, true
	}
	return "", false
}

// DisplayName returns the human-readable name for terminal output.
func (id ID) DisplayName() string {
	switch id {
	case Claude:
		return "Claude"
	case Codex:
		return "Codex"
	case VertexAI:
		return "Vertex AI"
	}
	return string(id)
}

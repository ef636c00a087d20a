// Package source discovers and parses the JSONL usage logs written by AI
// coding tools. Each supported log layout is a Layout value behind one shared
// parse contract, so adding a tool touches neither the cache nor aggregation.
package source

import "github.com/j0nl1/aitracker/internal/provider"

// Record is one unit of token usage attributed to a provider, model, and day.
// Records are transient scan state; the cache stores its own serialized form.
type Record struct {
	Provider            provider.ID
	Model               string
	Date                string // YYYY-MM-DD
	InputTokens         int64
	OutputTokens        int64
	CacheReadTokens     int64
	CacheCreationTokens int64
}

// ParseFunc reads a log file from the given byte offset to EOF and returns the
// records found in that range plus the new EOF offset. Malformed lines are
// skipped; only open/read failures surface as errors.
type ParseFunc func(path string, offset int64) ([]Record, int64, error)

// Layout binds a tool's on-disk log format to its discovery and parse rules.
type Layout struct {
	Provider provider.ID
	Discover func() []string
	Parse    ParseFunc

	// Cumulative marks layouts whose records are running session totals
	// rather than per-turn deltas. When a parse resumes mid-file, a tail
	// record for a model supersedes the carried-forward one instead of
	// being added to it.
	Cumulative bool
}

// Layouts returns the supported log layouts with their default roots.
func Layouts() []Layout {
	return []Layout{
		{
			Provider: provider.Claude,
			Discover: func() []string { return DiscoverClaudeFiles(ClaudeRoots()) },
			Parse:    ParseClaudeFile,
		},
		{
			Provider:   provider.Codex,
			Discover:   func() []string { return DiscoverCodexFiles(CodexRoots()) },
			Parse:      ParseCodexFile,
			Cumulative: true,
		},
	}
}

// claudeLine is one line of a Claude Code session file.
type claudeLine struct {
	Type      string         `json:"type"`
	Message   *claudeMessage `json:"message"`
	RequestID string         `json:"requestId"`
	Timestamp string         `json:"timestamp"`
}

type claudeMessage struct {
	ID    string       `json:"id"`
	Model string       `json:"model"`
	Usage *claudeUsage `json:"usage"`
}

type claudeUsage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
}

// codexLine is one line of a Codex rollout file.
type codexLine struct {
	Type      string        `json:"type"`
	Timestamp string        `json:"timestamp"`
	Payload   *codexPayload `json:"payload"`
}

type codexPayload struct {
	Type  string          `json:"type"`
	Model string          `json:"model"`
	Info  *codexTokenInfo `json:"info"`
}

type codexTokenInfo struct {
	TotalTokenUsage *codexTokenUsage `json:"total_token_usage"`
	LastTokenUsage  *codexTokenUsage `json:"last_token_usage"`
	ModelName       string           `json:"model_name"`
}

type codexTokenUsage struct {
	InputTokens       int64 `json:"input_tokens"`
	OutputTokens      int64 `json:"output_tokens"`
	CachedInputTokens int64 `json:"cached_input_tokens"`
}

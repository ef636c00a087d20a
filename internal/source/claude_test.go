package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/j0nl1/aitracker/internal/provider"
)

func writeSession(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseClaudeFileExtractsUsage(t *testing.T) {
	path := writeSession(t,
		`{"type":"user","message":{"role":"user","content":"hi"}}`,
		`{"type":"assistant","requestId":"req_1","timestamp":"2026-08-29T14:30:00.000Z","message":{"id":"msg_1","model":"claude-sonnet-4-5","usage":{"input_tokens":120,"output_tokens":45,"cache_read_input_tokens":3000,"cache_creation_input_tokens":700}}}`,
		`{"type":"summary","summary":"chat about things"}`,
	)

	records, parsed, err := ParseClaudeFile(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	r := records[0]
	if r.Provider != provider.Claude {
		t.Errorf("provider = %s, want claude", r.Provider)
	}
	if r.Model != "claude-sonnet-4-5" {
		t.Errorf("model = %s", r.Model)
	}
	if r.Date != "2026-08-29" {
		t.Errorf("date = %s, want 2026-08-29", r.Date)
	}
	if r.InputTokens != 120 || r.OutputTokens != 45 || r.CacheReadTokens != 3000 || r.CacheCreationTokens != 700 {
		t.Errorf("tokens = %+v", r)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if parsed != info.Size() {
		t.Errorf("parsed offset = %d, want file size %d", parsed, info.Size())
	}
}

func TestParseClaudeFileStreamingDedup(t *testing.T) {
	// Streamed responses repeat the line for one (message id, request id)
	// pair with growing usage; only the last one is billed.
	path := writeSession(t,
		`{"type":"assistant","requestId":"req_1","timestamp":"2026-08-29T10:00:00Z","message":{"id":"msg_1","model":"claude-sonnet-4-5","usage":{"input_tokens":100,"output_tokens":1}}}`,
		`{"type":"assistant","requestId":"req_1","timestamp":"2026-08-29T10:00:01Z","message":{"id":"msg_1","model":"claude-sonnet-4-5","usage":{"input_tokens":100,"output_tokens":20}}}`,
		`{"type":"assistant","requestId":"req_1","timestamp":"2026-08-29T10:00:02Z","message":{"id":"msg_1","model":"claude-sonnet-4-5","usage":{"input_tokens":100,"output_tokens":57}}}`,
		`{"type":"assistant","requestId":"req_2","timestamp":"2026-08-29T10:01:00Z","message":{"id":"msg_2","model":"claude-sonnet-4-5","usage":{"input_tokens":50,"output_tokens":5}}}`,
	)

	records, _, err := ParseClaudeFile(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 after dedup", len(records))
	}
	if records[0].OutputTokens != 57 {
		t.Errorf("deduped output tokens = %d, want 57 (last write wins)", records[0].OutputTokens)
	}
	if records[1].InputTokens != 50 {
		t.Errorf("second turn input tokens = %d, want 50", records[1].InputTokens)
	}
}

func TestParseClaudeFileIdlessLinesAppend(t *testing.T) {
	path := writeSession(t,
		`{"type":"assistant","timestamp":"2026-08-29T10:00:00Z","message":{"model":"claude-sonnet-4-5","usage":{"input_tokens":10,"output_tokens":1}}}`,
		`{"type":"assistant","timestamp":"2026-08-29T10:00:01Z","message":{"model":"claude-sonnet-4-5","usage":{"input_tokens":10,"output_tokens":1}}}`,
	)

	records, _, err := ParseClaudeFile(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Errorf("records = %d, want 2 (no ids, no dedup)", len(records))
	}
}

func TestParseClaudeFileVertexDetection(t *testing.T) {
	tests := []struct {
		name string
		line string
		want provider.ID
	}{
		{
			name: "plain anthropic",
			line: `{"type":"assistant","requestId":"req_1","timestamp":"2026-08-29T10:00:00Z","message":{"id":"msg_1","model":"claude-sonnet-4-5","usage":{"input_tokens":1,"output_tokens":1}}}`,
			want: provider.Claude,
		},
		{
			name: "vrtx marker in message id",
			line: `{"type":"assistant","requestId":"req_1","timestamp":"2026-08-29T10:00:00Z","message":{"id":"msg_vrtx_abc","model":"claude-sonnet-4-5","usage":{"input_tokens":1,"output_tokens":1}}}`,
			want: provider.VertexAI,
		},
		{
			name: "vrtx marker in request id",
			line: `{"type":"assistant","requestId":"req_vrtx_abc","timestamp":"2026-08-29T10:00:00Z","message":{"id":"msg_1","model":"claude-sonnet-4-5","usage":{"input_tokens":1,"output_tokens":1}}}`,
			want: provider.VertexAI,
		},
		{
			name: "vertex model suffix",
			line: `{"type":"assistant","requestId":"req_1","timestamp":"2026-08-29T10:00:00Z","message":{"id":"msg_1","model":"claude-sonnet-4-5@20250929","usage":{"input_tokens":1,"output_tokens":1}}}`,
			want: provider.VertexAI,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSession(t, tt.line)
			records, _, err := ParseClaudeFile(path, 0)
			if err != nil {
				t.Fatal(err)
			}
			if len(records) != 1 {
				t.Fatalf("records = %d, want 1", len(records))
			}
			if records[0].Provider != tt.want {
				t.Errorf("provider = %s, want %s", records[0].Provider, tt.want)
			}
		})
	}
}

func TestParseClaudeFileSkipsMalformed(t *testing.T) {
	path := writeSession(t,
		`not json at all "type":"assistant" "usage"`,
		`{"type":"assistant","message":{"model":"","usage":{"input_tokens":1}}}`,
		`{"type":"assistant","message":{"model":"claude-sonnet-4-5"}}`,
		`{"type":"assistant","requestId":"req_1","timestamp":"2026-08-29T10:00:00Z","message":{"id":"msg_1","model":"claude-sonnet-4-5","usage":{"input_tokens":9,"output_tokens":9}}}`,
	)

	records, _, err := ParseClaudeFile(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1 (malformed lines skipped)", len(records))
	}
	if records[0].InputTokens != 9 {
		t.Errorf("input tokens = %d, want 9", records[0].InputTokens)
	}
}

func TestParseClaudeFileOffset(t *testing.T) {
	first := `{"type":"assistant","requestId":"req_1","timestamp":"2026-08-29T10:00:00Z","message":{"id":"msg_1","model":"claude-sonnet-4-5","usage":{"input_tokens":100,"output_tokens":1}}}` + "\n"
	second := `{"type":"assistant","requestId":"req_2","timestamp":"2026-08-29T10:01:00Z","message":{"id":"msg_2","model":"claude-sonnet-4-5","usage":{"input_tokens":200,"output_tokens":2}}}` + "\n"

	path := filepath.Join(t.TempDir(), "session.jsonl")
	if err := os.WriteFile(path, []byte(first+second), 0o644); err != nil {
		t.Fatal(err)
	}

	records, parsed, err := ParseClaudeFile(path, int64(len(first)))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1 from the tail", len(records))
	}
	if records[0].InputTokens != 200 {
		t.Errorf("input tokens = %d, want 200", records[0].InputTokens)
	}
	if want := int64(len(first) + len(second)); parsed != want {
		t.Errorf("parsed offset = %d, want %d", parsed, want)
	}
}

func TestParseClaudeFileMissing(t *testing.T) {
	_, _, err := ParseClaudeFile(filepath.Join(t.TempDir(), "absent.jsonl"), 0)
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDateFromTimestamp(t *testing.T) {
	tests := []struct {
		ts   string
		want string
	}{
		{"2026-08-29T14:30:00.123Z", "2026-08-29"},
		{"2026-08-29T23:59:59+02:00", "2026-08-29"},
		{"2026-08-29 garbage tail", "2026-08-29"},
	}
	for _, tt := range tests {
		if got := dateFromTimestamp(tt.ts); got != tt.want {
			t.Errorf("dateFromTimestamp(%q) = %s, want %s", tt.ts, got, tt.want)
		}
	}

	// Unparseable timestamps fall back to the current UTC day.
	if got := dateFromTimestamp("nonsense"); len(got) != 10 {
		t.Errorf("fallback date = %q, want YYYY-MM-DD", got)
	}
}

func FuzzParseClaudeFile(f *testing.F) {
	f.Add(`{"type":"assistant","requestId":"req_1","message":{"id":"msg_1","model":"claude-sonnet-4-5","usage":{"input_tokens":1,"output_tokens":1}}}`)
	f.Add(`{"type":"assistant"`)
	f.Add("")
	f.Fuzz(func(t *testing.T, line string) {
		path := filepath.Join(t.TempDir(), "fuzz.jsonl")
		if err := os.WriteFile(path, []byte(line+"\n"), 0o644); err != nil {
			t.Skip()
		}
		// Must never panic, whatever the line holds.
		_, _, _ = ParseClaudeFile(path, 0)
	})
}

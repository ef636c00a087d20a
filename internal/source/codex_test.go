package source

import (
	"testing"
)

func TestParseCodexFileCumulativeLastWins(t *testing.T) {
	// token_count snapshots are running session totals; a later, smaller
	// snapshot (after compaction) still supersedes the earlier one.
	path := writeSession(t,
		`{"type":"turn_context","timestamp":"2026-08-29T09:00:00Z","payload":{"model":"gpt-5.2-codex"}}`,
		`{"type":"event_msg","timestamp":"2026-08-29T09:01:00Z","payload":{"type":"token_count","info":{"total_token_usage":{"input_tokens":1000,"output_tokens":100,"cached_input_tokens":400}}}}`,
		`{"type":"event_msg","timestamp":"2026-08-29T09:05:00Z","payload":{"type":"token_count","info":{"total_token_usage":{"input_tokens":5000,"output_tokens":600,"cached_input_tokens":2000}}}}`,
		`{"type":"event_msg","timestamp":"2026-08-29T09:09:00Z","payload":{"type":"token_count","info":{"total_token_usage":{"input_tokens":3000,"output_tokens":700,"cached_input_tokens":1000}}}}`,
	)

	records, _, err := ParseCodexFile(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1 (one model, last snapshot only)", len(records))
	}
	r := records[0]
	if r.Model != "gpt-5.2-codex" {
		t.Errorf("model = %s, want gpt-5.2-codex (sticky from turn_context)", r.Model)
	}
	if r.InputTokens != 3000 || r.OutputTokens != 700 || r.CacheReadTokens != 1000 {
		t.Errorf("tokens = %+v, want the last snapshot", r)
	}
	if r.Date != "2026-08-29" {
		t.Errorf("date = %s, want 2026-08-29", r.Date)
	}
}

func TestParseCodexFileModelSwitch(t *testing.T) {
	path := writeSession(t,
		`{"type":"turn_context","timestamp":"2026-08-29T09:00:00Z","payload":{"model":"gpt-5.1"}}`,
		`{"type":"event_msg","timestamp":"2026-08-29T09:01:00Z","payload":{"type":"token_count","info":{"total_token_usage":{"input_tokens":100,"output_tokens":10}}}}`,
		`{"type":"turn_context","timestamp":"2026-08-29T09:02:00Z","payload":{"model":"gpt-5.2-codex"}}`,
		`{"type":"event_msg","timestamp":"2026-08-29T09:03:00Z","payload":{"type":"token_count","info":{"total_token_usage":{"input_tokens":200,"output_tokens":20}}}}`,
	)

	records, _, err := ParseCodexFile(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want one per model", len(records))
	}
	if records[0].Model != "gpt-5.1" || records[0].InputTokens != 100 {
		t.Errorf("first record = %+v", records[0])
	}
	if records[1].Model != "gpt-5.2-codex" || records[1].InputTokens != 200 {
		t.Errorf("second record = %+v", records[1])
	}
}

func TestParseCodexFileModelNamePrecedence(t *testing.T) {
	// info.model_name beats the sticky turn_context model when present.
	path := writeSession(t,
		`{"type":"turn_context","timestamp":"2026-08-29T09:00:00Z","payload":{"model":"gpt-5.1"}}`,
		`{"type":"event_msg","timestamp":"2026-08-29T09:01:00Z","payload":{"type":"token_count","info":{"model_name":"gpt-5.3-codex","total_token_usage":{"input_tokens":42,"output_tokens":1}}}}`,
	)

	records, _, err := ParseCodexFile(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Model != "gpt-5.3-codex" {
		t.Fatalf("records = %+v, want one for gpt-5.3-codex", records)
	}
}

func TestParseCodexFilePlaceholderModel(t *testing.T) {
	path := writeSession(t,
		`{"type":"event_msg","timestamp":"2026-08-29T09:01:00Z","payload":{"type":"token_count","info":{"total_token_usage":{"input_tokens":7,"output_tokens":1}}}}`,
	)

	records, _, err := ParseCodexFile(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Model != "unknown-codex" {
		t.Fatalf("records = %+v, want placeholder model", records)
	}
}

func TestParseCodexFileLastUsageFallback(t *testing.T) {
	path := writeSession(t,
		`{"type":"event_msg","timestamp":"2026-08-29T09:01:00Z","payload":{"type":"token_count","info":{"model_name":"gpt-5.2","last_token_usage":{"input_tokens":11,"output_tokens":3}}}}`,
	)

	records, _, err := ParseCodexFile(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].InputTokens != 11 || records[0].OutputTokens != 3 {
		t.Errorf("tokens = %+v, want last_token_usage values", records[0])
	}
}

func TestParseCodexFileSkipsUnrelatedEvents(t *testing.T) {
	path := writeSession(t,
		`{"type":"session_meta","timestamp":"2026-08-29T09:00:00Z","payload":{"id":"abc"}}`,
		`{"type":"event_msg","timestamp":"2026-08-29T09:01:00Z","payload":{"type":"agent_message","message":"hello"}}`,
		`{"type":"event_msg","timestamp":"2026-08-29T09:02:00Z","payload":{"type":"token_count"}}`,
		`{"type":"event_msg","timestamp":"2026-08-29T09:03:00Z","payload":{"type":"token_count","info":{}}}`,
	)

	records, _, err := ParseCodexFile(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("records = %+v, want none", records)
	}
}

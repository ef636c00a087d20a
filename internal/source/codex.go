package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/j0nl1/aitracker/internal/provider"
)

var (
	patTokenCount  = []byte(`"token_count"`)
	patTurnContext = []byte(`"turn_context"`)
)

func isCodexCandidate(line []byte) bool {
	return bytes.Contains(line, patTokenCount) || bytes.Contains(line, patTurnContext)
}

// unknownCodexModel is used when neither the event nor any preceding
// turn_context names a model.
const unknownCodexModel = "unknown-codex"

// ParseCodexFile reads a Codex rollout file from offset to EOF.
//
// token_count events carry a cumulative session usage snapshot, not a delta,
// so intermediate snapshots for a model are replaced rather than summed: only
// the last one per model survives. turn_context lines announce the active
// model, which sticks until the next announcement.
func ParseCodexFile(path string, offset int64) ([]Record, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = f.Close() }()

	var size int64
	if fi, err := f.Stat(); err == nil {
		size = fi.Size()
	}
	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			return nil, 0, err
		}
	}

	var records []Record
	lastPerModel := make(map[string]int)
	currentModel := ""

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 2*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if !isCodexCandidate(line) {
			continue
		}

		var entry codexLine
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		if entry.Payload == nil {
			continue
		}

		if entry.Type == "turn_context" {
			if entry.Payload.Model != "" {
				currentModel = entry.Payload.Model
			}
			continue
		}
		if entry.Type != "event_msg" || entry.Payload.Type != "token_count" {
			continue
		}
		info := entry.Payload.Info
		if info == nil {
			continue
		}

		usage := info.TotalTokenUsage
		if usage == nil {
			usage = info.LastTokenUsage
		}
		if usage == nil {
			continue
		}

		model := info.ModelName
		if model == "" {
			model = currentModel
		}
		if model == "" {
			model = unknownCodexModel
		}

		rec := Record{
			Provider:        provider.Codex,
			Model:           model,
			Date:            dateFromTimestamp(entry.Timestamp),
			InputTokens:     usage.InputTokens,
			OutputTokens:    usage.OutputTokens,
			CacheReadTokens: usage.CachedInputTokens,
		}

		if idx, ok := lastPerModel[model]; ok {
			records[idx] = rec
		} else {
			lastPerModel[model] = len(records)
			records = append(records, rec)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	// Same offset trade-off as the Claude parser: a torn final line is
	// counted as parsed and only recovered by a later mtime change.
	return records, size, nil
}

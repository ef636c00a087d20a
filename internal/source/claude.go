package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"github.com/j0nl1/aitracker/internal/provider"
)

// Byte patterns for the cheap pre-filter, checked before any JSON decoding.
var (
	patAssistant = []byte(`"type":"assistant"`)
	patUsage     = []byte(`"usage"`)
)

// isClaudeCandidate reports whether a line can possibly carry usage data.
func isClaudeCandidate(line []byte) bool {
	return bytes.Contains(line, patAssistant) && bytes.Contains(line, patUsage)
}

// isVertexTraffic detects Claude log entries that were actually served through
// Vertex AI: relay request ids carry a "_vrtx_" marker, and Vertex model names
// carry an "@" deployment suffix.
func isVertexTraffic(msgID, requestID, model string) bool {
	return strings.Contains(msgID, "_vrtx_") ||
		strings.Contains(requestID, "_vrtx_") ||
		strings.Contains(model, "@")
}

type dedupKey struct {
	msgID     string
	requestID string
}

// ParseClaudeFile reads a Claude Code session file from offset to EOF and
// extracts one Record per billed assistant turn.
//
// Streaming responses are logged as repeated lines sharing one
// (message id, request id) pair; the last line carries the final billed usage,
// so later lines replace earlier ones rather than accumulating. Lines with
// neither id are always appended.
func ParseClaudeFile(path string, offset int64) ([]Record, int64, error) {
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
	dedup := make(map[dedupKey]int)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 2*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if !isClaudeCandidate(line) {
			continue
		}

		var entry claudeLine
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		if entry.Type != "assistant" || entry.Message == nil {
			continue
		}
		msg := entry.Message
		if msg.Model == "" || msg.Usage == nil {
			continue
		}

		prov := provider.Claude
		if isVertexTraffic(msg.ID, entry.RequestID, msg.Model) {
			prov = provider.VertexAI
		}

		rec := Record{
			Provider:            prov,
			Model:               msg.Model,
			Date:                dateFromTimestamp(entry.Timestamp),
			InputTokens:         msg.Usage.InputTokens,
			OutputTokens:        msg.Usage.OutputTokens,
			CacheReadTokens:     msg.Usage.CacheReadInputTokens,
			CacheCreationTokens: msg.Usage.CacheCreationInputTokens,
		}

		if msg.ID == "" && entry.RequestID == "" {
			records = append(records, rec)
			continue
		}
		key := dedupKey{msgID: msg.ID, requestID: entry.RequestID}
		if idx, ok := dedup[key]; ok {
			records[idx] = rec
		} else {
			dedup[key] = len(records)
			records = append(records, rec)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	// The offset is the stat-time size: a final line still being appended
	// is skipped this pass but counted as parsed. It is only re-read if the
	// completing write moves the file's mtime.
	return records, size, nil
}

// dateFromTimestamp extracts a YYYY-MM-DD date from an RFC3339 timestamp,
// falling back to its first ten characters, falling back to today.
func dateFromTimestamp(ts string) string {
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t.Format("2006-01-02")
	}
	if len(ts) >= 10 {
		if _, err := time.Parse("2006-01-02", ts[:10]); err == nil {
			return ts[:10]
		}
	}
	return time.Now().UTC().Format("2006-01-02")
}

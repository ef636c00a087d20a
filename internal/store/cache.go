// Package store persists parsed usage records between runs so repeated scans
// never re-read bytes they have already extracted.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// cacheVersion is the cache schema version. Bump it whenever the record or
// entry shape changes; a mismatched file is discarded wholesale at load, never
// partially applied.
const cacheVersion = 2

// CachedRecord is the serialized form of one usage record.
type CachedRecord struct {
	Provider            string `json:"provider"`
	Model               string `json:"model"`
	Date                string `json:"date"` // YYYY-MM-DD
	InputTokens         int64  `json:"input_tokens"`
	OutputTokens        int64  `json:"output_tokens"`
	CacheReadTokens     int64  `json:"cache_read_tokens"`
	CacheCreationTokens int64  `json:"cache_creation_tokens"`
}

// FileEntry tracks one log file: the stat we last saw it with, how far into it
// we have parsed, and the complete record set extracted up to that offset.
type FileEntry struct {
	MtimeMs     int64          `json:"mtime_ms"`
	Size        int64          `json:"size"`
	ParsedBytes int64          `json:"parsed_bytes"`
	Records     []CachedRecord `json:"records"`
}

// CostCache maps absolute file paths to their entries. Entries for files that
// later vanish are never pruned; they are harmless drift.
type CostCache struct {
	Version int                  `json:"version"`
	Files   map[string]FileEntry `json:"files"`

	path string
}

// DefaultPath returns the cache file location, honoring XDG_CACHE_HOME.
func DefaultPath() string {
	return filepath.Join(xdg.CacheHome, "aitracker", "cost-cache.json")
}

// Load reads the cache at path. A missing file, unreadable JSON, or a version
// mismatch all yield a fresh empty cache; load never fails.
func Load(path string) *CostCache {
	fresh := &CostCache{
		Version: cacheVersion,
		Files:   make(map[string]FileEntry),
		path:    path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fresh
	}
	var onDisk CostCache
	if err := json.Unmarshal(data, &onDisk); err != nil {
		return fresh
	}
	if onDisk.Version != cacheVersion {
		return fresh
	}
	if onDisk.Files == nil {
		onDisk.Files = make(map[string]FileEntry)
	}
	onDisk.path = path
	return &onDisk
}

// HasWarmCache reports whether a persisted, version-matching, non-empty cache
// exists at path. It only influences progress messaging.
func HasWarmCache(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var onDisk CostCache
	if err := json.Unmarshal(data, &onDisk); err != nil {
		return false
	}
	return onDisk.Version == cacheVersion && len(onDisk.Files) > 0
}

// IsUnchanged reports whether the stored entry matches the file's current
// mtime and size exactly.
func (c *CostCache) IsUnchanged(path string, mtimeMs, size int64) bool {
	entry, ok := c.Files[path]
	return ok && entry.MtimeMs == mtimeMs && entry.Size == size
}

// ResumeOffset returns the byte offset parsing can resume from. An exact mtime
// match is the sole signal that the file only grew by appends; any other
// change forces a full re-parse from 0.
func (c *CostCache) ResumeOffset(path string, mtimeMs int64) int64 {
	entry, ok := c.Files[path]
	if !ok || entry.MtimeMs != mtimeMs {
		return 0
	}
	return entry.ParsedBytes
}

// Records returns the cached records for a file, for reuse when it is
// unchanged.
func (c *CostCache) Records(path string) []CachedRecord {
	return c.Files[path].Records
}

// Update replaces a file's entry wholesale. records must be the complete
// authoritative set for the file up to parsedBytes.
func (c *CostCache) Update(path string, mtimeMs, size, parsedBytes int64, records []CachedRecord) {
	c.Files[path] = FileEntry{
		MtimeMs:     mtimeMs,
		Size:        size,
		ParsedBytes: parsedBytes,
		Records:     records,
	}
}

// Save serializes the cache and atomically replaces the file on disk: the JSON
// is written to a temp file in the same directory and renamed over the target,
// so a crash leaves either the old or the new cache, never a torn one.
func (c *CostCache) Save() error {
	if c.path == "" {
		return nil
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.Marshal(c)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".cost-cache-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func tempCachePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "cost-cache.json")
}

func TestLoad_MissingFile(t *testing.T) {
	c := Load(tempCachePath(t))
	if len(c.Files) != 0 {
		t.Errorf("expected empty cache, got %d entries", len(c.Files))
	}
	if c.Version != cacheVersion {
		t.Errorf("Version = %d, want %d", c.Version, cacheVersion)
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	path := tempCachePath(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	c := Load(path)
	if len(c.Files) != 0 {
		t.Errorf("corrupt cache should load as empty, got %d entries", len(c.Files))
	}
}

func TestLoad_VersionMismatchDiscardsEverything(t *testing.T) {
	path := tempCachePath(t)

	stale := CostCache{
		Version: cacheVersion - 1,
		Files: map[string]FileEntry{
			"/logs/a.jsonl": {
				MtimeMs: 1000, Size: 50, ParsedBytes: 50,
				Records: []CachedRecord{{Provider: "claude", Model: "claude-sonnet-4-5", Date: "2026-08-01", InputTokens: 10}},
			},
		},
	}
	data, err := json.Marshal(stale)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	c := Load(path)
	if len(c.Files) != 0 {
		t.Fatalf("stale-version cache must load empty, got %d entries", len(c.Files))
	}
	if HasWarmCache(path) {
		t.Error("HasWarmCache must be false for a stale-version file")
	}
}

func TestIsUnchanged(t *testing.T) {
	c := Load(tempCachePath(t))
	c.Update("/logs/a.jsonl", 1000, 5000, 5000, nil)

	if !c.IsUnchanged("/logs/a.jsonl", 1000, 5000) {
		t.Error("matching mtime+size should be unchanged")
	}
	if c.IsUnchanged("/logs/a.jsonl", 1001, 5000) {
		t.Error("different mtime should not be unchanged")
	}
	if c.IsUnchanged("/logs/a.jsonl", 1000, 6000) {
		t.Error("different size should not be unchanged")
	}
	if c.IsUnchanged("/logs/b.jsonl", 1000, 5000) {
		t.Error("unknown path should not be unchanged")
	}
}

func TestResumeOffset(t *testing.T) {
	c := Load(tempCachePath(t))
	c.Update("/logs/a.jsonl", 1000, 5000, 3000, nil)

	if got := c.ResumeOffset("/logs/a.jsonl", 1000); got != 3000 {
		t.Errorf("same mtime: offset = %d, want 3000", got)
	}
	if got := c.ResumeOffset("/logs/a.jsonl", 1001); got != 0 {
		t.Errorf("changed mtime: offset = %d, want 0", got)
	}
	if got := c.ResumeOffset("/logs/b.jsonl", 1000); got != 0 {
		t.Errorf("unknown path: offset = %d, want 0", got)
	}
}

func TestSave_Roundtrip(t *testing.T) {
	path := tempCachePath(t)

	c := Load(path)
	c.Update("/logs/a.jsonl", 1000, 5000, 3000, []CachedRecord{
		{Provider: "codex", Model: "gpt-5.3-codex", Date: "2026-08-29", InputTokens: 300, OutputTokens: 50},
	})
	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := Load(path)
	if !loaded.IsUnchanged("/logs/a.jsonl", 1000, 5000) {
		t.Error("entry lost across save/load")
	}
	recs := loaded.Records("/logs/a.jsonl")
	if len(recs) != 1 || recs[0].Model != "gpt-5.3-codex" || recs[0].InputTokens != 300 {
		t.Errorf("records lost across save/load: %+v", recs)
	}
	if !HasWarmCache(path) {
		t.Error("HasWarmCache should be true after saving a non-empty cache")
	}
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cost-cache.json")

	c := Load(path)
	c.Update("/logs/a.jsonl", 1, 2, 2, nil)
	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "cost-cache.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("unexpected directory contents after save: %v", names)
	}
}

func TestHasWarmCache_EmptyCache(t *testing.T) {
	path := tempCachePath(t)
	c := Load(path)
	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if HasWarmCache(path) {
		t.Error("an empty persisted cache is not warm")
	}
}

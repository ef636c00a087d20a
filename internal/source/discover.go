package source

import (
	"os"
	"path/filepath"
)

// ClaudeRoots returns the directories that may hold Claude Code session data:
// the home default, the CLAUDE_CONFIG_DIR override, and the XDG config
// location. Roots that don't exist are skipped during discovery.
func ClaudeRoots() []string {
	var roots []string
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, filepath.Join(home, ".claude"))
	}
	if dir := os.Getenv("CLAUDE_CONFIG_DIR"); dir != "" {
		roots = append(roots, dir)
	}
	if cfg, err := os.UserConfigDir(); err == nil {
		roots = append(roots, filepath.Join(cfg, "claude"))
	}
	return roots
}

// DiscoverClaudeFiles finds session files under each root's projects tree.
// The layout has exactly two shapes:
//
//	projects/<project>/*.jsonl
//	projects/<project>/<session>/subagents/*.jsonl
//
// Unreadable directories are skipped silently; discovery never fails.
func DiscoverClaudeFiles(roots []string) []string {
	var files []string
	for _, root := range roots {
		projectsDir := filepath.Join(root, "projects")
		projects, err := os.ReadDir(projectsDir)
		if err != nil {
			continue
		}
		for _, p := range projects {
			if !p.IsDir() {
				continue
			}
			projectDir := filepath.Join(projectsDir, p.Name())
			entries, err := os.ReadDir(projectDir)
			if err != nil {
				continue
			}
			for _, e := range entries {
				if !e.IsDir() {
					if filepath.Ext(e.Name()) == ".jsonl" {
						files = append(files, filepath.Join(projectDir, e.Name()))
					}
					continue
				}
				subagentsDir := filepath.Join(projectDir, e.Name(), "subagents")
				subs, err := os.ReadDir(subagentsDir)
				if err != nil {
					continue
				}
				for _, s := range subs {
					if !s.IsDir() && filepath.Ext(s.Name()) == ".jsonl" {
						files = append(files, filepath.Join(subagentsDir, s.Name()))
					}
				}
			}
		}
	}
	return files
}

// CodexRoots returns the directories that may hold Codex rollout files: the
// CODEX_HOME override plus the active and archived session trees.
func CodexRoots() []string {
	var roots []string
	if dir := os.Getenv("CODEX_HOME"); dir != "" {
		roots = append(roots, filepath.Join(dir, "sessions"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, filepath.Join(home, ".codex", "sessions"))
		roots = append(roots, filepath.Join(home, ".codex", "archived_sessions"))
	}
	return roots
}

// codexScanDepth bounds the recursive walk: YYYY/MM/DD partitioning plus the
// files themselves.
const codexScanDepth = 4

// DiscoverCodexFiles recursively collects rollout files under each root,
// bounded to the date-partitioned tree depth.
func DiscoverCodexFiles(roots []string) []string {
	var files []string
	for _, root := range roots {
		collectJSONL(root, codexScanDepth, &files)
	}
	return files
}

func collectJSONL(dir string, maxDepth int, files *[]string) {
	if maxDepth == 0 {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if e.IsDir() {
			collectJSONL(path, maxDepth-1, files)
			continue
		}
		if filepath.Ext(e.Name()) == ".jsonl" {
			*files = append(*files, path)
		}
	}
}

package pipeline

import (
	"os"
	"time"

	"github.com/j0nl1/aitracker/internal/model"
	"github.com/j0nl1/aitracker/internal/provider"
	"github.com/j0nl1/aitracker/internal/source"
	"github.com/j0nl1/aitracker/internal/store"
)

// ProgressFunc reports scan progress: which layout is being processed and how
// many of its files have been handled so far.
type ProgressFunc func(p provider.ID, current, total int)

// ScanStats counts what a scan actually did, mostly for progress output and
// tests. CacheHits are files served entirely from cache; Reparsed are files
// that were read (fully or from a resume offset); Skipped are files whose read
// failed this run.
type ScanStats struct {
	Files     int
	CacheHits int
	Reparsed  int
	Skipped   int
}

// Scanner runs the cost scan. The zero value is not usable; NewScanner wires
// the default layouts and cache location. Fields may be overridden before the
// first Scan call. A Scanner is strictly sequential and not safe for
// concurrent use.
type Scanner struct {
	CachePath string
	Layouts   []source.Layout
	Progress  ProgressFunc

	// Stats describes the most recent Scan call.
	Stats ScanStats
}

// NewScanner returns a scanner over the default layouts, caching at the
// XDG cache location.
func NewScanner() *Scanner {
	return &Scanner{
		CachePath: store.DefaultPath(),
		Layouts:   source.Layouts(),
	}
}

// Scan refreshes the cache against every discovered log file and returns the
// cost summary per provider for the trailing window of the given number of
// days. It never fails: unreadable files and directories contribute nothing
// this run and are retried on the next one, and a cache persist failure is
// ignored.
func (s *Scanner) Scan(days int) map[provider.ID]model.CostSummary {
	s.Stats = ScanStats{}

	cache := store.Load(s.CachePath)
	now := time.Now().UTC()
	today := now.Format("2006-01-02")
	cutoff := now.AddDate(0, 0, -days).Format("2006-01-02")

	var all []source.Record
	for _, layout := range s.Layouts {
		files := layout.Discover()
		for i, path := range files {
			all = append(all, s.refreshFile(cache, layout, path)...)
			if s.Progress != nil {
				s.Progress(layout.Provider, i+1, len(files))
			}
		}
		s.Stats.Files += len(files)
	}

	byProvider := make(map[provider.ID][]source.Record)
	for _, r := range all {
		if r.Date >= cutoff {
			byProvider[r.Provider] = append(byProvider[r.Provider], r)
		}
	}

	summaries := make(map[provider.ID]model.CostSummary, len(byProvider))
	for p, records := range byProvider {
		summaries[p] = BuildSummary(records, days, today)
	}

	_ = cache.Save()
	return summaries
}

// refreshFile brings one file's cache entry up to date and returns its
// complete record set. On any read error the prior entry is left untouched so
// the file is naturally retried next scan.
func (s *Scanner) refreshFile(cache *store.CostCache, layout source.Layout, path string) []source.Record {
	info, err := os.Stat(path)
	if err != nil {
		s.Stats.Skipped++
		return nil
	}
	mtimeMs := info.ModTime().UnixMilli()
	size := info.Size()

	if cache.IsUnchanged(path, mtimeMs, size) {
		if cached := cache.Records(path); len(cached) > 0 {
			s.Stats.CacheHits++
			return fromCached(cached)
		}
		// An unchanged entry with no records means the previous parse
		// produced nothing; treat it as stale rather than trusting it.
	}

	offset := cache.ResumeOffset(path, mtimeMs)
	tail, parsedBytes, err := layout.Parse(path, offset)
	if err != nil {
		s.Stats.Skipped++
		return nil
	}
	s.Stats.Reparsed++

	var carried []source.Record
	if offset > 0 {
		carried = fromCached(cache.Records(path))
	}
	merged := mergeRecords(carried, tail, layout.Cumulative)

	cache.Update(path, mtimeMs, size, parsedBytes, toCached(merged))
	return merged
}

// mergeRecords combines records carried forward from the cache with the newly
// parsed tail. For cumulative layouts the counters are running totals, so a
// tail record supersedes the carried one for the same provider and model;
// summing them would double-count.
func mergeRecords(carried, tail []source.Record, cumulative bool) []source.Record {
	if len(carried) == 0 {
		return tail
	}
	if !cumulative {
		return append(carried, tail...)
	}

	type modelKey struct {
		provider provider.ID
		model    string
	}
	merged := make([]source.Record, 0, len(carried)+len(tail))
	index := make(map[modelKey]int, len(carried))
	for _, r := range carried {
		index[modelKey{r.Provider, r.Model}] = len(merged)
		merged = append(merged, r)
	}
	for _, r := range tail {
		key := modelKey{r.Provider, r.Model}
		if i, ok := index[key]; ok {
			merged[i] = r
		} else {
			index[key] = len(merged)
			merged = append(merged, r)
		}
	}
	return merged
}

func toCached(records []source.Record) []store.CachedRecord {
	cached := make([]store.CachedRecord, 0, len(records))
	for _, r := range records {
		cached = append(cached, store.CachedRecord{
			Provider:            string(r.Provider),
			Model:               r.Model,
			Date:                r.Date,
			InputTokens:         r.InputTokens,
			OutputTokens:        r.OutputTokens,
			CacheReadTokens:     r.CacheReadTokens,
			CacheCreationTokens: r.CacheCreationTokens,
		})
	}
	return cached
}

// fromCached converts serialized records back, dropping any whose provider id
// or date no longer parses (possible after a hand-edited cache file).
func fromCached(cached []store.CachedRecord) []source.Record {
	records := make([]source.Record, 0, len(cached))
	for _, c := range cached {
		p, ok := provider.FromID(c.Provider)
		if !ok {
			continue
		}
		if _, err := time.Parse("2006-01-02", c.Date); err != nil {
			continue
		}
		records = append(records, source.Record{
			Provider:            p,
			Model:               c.Model,
			Date:                c.Date,
			InputTokens:         c.InputTokens,
			OutputTokens:        c.OutputTokens,
			CacheReadTokens:     c.CacheReadTokens,
			CacheCreationTokens: c.CacheCreationTokens,
		})
	}
	return records
}

// Scan runs a one-shot scan with the default layouts and cache.
func Scan(days int) map[provider.ID]model.CostSummary {
	return NewScanner().Scan(days)
}

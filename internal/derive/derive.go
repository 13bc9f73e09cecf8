// Package derive holds the pure view pipeline: no I/O, no mutation of inputs.
// Everything here is a deterministic function of (collection, filter state).
package derive

import (
	"sort"
	"strings"

	"adminsum/internal/core"
)

const (
	// Uncategorized is the presentation label substituted for records
	// without a category. Storage keeps the category empty.
	Uncategorized = "Tak Berkategori"

	// CategoryAll disables category filtering.
	CategoryAll = "all"
)

// Summary are the aggregate statistics over a (filtered) collection.
type Summary struct {
	Sum     float64 `json:"totalSum"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
	Highest float64 `json:"highest"`
}

func categoryOf(r core.Record) string {
	if r.Category == "" {
		return Uncategorized
	}
	return r.Category
}

// Categories returns the distinct category labels over the full collection,
// sorted lexicographically. It must be fed the unfiltered collection so the
// option set stays stable while filters are active.
func Categories(records []core.Record) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range records {
		c := categoryOf(r)
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Filtered narrows by exact category match (unless CategoryAll), then by
// case-insensitive substring match of term against Name. A blank term
// matches everything. The two filters commute; input order is preserved.
func Filtered(records []core.Record, category, term string) []core.Record {
	out := records
	if category != CategoryAll {
		narrowed := make([]core.Record, 0, len(out))
		for _, r := range out {
			if categoryOf(r) == category {
				narrowed = append(narrowed, r)
			}
		}
		out = narrowed
	}
	if t := strings.TrimSpace(term); t != "" {
		lower := strings.ToLower(t)
		narrowed := make([]core.Record, 0, len(out))
		for _, r := range out {
			if strings.Contains(strings.ToLower(r.Name), lower) {
				narrowed = append(narrowed, r)
			}
		}
		out = narrowed
	}
	return out
}

// Stats computes the summary over an already filtered collection. The empty
// collection yields all zeroes, never NaN.
func Stats(records []core.Record) Summary {
	if len(records) == 0 {
		return Summary{}
	}
	sum := 0.0
	highest := records[0].Value
	for _, r := range records {
		sum += r.Value
		if r.Value > highest {
			highest = r.Value
		}
	}
	return Summary{
		Sum:     sum,
		Count:   len(records),
		Average: sum / float64(len(records)),
		Highest: highest,
	}
}

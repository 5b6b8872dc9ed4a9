// Package query applies filters, ordering, pagination and time-bucketing
// over reconciled view snapshots. Everything here is a pure function over a
// slice; the cache owns the data, handlers own the HTTP shape.
package query

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"juristrack/internal/process/models"
)

// Criteria holds equality filters; empty fields match everything. Multiple
// set fields are AND-combined.
type Criteria struct {
	Number   string
	Court    string
	Category string
}

// Filter returns the rows matching all set criteria.
func Filter(rows []models.ReconciledRow, c Criteria) []models.ReconciledRow {
	out := make([]models.ReconciledRow, 0, len(rows))
	for _, r := range rows {
		if c.Number != "" && r.Number != c.Number {
			continue
		}
		if c.Court != "" && !strEq(r.Court, c.Court) {
			continue
		}
		if c.Category != "" && !strEq(r.Category, c.Category) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func strEq(v *string, want string) bool {
	return v != nil && *v == want
}

// SortRows orders rows by process number ascending. The builder guarantees
// no ordering, so every response path sorts for determinism.
func SortRows(rows []models.ReconciledRow) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Number < rows[j].Number })
}

// Page bounds a result window.
type Page struct {
	Limit  int
	Offset int
}

// ParsePage parses limit/offset query parameters. Non-numeric input falls
// back to the defaults rather than failing the request; the limit is clamped
// to [1, maxLimit] and the offset to >= 0.
func ParsePage(limitStr, offsetStr string, defaultLimit, maxLimit int) Page {
	limit, offset := defaultLimit, 0
	if limitStr != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(limitStr)); err == nil {
			limit = n
		}
	}
	if offsetStr != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(offsetStr)); err == nil {
			offset = n
		}
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}

// Paginate slices rows to the page window and reports the total count before
// pagination.
func Paginate(rows []models.ReconciledRow, p Page) ([]models.ReconciledRow, int) {
	total := len(rows)
	if p.Offset >= total {
		return []models.ReconciledRow{}, total
	}
	end := p.Offset + p.Limit
	if end > total {
		end = total
	}
	return rows[p.Offset:end], total
}

// Bucket names for update recency, oldest last.
const (
	BucketLast24h  = "last_24h"
	BucketLast7d   = "last_7_days"
	BucketLast30d  = "last_30_days"
	BucketLast365d = "last_365_days"
	BucketOlder    = "older"
)

// BucketNames lists buckets in display order.
func BucketNames() []string {
	return []string{BucketLast24h, BucketLast7d, BucketLast30d, BucketLast365d, BucketOlder}
}

// Bucketize classifies each row by the age of its last update relative to
// now. A row with an absent or unparsable timestamp lands in "older" rather
// than failing the request.
func Bucketize(rows []models.ReconciledRow, now time.Time) map[string][]models.ReconciledRow {
	out := map[string][]models.ReconciledRow{
		BucketLast24h:  {},
		BucketLast7d:   {},
		BucketLast30d:  {},
		BucketLast365d: {},
		BucketOlder:    {},
	}
	for _, r := range rows {
		bucket := bucketFor(r.LastUpdatedAt, now)
		out[bucket] = append(out[bucket], r)
	}
	return out
}

func bucketFor(stamp *string, now time.Time) string {
	if stamp == nil {
		return BucketOlder
	}
	t, ok := ParseTimestamp(*stamp)
	if !ok {
		return BucketOlder
	}
	age := now.Sub(t)
	switch {
	case age <= 24*time.Hour:
		return BucketLast24h
	case age <= 7*24*time.Hour:
		return BucketLast7d
	case age <= 30*24*time.Hour:
		return BucketLast30d
	case age <= 365*24*time.Hour:
		return BucketLast365d
	default:
		return BucketOlder
	}
}

// timestampLayouts are the shapes the jurisdiction APIs actually emit.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp tries the known source formats.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Summary aggregates a row set for the overview endpoint.
type Summary struct {
	Total            int            `json:"total"`
	WithMovement     int            `json:"with_movement"`
	WithoutMovement  int            `json:"without_movement"`
	PerCategory      map[string]int `json:"per_category"`
	PerCourt         map[string]int `json:"per_court"`
	Uncategorized    int            `json:"uncategorized"`
	DistinctCourts   int            `json:"distinct_courts"`
	DistinctCategory int            `json:"distinct_categories"`
}

// Summarize computes totals and per-category/per-court counts.
func Summarize(rows []models.ReconciledRow) Summary {
	s := Summary{
		Total:       len(rows),
		PerCategory: map[string]int{},
		PerCourt:    map[string]int{},
	}
	for _, r := range rows {
		if r.LatestMovement != nil {
			s.WithMovement++
		} else {
			s.WithoutMovement++
		}
		if r.Category != nil {
			s.PerCategory[*r.Category]++
		} else {
			s.Uncategorized++
		}
		if r.Court != nil {
			s.PerCourt[*r.Court]++
		}
	}
	s.DistinctCourts = len(s.PerCourt)
	s.DistinctCategory = len(s.PerCategory)
	return s
}

// Categories lists distinct categories present in the rows, sorted.
func Categories(rows []models.ReconciledRow) []string {
	seen := map[string]bool{}
	for _, r := range rows {
		if r.Category != nil {
			seen[*r.Category] = true
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

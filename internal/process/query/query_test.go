package query

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"juristrack/internal/process/models"
)

func str(v string) *string { return &v }

func row(number, court, category string) models.ReconciledRow {
	r := models.ReconciledRow{Number: number}
	if court != "" {
		r.Court = str(court)
	}
	if category != "" {
		r.Category = str(category)
	}
	return r
}

func TestFilter(t *testing.T) {
	rows := []models.ReconciledRow{
		row("111", "TJRJ", "Fumicultores"),
		row("222", "TJRJ", "Servidores"),
		row("333", "TJSP", "Fumicultores"),
		row("444", "", ""),
	}

	t.Run("single criterion", func(t *testing.T) {
		got := Filter(rows, Criteria{Court: "TJRJ"})
		assert.Len(t, got, 2)
	})

	t.Run("criteria are AND-combined", func(t *testing.T) {
		got := Filter(rows, Criteria{Court: "TJRJ", Category: "Fumicultores"})
		require.Len(t, got, 1)
		assert.Equal(t, "111", got[0].Number)
	})

	t.Run("nil fields never match a set criterion", func(t *testing.T) {
		got := Filter(rows, Criteria{Category: "Fumicultores"})
		assert.Len(t, got, 2)
	})

	t.Run("empty criteria match everything", func(t *testing.T) {
		assert.Len(t, Filter(rows, Criteria{}), 4)
	})
}

func TestSortRows(t *testing.T) {
	rows := []models.ReconciledRow{row("333", "", ""), row("111", "", ""), row("222", "", "")}
	SortRows(rows)
	assert.Equal(t, "111", rows[0].Number)
	assert.Equal(t, "222", rows[1].Number)
	assert.Equal(t, "333", rows[2].Number)
}

func TestParsePage(t *testing.T) {
	t.Run("valid input", func(t *testing.T) {
		p := ParsePage("10", "5", 100, 1000)
		assert.Equal(t, Page{Limit: 10, Offset: 5}, p)
	})

	t.Run("non-numeric falls back to defaults", func(t *testing.T) {
		p := ParsePage("abc", "xyz", 100, 1000)
		assert.Equal(t, Page{Limit: 100, Offset: 0}, p)
	})

	t.Run("limit clamps to the configured maximum", func(t *testing.T) {
		p := ParsePage("99999", "0", 100, 1000)
		assert.Equal(t, 1000, p.Limit)
	})

	t.Run("negative values sanitize", func(t *testing.T) {
		p := ParsePage("-1", "-5", 100, 1000)
		assert.Equal(t, Page{Limit: 100, Offset: 0}, p)
	})

	t.Run("missing input uses defaults", func(t *testing.T) {
		p := ParsePage("", "", 100, 1000)
		assert.Equal(t, Page{Limit: 100, Offset: 0}, p)
	})
}

func TestPaginate(t *testing.T) {
	var rows []models.ReconciledRow
	for i := 1; i <= 20; i++ {
		rows = append(rows, row(fmt.Sprintf("%02d", i), "", ""))
	}

	t.Run("limit 10 offset 5 returns rows 6-15 of 20", func(t *testing.T) {
		page, total := Paginate(rows, Page{Limit: 10, Offset: 5})
		assert.Equal(t, 20, total)
		require.Len(t, page, 10)
		assert.Equal(t, "06", page[0].Number)
		assert.Equal(t, "15", page[9].Number)
	})

	t.Run("offset past the end returns an empty page", func(t *testing.T) {
		page, total := Paginate(rows, Page{Limit: 10, Offset: 50})
		assert.Equal(t, 20, total)
		assert.Empty(t, page)
	})

	t.Run("window truncates at the end", func(t *testing.T) {
		page, _ := Paginate(rows, Page{Limit: 10, Offset: 15})
		assert.Len(t, page, 5)
	})
}

func TestBucketize(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	stamp := func(age time.Duration) *string {
		s := now.Add(-age).Format(time.RFC3339)
		return &s
	}

	rows := []models.ReconciledRow{
		{Number: "a", LastUpdatedAt: stamp(23 * time.Hour)},
		{Number: "b", LastUpdatedAt: stamp(3 * 24 * time.Hour)},
		{Number: "c", LastUpdatedAt: stamp(20 * 24 * time.Hour)},
		{Number: "d", LastUpdatedAt: stamp(200 * 24 * time.Hour)},
		{Number: "e", LastUpdatedAt: stamp(400 * 24 * time.Hour)},
		{Number: "f", LastUpdatedAt: str("not a date")},
		{Number: "g"}, // no timestamp at all
	}

	buckets := Bucketize(rows, now)

	assert.Equal(t, "a", buckets[BucketLast24h][0].Number)
	assert.Equal(t, "b", buckets[BucketLast7d][0].Number)
	assert.Equal(t, "c", buckets[BucketLast30d][0].Number)
	assert.Equal(t, "d", buckets[BucketLast365d][0].Number)

	older := buckets[BucketOlder]
	require.Len(t, older, 3, "400 days old, unparsable and absent all land in older")
}

func TestParseTimestamp(t *testing.T) {
	for _, s := range []string{
		"2024-06-01T10:00:00Z",
		"2024-06-01T10:00:00.123Z",
		"2024-06-01T10:00:00.000",
		"2024-06-01T10:00:00",
		"2024-06-01 10:00:00",
		"2024-06-01",
	} {
		_, ok := ParseTimestamp(s)
		assert.True(t, ok, s)
	}

	_, ok := ParseTimestamp("31/06/2024")
	assert.False(t, ok)
}

func TestSummarize(t *testing.T) {
	withMov := row("111", "TJRJ", "Fumicultores")
	withMov.LatestMovement = str("Sentença")
	rows := []models.ReconciledRow{
		withMov,
		row("222", "TJRJ", ""),
		row("333", "TJSP", "Fumicultores"),
	}

	s := Summarize(rows)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.WithMovement)
	assert.Equal(t, 2, s.WithoutMovement)
	assert.Equal(t, 2, s.PerCategory["Fumicultores"])
	assert.Equal(t, 1, s.Uncategorized)
	assert.Equal(t, 2, s.DistinctCourts)
}

func TestCategories(t *testing.T) {
	rows := []models.ReconciledRow{
		row("111", "", "Servidores"),
		row("222", "", "Fumicultores"),
		row("333", "", "Servidores"),
		row("444", "", ""),
	}
	assert.Equal(t, []string{"Fumicultores", "Servidores"}, Categories(rows))
}

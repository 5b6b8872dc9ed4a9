package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"juristrack/internal/process/models"
)

type StoreSuite struct {
	suite.Suite
	store *Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	st, err := Open(filepath.Join(s.T().TempDir(), "test.db"))
	s.Require().NoError(err)
	s.store = st
}

func (s *StoreSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func str(v string) *string { return &v }
func i64(v int64) *int64   { return &v }

func (s *StoreSuite) processRow(number, court, updatedAt string) models.ProcessRecord {
	return models.ProcessRecord{
		Number:        number,
		Court:         str(court),
		SystemName:    str("PJe"),
		LastUpdatedAt: str(updatedAt),
	}
}

func (s *StoreSuite) TestLatestProcesses() {
	ctx := context.Background()

	s.Run("one row per number with max timestamp", func() {
		s.Require().NoError(s.store.AppendProcesses(ctx, []models.ProcessRecord{
			s.processRow("111", "TJRJ", "2024-01-01T00:00:00Z"),
			s.processRow("111", "TJSP", "2024-06-01T00:00:00Z"),
			s.processRow("222", "TJMG", "2024-03-01T00:00:00Z"),
		}))

		latest, err := s.store.LatestProcesses(ctx)
		s.Require().NoError(err)
		s.Len(latest, 2)

		byNumber := map[string]models.ReconciledRow{}
		for _, r := range latest {
			byNumber[r.Number] = r
		}
		s.Equal("TJSP", *byNumber["111"].Court)
		s.Equal("2024-06-01T00:00:00Z", *byNumber["111"].LastUpdatedAt)
		s.Equal("TJMG", *byNumber["222"].Court)
	})

	s.Run("equal timestamps break toward most recent insert", func() {
		s.Require().NoError(s.store.Clear(ctx))
		s.Require().NoError(s.store.AppendProcesses(ctx, []models.ProcessRecord{
			s.processRow("333", "FIRST", "2024-05-01T00:00:00Z"),
			s.processRow("333", "SECOND", "2024-05-01T00:00:00Z"),
		}))

		latest, err := s.store.LatestProcesses(ctx)
		s.Require().NoError(err)
		s.Require().Len(latest, 1)
		s.Equal("SECOND", *latest[0].Court)
	})
}

func (s *StoreSuite) TestLatestMovements() {
	ctx := context.Background()

	s.Require().NoError(s.store.AppendMovements(ctx, []models.MovementRecord{
		{Number: "111", Name: str("Distribuição"), OccurredAt: str("2024-01-01T10:00:00Z")},
		{Number: "111", Name: str("Sentença"), OccurredAt: str("2024-04-01T10:00:00Z")},
		{Number: "111", Name: str("Sem data")}, // nil timestamp, never the latest
		{Number: "222", Name: str("Sem data")},
	}))

	latest, err := s.store.LatestMovements(ctx)
	s.Require().NoError(err)

	s.Require().Contains(latest, "111")
	s.Equal("Sentença", *latest["111"])
	s.NotContains(latest, "222", "a movement without a timestamp is not a candidate")
}

func (s *StoreSuite) TestUpsertIndexEntry() {
	ctx := context.Background()
	first := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	second := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.UpsertIndexEntry(ctx, "111", "TJRJ", first))
	s.Require().NoError(s.store.UpsertIndexEntry(ctx, "111", "TJSP", second))

	entry, err := s.store.IndexEntry(ctx, "111")
	s.Require().NoError(err)

	s.Equal("TJRJ", entry.FirstCourt, "first court seen is never overwritten")
	s.Equal(first.Format(time.RFC3339), entry.FirstIncludedAt)
	s.Equal(second.Format(time.RFC3339), entry.LastUpdatedAt)

	_, total, err := s.store.IndexEntries(ctx, 10, 0)
	s.Require().NoError(err)
	s.Equal(1, total, "re-ingestion never duplicates the index")
}

func (s *StoreSuite) TestProcessesPagination() {
	ctx := context.Background()

	var recs []models.ProcessRecord
	for i := 0; i < 5; i++ {
		recs = append(recs, s.processRow("111", "TJRJ", "2024-01-01T00:00:00Z"))
	}
	s.Require().NoError(s.store.AppendProcesses(ctx, recs))

	page, total, err := s.store.Processes(ctx, ProcessFilter{}, 2, 1)
	s.Require().NoError(err)
	s.Equal(5, total)
	s.Len(page, 2)

	filtered, total, err := s.store.Processes(ctx, ProcessFilter{Court: "TJSP"}, 10, 0)
	s.Require().NoError(err)
	s.Equal(0, total)
	s.Empty(filtered)
}

func (s *StoreSuite) TestMovementsByProcess() {
	ctx := context.Background()

	s.Require().NoError(s.store.AppendMovements(ctx, []models.MovementRecord{
		{Number: "111", Code: i64(26), Name: str("Distribuição"), OccurredAt: str("2024-01-01T10:00:00Z")},
		{Number: "111", Code: i64(193), Name: str("Sentença"), OccurredAt: str("2024-04-01T10:00:00Z")},
		{Number: "999", Name: str("Outro processo"), OccurredAt: str("2024-02-01T10:00:00Z")},
	}))

	movs, total, err := s.store.MovementsByProcess(ctx, "111", 10, 0)
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Require().Len(movs, 2)
	s.Equal("Sentença", *movs[0].Name, "newest first")
}

func (s *StoreSuite) TestDistinctAndCounts() {
	ctx := context.Background()

	s.Require().NoError(s.store.AppendProcesses(ctx, []models.ProcessRecord{
		s.processRow("111", "TJRJ", "2024-01-01T00:00:00Z"),
		s.processRow("111", "TJRJ", "2024-02-01T00:00:00Z"),
		s.processRow("222", "TJSP", "2024-01-01T00:00:00Z"),
	}))
	s.Require().NoError(s.store.UpsertIndexEntry(ctx, "111", "TJRJ", time.Now()))

	courts, err := s.store.DistinctCourts(ctx)
	s.Require().NoError(err)
	s.Equal([]string{"TJRJ", "TJSP"}, courts)

	numbers, err := s.store.DistinctNumbers(ctx)
	s.Require().NoError(err)
	s.Len(numbers, 2)

	processes, movements, indexed, err := s.store.Counts(ctx)
	s.Require().NoError(err)
	s.Equal(3, processes)
	s.Equal(0, movements)
	s.Equal(1, indexed)
}

func (s *StoreSuite) TestClear() {
	ctx := context.Background()

	s.Require().NoError(s.store.AppendProcesses(ctx, []models.ProcessRecord{
		s.processRow("111", "TJRJ", "2024-01-01T00:00:00Z"),
	}))
	s.Require().NoError(s.store.Clear(ctx))

	processes, movements, indexed, err := s.store.Counts(ctx)
	s.Require().NoError(err)
	s.Zero(processes)
	s.Zero(movements)
	s.Zero(indexed)
}

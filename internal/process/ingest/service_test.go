package ingest

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"juristrack/internal/process/masterlist"
	"juristrack/internal/process/models"
	"juristrack/pkg/procerrors"
)

type fakeClient struct {
	docs  map[string][]models.Document // keyed by court
	errs  map[string]error
	calls []string
}

func (f *fakeClient) Search(ctx context.Context, court, number string) ([]models.Document, error) {
	f.calls = append(f.calls, court)
	if err, ok := f.errs[court]; ok {
		return nil, err
	}
	return f.docs[court], nil
}

type indexUpsert struct {
	Number string
	Court  string
}

type fakeWriter struct {
	procs   []models.ProcessRecord
	movs    []models.MovementRecord
	upserts []indexUpsert
	failPut bool
}

func (f *fakeWriter) AppendProcesses(ctx context.Context, recs []models.ProcessRecord) error {
	if f.failPut {
		return procerrors.New(procerrors.CodeInternal, "disk full").WithTable("processes")
	}
	f.procs = append(f.procs, recs...)
	return nil
}

func (f *fakeWriter) AppendMovements(ctx context.Context, recs []models.MovementRecord) error {
	f.movs = append(f.movs, recs...)
	return nil
}

func (f *fakeWriter) UpsertIndexEntry(ctx context.Context, number, court string, now time.Time) error {
	f.upserts = append(f.upserts, indexUpsert{Number: number, Court: court})
	return nil
}

type fakeInvalidator struct{ n int }

func (f *fakeInvalidator) Invalidate() { f.n++ }

func doc(number, court string, movements int) models.Document {
	d := models.Document{Number: &number, Court: &court}
	for i := 0; i < movements; i++ {
		name := "Movimento"
		d.Movements = append(d.Movements, models.RawMovement{Name: &name})
	}
	return d
}

type RunnerSuite struct {
	suite.Suite
	client *fakeClient
	writer *fakeWriter
	cache  *fakeInvalidator
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerSuite))
}

func (s *RunnerSuite) SetupTest() {
	s.client = &fakeClient{docs: map[string][]models.Document{}, errs: map[string]error{}}
	s.writer = &fakeWriter{}
	s.cache = &fakeInvalidator{}
}

func (s *RunnerSuite) runner() *Runner {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRunner(s.client, s.writer, s.cache, logger, nil, 0)
}

func (s *RunnerSuite) TestTargetedLookupPersistsAndIndexes() {
	s.client.docs["TJRJ"] = []models.Document{doc("04251444420168190001", "TJRJ", 2)}

	res, err := s.runner().Run(context.Background(), NewRunID(), []Item{
		{Number: "04251444420168190001", Court: "TJRJ"},
	})
	s.Require().NoError(err)

	s.Equal(1, res.Found)
	s.Equal(0, res.NotFound)
	s.Equal(0, res.Errors)

	s.Len(s.writer.procs, 1)
	s.Len(s.writer.movs, 2)
	s.Require().Len(s.writer.upserts, 1)
	s.Equal(indexUpsert{Number: "04251444420168190001", Court: "TJRJ"}, s.writer.upserts[0])
	s.Equal(1, s.cache.n, "view cache invalidated after the write")
}

func (s *RunnerSuite) TestZeroHitsLeavesNoIndexEntry() {
	res, err := s.runner().Run(context.Background(), NewRunID(), []Item{
		{Number: "123", Court: "TJSP"},
	})
	s.Require().NoError(err)

	s.Equal(1, res.NotFound)
	s.Empty(s.writer.upserts)
	s.Empty(s.writer.procs)
	s.Equal(0, s.cache.n)
}

func (s *RunnerSuite) TestItemFailureNeverAbortsTheRun() {
	s.client.errs["TJBA"] = procerrors.New(procerrors.CodeLookup, "status 500").WithCourt("TJBA")
	s.client.docs["TJSP"] = []models.Document{doc("111", "TJSP", 0)}

	res, err := s.runner().Run(context.Background(), NewRunID(), []Item{
		{Number: "999", Court: "TJBA"},
		{Number: "111", Court: "TJSP"},
	})
	s.Require().NoError(err)

	s.Equal(2, res.Processed)
	s.Equal(1, res.Errors)
	s.Equal(1, res.Found)
}

func (s *RunnerSuite) TestAllCourtsScanStopsAtFirstHit() {
	s.client.docs["TJMG"] = []models.Document{doc("222", "TJMG", 0)}

	res, err := s.runner().Run(context.Background(), NewRunID(), []Item{{Number: "222"}})
	s.Require().NoError(err)

	s.Equal(1, res.Found)
	s.Require().NotEmpty(s.client.calls)
	s.Equal("TJMG", s.client.calls[len(s.client.calls)-1], "scan ends at the first hit")
	s.Less(len(s.client.calls), len(Codes()))
	s.Require().Len(s.writer.upserts, 1)
	s.Equal("TJMG", s.writer.upserts[0].Court, "index records where the process was found")
}

func (s *RunnerSuite) TestPersistFailureCountsAsError() {
	s.client.docs["TJRJ"] = []models.Document{doc("333", "TJRJ", 0)}
	s.writer.failPut = true

	res, err := s.runner().Run(context.Background(), NewRunID(), []Item{{Number: "333", Court: "TJRJ"}})
	s.Require().NoError(err)

	s.Equal(1, res.Errors)
	s.Empty(s.writer.upserts)
	s.Equal(0, s.cache.n)
}

func (s *RunnerSuite) TestExpiredContextAbortsWithTimeout() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.runner().Run(ctx, NewRunID(), []Item{{Number: "444", Court: "TJRJ"}})
	s.Require().Error(err)
	s.True(procerrors.Is(err, procerrors.CodeTimeout))
	s.Equal(0, res.Processed)
}

func (s *RunnerSuite) TestEventsArriveInOrder() {
	s.client.docs["TJRJ"] = []models.Document{doc("555", "TJRJ", 0)}

	events := make(chan Event, 16)
	r := s.runner()
	r.Subscribe(events)

	_, err := r.Run(context.Background(), NewRunID(), []Item{{Number: "555", Court: "TJRJ"}})
	s.Require().NoError(err)
	close(events)

	var kinds []Event
	for ev := range events {
		kinds = append(kinds, ev)
	}
	s.Require().NotEmpty(kinds)
	s.Equal(EventStarted, kinds[0].Kind)
	s.Equal(EventCompleted, kinds[len(kinds)-1].Kind)

	var item *Event
	for i := range kinds {
		if kinds[i].Kind == EventItem {
			item = &kinds[i]
		}
	}
	s.Require().NotNil(item)
	s.Equal(OutcomeFound, item.Outcome)
	s.Equal("555", item.Number)
	s.NotEmpty(item.RunID)
}

func TestItemsFromSpreadsheet(t *testing.T) {
	list := &masterlist.List{
		Rows: []masterlist.Row{
			{Number: "04251444420168190001", Court: "TJ-RJ"},
			{Number: "123", Court: "TJSP"}, // too short to be canonical
			{Number: "10177991200000000000", Court: "Vara Cível"}, // unresolvable hint
			{Number: "00000000120248260001"},
		},
	}

	items := ItemsFromSpreadsheet(list)
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Court != "TJRJ" {
		t.Errorf("hint not resolved: %q", items[0].Court)
	}
	if items[1].Court != "" {
		t.Errorf("unresolvable hint should degrade to a full scan, got %q", items[1].Court)
	}
	if items[2].Court != "" {
		t.Errorf("missing hint should stay empty, got %q", items[2].Court)
	}
}

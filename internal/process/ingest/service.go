// Package ingest collects process documents from the per-court public
// search APIs and writes them to the store. Runs are sequential and paced to
// respect the public rate limit; a failing item never takes the run down.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"juristrack/internal/platform/metrics"
	"juristrack/internal/process/masterlist"
	"juristrack/internal/process/models"
	"juristrack/internal/process/procnum"
	"juristrack/pkg/procerrors"
	"juristrack/pkg/requestcontext"
)

// JurisdictionClient looks a process number up in one court.
type JurisdictionClient interface {
	Search(ctx context.Context, court, number string) ([]models.Document, error)
}

// Writer is the store surface ingestion needs.
type Writer interface {
	AppendProcesses(ctx context.Context, recs []models.ProcessRecord) error
	AppendMovements(ctx context.Context, recs []models.MovementRecord) error
	UpsertIndexEntry(ctx context.Context, number, court string, now time.Time) error
}

// CacheInvalidator marks the derived view stale after a write.
type CacheInvalidator interface {
	Invalidate()
}

// Item is one unit of work: a canonical process number plus an optional
// canonical court code. An empty court means scan every court until a hit.
type Item struct {
	Number string
	Court  string
}

// Per-item outcomes.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Event kinds, in the order a run emits them.
const (
	EventStarted   = "started"
	EventProgress  = "progress"
	EventItem      = "item"
	EventCompleted = "completed"
)

// Event is one progress notification from a run.
type Event struct {
	RunID     string `json:"run_id"`
	Kind      string `json:"kind"`
	Number    string `json:"process_number,omitempty"`
	Court     string `json:"court,omitempty"`
	Outcome   string `json:"outcome,omitempty"`
	Error     string `json:"error,omitempty"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
}

// Result summarizes a finished (or aborted) run.
type Result struct {
	RunID      string    `json:"run_id"`
	Total      int       `json:"total"`
	Processed  int       `json:"processed"`
	Found      int       `json:"found"`
	NotFound   int       `json:"not_found"`
	Errors     int       `json:"errors"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Runner executes ingestion runs.
type Runner struct {
	client  JurisdictionClient
	store   Writer
	cache   CacheInvalidator
	logger  *slog.Logger
	metrics *metrics.Metrics
	delay   time.Duration

	events chan<- Event
}

// NewRunner wires an ingestion runner. The delay paces consecutive lookups.
func NewRunner(client JurisdictionClient, store Writer, cache CacheInvalidator, logger *slog.Logger, m *metrics.Metrics, delay time.Duration) *Runner {
	return &Runner{
		client:  client,
		store:   store,
		cache:   cache,
		logger:  logger,
		metrics: m,
		delay:   delay,
	}
}

// Subscribe registers an observer channel for run events. Item outcomes and
// the started/completed markers are always delivered; progress ticks are
// dropped when the observer falls behind, so a slow consumer cannot stall a
// run. Call before Run; one observer at a time.
func (r *Runner) Subscribe(ch chan<- Event) {
	r.events = ch
}

// ItemsFromSpreadsheet turns the master list into a worklist. Numbers too
// short to be a canonical identifier are dropped; a court hint that cannot
// be resolved degrades to an all-courts scan instead of discarding the item.
func ItemsFromSpreadsheet(list *masterlist.List) []Item {
	items := make([]Item, 0, len(list.Rows))
	for _, row := range list.Rows {
		if !procnum.IsValid(row.Number) {
			continue
		}
		item := Item{Number: row.Number}
		if code, ok := ResolveCourt(row.Court); ok {
			item.Court = code
		}
		items = append(items, item)
	}
	return items
}

// NewRunID mints an identifier for a run. Minted by the caller so the id can
// be handed out before a background run finishes.
func NewRunID() string {
	return uuid.NewString()
}

// Run processes the items in order. Each item is looked up in its hinted
// court, or across all courts until the first hit; found documents are
// appended to the store and registered in the master index, and the view
// cache is invalidated after every successful write. A per-item failure is
// recorded and the run moves on. Context expiry aborts the run with a
// timeout error and a partial result.
func (r *Runner) Run(ctx context.Context, runID string, items []Item) (*Result, error) {
	res := &Result{
		RunID:     runID,
		Total:     len(items),
		StartedAt: time.Now().UTC(),
	}
	r.logger.InfoContext(ctx, "ingestion run started", "run_id", res.RunID, "items", res.Total)
	r.publish(Event{RunID: res.RunID, Kind: EventStarted, Total: res.Total})

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return r.abort(ctx, res, err)
		}

		outcome, court, err := r.processItem(ctx, item)
		if err != nil && ctx.Err() != nil {
			return r.abort(ctx, res, ctx.Err())
		}

		res.Processed++
		switch outcome {
		case OutcomeFound:
			res.Found++
		case OutcomeNotFound:
			res.NotFound++
		default:
			res.Errors++
		}
		r.metrics.RecordLookup(outcome)

		ev := Event{
			RunID:     res.RunID,
			Kind:      EventItem,
			Number:    item.Number,
			Court:     court,
			Outcome:   outcome,
			Processed: res.Processed,
			Total:     res.Total,
		}
		if err != nil {
			ev.Error = err.Error()
			r.logger.WarnContext(ctx, "ingestion item failed",
				"run_id", res.RunID, "process_number", item.Number, "court", court, "error", err)
		} else {
			r.logger.InfoContext(ctx, "ingestion item done",
				"run_id", res.RunID, "process_number", item.Number, "court", court, "outcome", outcome)
		}
		r.publish(ev)
		r.publish(Event{RunID: res.RunID, Kind: EventProgress, Processed: res.Processed, Total: res.Total})
	}

	res.FinishedAt = time.Now().UTC()
	if r.metrics != nil {
		r.metrics.IngestRunsTotal.WithLabelValues("completed").Inc()
	}
	r.logger.InfoContext(ctx, "ingestion run completed",
		"run_id", res.RunID, "found", res.Found, "not_found", res.NotFound, "errors", res.Errors)
	r.publish(Event{RunID: res.RunID, Kind: EventCompleted, Processed: res.Processed, Total: res.Total})
	return res, nil
}

// processItem looks one number up and persists whatever comes back. The
// returned court is where the process was found, or the last court tried.
func (r *Runner) processItem(ctx context.Context, item Item) (outcome, court string, err error) {
	courts := []string{item.Court}
	if item.Court == "" {
		courts = Codes()
	}

	var lastErr error
	for _, code := range courts {
		court = code
		docs, searchErr := r.client.Search(ctx, code, item.Number)
		if searchErr != nil {
			lastErr = searchErr
			if sleepErr := r.pause(ctx); sleepErr != nil {
				return OutcomeError, court, sleepErr
			}
			continue
		}
		if len(docs) == 0 {
			if sleepErr := r.pause(ctx); sleepErr != nil {
				return OutcomeError, court, sleepErr
			}
			continue
		}
		if persistErr := r.persist(ctx, item.Number, code, docs); persistErr != nil {
			return OutcomeError, court, persistErr
		}
		_ = r.pause(ctx)
		return OutcomeFound, court, nil
	}

	if lastErr != nil {
		return OutcomeError, court, lastErr
	}
	return OutcomeNotFound, court, nil
}

// persist appends the documents' snapshots and movements, then registers the
// number in the master index. The index entry is written last so a crash
// mid-item re-ingests rather than skips.
func (r *Runner) persist(ctx context.Context, number, court string, docs []models.Document) error {
	procs := make([]models.ProcessRecord, 0, len(docs))
	var movs []models.MovementRecord
	for _, doc := range docs {
		procs = append(procs, doc.ProcessRecord())
		movs = append(movs, doc.MovementRecords()...)
	}

	if err := r.store.AppendProcesses(ctx, procs); err != nil {
		return err
	}
	if err := r.store.AppendMovements(ctx, movs); err != nil {
		return err
	}
	if err := r.store.UpsertIndexEntry(ctx, number, court, requestcontext.Now(ctx)); err != nil {
		return err
	}

	if r.metrics != nil {
		r.metrics.ProcessesIngested.Add(float64(len(procs)))
		r.metrics.MovementsIngested.Add(float64(len(movs)))
	}
	r.cache.Invalidate()
	return nil
}

func (r *Runner) abort(ctx context.Context, res *Result, cause error) (*Result, error) {
	res.FinishedAt = time.Now().UTC()
	if r.metrics != nil {
		r.metrics.IngestRunsTotal.WithLabelValues("timeout").Inc()
	}
	r.logger.WarnContext(ctx, "ingestion run aborted",
		"run_id", res.RunID, "processed", res.Processed, "total", res.Total, "error", cause)
	r.publish(Event{RunID: res.RunID, Kind: EventCompleted, Processed: res.Processed, Total: res.Total, Error: cause.Error()})
	return res, procerrors.Wrap(cause, procerrors.CodeTimeout, "ingestion run aborted")
}

// pause waits the inter-call delay, returning early when the context ends.
func (r *Runner) pause(ctx context.Context) error {
	if r.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(r.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// publish sends an event to the observer, if any. Progress ticks are
// best-effort; everything else blocks until delivered.
func (r *Runner) publish(ev Event) {
	if r.events == nil {
		return
	}
	if ev.Kind == EventProgress {
		select {
		case r.events <- ev:
		default:
		}
		return
	}
	r.events <- ev
}

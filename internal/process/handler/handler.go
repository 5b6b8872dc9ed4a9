// Package handler exposes the tracking service over HTTP. Handlers stay
// thin: parse, delegate, write. All business rules live in the store, the
// reconcile cache and the ingestion runner.
package handler

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"juristrack/internal/process/ingest"
	"juristrack/internal/process/masterlist"
	"juristrack/internal/process/models"
	"juristrack/internal/process/procnum"
	"juristrack/internal/process/query"
	"juristrack/internal/process/reconcile"
	"juristrack/internal/process/store"
	"juristrack/pkg/platform/httputil"
	"juristrack/pkg/procerrors"
	"juristrack/pkg/requestcontext"
)

// Store is the persistence surface the handlers read from.
type Store interface {
	Processes(ctx context.Context, f store.ProcessFilter, limit, offset int) ([]models.ProcessRecord, int, error)
	ProcessHistory(ctx context.Context, number string) ([]models.ProcessRecord, error)
	MovementsByProcess(ctx context.Context, number string, limit, offset int) ([]models.MovementRecord, int, error)
	IndexEntries(ctx context.Context, limit, offset int) ([]models.IndexEntry, int, error)
	IndexEntry(ctx context.Context, number string) (models.IndexEntry, error)
	DistinctCourts(ctx context.Context) ([]string, error)
	Counts(ctx context.Context) (processes, movements, indexed int, err error)
	Clear(ctx context.Context) error
}

// ViewCache serves reconciled snapshots.
type ViewCache interface {
	View(ctx context.Context) (*reconcile.View, error)
	ForceRebuild(ctx context.Context) (*reconcile.View, error)
	Invalidate()
}

// Ingestor starts collection runs.
type Ingestor interface {
	Run(ctx context.Context, runID string, items []ingest.Item) (*ingest.Result, error)
}

// Handler wires the HTTP routes to their collaborators.
type Handler struct {
	store    Store
	cache    ViewCache
	ingestor Ingestor
	logger   *slog.Logger

	spreadsheetPath string
	runTimeout      time.Duration
	defaultLimit    int
	maxLimit        int
}

// Config carries the handler's tunables.
type Config struct {
	SpreadsheetPath  string
	RunTimeout       time.Duration
	DefaultPageLimit int
	MaxPageLimit     int
}

func New(st Store, cache ViewCache, ingestor Ingestor, logger *slog.Logger, cfg Config) *Handler {
	return &Handler{
		store:           st,
		cache:           cache,
		ingestor:        ingestor,
		logger:          logger,
		spreadsheetPath: cfg.SpreadsheetPath,
		runTimeout:      cfg.RunTimeout,
		defaultLimit:    cfg.DefaultPageLimit,
		maxLimit:        cfg.MaxPageLimit,
	}
}

// Register mounts all routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.health)

	r.Get("/processes", h.listProcesses)
	r.Get("/processes/{number}", h.processHistory)
	r.Get("/processes/{number}/movements", h.processMovements)
	r.Get("/process-index", h.processIndex)
	r.Get("/process-index/{number}", h.indexEntry)

	r.Get("/view", h.view)
	r.Get("/view/summary", h.viewSummary)
	r.Get("/updates", h.updates)
	r.Get("/courts", h.courts)
	r.Get("/categories", h.categories)

	r.Post("/ingest", h.startIngest)
	r.Post("/cache/invalidate", h.invalidateCache)
	r.Post("/cache/rebuild", h.rebuildCache)
	r.Post("/database/clear", h.clearDatabase)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	processes, movements, indexed, err := h.store.Counts(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"processes": processes,
		"movements": movements,
		"indexed":   indexed,
	})
}

func (h *Handler) listProcesses(w http.ResponseWriter, r *http.Request) {
	page := h.page(r)
	f := store.ProcessFilter{
		Number: procnum.Normalize(r.URL.Query().Get("number")),
		Court:  r.URL.Query().Get("court"),
	}

	recs, total, err := h.store.Processes(r.Context(), f, page.Limit, page.Offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pagedResponse(recs, total, page))
}

func (h *Handler) processHistory(w http.ResponseWriter, r *http.Request) {
	number := procnum.Normalize(chi.URLParam(r, "number"))
	if number == "" {
		httputil.WriteError(w, procerrors.New(procerrors.CodeBadRequest, "process number is required"))
		return
	}

	recs, err := h.store.ProcessHistory(r.Context(), number)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if len(recs) == 0 {
		httputil.WriteError(w, procerrors.Newf(procerrors.CodeNotFound, "process %s not found", number))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"process_number": number,
		"snapshots":      recs,
	})
}

func (h *Handler) processMovements(w http.ResponseWriter, r *http.Request) {
	number := procnum.Normalize(chi.URLParam(r, "number"))
	if number == "" {
		httputil.WriteError(w, procerrors.New(procerrors.CodeBadRequest, "process number is required"))
		return
	}
	page := h.page(r)

	recs, total, err := h.store.MovementsByProcess(r.Context(), number, page.Limit, page.Offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pagedResponse(recs, total, page))
}

func (h *Handler) processIndex(w http.ResponseWriter, r *http.Request) {
	page := h.page(r)
	entries, total, err := h.store.IndexEntries(r.Context(), page.Limit, page.Offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pagedResponse(entries, total, page))
}

func (h *Handler) indexEntry(w http.ResponseWriter, r *http.Request) {
	number := procnum.Normalize(chi.URLParam(r, "number"))
	if number == "" {
		httputil.WriteError(w, procerrors.New(procerrors.CodeBadRequest, "process number is required"))
		return
	}

	entry, err := h.store.IndexEntry(r.Context(), number)
	if errors.Is(err, sql.ErrNoRows) {
		httputil.WriteError(w, procerrors.Newf(procerrors.CodeNotFound, "process %s is not indexed", number))
		return
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entry)
}

// view serves the reconciled snapshot with optional equality filters and
// pagination. Rows are sorted by process number so pages are stable across
// requests against the same snapshot.
func (h *Handler) view(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.cache.View(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rows := query.Filter(snapshot.Rows, h.criteria(r))
	query.SortRows(rows)
	page := h.page(r)
	paged, total := query.Paginate(rows, page)

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"built_at": snapshot.BuiltAt,
		"total":    total,
		"limit":    page.Limit,
		"offset":   page.Offset,
		"rows":     paged,
	})
}

func (h *Handler) viewSummary(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.cache.View(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rows := query.Filter(snapshot.Rows, h.criteria(r))
	httputil.WriteJSON(w, http.StatusOK, query.Summarize(rows))
}

// updates groups the view rows into recency buckets relative to now.
func (h *Handler) updates(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.cache.View(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rows := query.Filter(snapshot.Rows, h.criteria(r))
	buckets := query.Bucketize(rows, requestcontext.Now(r.Context()))
	for _, rows := range buckets {
		query.SortRows(rows)
	}

	counts := make(map[string]int, len(buckets))
	for name, rows := range buckets {
		counts[name] = len(rows)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"order":   query.BucketNames(),
		"counts":  counts,
		"buckets": buckets,
	})
}

func (h *Handler) courts(w http.ResponseWriter, r *http.Request) {
	present, err := h.store.DistinctCourts(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"supported": ingest.Codes(),
		"present":   present,
	})
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.cache.View(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"categories": query.Categories(snapshot.Rows),
	})
}

// startIngest loads the master list, answers immediately with a run id and
// executes the run in the background. The run gets its own context so it
// outlives the request; the run timeout bounds it instead.
func (h *Handler) startIngest(w http.ResponseWriter, r *http.Request) {
	list, err := masterlist.Load(h.spreadsheetPath)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	items := ingest.ItemsFromSpreadsheet(list)
	if len(items) == 0 {
		httputil.WriteError(w, procerrors.New(procerrors.CodeSourceFormat, "master list has no ingestable rows").WithPath(h.spreadsheetPath))
		return
	}

	runID := ingest.NewRunID()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.runTimeout)
		defer cancel()
		if _, err := h.ingestor.Run(ctx, runID, items); err != nil {
			h.logger.Error("background ingestion failed", "run_id", runID, "error", err)
		}
	}()

	httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
		"run_id": runID,
		"items":  len(items),
		"status": "started",
	})
}

func (h *Handler) invalidateCache(w http.ResponseWriter, r *http.Request) {
	h.cache.Invalidate()
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "invalidated"})
}

func (h *Handler) rebuildCache(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.cache.ForceRebuild(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":   "rebuilt",
		"built_at": snapshot.BuiltAt,
		"rows":     len(snapshot.Rows),
	})
}

// clearDatabase wipes all three tables and marks the view stale. Exists for
// full-refresh workflows where the master list changed wholesale.
func (h *Handler) clearDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.cache.Invalidate()
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *Handler) page(r *http.Request) query.Page {
	q := r.URL.Query()
	return query.ParsePage(q.Get("limit"), q.Get("offset"), h.defaultLimit, h.maxLimit)
}

func (h *Handler) criteria(r *http.Request) query.Criteria {
	q := r.URL.Query()
	c := query.Criteria{
		Court:    q.Get("court"),
		Category: q.Get("category"),
	}
	if number := q.Get("number"); number != "" {
		c.Number = procnum.Normalize(number)
	}
	return c
}

func pagedResponse[T any](items []T, total int, page query.Page) map[string]any {
	if items == nil {
		items = []T{}
	}
	return map[string]any{
		"total":  total,
		"limit":  page.Limit,
		"offset": page.Offset,
		"items":  items,
	}
}

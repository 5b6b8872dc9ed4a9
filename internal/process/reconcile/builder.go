// Package reconcile builds the denormalized per-process view and caches it.
// The view merges three sources: the append-only process history (collapsed
// to the latest snapshot per number), the master spreadsheet's categories,
// and each process's latest dated movement.
package reconcile

import (
	"context"
	"errors"
	"time"

	"juristrack/internal/process/masterlist"
	"juristrack/internal/process/models"
	"juristrack/internal/process/procnum"
	"juristrack/pkg/procerrors"
)

// View is an immutable reconciled snapshot. Once published it is only ever
// replaced, never mutated, so concurrent readers need no lock to consume it.
type View struct {
	Rows    []models.ReconciledRow
	BuiltAt time.Time
}

// ProcessSource is the store surface the builder reads from.
type ProcessSource interface {
	LatestProcesses(ctx context.Context) ([]models.ReconciledRow, error)
	LatestMovements(ctx context.Context) (map[string]*string, error)
}

// Builder produces a View from current store and spreadsheet state.
type Builder struct {
	source          ProcessSource
	spreadsheetPath string
}

func NewBuilder(source ProcessSource, spreadsheetPath string) *Builder {
	return &Builder{source: source, spreadsheetPath: spreadsheetPath}
}

// Build assembles the view. Exactly one row comes out per distinct process
// number in the store, however many historical rows or movements exist.
// Unmatched categories and movements stay nil. Row order is whatever the
// store produced; ordering is the query layer's concern.
func (b *Builder) Build(ctx context.Context) (*View, error) {
	list, err := masterlist.Load(b.spreadsheetPath)
	if err != nil {
		return nil, err
	}
	categories, err := list.Categories()
	if err != nil {
		return nil, err
	}

	rows, err := b.source.LatestProcesses(ctx)
	if err != nil {
		return nil, asBuildError(err, "load latest processes", "processes")
	}
	movements, err := b.source.LatestMovements(ctx)
	if err != nil {
		return nil, asBuildError(err, "load latest movements", "movements")
	}

	for i := range rows {
		canonical := procnum.Normalize(rows[i].Number)
		if cat, ok := categories[canonical]; ok {
			rows[i].Category = cat
		}
		if mov, ok := movements[rows[i].Number]; ok {
			rows[i].LatestMovement = mov
		}
	}
	return &View{Rows: rows, BuiltAt: time.Now()}, nil
}

// asBuildError tags uncoded store failures as cache-build errors; already
// coded errors pass through untouched.
func asBuildError(err error, msg, table string) error {
	var coded *procerrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return procerrors.Wrap(err, procerrors.CodeCacheBuild, msg).WithTable(table)
}

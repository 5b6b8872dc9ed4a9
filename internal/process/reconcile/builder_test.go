package reconcile

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"juristrack/internal/process/models"
	"juristrack/pkg/procerrors"
)

type fakeSource struct {
	processes []models.ReconciledRow
	movements map[string]*string
	err       error
}

func (f *fakeSource) LatestProcesses(ctx context.Context) ([]models.ReconciledRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.processes, nil
}

func (f *fakeSource) LatestMovements(ctx context.Context) (map[string]*string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.movements, nil
}

func str(v string) *string { return &v }

func writeCategorySheet(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "numeroProcesso"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "categoria"))
	for i, row := range rows {
		cellA, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		cellB, err := excelize.CoordinatesToCellName(2, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue("Sheet1", cellA, row[0]))
		require.NoError(t, f.SetCellValue("Sheet1", cellB, row[1]))
	}
	path := filepath.Join(t.TempDir(), "processos.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestBuild(t *testing.T) {
	ctx := context.Background()

	t.Run("joins categories and latest movements", func(t *testing.T) {
		// Sheet uses the CNJ mask; store rows carry the canonical form.
		path := writeCategorySheet(t, [][]any{
			{"0425144-44.2016.8.19.0001", "Fumicultores"},
		})
		source := &fakeSource{
			processes: []models.ReconciledRow{
				{Number: "04251444420168190001", Court: str("TJRJ"), LastUpdatedAt: str("2024-06-01T00:00:00Z")},
				{Number: "99999999999999999999", Court: str("TJSP")},
			},
			movements: map[string]*string{
				"04251444420168190001": str("Sentença"),
			},
		}

		view, err := NewBuilder(source, path).Build(ctx)
		require.NoError(t, err)
		require.Len(t, view.Rows, 2)

		matched := view.Rows[0]
		assert.Equal(t, "Fumicultores", *matched.Category)
		assert.Equal(t, "Sentença", *matched.LatestMovement)

		unmatched := view.Rows[1]
		assert.Nil(t, unmatched.Category)
		assert.Nil(t, unmatched.LatestMovement)
	})

	t.Run("missing spreadsheet is a configuration error", func(t *testing.T) {
		b := NewBuilder(&fakeSource{}, filepath.Join(t.TempDir(), "nope.xlsx"))
		_, err := b.Build(ctx)
		require.Error(t, err)
		assert.True(t, procerrors.Is(err, procerrors.CodeConfiguration))
	})

	t.Run("store failure is a cache-build error", func(t *testing.T) {
		path := writeCategorySheet(t, [][]any{
			{"0425144-44.2016.8.19.0001", "Fumicultores"},
		})
		b := NewBuilder(&fakeSource{err: errors.New("disk on fire")}, path)
		_, err := b.Build(ctx)
		require.Error(t, err)
		assert.True(t, procerrors.Is(err, procerrors.CodeCacheBuild))
	})
}

// Package masterlist reads the master process spreadsheet. The same file
// feeds two consumers: the reconciliation builder takes the number→category
// mapping, and the ingestion runner takes the worklist of numbers with their
// optional court hints. Rows are deduplicated by canonical process number,
// keeping the first occurrence, so a duplicated row can never fan out a join.
package masterlist

import (
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"juristrack/internal/process/procnum"
	"juristrack/pkg/procerrors"
)

// Row is one deduplicated spreadsheet row.
type Row struct {
	RawNumber string  // as typed in the sheet
	Number    string  // canonical digit-only form
	Court     string  // free-text court hint, may be empty
	Category  *string // trimmed label, nil when blank
}

// List is the parsed spreadsheet.
type List struct {
	Path string
	Rows []Row

	// HasCategories reports whether the sheet carries a category column.
	// Ingestion works without it; reconciliation does not.
	HasCategories bool
}

// Load parses the first sheet of the spreadsheet at path. A missing file is
// a configuration error; a sheet without the process-number column, or with
// no data rows, is a source-format error.
func Load(path string) (*List, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, procerrors.Wrap(err, procerrors.CodeConfiguration, "master spreadsheet not found").WithPath(path)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, procerrors.Wrap(err, procerrors.CodeConfiguration, "open master spreadsheet").WithPath(path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, procerrors.New(procerrors.CodeSourceFormat, "spreadsheet has no sheets").WithPath(path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, procerrors.Wrap(err, procerrors.CodeSourceFormat, "read master spreadsheet").WithPath(path)
	}
	if len(rows) < 2 {
		return nil, procerrors.New(procerrors.CodeSourceFormat, "spreadsheet is empty").WithPath(path)
	}

	numberCol, courtCol, categoryCol := -1, -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "numeroprocesso":
			numberCol = i
		case "tribunal":
			courtCol = i
		case "categoria":
			categoryCol = i
		}
	}
	if numberCol < 0 {
		return nil, procerrors.New(procerrors.CodeSourceFormat, "spreadsheet is missing the numeroProcesso column").WithPath(path)
	}

	list := &List{Path: path, HasCategories: categoryCol >= 0}
	seen := make(map[string]bool)
	for _, cells := range rows[1:] {
		raw := cell(cells, numberCol)
		number := procnum.Normalize(raw)
		if number == "" || seen[number] {
			continue
		}
		seen[number] = true

		row := Row{
			RawNumber: strings.TrimSpace(raw),
			Number:    number,
			Court:     strings.TrimSpace(cell(cells, courtCol)),
		}
		if categoryCol >= 0 {
			if cat := cleanCategory(cell(cells, categoryCol)); cat != "" {
				row.Category = &cat
			}
		}
		list.Rows = append(list.Rows, row)
	}
	if len(list.Rows) == 0 {
		return nil, procerrors.New(procerrors.CodeSourceFormat, "spreadsheet has no usable process numbers").WithPath(path)
	}
	return list, nil
}

// Categories returns the canonical-number → category mapping. An error is
// returned when the sheet has no category column, since reconciliation
// cannot proceed without it.
func (l *List) Categories() (map[string]*string, error) {
	if !l.HasCategories {
		return nil, procerrors.New(procerrors.CodeSourceFormat, "spreadsheet is missing the categoria column").WithPath(l.Path)
	}
	out := make(map[string]*string, len(l.Rows))
	for _, r := range l.Rows {
		out[r.Number] = r.Category
	}
	return out, nil
}

func cell(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}

// cleanCategory trims ordinary and non-breaking spaces; spreadsheet exports
// routinely pad labels with NBSPs.
func cleanCategory(v string) string {
	v = strings.ReplaceAll(v, "\u00a0", " ")
	return strings.TrimSpace(v)
}

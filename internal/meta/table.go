package meta

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/google/uuid"
)

// Row is one line of a metadata table
type Row struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
	Resolved
}

// Table is resolved metadata ready to display
type Table struct {
	Header []string `json:"header"`
	Rows   []Row    `json:"rows"`
}

// LabelFunc names the entity a row belongs to
type LabelFunc func(id uuid.UUID) string

// Project turns resolved metadata into a sorted table whose first column is
// headed label. Empty results still get a row.
func Project(resolved map[uuid.UUID]Resolved, label string, labels LabelFunc) Table {
	rows := make([]Row, 0, len(resolved))
	for id, r := range resolved {
		row := Row{ID: id, Resolved: r}
		if labels != nil {
			row.Label = labels(id)
		}
		rows = append(rows, row)
	}
	SortRows(rows)

	return Table{
		Header: []string{label, "Year", "Term", "Mandatory", "Scope"},
		Rows:   rows,
	}
}

// SortRows orders rows by year ascending, term ascending, then mandatory
// rows first. Label and ID break any remaining tie.
func SortRows(rows []Row) {
	slices.SortFunc(rows, compareRows)
}

func compareRows(a, b Row) int {
	if c := compareYears(a.Year, b.Year); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Term, b.Term); c != 0 {
		return c
	}
	if a.Mandatory != b.Mandatory {
		if a.Mandatory {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(a.Label, b.Label); c != 0 {
		return c
	}
	return cmp.Compare(a.ID.String(), b.ID.String())
}

// compareYears orders blank years first, then integer years numerically so
// that "999" sorts before "2024", then any other text lexically.
func compareYears(a, b string) int {
	ra, x := yearRank(a)
	rb, y := yearRank(b)
	if c := cmp.Compare(ra, rb); c != 0 {
		return c
	}
	if ra == 1 {
		return cmp.Compare(x, y)
	}
	return cmp.Compare(a, b)
}

func yearRank(s string) (int, int) {
	if s == "" {
		return 0, 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return 1, n
	}
	return 2, 0
}

// Cells renders the rows as text: the mandatory flag as "Yes" or blank.
func (t Table) Cells() [][]string {
	out := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		mandatory := ""
		if r.Mandatory {
			mandatory = "Yes"
		}
		out = append(out, []string{r.Label, r.Year, r.Term, mandatory, string(r.Scope)})
	}
	return out
}

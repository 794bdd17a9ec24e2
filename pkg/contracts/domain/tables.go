package domain

import (
	"fmt"
	"strings"
)

// GroupKeySeparator joins the values of a multi-column group key
const GroupKeySeparator = " | "

// RawTable is a wide-format table exactly as read from disk. Every row
// has len(Header) cells; short rows are padded with empty strings.
// Blank rows are dropped, so Lines keeps the 1-based source line (CSV
// line or sheet row) of each remaining row.
type RawTable struct {
	Source string
	Header []string
	Rows   [][]string
	Lines  []int
}

// Line returns the source line of row i, or 0 when it is not known
func (t *RawTable) Line(i int) int {
	if i < len(t.Lines) {
		return t.Lines[i]
	}
	return 0
}

// NumRows returns the number of data rows
func (t *RawTable) NumRows() int {
	return len(t.Rows)
}

// CleanTable is a wide table with numeric year columns. Row i is
// described by Keys[i] (aligned with Identifiers) and Values[i]
// (aligned with Years).
type CleanTable struct {
	Source      string
	Identifiers []string
	Years       []int
	Keys        [][]string
	Values      [][]float64
}

// NumRows returns the number of data rows
func (t *CleanTable) NumRows() int {
	return len(t.Keys)
}

// IdentifierIndex returns the column index of an identifier, or -1
func (t *CleanTable) IdentifierIndex(name string) int {
	return indexOf(t.Identifiers, name)
}

// LongRecord is one observation: identifier values, a year and a value
type LongRecord struct {
	Identifiers []string
	Year        int
	Value       float64
}

// LongTable holds long-format records sharing one identifier header
type LongTable struct {
	Source      string
	Identifiers []string
	Records     []LongRecord
}

// Len returns the number of records
func (t *LongTable) Len() int {
	return len(t.Records)
}

// IdentifierIndex returns the column index of an identifier, or -1
func (t *LongTable) IdentifierIndex(name string) int {
	return indexOf(t.Identifiers, name)
}

// KeyIndexes resolves group-by column names to identifier indexes
func (t *LongTable) KeyIndexes(names []string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		idx[i] = t.IdentifierIndex(name)
		if idx[i] < 0 {
			return nil, fmt.Errorf("unknown identifier column %q (have %s)",
				name, strings.Join(t.Identifiers, ", "))
		}
	}
	return idx, nil
}

// GroupKey builds the group key of a record from resolved indexes
func GroupKey(rec LongRecord, idx []int) string {
	if len(idx) == 1 {
		return rec.Identifiers[idx[0]]
	}
	parts := make([]string, len(idx))
	for i, j := range idx {
		parts[i] = rec.Identifiers[j]
	}
	return strings.Join(parts, GroupKeySeparator)
}

func indexOf(values []string, name string) int {
	for i, v := range values {
		if v == name {
			return i
		}
	}
	return -1
}

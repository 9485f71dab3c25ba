package schema

import (
	"strings"
)

// headerScanRows bounds how far down the sheet the header row is searched for.
const headerScanRows = 10

// minHeaderHits is the number of recognized headers a row needs to count as the header row.
const minHeaderHits = 3

// Normalizer canonicalizes hand-maintained header rows through an AliasTable.
type Normalizer struct {
	aliases AliasTable
}

// NewNormalizer creates a Normalizer over aliases.
func NewNormalizer(aliases AliasTable) *Normalizer {
	return &Normalizer{aliases: aliases}
}

// Aliases returns the table in use.
func (n *Normalizer) Aliases() AliasTable {
	return n.aliases
}

// MapHeaders resolves each canonical field to a source column.
func (n *Normalizer) MapHeaders(headers []string) Columns {
	cols := Columns{
		index:  make(map[Field]int),
		header: make(map[Field]string),
	}
	priority := make(map[Field]int)
	for idx, h := range headers {
		if strings.TrimSpace(h) == "" {
			continue
		}
		alias, ok := n.aliases.Lookup(h)
		if !ok {
			cols.Unmapped = append(cols.Unmapped, strings.TrimSpace(h))
			continue
		}
		if p, seen := priority[alias.Field]; seen && p <= alias.Priority {
			continue
		}
		priority[alias.Field] = alias.Priority
		cols.index[alias.Field] = idx
		cols.header[alias.Field] = strings.TrimSpace(h)
	}
	return cols
}

// LocateHeader returns the index of the header row within rows. Title rows
// above the table are skipped; without a convincing candidate row 0 is used.
func (n *Normalizer) LocateHeader(rows [][]string) int {
	limit := headerScanRows
	if len(rows) < limit {
		limit = len(rows)
	}
	for i := 0; i < limit; i++ {
		hits := 0
		for _, cell := range rows[i] {
			if _, ok := n.aliases.Lookup(cell); ok {
				hits++
			}
		}
		if hits >= minHeaderHits {
			return i
		}
	}
	return 0
}

// Normalize maps raw rows under headers into canonical records. headerRow is
// the 0-based sheet index of the header so SourceRow points back to the sheet.
// Entirely blank rows are skipped.
func (n *Normalizer) Normalize(headers []string, rows [][]string, headerRow int) ([]Record, Columns) {
	cols := n.MapHeaders(headers)
	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		if isBlankRow(row) {
			continue
		}
		rec := NewRecord(headerRow + i + 2)
		for _, f := range Fields {
			idx, ok := cols.Index(f)
			if !ok {
				continue
			}
			v := ""
			if idx < len(row) {
				v = strings.TrimSpace(row[idx])
			}
			rec.Set(f, v)
		}
		records = append(records, rec)
	}
	return records, cols
}

// NormalizeSheet locates the header row in a full sheet and normalizes the rows beneath it.
func (n *Normalizer) NormalizeSheet(rows [][]string) ([]Record, Columns) {
	if len(rows) == 0 {
		return nil, n.MapHeaders(nil)
	}
	h := n.LocateHeader(rows)
	return n.Normalize(rows[h], rows[h+1:], h)
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

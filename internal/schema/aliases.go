package schema

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Alias maps one historical header spelling to a canonical field. When two
// source columns resolve to the same field the lower Priority wins.
type Alias struct {
	Header   string `yaml:"header"`
	Field    Field  `yaml:"field"`
	Priority int    `yaml:"priority"`
}

// AliasTable is a versioned alias->canonical mapping.
type AliasTable struct {
	Version string
	Entries []Alias
}

// AliasTableVersion identifies the built-in table.
const AliasTableVersion = "2"

// DefaultAliases holds every header spelling seen in the payments control
// workbook so far. FECHA DE PAGO only feeds DUE_DATE when FECHA DE
// VENCIMIENTO is missing.
func DefaultAliases() AliasTable {
	return AliasTable{
		Version: AliasTableVersion,
		Entries: []Alias{
			{Header: "IMPORTADOR", Field: Importer},
			{Header: "IMPORTER", Field: Importer, Priority: 10},

			{Header: "MARCA", Field: Brand},
			{Header: "BRAND", Field: Brand, Priority: 10},

			{Header: "PROVEEDOR", Field: Supplier},
			{Header: "SUPPLIER", Field: Supplier, Priority: 10},

			{Header: "NRO. IMPO", Field: ImportNumber},
			{Header: "# IMPORTACION", Field: ImportNumber, Priority: 1},
			{Header: "NRO IMPORTACION", Field: ImportNumber, Priority: 2},
			{Header: "NUMERO IMPORTACION", Field: ImportNumber, Priority: 2},

			{Header: "MONEDA", Field: Currency},
			{Header: "DIVISA", Field: Currency, Priority: 5},

			{Header: "NOTA CRÉDITO", Field: CreditNote},
			{Header: "VALOR NOTA CRÉDITO", Field: CreditNote, Priority: 1},
			{Header: "NC", Field: CreditNote, Priority: 5},

			{Header: "VALOR A PAGAR", Field: AmountToPay},
			{Header: "VALOR MONEDA ORIGEN", Field: AmountToPay, Priority: 1},

			{Header: "ESTADO", Field: Status},
			{Header: "ESTADO PAGO", Field: Status, Priority: 5},

			{Header: "FECHA DE VENCIMIENTO", Field: DueDate},
			{Header: "FECHA VENCIMIENTO", Field: DueDate, Priority: 1},
			{Header: "FECHA DE PAGO", Field: DueDate, Priority: 20},
		},
	}
}

// Merge returns a copy of t extended with extra. An extra alias whose header
// already exists replaces the built-in entry.
func (t AliasTable) Merge(extra []Alias) AliasTable {
	out := AliasTable{Version: t.Version, Entries: make([]Alias, 0, len(t.Entries)+len(extra))}
	overrides := make(map[string]Alias, len(extra))
	for _, a := range extra {
		overrides[CompactHeader(a.Header)] = a
	}
	used := make(map[string]bool, len(extra))
	for _, a := range t.Entries {
		key := CompactHeader(a.Header)
		if r, ok := overrides[key]; ok {
			out.Entries = append(out.Entries, r)
			used[key] = true
			continue
		}
		out.Entries = append(out.Entries, a)
	}
	for _, a := range extra {
		key := CompactHeader(a.Header)
		if used[key] {
			continue
		}
		out.Entries = append(out.Entries, overrides[key])
		used[key] = true
	}
	if len(extra) > 0 {
		out.Version = t.Version + "+local"
	}
	return out
}

// Lookup resolves a raw header to its alias.
func (t AliasTable) Lookup(header string) (Alias, bool) {
	key := CompactHeader(header)
	if key == "" {
		return Alias{}, false
	}
	for _, a := range t.Entries {
		if CompactHeader(a.Header) == key {
			return a, true
		}
	}
	return Alias{}, false
}

// Fold strips diacritics ("CRÉDITO" -> "CREDITO"). Chained transformers keep
// state, so one is built per call.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeHeader trims, collapses inner whitespace, folds accents and upper-cases.
func NormalizeHeader(s string) string {
	return strings.ToUpper(Fold(strings.Join(strings.Fields(s), " ")))
}

// CompactHeader is NormalizeHeader with all whitespace removed, so
// "# IMPORTACION" and "#IMPORTACION" compare equal.
func CompactHeader(s string) string {
	return strings.ReplaceAll(NormalizeHeader(s), " ", "")
}

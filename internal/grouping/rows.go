package grouping

import (
	"github.com/shopspring/decimal"

	"ControlPagos/internal/schema"
)

// RowKind tells the report writer how to render a row.
type RowKind int

const (
	RowMember RowKind = iota
	RowTotal
	RowBlank
)

func (k RowKind) String() string {
	switch k {
	case RowMember:
		return "member"
	case RowTotal:
		return "total"
	case RowBlank:
		return "blank"
	}
	return "unknown"
}

// DefaultSeparatorRows is the separator height used when BlankSeparators is on.
const DefaultSeparatorRows = 2

// RenderOptions controls how groups are flattened.
type RenderOptions struct {
	BlankSeparators bool
	SeparatorRows   int
}

// ReportFields are the projection sheet columns, in order.
var ReportFields = []schema.Field{
	schema.Importer, schema.Brand, schema.Supplier, schema.ImportNumber,
	schema.Currency, schema.CreditNote, schema.AmountToPay, schema.Status,
}

// ReportHeaders are the header captions matching ReportFields.
var ReportHeaders = []string{
	"IMPORTADOR", "MARCA", "PROVEEDOR", "NRO. IMPO",
	"MONEDA", "NOTA CRÉDITO", "VALOR A PAGAR", "ESTADO",
}

// ReportRow is one line of the projection sheet. Record is zero for total and blank rows.
type ReportRow struct {
	Kind     RowKind
	Record   schema.Record
	Amount   decimal.Decimal
	Currency string
}

// Values returns the cells in ReportFields order.
// Amounts are returned as float64 so the sheet stores numbers.
func (r ReportRow) Values() []interface{} {
	out := make([]interface{}, len(ReportFields))
	switch r.Kind {
	case RowBlank:
		return out
	case RowTotal:
		for i, f := range ReportFields {
			switch f {
			case schema.AmountToPay:
				out[i] = r.Amount.InexactFloat64()
			case schema.Currency:
				out[i] = r.Currency
			}
		}
		return out
	}
	for i, f := range ReportFields {
		switch f {
		case schema.AmountToPay:
			out[i] = r.Amount.InexactFloat64()
		case schema.CreditNote:
			if amt, ok := ParseAmount(r.Record.CreditNote); ok && r.Record.CreditNote != "" {
				out[i] = amt.InexactFloat64()
			} else {
				out[i] = r.Record.CreditNote
			}
		default:
			out[i] = r.Record.Get(f)
		}
	}
	return out
}

// Rows flattens groups: members in order, the total row after a multi-member
// group, then the separator rows when enabled.
func Rows(groups []Group, opts RenderOptions) []ReportRow {
	sep := 0
	if opts.BlankSeparators {
		sep = opts.SeparatorRows
		if sep <= 0 {
			sep = DefaultSeparatorRows
		}
	}
	var out []ReportRow
	for _, g := range groups {
		for _, m := range g.Members {
			out = append(out, ReportRow{
				Kind:     RowMember,
				Record:   m.Record,
				Amount:   m.Amount,
				Currency: m.Record.Currency,
			})
		}
		if g.Total != nil {
			out = append(out, ReportRow{Kind: RowTotal, Amount: g.Total.Amount, Currency: g.Total.Currency})
		}
		for i := 0; i < sep; i++ {
			out = append(out, ReportRow{Kind: RowBlank})
		}
	}
	return out
}

package schema

import (
	"fmt"
	"strings"
)

// Field is one of the nine canonical names every source row is normalized into.
type Field string

const (
	Importer     Field = "IMPORTER"
	Brand        Field = "BRAND"
	Supplier     Field = "SUPPLIER"
	ImportNumber Field = "IMPORT_NUMBER"
	Currency     Field = "CURRENCY"
	CreditNote   Field = "CREDIT_NOTE"
	AmountToPay  Field = "AMOUNT_TO_PAY"
	Status       Field = "STATUS"
	DueDate      Field = "DUE_DATE"
)

// Fields lists the canonical fields in report column order.
var Fields = []Field{
	Importer, Brand, Supplier, ImportNumber, Currency, CreditNote, AmountToPay, Status, DueDate,
}

// DefaultCreditNote is the value used when the source has no credit note column.
const DefaultCreditNote = "0"

// ParseField resolves a configured field name ("amount_to_pay", "AMOUNT TO PAY") to a Field.
func ParseField(s string) (Field, error) {
	key := strings.ToUpper(strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	}), "_"))
	for _, f := range Fields {
		if string(f) == key {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown canonical field %q", s)
}

// Record is a source row after header normalization. All nine canonical
// fields are always present; absent source columns hold their default.
type Record struct {
	SourceRow int // 1-based row number in the source sheet

	Importer     string
	Brand        string
	Supplier     string
	ImportNumber string
	Currency     string
	CreditNote   string
	AmountToPay  string
	Status       string
	DueDate      string
}

// NewRecord returns a record holding only default values.
func NewRecord(sourceRow int) Record {
	return Record{SourceRow: sourceRow, CreditNote: DefaultCreditNote}
}

// Get returns the value of f.
func (r Record) Get(f Field) string {
	switch f {
	case Importer:
		return r.Importer
	case Brand:
		return r.Brand
	case Supplier:
		return r.Supplier
	case ImportNumber:
		return r.ImportNumber
	case Currency:
		return r.Currency
	case CreditNote:
		return r.CreditNote
	case AmountToPay:
		return r.AmountToPay
	case Status:
		return r.Status
	case DueDate:
		return r.DueDate
	}
	return ""
}

// Set assigns v to f. Unknown fields are ignored.
func (r *Record) Set(f Field, v string) {
	switch f {
	case Importer:
		r.Importer = v
	case Brand:
		r.Brand = v
	case Supplier:
		r.Supplier = v
	case ImportNumber:
		r.ImportNumber = v
	case Currency:
		r.Currency = v
	case CreditNote:
		r.CreditNote = v
	case AmountToPay:
		r.AmountToPay = v
	case Status:
		r.Status = v
	case DueDate:
		r.DueDate = v
	}
}

// Map returns the record keyed by canonical field name.
func (r Record) Map() map[Field]string {
	out := make(map[Field]string, len(Fields))
	for _, f := range Fields {
		out[f] = r.Get(f)
	}
	return out
}

// Columns describes which canonical fields were located in a source header row.
type Columns struct {
	index    map[Field]int
	header   map[Field]string
	Unmapped []string
}

// Has reports whether f was found in the source.
func (c Columns) Has(f Field) bool {
	_, ok := c.index[f]
	return ok
}

// Index returns the 0-based source column of f.
func (c Columns) Index(f Field) (int, bool) {
	i, ok := c.index[f]
	return i, ok
}

// Header returns the source header text that was mapped to f.
func (c Columns) Header(f Field) string {
	return c.header[f]
}

// Missing lists canonical fields with no source column, in canonical order.
func (c Columns) Missing() []Field {
	var out []Field
	for _, f := range Fields {
		if !c.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Found lists located fields, in canonical order.
func (c Columns) Found() []Field {
	var out []Field
	for _, f := range Fields {
		if c.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

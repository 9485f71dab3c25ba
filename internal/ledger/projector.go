package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ControlPagos/internal/calendar"
	"ControlPagos/internal/grouping"
	"ControlPagos/internal/schema"
)

// ErrMissingLedgerFields is returned when a column the ledger cannot do
// without is absent from the source altogether.
var ErrMissingLedgerFields = errors.New("source is missing fields required by the ledger")

// Headers is the fixed column layout of the "Pagos Importación" sheet.
var Headers = [Width]string{
	"IMPORTADOR",
	"MARCA",
	"FECHA DE PAGO",
	"DIA",
	"MES",
	"AÑO",
	"PROVEEDOR",
	"# IMPORTACION",
	"VALOR MONEDA ORIGEN",
	"MONEDA",
	"VALOR USD",
	"FACTOR DE CONVERSION",
	"DESCUENTO PRONTO PAGO",
	"FORMA DE PAGO",
	"TIPO DE PAGO",
	"FECHA DE APERTURA CREDITO -UTILIZACION LC",
	"FECHA DE VENCIMIENTO",
	"# CREDITO",
	"# DEUDA EXTERNA",
	"NOTA CREDITO",
}

// Width is the number of ledger columns.
const Width = 20

// Column positions used outside this package.
const (
	ColPaymentDate = 2
	ColAmount      = 8
	ColAmountUSD   = 10
	ColFactor      = 11
	ColCreditNote  = 19
)

const (
	paymentType     = "CUENTA COMPENSACION"
	notApplicable   = "N/A"
	usdCurrencyCode = "USD"
)

// RequiredFields must each be located in the source for Project to run.
var RequiredFields = []schema.Field{schema.Importer, schema.Supplier, schema.ImportNumber, schema.AmountToPay}

// Row is one ledger line. A nil cell is written as an empty cell.
type Row [Width]interface{}

// IsUSD reports whether currency is US dollars, ignoring case and padding.
func IsUSD(currency string) bool {
	return strings.EqualFold(strings.TrimSpace(currency), usdCurrencyCode)
}

// Project maps the filtered records onto the ledger layout. Payment date
// columns come from businessDate, never from the record.
func Project(records []schema.Record, cols schema.Columns, businessDate time.Time) ([]Row, error) {
	var missing []string
	for _, f := range RequiredFields {
		if !cols.Has(f) {
			missing = append(missing, string(f))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingLedgerFields, strings.Join(missing, ", "))
	}

	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, projectRecord(r, businessDate))
	}
	return rows, nil
}

func projectRecord(r schema.Record, date time.Time) Row {
	amount := amountCell(r.AmountToPay)
	var usd, factor interface{}
	if IsUSD(r.Currency) {
		usd = amount
		factor = 1
	}
	return Row{
		r.Importer,
		r.Brand,
		calendar.FormatDMY(date),
		date.Day(),
		int(date.Month()),
		date.Year(),
		r.Supplier,
		r.ImportNumber,
		amount,
		r.Currency,
		usd,
		factor,
		0,
		"",
		paymentType,
		notApplicable,
		notApplicable,
		notApplicable,
		notApplicable,
		creditNoteCell(r.CreditNote),
	}
}

// amountCell writes the amount the projection sheet totals: values that do
// not parse, and blanks, are zero.
func amountCell(raw string) float64 {
	d, _ := grouping.ParseAmount(raw)
	return d.InexactFloat64()
}

func creditNoteCell(raw string) interface{} {
	if strings.TrimSpace(raw) == "" {
		return raw
	}
	if d, err := decimal.NewFromString(strings.TrimSpace(raw)); err == nil {
		return d.InexactFloat64()
	}
	return raw
}

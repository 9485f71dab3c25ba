package grouping

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ControlPagos/internal/schema"
)

func rec(row int, importer, supplier, amount, currency string) schema.Record {
	r := schema.NewRecord(row)
	r.Importer = importer
	r.Supplier = supplier
	r.AmountToPay = amount
	r.Currency = currency
	r.ImportNumber = "IMP-" + amount
	return r
}

func TestParseAmount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"100", "100", true},
		{"1,234.56", "1234.56", true},
		{"1.234,56", "1234.56", true},
		{"12,5", "12.5", true},
		{"1,234", "1234", true},
		{"$ 2,000", "2000", true},
		{"USD 15.25", "15.25", true},
		{"€30", "30", true},
		{"(40)", "-40", true},
		{"", "0", true},
		{"abc", "0", false},
		{"12abc", "0", false},
		{"-", "0", false},
	}
	for _, tc := range cases {
		got, ok := ParseAmount(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.True(t, decimal.RequireFromString(tc.want).Equal(got), "%q: got %s", tc.in, got)
	}
}

func TestAggregate_RoundTripScenario(t *testing.T) {
	t.Parallel()

	groups, stats := Aggregate([]schema.Record{
		rec(2, "A", "X", "100", "USD"),
		rec(3, "A", "X", "50", "USD"),
	})
	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, "A", g.Importer)
	assert.Equal(t, "X", g.Supplier)
	require.Len(t, g.Members, 2)
	require.NotNil(t, g.Total)
	assert.True(t, decimal.NewFromInt(150).Equal(g.Total.Amount))
	assert.Equal(t, "USD", g.Total.Currency)
	assert.Zero(t, stats.CoercedAmounts)
}

func TestAggregate_SortsStablyAndKeepsEveryRecord(t *testing.T) {
	t.Parallel()

	in := []schema.Record{
		rec(2, "b", "y", "1", "EUR"),
		rec(3, "A", "X", "2", "USD"),
		rec(4, "B ", "Y", "3", "EUR"),
		rec(5, "A", "W", "4", "USD"),
		rec(6, "a", "x", "5", "COP"),
	}
	groups, stats := Aggregate(in)
	require.Len(t, groups, 3)
	assert.Equal(t, 3, stats.Groups)

	assert.Equal(t, "W", groups[0].Supplier)
	assert.Nil(t, groups[0].Total)

	require.Len(t, groups[1].Members, 2)
	assert.Equal(t, 3, groups[1].Members[0].Record.SourceRow)
	assert.Equal(t, 6, groups[1].Members[1].Record.SourceRow)
	assert.Equal(t, "USD", groups[1].Total.Currency)

	require.Len(t, groups[2].Members, 2)
	assert.Equal(t, 2, groups[2].Members[0].Record.SourceRow)
	assert.Equal(t, 4, groups[2].Members[1].Record.SourceRow)

	seen := map[int]int{}
	for _, g := range groups {
		for _, m := range g.Members {
			seen[m.Record.SourceRow]++
		}
		if len(g.Members) > 1 {
			assert.True(t, g.Sum().Equal(g.Total.Amount))
		} else {
			assert.Nil(t, g.Total)
		}
	}
	assert.Len(t, seen, len(in))
	for row, n := range seen {
		assert.Equal(t, 1, n, "row %d", row)
	}
}

func TestAggregate_NonNumericAmountIsZero(t *testing.T) {
	t.Parallel()

	groups, stats := Aggregate([]schema.Record{
		rec(2, "A", "X", "abc", "USD"),
		rec(3, "A", "X", "75.5", "USD"),
	})
	require.Len(t, groups, 1)
	assert.True(t, groups[0].Members[0].Amount.IsZero())
	assert.True(t, decimal.RequireFromString("75.5").Equal(groups[0].Total.Amount))
	assert.Equal(t, 1, stats.CoercedAmounts)
	assert.Equal(t, []int{2}, stats.CoercedRows)
}

func TestRows(t *testing.T) {
	t.Parallel()

	groups, _ := Aggregate([]schema.Record{
		rec(2, "A", "X", "100", "USD"),
		rec(3, "A", "X", "50", "USD"),
		rec(4, "B", "Y", "30", "EUR"),
	})

	rows := Rows(groups, RenderOptions{})
	kinds := make([]RowKind, len(rows))
	for i, r := range rows {
		kinds[i] = r.Kind
	}
	assert.Equal(t, []RowKind{RowMember, RowMember, RowTotal, RowMember}, kinds)

	rows = Rows(groups, RenderOptions{BlankSeparators: true})
	kinds = kinds[:0]
	for _, r := range rows {
		kinds = append(kinds, r.Kind)
	}
	assert.Equal(t, []RowKind{
		RowMember, RowMember, RowTotal, RowBlank, RowBlank,
		RowMember, RowBlank, RowBlank,
	}, kinds)

	rows = Rows(groups, RenderOptions{BlankSeparators: true, SeparatorRows: 1})
	assert.Len(t, rows, 6)
}

func TestReportRowValues(t *testing.T) {
	t.Parallel()

	groups, _ := Aggregate([]schema.Record{
		rec(2, "A", "X", "100", "USD"),
		rec(3, "A", "X", "50", "USD"),
	})
	rows := Rows(groups, RenderOptions{})
	require.Len(t, rows, 3)

	member := rows[0].Values()
	require.Len(t, member, len(ReportHeaders))
	assert.Equal(t, "A", member[0])
	assert.Equal(t, 100.0, member[6])
	assert.Equal(t, 0.0, member[5])

	total := rows[2].Values()
	assert.Nil(t, total[0])
	assert.Equal(t, "USD", total[4])
	assert.Equal(t, 150.0, total[6])
	assert.Nil(t, total[7])

	assert.Equal(t, make([]interface{}, len(ReportFields)), ReportRow{Kind: RowBlank}.Values())
}

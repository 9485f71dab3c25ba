package grouping

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"ControlPagos/internal/schema"
)

// Member is a filtered record together with its coerced amount.
type Member struct {
	Record schema.Record
	Amount decimal.Decimal
}

// TotalRow is the subtotal emitted after a group with more than one member.
// Every other report column is blank.
type TotalRow struct {
	Amount   decimal.Decimal
	Currency string
}

// Group holds the records sharing one (importer, supplier) pair in source order.
type Group struct {
	Importer string
	Supplier string
	Members  []Member
	Total    *TotalRow
}

// Sum adds up the member amounts.
func (g Group) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, m := range g.Members {
		sum = sum.Add(m.Amount)
	}
	return sum
}

// Stats counts the local recoveries made while aggregating.
type Stats struct {
	Records        int
	Groups         int
	CoercedAmounts int
	CoercedRows    []int // source rows whose amount was replaced by zero
}

func groupKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Aggregate sorts records stably by (importer, supplier) and partitions them
// into groups. Records are never dropped.
func Aggregate(records []schema.Record) ([]Group, Stats) {
	stats := Stats{Records: len(records)}
	members := make([]Member, len(records))
	for i, r := range records {
		amt, ok := ParseAmount(r.AmountToPay)
		if !ok {
			stats.CoercedAmounts++
			stats.CoercedRows = append(stats.CoercedRows, r.SourceRow)
		}
		members[i] = Member{Record: r, Amount: amt}
	}

	sort.SliceStable(members, func(i, j int) bool {
		ii, ij := groupKey(members[i].Record.Importer), groupKey(members[j].Record.Importer)
		if ii != ij {
			return ii < ij
		}
		return groupKey(members[i].Record.Supplier) < groupKey(members[j].Record.Supplier)
	})

	var groups []Group
	for _, m := range members {
		n := len(groups)
		if n > 0 &&
			groupKey(groups[n-1].Importer) == groupKey(m.Record.Importer) &&
			groupKey(groups[n-1].Supplier) == groupKey(m.Record.Supplier) {
			groups[n-1].Members = append(groups[n-1].Members, m)
			continue
		}
		groups = append(groups, Group{
			Importer: m.Record.Importer,
			Supplier: m.Record.Supplier,
			Members:  []Member{m},
		})
	}

	for i := range groups {
		if len(groups[i].Members) > 1 {
			groups[i].Total = &TotalRow{
				Amount:   groups[i].Sum(),
				Currency: groups[i].Members[0].Record.Currency,
			}
		}
	}
	stats.Groups = len(groups)
	return groups, stats
}

package payment

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MethodTotal is the sum of the payments made with one method.
type MethodTotal struct {
	Method Method          `db:"payment_method"`
	Total  decimal.Decimal `db:"total"`
}

// Collection is what a library collected over a period. Only cash and online payments are counted;
// totals of any other method are dropped, so Total may be lower than the sum of all payments.
type Collection struct {
	Cash   decimal.Decimal `json:"cash"`
	Online decimal.Decimal `json:"online"`
	Total  decimal.Decimal `json:"total"`
}

// GroupByMethod sums payment amounts per method.
func GroupByMethod(payments []Payment) []MethodTotal {
	sums := make(map[Method]decimal.Decimal)
	for _, p := range payments {
		sums[p.PaymentMethod] = sums[p.PaymentMethod].Add(p.Amount)
	}
	totals := make([]MethodTotal, 0, len(sums))
	for m, t := range sums {
		totals = append(totals, MethodTotal{Method: m, Total: t})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Method < totals[j].Method })
	return totals
}

// Tally keeps the cash and online buckets.
func Tally(totals []MethodTotal) Collection {
	var c Collection
	for _, t := range totals {
		switch t.Method {
		case MethodCash:
			c.Cash = c.Cash.Add(t.Total)
		case MethodOnline:
			c.Online = c.Online.Add(t.Total)
		}
	}
	c.Total = c.Cash.Add(c.Online)
	return c
}

package core

import "github.com/shopspring/decimal"

// MonthTotal is one bar of the monthly chart.
type MonthTotal struct {
	Month string
	Total decimal.Decimal
}

// Summary holds the headline dashboard numbers.
type Summary struct {
	TotalSpent       decimal.Decimal
	TransactionCount int
	HighestExpense   decimal.Decimal
}

// MonthlyAggregation groups records by month abbreviation, ignoring the year,
// so January of two different years lands in the same bucket. Buckets keep
// the order in which their month is first seen in records; callers pass the
// list in store order (newest first) to match the displayed chart.
func MonthlyAggregation(records []Transaction) []MonthTotal {
	out := make([]MonthTotal, 0)
	index := make(map[string]int)
	for _, r := range records {
		label := MonthLabel(r.Date)
		if i, ok := index[label]; ok {
			out[i].Total = out[i].Total.Add(r.Amount)
			continue
		}
		index[label] = len(out)
		out = append(out, MonthTotal{Month: label, Total: r.Amount})
	}
	return out
}

// Summarize computes total, count and the largest amount. An empty record set
// yields zeros. HighestExpense is the maximum over the records themselves, so
// a set of refunds only reports its largest (still negative) amount rather
// than being floored at zero.
func Summarize(records []Transaction) Summary {
	s := Summary{
		TotalSpent:       decimal.Zero,
		TransactionCount: len(records),
		HighestExpense:   decimal.Zero,
	}
	for i, r := range records {
		s.TotalSpent = s.TotalSpent.Add(r.Amount)
		if i == 0 || r.Amount.GreaterThan(s.HighestExpense) {
			s.HighestExpense = r.Amount
		}
	}
	return s
}

package metrics

import (
	"dental-referral-tracker/internal/domain/entity"

	"github.com/shopspring/decimal"
)

// Summary holds the dashboard totals
type Summary struct {
	Total          int     `json:"total"`
	Scheduled      int     `json:"scheduled"`
	Unscheduled    int     `json:"unscheduled"`
	Paid           int     `json:"paid"`
	ConversionRate float64 `json:"conversion_rate"`
}

// ComputeSummary counts referrals per state. ConversionRate is paid over
// scheduled as a percentage rounded to one decimal, 0 with nothing scheduled.
func ComputeSummary(referrals []entity.Referral) Summary {
	var s Summary
	for i := range referrals {
		r := &referrals[i]
		s.Total++
		if r.IsScheduled() {
			s.Scheduled++
		} else {
			s.Unscheduled++
		}
		if r.Paid {
			s.Paid++
		}
	}
	if s.Scheduled > 0 {
		s.ConversionRate = decimal.NewFromInt(int64(s.Paid)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(s.Scheduled))).
			Round(1).
			InexactFloat64()
	}
	return s
}

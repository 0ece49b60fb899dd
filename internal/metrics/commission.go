package metrics

import (
	"fmt"
	"time"

	"dental-referral-tracker/internal/domain/entity"

	"github.com/shopspring/decimal"
)

// alertDisplayTarget replaces the alert tier's own max as its bar denominator.
const alertDisplayTarget = 100

const EncouragementNote = "Engagement is key to reaching the first commission tier!"

// Tier is one band of the monthly commission ladder. UnitValue is nil for
// the alert tier, which pays no commission.
type Tier struct {
	ID        string           `json:"id"`
	Label     string           `json:"label"`
	Min       int              `json:"min"`
	Max       int              `json:"max"`
	UnitValue *decimal.Decimal `json:"unit_value"`
	Alert     bool             `json:"alert"`
}

func unitValue(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// DefaultTiers is the ladder in ascending order. Ranges do not overlap.
var DefaultTiers = []Tier{
	{ID: "tier1", Label: "1-99 (no commission)", Min: 1, Max: 99, Alert: true},
	{ID: "tier2", Label: "100-149", Min: 100, Max: 149, UnitValue: unitValue("1.00")},
	{ID: "tier3", Label: "150-170", Min: 150, Max: 170, UnitValue: unitValue("1.30")},
	{ID: "tier4", Label: "171-200", Min: 171, Max: 200, UnitValue: unitValue("1.50")},
}

// TierProgress is one bar of the commission display
type TierProgress struct {
	Tier
	Target   int     `json:"target"`
	Progress float64 `json:"progress"`
	Readout  string  `json:"readout"`
	Active   bool    `json:"active"`
}

// Commission is the monthly commission display model
type Commission struct {
	MonthlyCount    int             `json:"monthly_count"`
	MonthStart      time.Time       `json:"month_start"`
	Active          Tier            `json:"active"`
	Tiers           []TierProgress  `json:"tiers"`
	Note            string          `json:"note,omitempty"`
	ProjectedPayout decimal.Decimal `json:"projected_payout"`
}

// MonthlyPaidCount counts paid referrals whose event time falls in
// [first of now's month 00:00, now].
func MonthlyPaidCount(referrals []entity.Referral, now time.Time) int {
	from := MonthStart(now)
	count := 0
	for i := range referrals {
		r := &referrals[i]
		if !r.Paid {
			continue
		}
		if within(r.EventTime(now), from, now) {
			count++
		}
	}
	return count
}

// ActiveTier returns the tier whose range contains count. Counts below the
// ladder select the first tier; counts above it saturate at the last.
func ActiveTier(tiers []Tier, count int) Tier {
	for _, t := range tiers {
		if count >= t.Min && count <= t.Max {
			return t
		}
	}
	if top := tiers[len(tiers)-1]; count > top.Max {
		return top
	}
	return tiers[0]
}

// ComputeCommission builds the ladder display for a monthly paid count.
func ComputeCommission(tiers []Tier, count int) Commission {
	active := ActiveTier(tiers, count)

	bars := make([]TierProgress, 0, len(tiers))
	for _, t := range tiers {
		target := t.Max
		if t.Alert {
			target = alertDisplayTarget
		}
		shown := count
		if shown > target {
			shown = target
		}
		progress := float64(count) / float64(target)
		if progress > 1 {
			progress = 1
		}
		bars = append(bars, TierProgress{
			Tier:     t,
			Target:   target,
			Progress: progress,
			Readout:  fmt.Sprintf("%d/%d", shown, target),
			Active:   t.ID == active.ID,
		})
	}

	model := Commission{
		MonthlyCount:    count,
		Active:          active,
		Tiers:           bars,
		ProjectedPayout: decimal.Zero,
	}
	if active.Alert {
		model.Note = EncouragementNote
	}
	if active.UnitValue != nil {
		model.ProjectedPayout = active.UnitValue.Mul(decimal.NewFromInt(int64(count)))
	}
	return model
}

// ComputeMonthlyCommission counts the month's paid referrals and builds the display.
func ComputeMonthlyCommission(referrals []entity.Referral, now time.Time) Commission {
	model := ComputeCommission(DefaultTiers, MonthlyPaidCount(referrals, now))
	model.MonthStart = MonthStart(now)
	return model
}

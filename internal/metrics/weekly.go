package metrics

import (
	"time"

	"dental-referral-tracker/internal/domain/entity"
)

const DefaultWeeklyGoal = 50

// WeeklyGoal is the progress of paid referrals against the weekly target
type WeeklyGoal struct {
	Goal      int       `json:"goal"`
	Count     int       `json:"count"`
	GoalMet   bool      `json:"goal_met"`
	Remaining int       `json:"remaining"`
	WeekStart time.Time `json:"week_start"`
	WeekEnd   time.Time `json:"week_end"`
}

// ComputeWeeklyGoal counts referrals paid inside [Monday 00:00, next Monday 00:00)
// of the week containing now. A non-positive goal uses DefaultWeeklyGoal.
func ComputeWeeklyGoal(referrals []entity.Referral, now time.Time, goal int) WeeklyGoal {
	if goal <= 0 {
		goal = DefaultWeeklyGoal
	}
	start := WeekStart(now)
	end := start.AddDate(0, 0, 7)

	count := 0
	for i := range referrals {
		r := &referrals[i]
		if !r.Paid || r.PaidAt == nil {
			continue
		}
		if !r.PaidAt.Before(start) && r.PaidAt.Before(end) {
			count++
		}
	}

	remaining := goal - count
	if remaining < 0 {
		remaining = 0
	}
	return WeeklyGoal{
		Goal:      goal,
		Count:     count,
		GoalMet:   count >= goal,
		Remaining: remaining,
		WeekStart: start,
		WeekEnd:   end,
	}
}

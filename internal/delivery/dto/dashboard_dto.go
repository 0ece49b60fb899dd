package dto

import (
	"time"

	"dental-referral-tracker/internal/metrics"
)

type DashboardResponse struct {
	Summary     metrics.Summary      `json:"summary"`
	Weekly      metrics.WeeklyGoal   `json:"weekly_goal"`
	Commission  metrics.Commission   `json:"commission"`
	Period      metrics.Period       `json:"ranking_period"`
	Ranking     []metrics.RankingRow `json:"ranking"`
	GeneratedAt time.Time            `json:"generated_at"`
	Stale       bool                 `json:"-"`
}

type RankingResponse struct {
	Period metrics.Period       `json:"period"`
	Rows   []metrics.RankingRow `json:"rows"`
	Stale  bool                 `json:"-"`
}

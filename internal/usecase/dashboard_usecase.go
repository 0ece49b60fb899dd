package usecase

import (
	"context"
	"time"

	"dental-referral-tracker/internal/delivery/dto"
	"dental-referral-tracker/internal/metrics"
)

// DashboardUsecase derives the dashboard metrics from a freshly reloaded
// snapshot, or from the retained one when the reload fails.
type DashboardUsecase interface {
	GetDashboard(ctx context.Context, period metrics.Period) *dto.DashboardResponse
	GetRanking(ctx context.Context, period metrics.Period) *dto.RankingResponse
}

type dashboardUsecase struct {
	referrals  ReferralUsecase
	weeklyGoal int
	loc        *time.Location
	clock      Clock
}

func NewDashboardUsecase(referrals ReferralUsecase, weeklyGoal int, loc *time.Location, clock Clock) DashboardUsecase {
	if loc == nil {
		loc = time.UTC
	}
	if clock == nil {
		clock = time.Now
	}
	return &dashboardUsecase{
		referrals:  referrals,
		weeklyGoal: weeklyGoal,
		loc:        loc,
		clock:      clock,
	}
}

func (u *dashboardUsecase) GetDashboard(ctx context.Context, period metrics.Period) *dto.DashboardResponse {
	snap, err := u.referrals.Refresh(ctx)
	now := u.clock().In(u.loc)

	return &dto.DashboardResponse{
		Summary:     metrics.ComputeSummary(snap.Referrals),
		Weekly:      metrics.ComputeWeeklyGoal(snap.Referrals, now, u.weeklyGoal),
		Commission:  metrics.ComputeMonthlyCommission(snap.Referrals, now),
		Period:      period,
		Ranking:     metrics.ComputeRanking(&snap, period, now, metrics.DefaultRankingLimit),
		GeneratedAt: now,
		Stale:       err != nil,
	}
}

func (u *dashboardUsecase) GetRanking(ctx context.Context, period metrics.Period) *dto.RankingResponse {
	snap, err := u.referrals.Refresh(ctx)
	now := u.clock().In(u.loc)

	return &dto.RankingResponse{
		Period: period,
		Rows:   metrics.ComputeRanking(&snap, period, now, metrics.DefaultRankingLimit),
		Stale:  err != nil,
	}
}

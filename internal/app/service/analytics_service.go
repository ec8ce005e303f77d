package service

import (
	"context"
	"fmt"
	"time"

	"github.com/linkshot/linkshot/internal/app/model"
	"github.com/linkshot/linkshot/internal/app/repository"
)

// AnalyticsSummary is the per-profile dashboard view of the event log.
type AnalyticsSummary struct {
	Handle         string            `json:"handle"`
	ProfileViews   int64             `json:"profile_views"`
	MonthlyViews   int64             `json:"monthly_views"`
	MonthlyClicks  int64             `json:"monthly_clicks"`
	AvgDailyViews  int64             `json:"avg_daily_views"`
	AvgDailyClicks int64             `json:"avg_daily_clicks"`
	LinkPopularity map[string]int64  `json:"link_popularity"`
	RecentActivity []model.ViewEvent `json:"recent_activity"`
	LastUpdated    time.Time         `json:"last_updated"`
}

// AnalyticsService summarizes stored view/click events for a profile.
type AnalyticsService interface {
	Summary(ctx context.Context, handle string) (*AnalyticsSummary, error)
}

type analyticsService struct {
	events   repository.ViewEventRepository
	profiles repository.ProfileRepository
}

// NewAnalyticsService returns an AnalyticsService over the event log.
func NewAnalyticsService(events repository.ViewEventRepository, profiles repository.ProfileRepository) AnalyticsService {
	return &analyticsService{events: events, profiles: profiles}
}

const analyticsWindowDays = 30

func (s *analyticsService) Summary(ctx context.Context, handle string) (*AnalyticsSummary, error) {
	profile, err := s.profiles.GetByHandle(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	since := time.Now().AddDate(0, 0, -analyticsWindowDays)

	monthlyViews, err := s.events.CountSince(ctx, handle, model.EventProfileView, since)
	if err != nil {
		return nil, fmt.Errorf("count views: %w", err)
	}
	monthlyClicks, err := s.events.CountSince(ctx, handle, model.EventLinkClick, since)
	if err != nil {
		return nil, fmt.Errorf("count clicks: %w", err)
	}

	bySlot, err := s.events.ClicksBySlot(ctx, handle, since)
	if err != nil {
		return nil, fmt.Errorf("clicks by slot: %w", err)
	}
	popularity := make(map[string]int64, len(bySlot))
	for _, sc := range bySlot {
		popularity[sc.LinkSlot] = sc.Clicks
	}

	recent, err := s.events.Recent(ctx, handle, 20)
	if err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}

	return &AnalyticsSummary{
		Handle:         handle,
		ProfileViews:   profile.ViewCount(),
		MonthlyViews:   monthlyViews,
		MonthlyClicks:  monthlyClicks,
		AvgDailyViews:  monthlyViews / analyticsWindowDays,
		AvgDailyClicks: monthlyClicks / analyticsWindowDays,
		LinkPopularity: popularity,
		RecentActivity: recent,
		LastUpdated:    time.Now(),
	}, nil
}

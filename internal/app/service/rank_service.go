package service

import (
	"context"
	"fmt"

	"github.com/linkshot/linkshot/internal/app/model"
	"github.com/linkshot/linkshot/internal/app/rank"
	"github.com/linkshot/linkshot/internal/app/repository"
	"github.com/linkshot/linkshot/internal/infra/prometheus"
	"go.uber.org/zap"
)

// DefaultTopN is how many profiles hold the booster tag.
const DefaultTopN = 3

// ReconcileResult reports which profiles a reconciliation pass touched.
type ReconcileResult struct {
	Updated []string `json:"updated"`
	Failed  []string `json:"failed,omitempty"`
}

// RankService owns the view counter and the booster-tag lifecycle.
type RankService interface {
	// RecordView bumps the profile's view counter. The returned count is
	// the new value. The caller nudges the reconcile worker afterwards;
	// the viewer response never waits on reconciliation.
	RecordView(ctx context.Context, handle string) (int64, error)
	// Reconcile makes booster-tag membership match the current top-N by
	// views. Per-row failures are collected, logged and skipped.
	Reconcile(ctx context.Context, n int) (ReconcileResult, error)
	// TopProfiles returns the current leaderboard snapshot.
	TopProfiles(ctx context.Context, n int) ([]model.LeaderboardEntry, error)
	// AddRank and RemoveRank are manual corrections that bypass the
	// top-N computation.
	AddRank(ctx context.Context, handle, tag string) (string, error)
	RemoveRank(ctx context.Context, handle, tag string) (string, error)
}

type rankService struct {
	repo   repository.ProfileRepository
	logger *zap.Logger
}

// NewRankService returns a RankService backed by the profile repository.
func NewRankService(repo repository.ProfileRepository, logger *zap.Logger) RankService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &rankService{repo: repo, logger: logger}
}

func (s *rankService) RecordView(ctx context.Context, handle string) (int64, error) {
	views, err := s.repo.IncrementViews(ctx, handle)
	if err != nil {
		return 0, fmt.Errorf("record view: %w", err)
	}

	prometheus.ProfileViews.Inc()
	return views, nil
}

func (s *rankService) Reconcile(ctx context.Context, n int) (ReconcileResult, error) {
	if n <= 0 {
		n = DefaultTopN
	}
	var result ReconcileResult

	prometheus.ReconcileRuns.Inc()

	top, err := s.repo.TopByViews(ctx, n)
	if err != nil {
		prometheus.ReconcileFailures.Inc()
		return result, fmt.Errorf("leaderboard snapshot: %w", err)
	}
	topHandles := make(map[string]struct{}, len(top))
	for _, entry := range top {
		topHandles[entry.Handle] = struct{}{}
	}

	boosted, err := s.repo.ListBoosted(ctx)
	if err != nil {
		prometheus.ReconcileFailures.Inc()
		return result, fmt.Errorf("list boosted: %w", err)
	}

	// Removals run before additions so a pass that demotes one profile
	// and promotes another never leaves both tagged at once.
	for _, profile := range boosted {
		if profile.Handle == nil {
			continue
		}
		handle := *profile.Handle
		if _, ok := topHandles[handle]; ok {
			continue
		}
		newRank := rank.Remove(profile.Rank, rank.BoosterTag)
		if err := s.repo.UpdateRank(ctx, handle, newRank); err != nil {
			s.logger.Warn("failed to remove booster tag",
				zap.String("handle", handle), zap.Error(err))
			result.Failed = append(result.Failed, handle)
			continue
		}
		result.Updated = append(result.Updated, handle)
	}

	for _, entry := range top {
		newRank := rank.Add(entry.Rank, rank.BoosterTag)
		if err := s.repo.UpdateRank(ctx, entry.Handle, newRank); err != nil {
			s.logger.Warn("failed to add booster tag",
				zap.String("handle", entry.Handle), zap.Error(err))
			result.Failed = append(result.Failed, entry.Handle)
			continue
		}
		result.Updated = append(result.Updated, entry.Handle)
	}

	if len(result.Failed) > 0 {
		prometheus.ReconcileRowFailures.Add(float64(len(result.Failed)))
	}
	return result, nil
}

func (s *rankService) TopProfiles(ctx context.Context, n int) ([]model.LeaderboardEntry, error) {
	if n <= 0 {
		n = DefaultTopN
	}
	entries, err := s.repo.TopByViews(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("top profiles: %w", err)
	}
	return entries, nil
}

func (s *rankService) AddRank(ctx context.Context, handle, tag string) (string, error) {
	return s.mutateRank(ctx, handle, tag, rank.Add)
}

func (s *rankService) RemoveRank(ctx context.Context, handle, tag string) (string, error) {
	return s.mutateRank(ctx, handle, tag, rank.Remove)
}

func (s *rankService) mutateRank(ctx context.Context, handle, tag string, op func(string, string) string) (string, error) {
	profile, err := s.repo.GetByHandle(ctx, handle)
	if err != nil {
		return "", fmt.Errorf("load profile: %w", err)
	}
	newRank := op(profile.Rank, tag)
	if newRank == profile.Rank {
		return newRank, nil
	}
	if err := s.repo.UpdateRank(ctx, handle, newRank); err != nil {
		return "", fmt.Errorf("update rank: %w", err)
	}
	return newRank, nil
}

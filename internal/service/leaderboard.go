package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Vulcanostrol/ringgzprotocol/internal/entity"
)

type scoreRepo interface {
	Add(ctx context.Context, delta *entity.ScoreDelta, username string) error
	Ranked(ctx context.Context) ([]*entity.ScoreEntry, error)
	History(ctx context.Context, username string) ([]*entity.ScoreDelta, error)
}

// LeaderboardService is the only writer of score state: results flow in
// exclusively from completed game sessions. Aborted games never reach it.
type LeaderboardService interface {
	RecordResult(ctx context.Context, results []*entity.ScoreEntry) error
	Snapshot(ctx context.Context) ([]*entity.ScoreEntry, error)
	History(ctx context.Context, username string) ([]*entity.ScoreDelta, error)
}

type leaderboardService struct {
	scores scoreRepo
	now    func() time.Time
}

func NewLeaderboardService(scores scoreRepo) LeaderboardService {
	return &leaderboardService{
		scores: scores,
		now:    time.Now,
	}
}

func (that *leaderboardService) RecordResult(ctx context.Context, results []*entity.ScoreEntry) error {
	timestamp := that.now()

	for _, result := range results {
		delta := &entity.ScoreDelta{
			Timestamp: timestamp,
			Points:    result.Score,
		}

		if err := that.scores.Add(ctx, delta, result.Username); err != nil {
			return fmt.Errorf("failed to record score for %s: %w", result.Username, err)
		}
	}

	return nil
}

func (that *leaderboardService) Snapshot(ctx context.Context) ([]*entity.ScoreEntry, error) {
	entries, err := that.scores.Ranked(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard snapshot: %w", err)
	}

	return entries, nil
}

func (that *leaderboardService) History(ctx context.Context, username string) ([]*entity.ScoreDelta, error) {
	deltas, err := that.scores.History(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get score history: %w", err)
	}

	return deltas, nil
}

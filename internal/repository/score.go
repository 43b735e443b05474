package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Vulcanostrol/ringgzprotocol/internal/entity"
)

const (
	leaderboardKey = "leaderboard"
	scoreLogPrefix = "scorelog:"
)

var ErrNoScores = errors.New("player has no recorded scores")

type ScoreRepository interface {
	Add(ctx context.Context, delta *entity.ScoreDelta, username string) error
	Ranked(ctx context.Context) ([]*entity.ScoreEntry, error)
	History(ctx context.Context, username string) ([]*entity.ScoreDelta, error)
}

type dbScore struct {
	client *redis.Client
}

func NewScoreRepository(client *redis.Client) ScoreRepository {
	return &dbScore{
		client: client,
	}
}

// Add applies one score delta to a player's cumulative score and appends
// it to the player's timestamped history.
func (that *dbScore) Add(ctx context.Context, delta *entity.ScoreDelta, username string) error {
	deltaJSON, err := json.Marshal(delta)
	if err != nil {
		return fmt.Errorf("could not marshal score delta: %w", err)
	}

	if err = that.client.ZIncrBy(ctx, leaderboardKey, float64(delta.Points), username).Err(); err != nil {
		return fmt.Errorf("failed to update leaderboard: %w", err)
	}

	if err = that.client.RPush(ctx, scoreLogPrefix+username, deltaJSON).Err(); err != nil {
		return fmt.Errorf("failed to append score log: %w", err)
	}

	return nil
}

// Ranked returns the full leaderboard snapshot, best score first.
func (that *dbScore) Ranked(ctx context.Context) ([]*entity.ScoreEntry, error) {
	members, err := that.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	entries := make([]*entity.ScoreEntry, 0, len(members))
	for _, member := range members {
		username, ok := member.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, &entity.ScoreEntry{
			Username: username,
			Score:    int(member.Score),
		})
	}

	return entries, nil
}

// History returns one player's score deltas in the order they were earned.
func (that *dbScore) History(ctx context.Context, username string) ([]*entity.ScoreDelta, error) {
	raw, err := that.client.LRange(ctx, scoreLogPrefix+username, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read score log: %w", err)
	}

	if len(raw) == 0 {
		return nil, ErrNoScores
	}

	deltas := make([]*entity.ScoreDelta, 0, len(raw))
	for _, item := range raw {
		var delta entity.ScoreDelta
		if err = json.Unmarshal([]byte(item), &delta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal score delta: %w", err)
		}
		deltas = append(deltas, &delta)
	}

	return deltas, nil
}

package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Vulcanostrol/ringgzprotocol/internal/entity"
	"github.com/Vulcanostrol/ringgzprotocol/internal/repository"
)

type leaderboardService interface {
	Snapshot(ctx context.Context) ([]*entity.ScoreEntry, error)
	History(ctx context.Context, username string) ([]*entity.ScoreDelta, error)
}

// Server exposes the read-only HTTP view of the game server: a health
// check, the ranked standings and per-player score histories. Game
// traffic itself never touches HTTP; it stays on the TCP protocol.
type Server struct {
	logger      *slog.Logger
	leaderboard leaderboardService
}

func New(logger *slog.Logger, leaderboard leaderboardService) *Server {
	return &Server{
		logger:      logger,
		leaderboard: leaderboard,
	}
}

func (that *Server) Start(ctx context.Context, port string) error {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/ping", that.handlePing)
	e.GET("/leaderboard", that.handleLeaderboard)
	e.GET("/scores/:username", that.handleScores)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("HTTP shutdown failed", "error", err)
		}
	}()

	if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) handlePing(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "pong")
}

func (that *Server) handleLeaderboard(ctx echo.Context) error {
	log := that.logger.With("method", "handleLeaderboard")

	entries, err := that.leaderboard.Snapshot(ctx.Request().Context())
	if err != nil {
		log.Error("failed to get leaderboard snapshot", "error", err)
		return ctx.String(http.StatusInternalServerError, "Internal Server Error")
	}

	return ctx.JSON(http.StatusOK, entries)
}

func (that *Server) handleScores(ctx echo.Context) error {
	log := that.logger.With("method", "handleScores")

	username := ctx.Param("username")

	deltas, err := that.leaderboard.History(ctx.Request().Context(), username)
	if errors.Is(err, repository.ErrNoScores) {
		return ctx.String(http.StatusNotFound, "no scores recorded")
	}

	if err != nil {
		log.Error("failed to get score history", "error", err, "username", username)
		return ctx.String(http.StatusInternalServerError, "Internal Server Error")
	}

	return ctx.JSON(http.StatusOK, deltas)
}

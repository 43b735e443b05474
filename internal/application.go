package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/Vulcanostrol/ringgzprotocol/internal/config"
	"github.com/Vulcanostrol/ringgzprotocol/internal/repository"
	"github.com/Vulcanostrol/ringgzprotocol/internal/repository/storage"
	"github.com/Vulcanostrol/ringgzprotocol/internal/service"
	"github.com/Vulcanostrol/ringgzprotocol/internal/usecase"
	"github.com/Vulcanostrol/ringgzprotocol/transport/rest"
	"github.com/Vulcanostrol/ringgzprotocol/transport/tcp"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - wires storage, services and the protocol hub together and
// runs the TCP and HTTP servers until a signal or a server error.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	scoreRepo := repository.NewScoreRepository(redisStorage.Connection)
	credentialRepo := repository.NewCredentialRepository(redisStorage.Connection)

	botService := service.NewBotService()
	leaderboardService := service.NewLeaderboardService(scoreRepo)
	authService := service.NewAuthService(credentialRepo)

	gameHub := usecase.NewHub(logger, conf.Game, botService, leaderboardService, authService)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("Starting TCP server", "port", conf.TCPPort)
		if tcpErr := tcp.New(logger, gameHub).Start(groupCtx, conf.TCPPort); tcpErr != nil {
			return fmt.Errorf("TCP server error: %w", tcpErr)
		}
		return nil
	})

	group.Go(func() error {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.New(logger, leaderboardService).Start(groupCtx, conf.HTTPPort); httpErr != nil {
			return fmt.Errorf("HTTP server error: %w", httpErr)
		}
		return nil
	})

	if err = group.Wait(); err != nil {
		return err
	}

	log.Info("Application context canceled, shutting down")

	return nil
}

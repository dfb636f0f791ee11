package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"dotcapture/internal/adapters"
	"dotcapture/internal/bootstrap"
	asyncDelivery "dotcapture/internal/delivery/async"
	gameDelivery "dotcapture/internal/delivery/game"
	ownMiddleware "dotcapture/internal/middleware"
	repo "dotcapture/internal/repository"
	"dotcapture/internal/usecase/asyncgame"
	"dotcapture/internal/usecase/rating"
	"dotcapture/internal/usecase/registry"
)

type mainDeliveryHandler struct {
	game  *gameDelivery.GameHandler
	async *asyncDelivery.AsyncHandler
}

func main() {
	logger := NewLogger()
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Error("Failed to setup configuration", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleShutdown(cancel, logger)

	redisAdapter := adapters.NewAdapterRedis(cfg)
	if err := redisAdapter.Init(ctx); err != nil {
		logger.Fatal("Failed to initialize redis", zap.Error(err))
	}
	defer redisAdapter.Close(ctx)
	logger.Info("Redis adapter initialized")

	snapshots := repo.NewSnapshotRepository(logger, redisAdapter.GetClient())
	ratings := rating.NewService(logger)
	gameRegistry := registry.NewRegistry(logger, ratings, cfg.GridSize)
	asyncManager := asyncgame.NewManager(logger, ratings, cfg.GridSize)
	asyncManager.SetLimits(
		cfg.AsyncGameLimit,
		time.Duration(cfg.RankedTurnHours)*time.Hour,
		time.Duration(cfg.UnrankedTurnHours)*time.Hour,
	)

	sched := startSweeps(logger, gameRegistry, asyncManager, *cfg)
	defer func() { _ = sched.Shutdown() }()

	r := chi.NewRouter()
	handlers := &mainDeliveryHandler{
		game:  gameDelivery.NewGameHandler(*cfg, logger, gameRegistry, asyncManager, ratings, snapshots),
		async: asyncDelivery.NewAsyncHandler(*cfg, logger, asyncManager, snapshots),
	}
	handlers.Router(r, cfg.IsLocalCors)

	port := ":" + cfg.ServerPort
	logger.Infof("Server is running on port %s", port)
	if err := http.ListenAndServe(port, r); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

func (h *mainDeliveryHandler) Router(r *chi.Mux, isLocalCors bool) {
	if isLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.Logger)

	r.Post("/matchmaking/join", h.game.HandleJoinMatchmaking)
	r.Delete("/matchmaking/leave", h.game.HandleLeaveMatchmaking)
	r.Get("/matchmaking/stats", h.game.HandleQueueStats)

	r.Post("/game/new", h.game.HandleNewGame)
	r.Post("/game/join", h.game.HandleJoinGame)
	r.Get("/game/info", h.game.HandleGameInfo)
	r.Get("/play", h.game.HandlePlay)

	r.Get("/rating", h.game.HandleRating)
	r.Get("/leaderboard", h.game.HandleLeaderboard)
	r.Get("/history", h.game.HandleMatchHistory)

	r.Post("/async/new", h.async.HandleNewGame)
	r.Post("/async/move", h.async.HandleMove)
	r.Get("/async/games", h.async.HandleMyGames)
	r.Get("/async/game", h.async.HandleGameInfo)
	r.Post("/async/resign", h.async.HandleResign)
}

// startSweeps runs the two background jobs: forfeiting persistent games
// past their deadline and purging long-finished realtime sessions.
func startSweeps(log *zap.SugaredLogger, reg *registry.Registry, manager *asyncgame.Manager, cfg bootstrap.Config) gocron.Scheduler {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Fatal("Failed to create scheduler", zap.Error(err))
	}
	sched.Start()

	staleAge := time.Duration(cfg.StaleGameHours) * time.Hour

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			if closed := manager.SweepTimeouts(); len(closed) > 0 {
				log.Infow("timeout sweep closed games", "count", len(closed))
			}
		}),
	)

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			reg.CleanupStale(staleAge)
		}),
	)

	return sched
}

func handleShutdown(cancelFunc context.CancelFunc, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Received shutdown signal")
	cancelFunc()
	time.Sleep(1 * time.Second) // give connections time to close
}

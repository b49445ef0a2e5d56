package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trivia-legends/internal/app"
	"trivia-legends/internal/config"
	"trivia-legends/internal/events"
	"trivia-legends/internal/infra/memory"
	infraredis "trivia-legends/internal/infra/redis"
	"trivia-legends/internal/logging"
	transport "trivia-legends/internal/transport/http"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	store, closeStore, err := openScoreStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	scores := app.NewScoreService(store, logger)

	bus, err := events.NewPubSub(events.Config{
		Transport:     cfg.Events.Publisher,
		Brokers:       cfg.Events.Brokers,
		ConsumerGroup: cfg.Events.ConsumerGroup,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	defer bus.Close()

	consumer, err := events.NewRouter(events.RouterConfig{
		Topic:      cfg.Events.Topic,
		Subscriber: bus.Subscriber,
		Sink:       scores,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	go func() {
		if err := consumer.Run(consumerCtx); err != nil {
			logger.Error("event router stopped", "error", err)
		}
	}()
	// gochannel drops messages published before the subscription exists
	<-consumer.Running()
	recorder := events.NewPublisher(bus.Publisher, cfg.Events.Topic, logger)

	bank := newQuestionBank(cfg, logger)
	categoriesTTL := config.TTLDuration(cfg.Categories.TTL, time.Hour)
	var categories app.CategoryRepository
	if redisClient != nil {
		categories = infraredis.NewCategoryRepository(redisClient, bank, categoriesTTL)
	} else {
		categories = memory.NewCategoryRepository(bank, categoriesTTL)
	}

	var sessions interface {
		app.SessionRepository
		transport.SessionCounter
	}
	if redisClient != nil {
		sessions = infraredis.NewSessionStore(redisClient, redisTTL)
	} else {
		sessions = memory.NewSessionStore()
	}
	trivia := app.NewTriviaService(sessions, bank, recorder, categories, gameDefaults(cfg), logger)

	server := &http.Server{
		Addr: ":" + finalPort,
		Handler: transport.NewRouter(transport.RouterConfig{
			Trivia:   trivia,
			Scores:   scores,
			Logger:   logger,
			Sessions: sessions,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting trivia service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if live, err := sessions.Live(shutdownCtx); err == nil {
		logger.Info("dropping live sessions", "count", live)
	}
	err = server.Shutdown(shutdownCtx)
	_ = consumer.Close()
	return err
}

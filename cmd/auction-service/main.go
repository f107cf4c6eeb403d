package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"bidding-platform/internal/adapters/broadcaster"
	"bidding-platform/internal/adapters/db"
	"bidding-platform/internal/adapters/identity"
	"bidding-platform/internal/adapters/memory"
	"bidding-platform/internal/adapters/redis"
	"bidding-platform/internal/adapters/rest"
	"bidding-platform/internal/adapters/scheduler"
	"bidding-platform/internal/app"
	"bidding-platform/internal/config"
)

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	initLogging(cfg)

	log.Info().Msg("Starting Bidding Platform Auction Service...")

	// Cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eventBroadcaster := broadcaster.NewLocalBroadcaster(broadcaster.LocalBroadcasterParams{
		Lanes:  cfg.Engine.EventLanes,
		Logger: log.Logger,
	})

	auctionStore := memory.NewAuctionStore(memory.AuctionStoreParams{
		Publisher: eventBroadcaster,
		Logger:    log.Logger,
	})
	log.Info().Int("lanes", cfg.Engine.EventLanes).Msg("Auction store and broadcaster initialized")

	// Optional Redis relay
	var redisRelay *broadcaster.RedisRelay
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(cfg.Redis)
		defer redisClient.Close()

		if err := redis.PingRedis(ctx, redisClient); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}

		redisRelay = broadcaster.NewRedisRelay(broadcaster.RedisRelayParams{
			RedisClient: redisClient,
			Source:      eventBroadcaster,
			BufferSize:  cfg.Engine.EventBufferSize,
			Logger:      log.Logger,
		})
		if err := redisRelay.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start Redis relay")
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Redis relay started")
	}

	// Optional Postgres event archive
	var eventArchive *db.EventArchive
	if cfg.Database.Enabled {
		dbConn, err := db.NewConnection(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer dbConn.Close()

		eventArchive = db.NewEventArchive(db.EventArchiveParams{
			Conn:       dbConn,
			Source:     eventBroadcaster,
			BufferSize: cfg.Engine.EventBufferSize,
			Logger:     log.Logger,
		})
		if err := eventArchive.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to prepare event archive schema")
		}
		if err := eventArchive.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start event archive")
		}
		log.Info().Msg("Event archive started")
	}

	auctionService := app.NewAuctionService(app.AuctionServiceParams{
		Store:       auctionStore,
		Broadcaster: eventBroadcaster,
		Logger:      log.Logger,
	})

	identityProvider := identity.NewMockProvider(identity.MockProviderParams{
		Secret:   cfg.Auth.JWTSecret,
		TokenTTL: cfg.Auth.TokenTTL,
		Logger:   log.Logger,
	})

	if cfg.Engine.SeedDemoData {
		seeded, err := app.Seed(ctx, auctionStore, app.SeedParams{
			Seller: identity.DemoAdmin(),
			Bidder: identity.DemoUser(),
			Now:    time.Now(),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to seed demo auctions")
		}
		log.Info().Int("auctions", len(seeded)).Msg("Demo auctions seeded")
	}

	statusScheduler := scheduler.NewStatusScheduler(scheduler.StatusSchedulerParams{
		Refresher: auctionService,
		Interval:  cfg.Engine.StatusTickInterval,
		Logger:    log.Logger,
	})

	server := rest.NewServer(rest.ServerParams{
		Config:         cfg,
		AuctionService: auctionService,
		Subscriptions:  auctionService,
		Identity:       identityProvider,
		Logger:         log.Logger,
	})

	statusScheduler.Start()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Start()
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Starting graceful shutdown...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		statusScheduler.Stop()
		log.Info().Msg("Status scheduler stopped")

		err := server.Stop(shutdownCtx)

		if eventArchive != nil {
			eventArchive.Stop(shutdownCtx)
		}
		if redisRelay != nil {
			redisRelay.Stop(shutdownCtx)
		}
		_ = eventBroadcaster.Close()

		return err
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Service stopped with error")
		os.Exit(1)
	}

	log.Info().Msg("Graceful shutdown completed")
}

func initLogging(cfg *config.Config) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if level > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	// Set log format
	if cfg.Logging.Format == "json" {
		// JSON format (default)
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		// Console format for development
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global logger
	zerolog.DefaultContextLogger = &log.Logger
}

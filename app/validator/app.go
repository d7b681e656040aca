// Package validator hosts the reward engine: periodic ingestion of betting
// volume from the ledger, decay scoring, snapshot emission and the query API.
package validator

import (
	"context"

	"github.com/Casino-TAO/casino-tao-subnet/app/validator/types"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/chain"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/db"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/identity"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/ledger"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/logging"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/metrics"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/redis"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/utils"
	"go.uber.org/zap"
)

// Initialize initializes the application.
func Initialize(ctx context.Context) *types.App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr'
		panic(err)
	}

	store, dbErr := db.New(ctx, logger)
	if dbErr != nil {
		logger.Fatal("Unable to initialize validator database", zap.Error(dbErr))
	}

	// Initialize Redis client for real-time WebSocket events (optional)
	var redisClient *redis.Client
	if utils.Env("REDIS_ENABLED", "false") == "true" {
		redisClient, err = redis.NewClient(ctx, logger)
		if err != nil {
			logger.Warn("Failed to initialize Redis client - WebSocket real-time events will be disabled",
				zap.Error(err))
			redisClient = nil
		} else {
			logger.Info("Redis client initialized for WebSocket real-time events")
		}
	} else {
		logger.Info("Redis disabled - WebSocket real-time events will not be available")
	}

	app := &types.App{
		DB:          store,
		Ledger:      ledger.New(),
		Chain:       chain.New(),
		Verifier:    identity.Ed25519Verifier{},
		RedisClient: redisClient,
		Metrics:     metrics.New(),
		Logger:      logger,
	}

	engine := NewEngine(app)
	if scheduleErr := engine.SetupScheduler(ctx); scheduleErr != nil {
		logger.Fatal("Unable to set up scheduler", zap.Error(scheduleErr))
	}

	return app
}

// Command server wires a single-symbol matching engine behind the HTTP
// demo API, a Redis fill publisher, and a Postgres-or-file checkpoint
// store. It builds the engine first, then attaches the collaborators
// (fill publisher, checkpoint store and restore), then starts the HTTP
// server.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/vkarasev/matchcore/internal/adapter/cache"
	"github.com/vkarasev/matchcore/internal/adapter/fileio"
	"github.com/vkarasev/matchcore/internal/adapter/pg"
	httpapi "github.com/vkarasev/matchcore/internal/api/http"
	"github.com/vkarasev/matchcore/internal/domain"
	"github.com/vkarasev/matchcore/internal/engine"
	"github.com/vkarasev/matchcore/internal/port"
)

func main() {
	ctx := context.Background()
	logger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	eng := engine.New(
		engine.WithSymbol(getEnv("SYMBOL", "MATCH")),
		engine.WithSelfTradePrevention(true),
		engine.WithFeeSchedule(decimal.NewFromFloat(0.0002), decimal.NewFromFloat(0.0005)),
		engine.WithLogger(logger),
		engine.WithClock(time.Now),
		engine.WithFillIDBase(1),
	)
	eng.EnableLogging()

	publisher := cache.NewRedisPublisher(getEnv("REDIS_ADDR", "localhost:6379"), "", 0)
	defer publisher.Close()
	eng.Router().RegisterFillCallback(func(f domain.EnhancedFill) {
		if err := publisher.PublishFill(ctx, eng.Symbol(), f); err != nil {
			logger.Error().Err(err).Msg("publish fill to redis failed")
		}
	})

	// The checkpoint store is picked by configuration, not by code path:
	// Postgres when POSTGRES_URL is set, a plain file pair otherwise. Both
	// satisfy port.SnapshotStore/port.EventStore identically, so the
	// restore-then-periodic-save logic below never needs to know which one
	// it's talking to.
	var snapStore port.SnapshotStore
	var eventStore port.EventStore
	var snapKey, eventKey string

	pgURL := getEnv("POSTGRES_URL", "")
	if pgURL != "" {
		pool, err := pgxpool.New(ctx, pgURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to postgres failed")
		}
		pgStore := pg.NewStore(pool)
		defer pgStore.Close()
		snapStore, eventStore = pgStore, pgStore
		snapKey = eng.Symbol()
		eventKey = snapKey
	} else {
		fStore := fileio.NewStore()
		snapStore, eventStore = fStore, fStore
		snapKey = getEnv("SNAPSHOT_PATH", eng.Symbol()+".snapshot.json")
		eventKey = getEnv("EVENTS_PATH", eng.Symbol()+".events.log")
	}

	if snap, err := snapStore.LoadSnapshot(ctx, snapKey); err == nil {
		eng.Restore(snap)
		if events, err := eventStore.LoadEvents(ctx, eventKey); err == nil {
			for _, ev := range events {
				if ev.Type == domain.EventFill || ev.Timestamp.Before(snap.SnapshotTime) {
					continue
				}
				eng.ApplyEvent(ev)
			}
			logger.Info().Msg("restored engine state from checkpoint store")
		} else {
			logger.Error().Err(err).Msg("load event log failed, snapshot restored without replay")
		}
	} else {
		logger.Info().Msg("no checkpoint found, starting fresh")
	}

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	go func() {
		for range ticker.C {
			if err := snapStore.SaveSnapshot(ctx, snapKey, eng.Snapshot()); err != nil {
				logger.Error().Err(err).Msg("periodic snapshot save failed")
				continue
			}
			if err := eventStore.SaveEvents(ctx, eventKey, eng.Events()); err != nil {
				logger.Error().Err(err).Msg("periodic event log save failed")
			}
		}
	}()

	server := httpapi.NewServer(eng)
	addr := getEnv("LISTEN_ADDR", ":8080")
	log.Printf("matchcore listening on %s for symbol %s", addr, eng.Symbol())
	if err := server.Run(addr); err != nil {
		logger.Fatal().Err(err).Msg("http server failed")
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

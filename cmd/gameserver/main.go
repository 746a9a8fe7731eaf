// Package main provides the game server binary: one process serving the
// WebSocket gateway, the HTTP surface, and the tick engine.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/frontiermmo/server/internal/config"
	"github.com/frontiermmo/server/internal/game/content"
	"github.com/frontiermmo/server/internal/gameserver"
	"github.com/frontiermmo/server/internal/observability"
	"github.com/frontiermmo/server/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting game server",
		zap.String("addr", cfg.Server.Addr()),
		zap.Int("tick_rate", cfg.Game.TickRate),
	)

	catalogStart := time.Now()
	catalog, err := buildCatalog(cfg.Content)
	if err != nil {
		logger.Fatal("building content catalog", zap.Error(err))
	}
	logger.Info("content catalog ready",
		zap.Int("weapons", len(catalog.Weapons())),
		zap.Int("buildings", len(catalog.Buildings())),
		zap.Duration("elapsed", time.Since(catalogStart)),
	)

	hub := gameserver.NewHub(logger, cfg.Game, cfg.Limits, catalog)
	engine := gameserver.NewEngine(hub)

	mux := http.NewServeMux()
	hub.Routes(mux)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: mux,
	}

	lifecycle := server.NewLifecycle(logger)

	lifecycle.Add("http", &server.FuncService{
		StartFn: func() error {
			logger.Info("http server listening",
				zap.String("addr", cfg.Server.Addr()),
			)
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
		StopFn: func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("http shutdown", zap.Error(err))
			}
		},
	})

	lifecycle.Add("tick", engine)

	logger.Info("game server initialized",
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// buildCatalog loads weapon and building definitions from the configured
// directories. A category without a configured directory uses the built-ins.
func buildCatalog(cfg config.ContentConfig) (*content.Catalog, error) {
	if cfg.WeaponsDir == "" && cfg.BuildingsDir == "" {
		return content.Default(), nil
	}

	catalog := content.NewCatalog()

	weapons := content.Default().Weapons()
	if cfg.WeaponsDir != "" {
		loaded, err := content.LoadWeapons(cfg.WeaponsDir)
		if err != nil {
			return nil, fmt.Errorf("loading weapons: %w", err)
		}
		weapons = loaded
	}
	for _, w := range weapons {
		if err := catalog.RegisterWeapon(w); err != nil {
			return nil, fmt.Errorf("registering weapon %q: %w", w.ID, err)
		}
	}

	buildings := content.Default().Buildings()
	if cfg.BuildingsDir != "" {
		loaded, err := content.LoadBuildings(cfg.BuildingsDir)
		if err != nil {
			return nil, fmt.Errorf("loading buildings: %w", err)
		}
		buildings = loaded
	}
	for _, b := range buildings {
		if err := catalog.RegisterBuilding(b); err != nil {
			return nil, fmt.Errorf("registering building %q: %w", b.ID, err)
		}
	}

	return catalog, nil
}

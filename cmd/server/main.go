package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sakutaro/tanabota/internal/api"
	"github.com/sakutaro/tanabota/internal/auth"
	"github.com/sakutaro/tanabota/internal/config"
	"github.com/sakutaro/tanabota/internal/seed"
	"github.com/sakutaro/tanabota/internal/service"
	"github.com/sakutaro/tanabota/internal/storage/sqlite"
	"github.com/sakutaro/tanabota/internal/tanabota"
	"github.com/sakutaro/tanabota/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	if cfg.Seed {
		if err := seed.Apply(context.Background(), store); err != nil {
			slog.Error("Failed to apply seed data", "error", err)
			os.Exit(1)
		}
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store)
	engine := tanabota.NewEngine()

	router := api.NewRouter(api.Deps{
		Store:         store,
		Authenticator: authenticator,
		JWT:           jwtManager,
		POS:           service.NewPOSService(store, engine, cfg.DemoFallback),
		Recipes:       service.NewRecipeService(store),
		Preferences:   service.NewPreferenceService(store),
	})

	slog.Info("Server starting", "address", cfg.Addr)
	if err := router.Run(cfg.Addr); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

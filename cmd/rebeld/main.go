// Command rebeld runs the rebellion campaign authority: it owns the
// canonical organization sheet, merges updates from connected tables, and
// serves the HTTP/WebSocket API the clients talk to.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/caarlos0/env/v11"

	"github.com/talgya/uprising/internal/api"
	"github.com/talgya/uprising/internal/catalog"
	"github.com/talgya/uprising/internal/dice"
	"github.com/talgya/uprising/internal/persistence"
	"github.com/talgya/uprising/internal/phase"
	"github.com/talgya/uprising/internal/rebellion"
	"github.com/talgya/uprising/internal/store"
)

type config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DBPath      string `env:"DB_PATH" envDefault:"data/uprising.db"`
	ArchiveDir  string `env:"ARCHIVE_DIR" envDefault:"data/archive"`
	ContentPath string `env:"CONTENT_PATH" envDefault:"content/overrides.yaml"`
	AdminKey    string `env:"ADMIN_KEY"`
	SenderID    string `env:"SENDER_ID" envDefault:"authority"`
	Seed        int64  `env:"SEED"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		slog.Error("config parse failed", "error", err)
		os.Exit(1)
	}

	if cfg.AdminKey == "" {
		slog.Warn("ADMIN_KEY not set, GM POST endpoints will be disabled")
	}

	// ── Content ───────────────────────────────────────────────────────
	cat, err := catalog.Load(cfg.ContentPath)
	if err != nil {
		slog.Error("content load failed", "path", cfg.ContentPath, "error", err)
		os.Exit(1)
	}

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(cfg.DBPath), 0755)
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	archive, err := persistence.NewArchiver(cfg.ArchiveDir)
	if err != nil {
		slog.Error("failed to open archive", "error", err)
		os.Exit(1)
	}

	// ── State ─────────────────────────────────────────────────────────
	initial, err := db.LoadState()
	switch {
	case err == nil:
		slog.Info("campaign state restored", "week", initial.Week, "rank", initial.Rank)
	case errors.Is(err, persistence.ErrNoState):
		slog.Info("no saved state found, starting a new campaign")
		initial = rebellion.Default()
	default:
		slog.Error("failed to load state", "error", err)
		os.Exit(1)
	}

	st := store.New(cat, initial, store.Options{
		Authority: true,
		SenderID:  cfg.SenderID,
		Persister: db,
		Logger:    logger,
	})

	// ── Rules ─────────────────────────────────────────────────────────
	var roller dice.Roller
	if cfg.Seed != 0 {
		roller = dice.NewRoller(cfg.Seed)
		slog.Info("deterministic dice", "seed", cfg.Seed)
	} else {
		roller = dice.NewCryptoRoller()
	}
	controller := phase.New(cat, roller, rebellion.ActorMap{})

	// ── HTTP API ──────────────────────────────────────────────────────
	hub := api.NewHub(st, logger)
	apiServer := &api.Server{
		Store:    st,
		Phase:    controller,
		DB:       db,
		Archive:  archive,
		Hub:      hub,
		Port:     cfg.Port,
		AdminKey: cfg.AdminKey,
	}
	apiServer.Start()

	// ── Run ───────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	fmt.Printf("Uprising authority ready on http://localhost:%d/api/v1/status (week %d)\n",
		cfg.Port, initial.Week)

	st.Run(ctx)

	// Final save on shutdown.
	slog.Info("final save...")
	if err := db.SaveState(st.Get()); err != nil {
		slog.Error("final save failed", "error", err)
	}

	fmt.Println("Authority stopped. Campaign state saved.")
}

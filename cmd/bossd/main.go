package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/bossengine/internal/ai"
	"github.com/udisondev/bossengine/internal/arena"
	"github.com/udisondev/bossengine/internal/boss"
	"github.com/udisondev/bossengine/internal/config"
	"github.com/udisondev/bossengine/internal/crypto"
	"github.com/udisondev/bossengine/internal/db"
	"github.com/udisondev/bossengine/internal/encounter"
	"github.com/udisondev/bossengine/internal/logging"
	"github.com/udisondev/bossengine/internal/replication"
)

const ConfigPath = "config/bossd.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("BOSSD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadBossServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logCloser, err := logging.Setup(cfg.Log)
	if err != nil {
		return fmt.Errorf("configuring logging: %w", err)
	}
	defer logCloser.Close()

	slog.Info("bossd starting",
		"boss", cfg.BossName,
		"bind", cfg.BindAddress,
		"port", cfg.Port,
		"tick_interval", cfg.TickInterval,
		"log_level", cfg.Log.Level)

	tunables := boss.DefaultTunables()
	if cfg.TunablesPath != "" {
		if tunables, err = boss.LoadTunables(cfg.TunablesPath); err != nil {
			return fmt.Errorf("loading tunables: %w", err)
		}
	}

	var cipher *crypto.FrameCipher
	if cfg.Sync.BlowfishKey != "" {
		if cipher, err = crypto.NewFrameCipher([]byte(cfg.Sync.BlowfishKey)); err != nil {
			return fmt.Errorf("creating frame cipher: %w", err)
		}
	}

	var store encounter.SnapshotStore
	if cfg.Persistence.Enabled {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		if err := db.RunMigrations(ctx, database.Pool()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")

		store = snapshotStore{repo: db.NewBossSnapshotRepository(database.Pool())}
	}

	hub := replication.NewHub(cfg.Sync.WriteTimeout, cfg.Sync.OutboxSize)
	publisher := replication.NewPublisher(hub, cfg.Sync.MaxResyncsPerSecond, cfg.Sync.Burst, cipher)

	world := arena.New(cfg.Arena, boss.Vec2{})
	actor, err := boss.NewActor(boss.Config{
		Name:      cfg.BossName,
		Tunables:  tunables,
		World:     world,
		Effects:   world,
		MaxHealth: cfg.MaxHealth,
	})
	if err != nil {
		return fmt.Errorf("creating boss: %w", err)
	}

	enc := encounter.New(actor, world, publisher)
	encounters := encounter.NewManager(store, cfg.Persistence.SaveInterval)
	if err := encounters.Add(ctx, enc); err != nil {
		return fmt.Errorf("adding encounter: %w", err)
	}

	tickMgr := ai.NewTickManager(cfg.TickInterval)
	tickMgr.Register(enc.ID(), enc)
	defer tickMgr.Unregister(enc.ID())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := tickMgr.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("tick manager: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := encounters.RunSaveLoop(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("encounter save loop: %w", err)
		}
		return nil
	})

	if cfg.TunablesPath != "" {
		watcher, err := config.NewTunablesWatcher(cfg.TunablesPath, actor.SetTunables)
		if err != nil {
			return fmt.Errorf("watching tunables: %w", err)
		}
		g.Go(func() error {
			slog.Info("watching tunables", "path", cfg.TunablesPath)
			return watcher.Run(gctx)
		})
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddress, strconv.Itoa(cfg.Port)),
		Handler:           newMux(hub, enc, publisher, world),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		slog.Info("starting http server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 5*time.Second)
		defer cancel()
		hub.Close()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	sent, deferred := publisher.Stats()
	slog.Info("bossd stopped", "ticks", tickMgr.Ticks(), "resyncs", sent, "deferred", deferred)
	return nil
}

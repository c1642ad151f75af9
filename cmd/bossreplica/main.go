package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/bossengine/internal/ai"
	"github.com/udisondev/bossengine/internal/boss"
	"github.com/udisondev/bossengine/internal/config"
	"github.com/udisondev/bossengine/internal/crypto"
	"github.com/udisondev/bossengine/internal/encounter"
	"github.com/udisondev/bossengine/internal/logging"
	"github.com/udisondev/bossengine/internal/replication"
)

const ConfigPath = "config/bossreplica.yaml"

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

// replicaController ticks the replica and logs its mirrored state now and then.
type replicaController struct {
	replica     *replication.Replica
	statusEvery int
	ticks       int
}

func (c *replicaController) Start() {
	slog.Info("replica started", "boss", c.replica.Actor().Name())
}

func (c *replicaController) Stop() {
	applied, desyncs := c.replica.Stats()
	slog.Info("replica stopped", "applied", applied, "desyncs", desyncs)
}

func (c *replicaController) Tick() {
	c.replica.Tick()
	c.ticks++
	if c.statusEvery > 0 && c.ticks%c.statusEvery == 0 {
		a := c.replica.Actor()
		slog.Info("replica status",
			"state", a.CurrentState(),
			"timer", a.CurrentTimer(),
			"depth", len(a.Stack()),
			"phase", a.Phase())
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("BOSSREPLICA_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadReplica(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logCloser, err := logging.Setup(cfg.Log)
	if err != nil {
		return fmt.Errorf("configuring logging: %w", err)
	}
	defer logCloser.Close()

	slog.Info("bossreplica starting", "server", cfg.ServerURL, "boss", cfg.BossName)

	var cipher *crypto.FrameCipher
	if cfg.BlowfishKey != "" {
		if cipher, err = crypto.NewFrameCipher([]byte(cfg.BlowfishKey)); err != nil {
			return fmt.Errorf("creating frame cipher: %w", err)
		}
	}

	tunables := boss.DefaultTunables()
	if cfg.TunablesPath != "" {
		if tunables, err = boss.LoadTunables(cfg.TunablesPath); err != nil {
			return fmt.Errorf("loading tunables: %w", err)
		}
	}

	actor, err := boss.NewActor(boss.Config{
		Name:     cfg.BossName,
		Tunables: tunables,
		Replica:  true,
	})
	if err != nil {
		return fmt.Errorf("creating replica actor: %w", err)
	}
	replica := replication.NewReplica(actor, cipher)

	tickMgr := ai.NewTickManager(cfg.TickInterval)
	tickMgr.Register(encounter.ActorID(cfg.BossName), &replicaController{
		replica:     replica,
		statusEvery: cfg.StatusEvery,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := tickMgr.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("tick manager: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		client := replication.NewClient(cfg.ServerURL, replica)
		for {
			err := client.Run(gctx)
			if gctx.Err() != nil {
				return nil
			}
			slog.Warn("replica disconnected, retrying", "err", err, "delay", cfg.ReconnectDelay)
			select {
			case <-gctx.Done():
				return nil
			case <-time.After(cfg.ReconnectDelay):
			}
		}
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("replica error: %w", err)
	}
	tickMgr.Unregister(encounter.ActorID(cfg.BossName))
	return nil
}

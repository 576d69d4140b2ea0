package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/hldsbot/hldsbot-go/internal/classifier"
	"github.com/hldsbot/hldsbot-go/internal/config"
	"github.com/hldsbot/hldsbot-go/internal/destination"
	"github.com/hldsbot/hldsbot-go/internal/dispatch"
	"github.com/hldsbot/hldsbot-go/internal/health"
	"github.com/hldsbot/hldsbot-go/internal/listener"
	"github.com/hldsbot/hldsbot-go/internal/logging"
	"github.com/hldsbot/hldsbot-go/internal/metrics"
	"github.com/hldsbot/hldsbot-go/internal/telegram"
)

// shutdownTimeout bounds how long in-flight work may take after a signal.
const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the log relay",
	Long: `Run the log relay: check every configured Telegram destination, then
listen for HLDS log datagrams and answer the bot's chat commands until
interrupted.

Exits with status 3 if none of the configured destinations is reachable.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level := logging.ParseLevel(cfg.Log.Level)
	if verbose {
		level = slog.LevelDebug
	}
	logger, err := logging.New(cmd.ErrOrStderr(), level, cfg.Log.Format)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	client, err := telegram.New(cfg.Telegram.Token, telegram.WithLogger(logger))
	if err != nil {
		return err
	}
	dests := cfg.DestinationSet(client)
	for _, d := range dests.All() {
		if err := m.WatchAvailability(string(d.Role), d.IsAvailable); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
	}

	if err := sanityCheck(ctx, dests, logger); err != nil {
		return err
	}

	d, err := dispatch.New(dispatch.Config{
		Classifier:   classifier.New(cfg.ClassifierPolicy()),
		Routing:      cfg.DispatchRouting(),
		Destinations: dests,
		Logger:       logger,
		Metrics:      m,
	})
	if err != nil {
		return err
	}

	l, err := listener.Listen(cfg.Listen.Address, logger)
	if err != nil {
		return err
	}

	commands := telegram.NewCommands(dests, cfg.Telegram.AdminIDs, telegram.ServerInfo{
		Version: version,
		Game:    cfg.Server.Game,
		Host:    cfg.Server.Host,
		Port:    cfg.Server.Port,
	}, logger)

	var healthServer *health.Server
	if cfg.HTTP.Address != "" {
		healthServer = health.New(cfg.HTTP.Address, dests, reg, logger)
	}

	return run(ctx, stop, logger, l, d, client, commands, healthServer)
}

// sanityCheck probes every configured destination. It fails only if none of
// them is usable.
func sanityCheck(ctx context.Context, dests *destination.Set, logger *slog.Logger) error {
	logger.Info("starting sanity check")
	all := len(dests.All())
	if unusable := dests.CheckAll(ctx, logger); unusable == all {
		logger.Error("no available destinations, re-check ids", "configured", all)
		return destination.ErrNoDestinations
	}
	logger.Info("sanity check ok")
	return nil
}

// run starts every component and blocks until ctx is cancelled or one of
// them fails, then shuts the rest down.
func run(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger,
	l *listener.Listener, d *dispatch.Dispatcher, client *telegram.Client,
	commands *telegram.Commands, healthServer *health.Server) error {

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	fail := func(component string, err error) {
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}
		logger.Error("component failed", "component", component, "error", err)
		errMu.Lock()
		if firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", component, err)
		}
		errMu.Unlock()
		cancel()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		fail("listener", l.Serve(ctx, d.Handle))
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		fail("commands", client.Serve(ctx, commands))
	}()

	if healthServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fail("health server", healthServer.Start())
		}()
	}

	logger.Info("all components started")
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if healthServer != nil {
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("health server shutdown", "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		d.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("all components stopped")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded, in-flight messages may be lost")
	}

	errMu.Lock()
	defer errMu.Unlock()
	return firstErr
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/becomeliminal/acc-agent/guardrails"
	"github.com/becomeliminal/acc-agent/server"
	"github.com/becomeliminal/acc-agent/settings"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat API over HTTP and WebSocket",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default 8000)")
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	watcher, err := settings.NewWatcher(a.dir, func(name string) {
		a.logger.Info("settings changed on disk", zap.String("document", name))
		a.sessions.ReloadSettings()
	}, settings.WithWatcherLogger(a.logger))
	if err != nil {
		return err
	}
	watcher.Start(ctx)
	defer watcher.Close()

	limiter := guardrails.NewLimiter(
		guardrails.WithRate(a.cfg.RateLimit),
		guardrails.WithBurst(a.cfg.RateBurst),
	)
	go pruneLimiter(ctx, limiter)

	srv := server.New(a.sessions,
		server.WithLimiter(limiter),
		server.WithMetrics(a.metrics),
		server.WithGatherer(a.registry),
		server.WithLogger(a.logger),
	)
	return srv.Run(ctx, a.cfg.Addr())
}

func pruneLimiter(ctx context.Context, l *guardrails.Limiter) {
	t := time.NewTicker(guardrails.DefaultIdleTTL)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Prune()
		}
	}
}

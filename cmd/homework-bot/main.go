package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andres10976/homework-bot/internal/config"
	"github.com/andres10976/homework-bot/internal/handler"
	"github.com/andres10976/homework-bot/internal/logger"
	"github.com/andres10976/homework-bot/internal/metrics"
	"github.com/andres10976/homework-bot/internal/middleware"
	"github.com/andres10976/homework-bot/internal/service/notifier"
	"github.com/andres10976/homework-bot/internal/service/poller"
	"github.com/andres10976/homework-bot/internal/service/statusapi"
)

type rootFlags struct {
	configFile string
	envFile    string
	once       bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:          "homework-bot",
		Short:        "Relay homework review status changes to a Telegram chat",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "TOML file with non-secret settings")
	cmd.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file with credentials")
	cmd.Flags().BoolVar(&flags.once, "once", false, "run a single poll cycle and exit")

	cmd.AddCommand(newCheckCmd(flags))
	return cmd
}

func loadConfig(flags *rootFlags) (*config.Config, error) {
	return config.Load(config.Options{File: flags.configFile, EnvFile: flags.envFile})
}

func newLogger(cfg *config.Config, stdout bool) (*zap.Logger, func(), error) {
	log, cleanup, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Format:   cfg.LogFormat,
		FilePath: cfg.LogFile,
		Stdout:   stdout,
	})
	if err != nil {
		return nil, nil, err
	}
	for _, w := range cfg.Warnings {
		log.Warn("ignoring invalid setting", zap.String("detail", w))
	}
	return log, cleanup, nil
}

func run(parent context.Context, flags *rootFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	log, cleanup, err := newLogger(cfg, cfg.LogStdout)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cfg.Validate(); err != nil {
		log.Fatal("cannot start without credentials", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Services
	client := statusapi.NewClient(cfg.Endpoint, cfg.PracticumToken, cfg.RequestTimeout)
	bot := notifier.NewTelegram(
		notifier.Dialer(cfg.TelegramToken, cfg.TelegramAPIEndpoint, &http.Client{Timeout: cfg.RequestTimeout}),
		cfg.TelegramChatID,
		log.Named("notifier"),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg)

	p := poller.New(client, bot, poller.Options{
		Interval:  cfg.PollInterval,
		NotifyAll: cfg.NotifyAll,
		Logger:    log.Named("poller"),
		Recorder:  rec,
	})

	if flags.once {
		if err := p.RunOnce(ctx); err != nil {
			return fmt.Errorf("poll cycle failed: %w", err)
		}
		return nil
	}

	var srv *http.Server
	if cfg.OpsAddr != "" {
		srv = &http.Server{
			Addr:         cfg.OpsAddr,
			Handler:      opsRouter(p, reg, log.Named("ops")),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Info("ops listener starting", zap.String("addr", cfg.OpsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("ops listener error", zap.Error(err))
			}
		}()
	}

	if err := p.Run(ctx); err != nil {
		return err
	}
	log.Info("shutting down")

	if srv != nil {
		// Give in-flight requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}
	return nil
}

func opsRouter(p *poller.Poller, reg *prometheus.Registry, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.AccessLog(log))
	r.Use(middleware.Recovery(log))

	handler.NewStatusHandler(p).RegisterRoutes(r)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return r
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/handlers"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/cache"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/config"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/notification"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/workers"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/middleware"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/services"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log, migrate)
		},
	}

	cmd.Flags().String("port", "", "Port to listen on (overrides PORT)")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Run migrations before serving")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, log *slog.Logger, migrate bool) error {
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore(st, log)

	if migrate {
		migrateCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		err := st.Migrate(migrateCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	middleware.InitPrometheus(reg)
	metrics := services.NewMetrics(reg)

	progress := services.NewProgressionService(st, cfg.Location, log)
	progress.SetMetrics(metrics)

	auth := services.NewAuthService(st, cfg.JWTSecret, cfg.TokenTTL, log)
	users := services.NewUserService(st, progress, log)
	tasks := services.NewTaskService(st, progress, log)
	tasks.SetMetrics(metrics)
	shop := services.NewStoreService(st, log)

	if c := connectCache(ctx, cfg, log); c != nil {
		defer c.Close()
		progress.SetLeaderboardCache(c)
		shop.SetLeaderboardCache(c)
		users.SetLeaderboard(c)
		auth.SetRevoker(c)
		auth.SetLeaderboardCache(c)

		warmCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		if err := users.RebuildLeaderboard(warmCtx); err != nil {
			log.Warn("failed to warm leaderboard cache", slog.Any("error", err))
		}
		cancel()
	}

	hub := services.NewProgressHub(log)
	progress.SetPublisher(hub)

	dispatcher := services.NewNotificationDispatcher(log)
	dispatcher.SetMetrics(metrics)
	defer dispatcher.Stop()
	if fcm, err := notification.NewFCMService(ctx, cfg.FCMCredentialsJSON, cfg.FCMCredentialsFile, log); err != nil {
		log.Warn("could not initialize FCM, push notifications disabled", slog.Any("error", err))
	} else {
		dispatcher.SetPushProvider(fcm)
		log.Info("FCM push provider initialized")
	}
	progress.SetNotifier(dispatcher)

	reminders := services.NewNotificationService(st, dispatcher, cfg.ReminderWindowHour, log)
	scheduler := workers.New(reminders, cfg.Location, log)
	if err := scheduler.Start(cfg.ReminderCron); err != nil {
		return err
	}
	defer scheduler.Stop()

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
	go limiter.Cleanup(ctx)
	go hub.Run(ctx)

	router := handlers.NewRouter(handlers.Dependencies{
		Store:          st,
		Auth:           auth,
		Users:          users,
		Tasks:          tasks,
		Habits:         services.NewHabitService(st, progress),
		Games:          services.NewGameService(st, progress),
		Shop:           shop,
		Export:         services.NewExportService(st, cfg.Location, log),
		Hub:            hub,
		RateLimiter:    limiter,
		Gatherer:       reg,
		Logger:         log,
		MetricsUser:    cfg.MetricsUser,
		MetricsPass:    cfg.MetricsPass,
		PprofSecret:    cfg.PprofSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		SecureCookie:   cfg.CookieSecure,
	})

	return listen(ctx, ":"+cfg.Port, router, log)
}

// connectCache returns nil when Redis is not configured or unreachable; the leaderboard then
// reads straight from the store and logout only clears the cookie.
func connectCache(ctx context.Context, cfg *config.Config, log *slog.Logger) *cache.Cache {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set, leaderboard cache disabled")
		return nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	rdb, err := cache.Connect(dialCtx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Warn("could not connect to redis, leaderboard cache disabled", slog.Any("error", err))
		return nil
	}
	log.Info("connected to redis", slog.String("addr", cfg.RedisAddr))
	return cache.New(rdb)
}

func listen(ctx context.Context, addr string, handler http.Handler, log *slog.Logger) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	log.Info("server shutdown complete")
	return nil
}


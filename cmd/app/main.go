package main

import (
	"agenda-service/internal/config"
	availabilityGet "agenda-service/internal/http-server/handlers/availability/get"
	bookingApprove "agenda-service/internal/http-server/handlers/bookings/approve"
	bookingCreate "agenda-service/internal/http-server/handlers/bookings/create"
	bookingGet "agenda-service/internal/http-server/handlers/bookings/get"
	bookingList "agenda-service/internal/http-server/handlers/bookings/list"
	bookingReject "agenda-service/internal/http-server/handlers/bookings/reject"
	calendarGet "agenda-service/internal/http-server/handlers/calendar/get"
	labCreate "agenda-service/internal/http-server/handlers/labs/create"
	labDelete "agenda-service/internal/http-server/handlers/labs/delete"
	labGet "agenda-service/internal/http-server/handlers/labs/get"
	labUpdate "agenda-service/internal/http-server/handlers/labs/update"
	scheduleCreate "agenda-service/internal/http-server/handlers/schedules/create"
	scheduleDelete "agenda-service/internal/http-server/handlers/schedules/delete"
	scheduleGet "agenda-service/internal/http-server/handlers/schedules/get"
	scheduleUpdate "agenda-service/internal/http-server/handlers/schedules/update"
	userCreate "agenda-service/internal/http-server/handlers/users/create"
	userDelete "agenda-service/internal/http-server/handlers/users/delete"
	userGet "agenda-service/internal/http-server/handlers/users/get"
	"agenda-service/internal/lock"
	"agenda-service/internal/notify"
	svc "agenda-service/internal/service"
	"agenda-service/internal/storage/postgres"
	"agenda-service/pkg/handlers/slogpretty"
	"agenda-service/pkg/middleware/mwlogger"
	"agenda-service/pkg/sl"
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	storage, err := postgres.New(cfg.StoragePath)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	locker, err := lock.NewRedisLock(cfg.RedisAddr)
	if err != nil {
		log.Error("Failed to init redis lock", sl.Err(err))
		os.Exit(1)
	}

	notifier := notify.NewSMTPNotifier(cfg.SMTP, log)

	service := svc.NewService(storage, locker, notifier)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwlogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)

	// Labs
	router.Post("/labs", labCreate.New(log, service))
	router.Get("/labs", labGet.New(log, service))
	router.Get("/labs/{id}", labGet.New(log, service))
	router.Put("/labs/{id}", labUpdate.New(log, service))
	router.Delete("/labs/{id}", labDelete.New(log, service))
	router.Get("/labs/{id}/availability", availabilityGet.New(log, service))
	router.Get("/labs/{id}/calendar", calendarGet.New(log, service))

	// Fixed schedules
	router.Post("/schedules", scheduleCreate.New(log, service))
	router.Get("/schedules", scheduleGet.New(log, service))
	router.Get("/schedules/{id}", scheduleGet.New(log, service))
	router.Put("/schedules/{id}", scheduleUpdate.New(log, service))
	router.Delete("/schedules/{id}", scheduleDelete.New(log, service))

	// Bookings
	router.Post("/bookings", bookingCreate.New(log, service))
	router.Get("/bookings", bookingList.New(log, service))
	router.Get("/bookings/{id}", bookingGet.New(log, service))
	router.Post("/bookings/{id}/approve", bookingApprove.New(log, service))
	router.Post("/bookings/{id}/reject", bookingReject.New(log, service))

	// Users
	router.Post("/users", userCreate.New(log, service))
	router.Get("/users", userGet.New(log, service))
	router.Get("/users/{id}", userGet.New(log, service))
	router.Delete("/users/{id}", userDelete.New(log, service))

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	if storage != nil {
		if err := storage.Close(); err != nil {
			log.Error("Failed to close storage", sl.Err(err))
		} else {
			log.Info("Storage closed")
		}
	} else {
		log.Debug("Storage is nil, nothing to close")
	}

	if locker != nil {
		if err := locker.Close(); err != nil {
			log.Error("Failed to close locker", sl.Err(err))
		} else {
			log.Info("Locker closed")
		}
	}

	log.Info("Shutdown finished, server stopped")

}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

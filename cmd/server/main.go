// SyntaxVerse backend server entry point.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sshadulla22/SyntaxVerse-Backend/internal/api"
	"github.com/sshadulla22/SyntaxVerse-Backend/internal/auth"
	"github.com/sshadulla22/SyntaxVerse-Backend/internal/config"
	"github.com/sshadulla22/SyntaxVerse-Backend/internal/db"
	"github.com/sshadulla22/SyntaxVerse-Backend/internal/execute"
	"github.com/sshadulla22/SyntaxVerse-Backend/internal/notes"
	"github.com/sshadulla22/SyntaxVerse-Backend/internal/obs"
	"github.com/sshadulla22/SyntaxVerse-Backend/internal/ratelimit"
)

const shutdownTimeout = 10 * time.Second

func main() {
	addr, envFile := config.ParseFlags()
	cfg := config.MustLoadConfig(addr, envFile)

	obs.Init()
	log := obs.Pkg("main")
	cfg.PrintStartupSummary()
	if cfg.UsingDevSecret() {
		log.Warn("running with built-in dev SECRET_KEY")
	}

	database, err := db.Open(cfg.DatabasePath, cfg.DatabaseKey)
	if err != nil {
		log.Error("failed to open database", "err", err.Error())
		os.Exit(1)
	}
	defer database.Close()

	limiter := ratelimit.NewRateLimiter(cfg.RateLimitConfig)
	defer limiter.Stop()

	handler := api.NewHandler(
		cfg.AppName,
		notes.NewService(database),
		auth.NewService(database, []byte(cfg.SecretKey), cfg.AccessTokenTTL),
		limiter,
		execute.NewClient(cfg.PistonURL),
	)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	var root http.Handler = mux
	root = api.RecoveryMiddleware(root)
	root = api.CORSMiddleware(cfg.ParsedOrigins())(root)
	if cfg.Debug {
		root = api.DebugRequestLogMiddleware(root)
	}
	root = obs.AccessLogMiddleware("api", root)
	root = obs.RequestContextMiddleware(root)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.ListenAddr)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err.Error())
			os.Exit(1)
		}
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err.Error())
		}
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/omara/internal/api"
	"github.com/erazemk/omara/internal/db"
	"github.com/erazemk/omara/internal/logging"
	"github.com/erazemk/omara/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("omara-server", flag.ContinueOnError)

	var dbPath string
	fs.StringVar(&dbPath, "db", "omara.sqlite3", "")
	fs.StringVar(&dbPath, "d", "omara.sqlite3", "")

	var addr string
	fs.StringVar(&addr, "addr", ":8080", "")
	fs.StringVar(&addr, "a", ":8080", "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	var debug bool
	fs.BoolVar(&debug, "debug", false, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: omara-server [flags]

Flags:
  -d, -db <path>          SQLite database path (default: omara.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
      -debug              log debug records
  -h, -help               show this help and exit
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		return 1
	}

	logger, closeLog, err := logging.New(logging.Options{Path: logPath, Debug: debug})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer closeLog()
	defer zap.ReplaceGlobals(logger)()

	database, err := db.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", zap.Error(err))
		return 1
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		logger.Error("failed to migrate database", zap.Error(err))
		return 1
	}
	logger.Info("database ready", zap.String("path", dbPath))

	ctx := context.Background()
	if n, err := store.PurgeExpiredTokens(ctx, database, time.Now()); err != nil {
		logger.Warn("failed to purge revoked tokens", zap.Error(err))
	} else if n > 0 {
		logger.Info("purged expired revoked tokens", zap.Int64("count", n))
	}

	// Generated and stored on first run.
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		logger.Error("failed to get JWT secret", zap.Error(err))
		return 1
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           api.LoggingMiddleware(api.NewRouter(database, jwtSecret)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", zap.Error(err))
		return 1
	}

	logger.Info("server stopped, closing database")
	return 0
}

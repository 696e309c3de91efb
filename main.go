package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msomdec/image-gallery/internal/config"
	"github.com/msomdec/image-gallery/internal/domain"
	"github.com/msomdec/image-gallery/internal/filestore/disk"
	"github.com/msomdec/image-gallery/internal/handler"
	"github.com/msomdec/image-gallery/internal/repository/mongodb"
	"github.com/msomdec/image-gallery/internal/repository/sqlite"
	"github.com/msomdec/image-gallery/internal/service"
)

// Login attempts per client IP: a burst of 10, refilling one every 6s.
const (
	loginRate  = 1.0 / 6
	loginBurst = 10
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logOpts := &slog.HandlerOptions{Level: cfg.LogLevel}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	db, files, filesCloser, err := openStores(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to open stores", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	defer filesCloser.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied", "store", cfg.StoreBackend, "files", cfg.FileBackend)

	identityService := service.NewIdentityService(db.Users())
	authService := service.NewAuthService(db.Users(), cfg.JWTSecret, cfg.BcryptCost)
	imageService := service.NewImageService(identityService, db.Images(), db.Likes(), files, cfg.MaxUploadBytes)
	likeService := service.NewLikeService(identityService, db.Images(), db.Likes())

	loginLimiter := service.NewTokenBucket(loginRate, loginBurst)
	defer loginLimiter.Close()

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, authService, identityService, imageService, likeService, loginLimiter, cfg.CookieSecure)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.RequestLogger(handler.SecurityHeaders(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// nopCloser is returned when the file store shares the metadata connection.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openStores opens the configured metadata backend and file store. The
// returned closer releases the file store only; the caller closes db.
func openStores(ctx context.Context, cfg config.Config) (domain.Database, domain.FileStore, io.Closer, error) {
	var (
		db    domain.Database
		blobs domain.FileStore
	)

	switch cfg.StoreBackend {
	case config.StoreMongoDB:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		mdb, err := mongodb.New(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, nil, err
		}
		db = mdb
	default:
		sdb, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, nil, nil, err
		}
		db = sdb
		blobs = sdb.FileStore()
	}

	if cfg.FileBackend == config.FilesSQLite {
		return db, blobs, nopCloser{}, nil
	}

	store, err := disk.New(cfg.UploadDir)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	return db, store, store, nil
}

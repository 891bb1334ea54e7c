package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nextread/backend/internal/api"
	"github.com/nextread/backend/internal/catalog"
	"github.com/nextread/backend/internal/config"
	"github.com/nextread/backend/internal/engine"
	"github.com/nextread/backend/internal/fetcher"
	"github.com/nextread/backend/internal/politeness"
	"github.com/nextread/backend/internal/source"
	"github.com/nextread/backend/internal/storage"
)

func main() {
	// 1. Config
	cfg := config.Load()

	// 2. Logging
	logger := newLogger(cfg.Log)
	entry := logger.WithField("service", "nextread-api")
	entry.Info("Starting NextRead API Service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Sources
	store, err := storage.NewFileStorage(cfg.Fetch.CacheDir)
	if err != nil {
		entry.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	opener := source.NewOpener(
		fetcher.NewFetcher(cfg.Fetch.Timeout, cfg.Fetch.UserAgent),
		store,
		politeness.NewChecker(cfg.Fetch, entry.WithField("component", "politeness")),
		entry.WithField("component", "source"),
	)

	// 4. Catalog and index
	start := time.Now()
	state, err := loadState(ctx, opener, cfg.Catalog)
	if err != nil {
		entry.Fatalf("Failed to load catalog: %v", err)
	}
	entry.WithFields(logrus.Fields{
		"books":          state.Catalog.Len(),
		"genres":         len(state.Genres),
		"vocabulary":     state.Index.VocabularySize(),
		"orphan_reviews": state.Catalog.OrphanReviews(),
		"duration":       time.Since(start).Round(time.Millisecond),
	}).Info("Catalog loaded")

	// 5. Engine
	eng := engine.NewEngine(state, engine.Options{
		ResultLimit: cfg.Search.ResultLimit,
		AllGenres:   cfg.Search.AllGenres,
	}, entry.WithField("component", "engine"))

	// 6. API Server
	server := api.NewServer(eng, cfg.Server, cfg.Search.ReviewLimit, entry.WithField("component", "api"))
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		entry.Infof("NextRead API ready on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			entry.Fatal(err)
		}
	case <-ctx.Done():
		entry.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			entry.WithError(err).Error("Graceful shutdown failed")
		}
	}
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.Warnf("Unknown log level %q, using info", cfg.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func loadState(ctx context.Context, opener *source.Opener, cfg config.CatalogConfig) (*engine.State, error) {
	booksFile, err := opener.Open(ctx, cfg.BooksSource)
	if err != nil {
		return nil, err
	}
	defer booksFile.Close()

	books, err := catalog.ReadBooks(booksFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read books: %w", err)
	}

	reviewsFile, err := opener.Open(ctx, cfg.ReviewsSource)
	if err != nil {
		return nil, err
	}
	defer reviewsFile.Close()

	reviews, err := catalog.ReadReviews(reviewsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read reviews: %w", err)
	}

	return engine.Load(books, reviews, catalog.Options{StripMarkup: cfg.StripMarkup})
}

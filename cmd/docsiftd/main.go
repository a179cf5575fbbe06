package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/veridian-labs/docsift/internal/analyze"
	"github.com/veridian-labs/docsift/internal/common"
	"github.com/veridian-labs/docsift/internal/docsource"
	"github.com/veridian-labs/docsift/internal/export"
	"github.com/veridian-labs/docsift/internal/extract"
	"github.com/veridian-labs/docsift/internal/ocr"
	"github.com/veridian-labs/docsift/internal/persist"
	"github.com/veridian-labs/docsift/internal/prompts"
	"github.com/veridian-labs/docsift/internal/repository"
	"github.com/veridian-labs/docsift/internal/server"
	"github.com/veridian-labs/docsift/internal/vision"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	vocabulary, err := prompts.Load(cfg.Prompts.File)
	if err != nil {
		logger.Error("load prompts", "file", cfg.Prompts.File, "error", err)
		os.Exit(1)
	}

	db, err := repository.Open(ctx, repository.Config{
		DSN:         cfg.Database.DSN,
		DialTimeout: cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("open runs store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	runs := repository.NewRunStore(db, logger)
	if err := runs.EnsureSchema(ctx); err != nil {
		logger.Error("ensure schema", "error", err)
		os.Exit(1)
	}

	engine := ocr.NewEngine(ocr.Config{
		Tesseract:   cfg.OCR.Tesseract,
		Lang:        cfg.OCR.TesseractLang,
		TessdataDir: cfg.OCR.TessdataDir,
		WorkDir:     cfg.OCR.WorkDir,
	}, logger)
	embedder := vision.NewClient(vision.ClientConfig{
		BaseURL: cfg.Vision.BaseURL,
		APIKey:  cfg.Vision.APIKey,
		Timeout: cfg.Vision.Timeout,
	}, logger)
	scorer := vision.NewScorer(embedder, cfg.Vision.LogitScale, logger)
	analyzer := analyze.NewAnalyzer(engine, scorer, logger)

	opener := docsource.NewOpener(logger)
	pages := extract.NewPageExtractor(analyzer, cfg.Pipeline.ImageWorkers, logger)
	pipeline := extract.NewPipeline(opener, pages, logger)
	writer := persist.NewWriter(logger)
	exporter := export.NewService(logger)

	srv := server.New(cfg, pipeline, analyzer, writer, runs, exporter, vocabulary, logger)
	httpServer := &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr, "prompts", len(vocabulary))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	logger.Info("stopped")
}

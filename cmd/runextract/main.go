// runextract runs the extraction pipeline once against a local document and
// writes the text and image artifacts, without the HTTP server or run store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/veridian-labs/docsift/internal/analyze"
	"github.com/veridian-labs/docsift/internal/common"
	"github.com/veridian-labs/docsift/internal/docsource"
	"github.com/veridian-labs/docsift/internal/extract"
	"github.com/veridian-labs/docsift/internal/ocr"
	"github.com/veridian-labs/docsift/internal/persist"
	"github.com/veridian-labs/docsift/internal/prompts"
	"github.com/veridian-labs/docsift/internal/vision"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	timeout := flag.Duration("timeout", 5*time.Minute, "overall run deadline")
	printText := flag.Bool("print", false, "print the fused full text to stdout")
	flag.Parse()

	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "runextract [-timeout d] [-print] <document-path>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	vocabulary, err := prompts.Load(cfg.Prompts.File)
	if err != nil {
		logger.Error("load prompts", "file", cfg.Prompts.File, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

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

	pages := extract.NewPageExtractor(analyzer, cfg.Pipeline.ImageWorkers, logger)
	pipeline := extract.NewPipeline(docsource.NewOpener(logger), pages, logger)

	start := time.Now()
	result, err := pipeline.Run(ctx, path, vocabulary)
	if err != nil {
		logger.Error("extraction failed", "path", path, "error", err,
			"duration_ms", time.Since(start).Milliseconds())
		os.Exit(1)
	}

	manifest, err := persist.NewWriter(logger).Persist(ctx, result, cfg.Storage.TextPath, cfg.Storage.ImageDir)
	if err != nil {
		logger.Error("persist failed", "path", path, "error", err)
		os.Exit(1)
	}

	logger.Info("extraction OK",
		"document", result.DocumentID,
		"pages", len(result.Pages),
		"images", result.ImageCount(),
		"failures", result.FailureCount(),
		"text_path", manifest.TextPath,
		"image_files", len(manifest.Images),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	for _, f := range result.ImageFailures() {
		logger.Warn("image skipped", "page", f.PageIndex, "image", f.ImageIndex,
			"kind", f.Kind, "message", f.Message)
	}
	for _, f := range result.PageFailures {
		logger.Warn("page skipped", "page", f.PageIndex, "kind", f.Kind, "message", f.Message)
	}

	if *printText {
		fmt.Println(result.FullText())
	}
}

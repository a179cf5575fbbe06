package extract

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/veridian-labs/docsift/internal/analyze"
	"github.com/veridian-labs/docsift/internal/common"
)

// PageExtractor turns one source page into a PageResult: native text plus an
// analysis per embedded image. One bad image never drops the page's native
// text or the other images; it becomes a failure entry instead.
type PageExtractor struct {
	analyzer ImageAnalyzer
	workers  int
	logger   *slog.Logger
}

// NewPageExtractor builds a page extractor. workers bounds the per-page
// image analysis pool; 1 means strictly sequential.
func NewPageExtractor(analyzer ImageAnalyzer, workers int, logger *slog.Logger) *PageExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if workers < 1 {
		workers = 1
	}
	return &PageExtractor{analyzer: analyzer, workers: workers, logger: logger}
}

// Extract processes page pageNr of src. The returned error is reserved for
// catastrophic page failures (unreadable text layer); per-image failures and
// a failed image listing are recorded inside the PageResult, which keeps
// whatever native text was read.
func (e *PageExtractor) Extract(ctx context.Context, src Source, pageNr int, prompts []string) (PageResult, error) {
	text, err := src.PageText(pageNr)
	if err != nil {
		return PageResult{}, fmt.Errorf("page %d text: %w", pageNr, err)
	}

	res := PageResult{Index: pageNr, NativeText: text}

	images, err := src.PageImages(pageNr)
	if err != nil {
		// Native text is already in hand; losing the image listing must not
		// drop it. ImageIndex 0 marks a page-wide enumeration failure.
		e.logger.Warn("page.images.failed", "page", pageNr, "error", err)
		res.Failures = append(res.Failures, ImageFailure{
			PageIndex: pageNr,
			Kind:      common.ErrorKind(err),
			Message:   fmt.Sprintf("image enumeration failed: %v", err),
		})
		return res, nil
	}

	if len(images) == 0 {
		return res, nil
	}

	// Analyses are independent per image, so they may run on a bounded pool.
	// Results land in index-keyed slots and are assembled in local-index
	// order afterwards: observable output is identical to sequential
	// execution.
	analyses := make([]analyze.RasterAnalysis, len(images))
	failures := make([]error, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, img := range images {
		g.Go(func() error {
			a, err := e.analyzer.Analyze(gctx, img.Data, img.Format, prompts)
			if err != nil {
				failures[i] = err
				return nil // isolate: never cancel sibling analyses
			}
			analyses[i] = a
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures travel in the slots

	for i, img := range images {
		if err := failures[i]; err != nil {
			e.logger.Warn("page.image.failed",
				"page", pageNr,
				"image", img.LocalIndex,
				"kind", common.ErrorKind(err),
				"error", err,
			)
			res.Failures = append(res.Failures, ImageFailure{
				PageIndex:  pageNr,
				ImageIndex: img.LocalIndex,
				Kind:       common.ErrorKind(err),
				Message:    err.Error(),
			})
			continue
		}
		res.Images = append(res.Images, AnalyzedImage{Image: img, Analysis: analyses[i]})
	}
	return res, nil
}

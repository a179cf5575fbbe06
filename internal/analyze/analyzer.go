// Package analyze implements the per-image analysis step: OCR text plus a
// semantic relevance distribution over a fixed prompt vocabulary.
package analyze

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/veridian-labs/docsift/internal/common"

	// Raster decoders for the validity check. PDFs embed more than the
	// stdlib trio, so the x/image formats are registered as well.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Analyzer runs OCR and relevance scoring over single raster images.
// Both backends are loaded once per process and treated as read-only; the
// analyzer itself is stateless and safe for concurrent use.
type Analyzer struct {
	ocr    TextRecognizer
	scorer RelevanceScorer
	logger *slog.Logger
}

func NewAnalyzer(ocr TextRecognizer, scorer RelevanceScorer, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{ocr: ocr, scorer: scorer, logger: logger}
}

// Analyze runs OCR and relevance scoring over one image.
//
// The two computations are independent: neither can fail the other. The call
// as a whole fails only when the image bytes do not decode as a raster
// (ErrDecode) or a backend cannot be invoked (ErrModelUnavailable). An image
// with no recognizable text succeeds with empty fragments.
func (a *Analyzer) Analyze(ctx context.Context, data []byte, format string, prompts []string) (RasterAnalysis, error) {
	if len(prompts) == 0 {
		return RasterAnalysis{}, fmt.Errorf("prompts must be non-empty")
	}

	cfg, kind, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return RasterAnalysis{}, common.NewAppError("IMAGE_DECODE", "undecodable image", common.ErrDecode)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return RasterAnalysis{}, common.NewAppError("IMAGE_DECODE", "image has empty dimensions", common.ErrDecode)
	}

	start := time.Now()

	// OCR and scoring are independent; attempt both before reporting failure
	// so one broken backend never masks the health of the other.
	frags, ocrErr := a.ocr.Recognize(ctx, data, format)
	probs, scoreErr := a.scorer.Score(ctx, data, prompts)

	if ocrErr != nil {
		a.logger.Error("analyze.ocr.failed", "format", kind, "error", ocrErr)
		return RasterAnalysis{}, fmt.Errorf("ocr: %w", ocrErr)
	}
	if scoreErr != nil {
		a.logger.Error("analyze.score.failed", "format", kind, "error", scoreErr)
		return RasterAnalysis{}, fmt.Errorf("score: %w", scoreErr)
	}
	if len(probs) != len(prompts) {
		return RasterAnalysis{}, fmt.Errorf("score: got %d probabilities for %d prompts", len(probs), len(prompts))
	}

	scores := make(PromptScores, len(prompts))
	for i, p := range prompts {
		scores[i] = PromptScore{Prompt: p, Probability: probs[i]}
	}

	a.logger.Debug("analyze.ok",
		"format", kind,
		"width", cfg.Width,
		"height", cfg.Height,
		"fragments", len(frags),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return RasterAnalysis{Fragments: frags, Scores: scores}, nil
}

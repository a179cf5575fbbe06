package extract

import (
	"context"

	"github.com/veridian-labs/docsift/internal/analyze"
)

// Source is one opened document: an identifier and an ordered sequence of
// pages exposing native text and embedded raster images. Implementations
// are read-only after opening.
type Source interface {
	ID() string
	PageCount() int
	PageText(pageNr int) (string, error)            // 1-based
	PageImages(pageNr int) ([]EmbeddedImage, error) // 1-based, source order
	Close() error
}

// SourceOpener opens a document source from a path. Opening a nonexistent
// path fails with common.ErrDocumentNotFound; an existing but unparseable
// file fails with common.ErrDocumentOpen.
type SourceOpener interface {
	Open(path string) (Source, error)
}

// ImageAnalyzer is the single capability the pipeline needs from the
// analysis layer. Implementations must be safe for concurrent use.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, data []byte, format string, prompts []string) (analyze.RasterAnalysis, error)
}

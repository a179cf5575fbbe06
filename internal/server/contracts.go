package server

import (
	"context"

	"github.com/google/uuid"

	"github.com/veridian-labs/docsift/internal/analyze"
	"github.com/veridian-labs/docsift/internal/extract"
	"github.com/veridian-labs/docsift/internal/persist"
	"github.com/veridian-labs/docsift/internal/repository"
)

// PipelineRunner runs a full document extraction.
type PipelineRunner interface {
	Run(ctx context.Context, path string, prompts []string) (extract.DocumentResult, error)
}

// ImageAnalyzer analyzes one standalone raster image.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, data []byte, format string, prompts []string) (analyze.RasterAnalysis, error)
}

// ResultWriter persists a completed extraction to its sinks.
type ResultWriter interface {
	Persist(ctx context.Context, result extract.DocumentResult, textPath, imageDir string) (persist.Manifest, error)
}

// RunStore records and serves the extraction audit trail. nil disables it.
type RunStore interface {
	Record(ctx context.Context, rec repository.RunRecord, failures []repository.RunFailure) error
	List(ctx context.Context, limit int) ([]repository.RunRecord, error)
	Get(ctx context.Context, id uuid.UUID) (repository.RunRecord, []repository.RunFailure, error)
}

// RunExporter renders a run as an XLSX workbook.
type RunExporter interface {
	RunXLSX(rec repository.RunRecord, failures []repository.RunFailure) ([]byte, error)
}

package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/veridian-labs/docsift/internal/common"
)

// Pipeline coordinates a full document run: open the source, extract every
// page in order, and fuse the results. Individual page and image failures
// degrade the result; only failure to open the document is fatal.
type Pipeline struct {
	opener SourceOpener
	pages  *PageExtractor
	logger *slog.Logger
}

func NewPipeline(opener SourceOpener, pages *PageExtractor, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{opener: opener, pages: pages, logger: logger}
}

// Run extracts the document at path against the given prompt set.
//
// Success means the document was opened and every page was attempted. Pages
// that fail catastrophically are substituted with an empty PageResult at
// their index so downstream page numbering stays aligned with the source.
// The DocumentResult is complete on return; the pipeline retains nothing
// between runs.
func (p *Pipeline) Run(ctx context.Context, path string, prompts []string) (DocumentResult, error) {
	if len(prompts) == 0 {
		return DocumentResult{}, fmt.Errorf("prompts must be non-empty: %w", common.ErrInvalidInput)
	}

	src, err := p.opener.Open(path)
	if err != nil {
		return DocumentResult{}, err
	}
	defer src.Close()

	start := time.Now()
	result := DocumentResult{
		DocumentID: src.ID(),
		Pages:      make([]PageResult, 0, src.PageCount()),
	}

	for pageNr := 1; pageNr <= src.PageCount(); pageNr++ {
		if ctx.Err() != nil {
			// Abandon at page granularity only: remaining pages get empty
			// placeholders and one cancellation record covers them all.
			result.PageFailures = append(result.PageFailures, PageFailure{
				PageIndex: pageNr,
				Kind:      "CANCELLED",
				Message:   fmt.Sprintf("cancelled before page %d of %d: %v", pageNr, src.PageCount(), ctx.Err()),
			})
			for ; pageNr <= src.PageCount(); pageNr++ {
				result.Pages = append(result.Pages, PageResult{Index: pageNr})
			}
			break
		}

		pg, err := p.pages.Extract(ctx, src, pageNr, prompts)
		if err != nil {
			p.logger.Warn("pipeline.page.failed", "document", result.DocumentID, "page", pageNr, "error", err)
			result.PageFailures = append(result.PageFailures, PageFailure{
				PageIndex: pageNr,
				Kind:      common.ErrorKind(err),
				Message:   err.Error(),
			})
			result.Pages = append(result.Pages, PageResult{Index: pageNr})
			continue
		}
		result.Pages = append(result.Pages, pg)
	}

	p.logger.Info("pipeline.run.ok",
		"document", result.DocumentID,
		"pages", len(result.Pages),
		"images", result.ImageCount(),
		"failures", result.FailureCount(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// Package extract owns the multi-modal extraction pipeline: page iteration,
// per-image analysis, and the order-preserving fusion of native text, OCR
// text and relevance scores into one document-level result.
package extract

import (
	"fmt"
	"strings"

	"github.com/veridian-labs/docsift/internal/analyze"
)

// EmbeddedImage is one raster image found on a document page. Owned by the
// page that contains it; never mutated after creation.
type EmbeddedImage struct {
	PageIndex  int    // 1-based, matches source page order
	LocalIndex int    // 1-based within the page, source order
	Data       []byte // raw encoded bytes as stored in the source
	Format     string // declared encoding tag, e.g. "png", "jpeg"
}

// Filename derives the persistence name for the image. Reproducible from
// (page index, local index, format) alone so re-runs are idempotent.
func (i EmbeddedImage) Filename() string {
	return fmt.Sprintf("page%d_img%d.%s", i.PageIndex, i.LocalIndex, i.Format)
}

// AnalyzedImage pairs an embedded image with its completed analysis.
type AnalyzedImage struct {
	Image    EmbeddedImage
	Analysis analyze.RasterAnalysis
}

// ImageFailure records one image that could not be analyzed.
type ImageFailure struct {
	PageIndex  int    `json:"page"`
	ImageIndex int    `json:"image"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
}

// PageFailure records one page that could not be extracted at all.
type PageFailure struct {
	PageIndex int    `json:"page"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
}

// PageResult is the outcome of extracting one page: native text, analyses
// for the images that succeeded, and failure entries for those that did not.
type PageResult struct {
	Index      int
	NativeText string
	Images     []AnalyzedImage
	Failures   []ImageFailure
}

// DocumentResult is the terminal artifact of one pipeline run.
// Pages appear in source order and there is exactly one entry per source
// page, failed pages included.
type DocumentResult struct {
	DocumentID   string
	Pages        []PageResult
	PageFailures []PageFailure
}

// FullText fuses the result into one string: pages in index order, each
// page contributing its native text followed by one OCR block per image in
// local-index order. A pure concatenation of the PageResult sequence; no
// reordering, no deduplication.
func (r DocumentResult) FullText() string {
	var b strings.Builder
	for _, pg := range r.Pages {
		b.WriteString(pg.NativeText)
		for _, ai := range pg.Images {
			b.WriteString(fmt.Sprintf("\n[Image Text from %s]:\n%s\n", ai.Image.Filename(), ai.Analysis.OCRText()))
		}
	}
	return b.String()
}

// ImageFailures collects the per-image failure entries across all pages,
// in page then image order.
func (r DocumentResult) ImageFailures() []ImageFailure {
	var out []ImageFailure
	for _, pg := range r.Pages {
		out = append(out, pg.Failures...)
	}
	return out
}

// FailureCount is the total number of page- and image-level failures.
func (r DocumentResult) FailureCount() int {
	return len(r.PageFailures) + len(r.ImageFailures())
}

// ImageCount is the number of successfully analyzed images.
func (r DocumentResult) ImageCount() int {
	var n int
	for _, pg := range r.Pages {
		n += len(pg.Images)
	}
	return n
}

// Package docsource opens document files as ordered page sources for the
// extraction pipeline. PDFs expose a text layer and embedded raster images;
// standalone image files are presented as a one-page document with a single
// embedded image and no text layer.
package docsource

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/veridian-labs/docsift/constants"
	"github.com/veridian-labs/docsift/internal/common"
	"github.com/veridian-labs/docsift/internal/extract"
)

// Opener implements extract.SourceOpener over local files, dispatching on
// file extension.
type Opener struct {
	logger *slog.Logger
}

func NewOpener(logger *slog.Logger) *Opener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Opener{logger: logger}
}

func (o *Opener) Open(path string) (extract.Source, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, common.NewAppError("SOURCE_MISSING", fmt.Sprintf("the file %q does not exist", path), common.ErrDocumentNotFound)
		}
		return nil, common.NewAppError("SOURCE_STAT", fmt.Sprintf("cannot access %q", path), common.ErrDocumentOpen)
	}

	ext := constants.NormalizeExt(filepath.Ext(path))
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		return openPDF(path, o.logger)
	case constants.IMAGE:
		return openImage(path, ext)
	default:
		return nil, common.NewAppError("SOURCE_FORMAT", fmt.Sprintf("unsupported extension %q", ext), common.ErrDocumentOpen)
	}
}

package docsource

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/veridian-labs/docsift/constants"
	"github.com/veridian-labs/docsift/internal/common"
	"github.com/veridian-labs/docsift/internal/extract"
)

// pdfSource reads a PDF through two collaborating libraries: MuPDF (go-fitz)
// for the native text layer and pdfcpu for embedded raster images. Images
// are pulled once at open time; pages are immutable afterwards.
type pdfSource struct {
	id     string
	doc    *fitz.Document
	pages  int
	images map[int][]extract.EmbeddedImage
	imgErr error // enumeration failure, surfaced per page
}

func openPDF(path string, logger *slog.Logger) (*pdfSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, common.NewAppError("PDF_OPEN", fmt.Sprintf("cannot parse %q as PDF", path), common.ErrDocumentOpen)
	}

	s := &pdfSource{
		id:    filepath.Base(path),
		doc:   doc,
		pages: doc.NumPage(),
	}

	s.images, s.imgErr = extractImages(path)
	if s.imgErr != nil {
		logger.Warn("docsource.pdf.image_enumeration_failed", "document", s.id, "error", s.imgErr)
	}
	return s, nil
}

func (s *pdfSource) ID() string     { return s.id }
func (s *pdfSource) PageCount() int { return s.pages }

func (s *pdfSource) PageText(pageNr int) (string, error) {
	if pageNr < 1 || pageNr > s.pages {
		return "", fmt.Errorf("page %d out of range 1..%d", pageNr, s.pages)
	}
	text, err := s.doc.Text(pageNr - 1) // go-fitz pages are 0-based
	if err != nil {
		return "", fmt.Errorf("text layer of page %d: %w", pageNr, err)
	}
	return text, nil
}

func (s *pdfSource) PageImages(pageNr int) ([]extract.EmbeddedImage, error) {
	if pageNr < 1 || pageNr > s.pages {
		return nil, fmt.Errorf("page %d out of range 1..%d", pageNr, s.pages)
	}
	if s.imgErr != nil {
		return nil, fmt.Errorf("image enumeration: %w", s.imgErr)
	}
	return s.images[pageNr], nil
}

func (s *pdfSource) Close() error {
	return s.doc.Close()
}

// extractImages enumerates the raster images of every page, grouped by page
// number. Within a page, ascending object number is taken as source order.
func extractImages(path string) (map[int][]extract.EmbeddedImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pageImages, err := api.ExtractImagesRaw(f, nil, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu: %w", err)
	}

	out := make(map[int][]extract.EmbeddedImage)
	for _, byObj := range pageImages {
		objNrs := make([]int, 0, len(byObj))
		for objNr := range byObj {
			objNrs = append(objNrs, objNr)
		}
		sort.Ints(objNrs)

		for _, objNr := range objNrs {
			img := byObj[objNr]
			data, err := io.ReadAll(img)
			if err != nil {
				return nil, fmt.Errorf("read image obj %d on page %d: %w", objNr, img.PageNr, err)
			}
			out[img.PageNr] = append(out[img.PageNr], extract.EmbeddedImage{
				PageIndex:  img.PageNr,
				LocalIndex: len(out[img.PageNr]) + 1,
				Data:       data,
				Format:     constants.NormalizeExt(img.FileType),
			})
		}
	}
	return out, nil
}

package docsource

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/veridian-labs/docsift/internal/extract"
)

// imageSource presents a standalone image file as a one-page document: no
// text layer, one embedded image.
type imageSource struct {
	id  string
	img extract.EmbeddedImage
}

func openImage(path, ext string) (*imageSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return &imageSource{
		id: filepath.Base(path),
		img: extract.EmbeddedImage{
			PageIndex:  1,
			LocalIndex: 1,
			Data:       data,
			Format:     ext,
		},
	}, nil
}

func (s *imageSource) ID() string     { return s.id }
func (s *imageSource) PageCount() int { return 1 }

func (s *imageSource) PageText(pageNr int) (string, error) {
	if pageNr != 1 {
		return "", fmt.Errorf("page %d out of range", pageNr)
	}
	return "", nil
}

func (s *imageSource) PageImages(pageNr int) ([]extract.EmbeddedImage, error) {
	if pageNr != 1 {
		return nil, fmt.Errorf("page %d out of range", pageNr)
	}
	return []extract.EmbeddedImage{s.img}, nil
}

func (s *imageSource) Close() error { return nil }

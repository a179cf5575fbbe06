// Package persist writes a completed DocumentResult to its filesystem
// sinks: one full-text file and one image artifact per analyzed image.
package persist

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/veridian-labs/docsift/internal/common"
	"github.com/veridian-labs/docsift/internal/extract"
)

// WrittenImage is one persisted image artifact.
type WrittenImage struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Manifest lists everything a Persist call wrote.
type Manifest struct {
	TextPath string         `json:"text_path"`
	Images   []WrittenImage `json:"images"`
}

// Writer persists extraction results. Sinks are injected per call; the
// writer holds no paths of its own.
type Writer struct {
	logger *slog.Logger
}

func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger}
}

// Persist writes the fused full text to textPath and each analyzed image's
// raw bytes into imageDir under its derived filename. Both are pure
// overwrites: running Persist twice with the same result and sinks yields
// identical files. A failure here never invalidates the computed result;
// it surfaces as ErrPersist to the caller.
func (w *Writer) Persist(ctx context.Context, result extract.DocumentResult, textPath, imageDir string) (Manifest, error) {
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		return Manifest{}, common.NewAppError("PERSIST_MKDIR", fmt.Sprintf("cannot create image dir %q", imageDir), wrap(err))
	}
	if dir := filepath.Dir(textPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Manifest{}, common.NewAppError("PERSIST_MKDIR", fmt.Sprintf("cannot create text dir %q", dir), wrap(err))
		}
	}

	if err := os.WriteFile(textPath, []byte(result.FullText()), 0o644); err != nil {
		return Manifest{}, common.NewAppError("PERSIST_TEXT", fmt.Sprintf("cannot write text sink %q", textPath), wrap(err))
	}

	manifest := Manifest{TextPath: textPath}
	for _, pg := range result.Pages {
		if err := ctx.Err(); err != nil {
			return manifest, common.NewAppError("PERSIST_CANCELLED", "persist cancelled", wrap(err))
		}
		for _, ai := range pg.Images {
			path := filepath.Join(imageDir, ai.Image.Filename())
			if err := os.WriteFile(path, ai.Image.Data, 0o644); err != nil {
				return manifest, common.NewAppError("PERSIST_IMAGE", fmt.Sprintf("cannot write %q", path), wrap(err))
			}
			manifest.Images = append(manifest.Images, WrittenImage{Path: path, Size: int64(len(ai.Image.Data))})
		}
	}

	w.logger.Info("persist.ok",
		"document", result.DocumentID,
		"text_path", textPath,
		"text_bytes", len(result.FullText()),
		"images", len(manifest.Images),
	)
	return manifest, nil
}

func wrap(err error) error {
	return fmt.Errorf("%w: %w", common.ErrPersist, err)
}

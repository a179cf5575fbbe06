// Package ocr wraps the external tesseract binary behind a small engine that
// turns raster image bytes into recognized text fragments.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/veridian-labs/docsift/internal/common"
)

type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Lang      string // default "eng"

	TessdataDir string
	WorkDir     string // scratch dir for image buffers; empty -> os.TempDir
}

// Engine runs tesseract over image buffers. It holds no per-request state
// and is safe for concurrent use.
type Engine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	return &Engine{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Recognize runs OCR over one image and returns text fragments in detection
// order. An image with no recognizable text yields an empty slice, not an
// error. A missing or non-invocable tesseract maps to ErrModelUnavailable.
func (e *Engine) Recognize(ctx context.Context, data []byte, format string) ([]string, error) {
	path, cleanup, err := e.stage(data, format)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	args := []string{path, "stdout", "-l", e.cfg.Lang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, common.NewAppError("OCR_UNAVAILABLE", "tesseract not invocable", common.ErrModelUnavailable)
		}
		return nil, fmt.Errorf("tesseract: %w (stderr: %s)", err, truncate(string(errb), 512))
	}

	frags := Fragments(string(out))
	e.logger.Debug("ocr.recognize.ok", "bytes_in", len(data), "fragments", len(frags))
	return frags, nil
}

// stage writes the image buffer to a scratch file tesseract can open.
func (e *Engine) stage(data []byte, format string) (string, func(), error) {
	dir := e.cfg.WorkDir
	if dir == "" {
		dir = os.TempDir()
	}
	f, err := os.CreateTemp(dir, "docsift-ocr-*."+format)
	if err != nil {
		return "", nil, fmt.Errorf("stage image: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("stage image: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("stage image: %w", err)
	}
	name := f.Name()
	return name, func() {
		if err := os.Remove(name); err != nil {
			e.logger.Warn("ocr.stage.cleanup_failed", "path", filepath.Base(name), "error", err)
		}
	}, nil
}

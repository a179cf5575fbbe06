// Package server is the HTTP boundary: multipart upload handling, status
// mapping, and JSON rendering around the extraction core.
package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/veridian-labs/docsift/constants"
	"github.com/veridian-labs/docsift/internal/analyze"
	"github.com/veridian-labs/docsift/internal/common"
	"github.com/veridian-labs/docsift/internal/extract"
	"github.com/veridian-labs/docsift/internal/repository"
)

type Server struct {
	cfg      *common.Config
	pipeline PipelineRunner
	analyzer ImageAnalyzer
	writer   ResultWriter
	runs     RunStore
	exporter RunExporter
	prompts  []string
	logger   *slog.Logger
}

func New(cfg *common.Config, pipeline PipelineRunner, analyzer ImageAnalyzer, writer ResultWriter,
	runs RunStore, exporter RunExporter, prompts []string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:      cfg,
		pipeline: pipeline,
		analyzer: analyzer,
		writer:   writer,
		runs:     runs,
		exporter: exporter,
		prompts:  prompts,
		logger:   logger,
	}
}

// Router wires the HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Post("/extract", s.handleExtract)
	r.Post("/analyze-image/", s.handleAnalyzeImage)
	r.Get("/runs", s.handleListRuns)
	r.Get("/runs/{id}/export.xlsx", s.handleExportRun)
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

type extractResponse struct {
	Message       string                 `json:"message"`
	ExtractedText string                 `json:"extracted_text"`
	Failures      []extract.ImageFailure `json:"image_failures,omitempty"`
	PageFailures  []extract.PageFailure  `json:"page_failures,omitempty"`
}

// handleExtract implements POST /extract: one multipart PDF in, fused full
// text out. Page- and image-level degradation stays a 200 with a failure
// manifest; only an unreadable upload or unopenable document is a 400.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)

	file, header, err := r.FormFile("pdf")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing or unreadable 'pdf' upload")
		return
	}
	defer file.Close()

	path, err := s.stageUpload(file, header)
	if err != nil {
		s.logger.Error("extract.stage_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not stage upload")
		return
	}

	start := time.Now()
	result, err := s.pipeline.Run(r.Context(), path, s.prompts)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrDocumentNotFound), errors.Is(err, common.ErrDocumentOpen):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("extract.pipeline_failed", "error", err)
			writeError(w, http.StatusInternalServerError, "extraction failed")
		}
		s.recordRun(r, result, constants.RunStatusFailed, header.Filename, time.Since(start))
		return
	}

	manifest, err := s.writer.Persist(r.Context(), result, s.cfg.Storage.TextPath, s.cfg.Storage.ImageDir)
	if err != nil {
		// The result itself is sound; only the sink write failed.
		s.logger.Error("extract.persist_failed", "document", result.DocumentID, "error", err)
		writeError(w, http.StatusInternalServerError, "extraction succeeded but persisting the result failed")
		return
	}

	status := constants.RunStatusOK
	if result.FailureCount() > 0 {
		status = constants.RunStatusDegraded
	}
	s.recordRun(r, result, status, header.Filename, time.Since(start))

	writeJSON(w, http.StatusOK, extractResponse{
		Message:       fmt.Sprintf("Text and image data extracted and saved to %q.", manifest.TextPath),
		ExtractedText: result.FullText(),
		Failures:      result.ImageFailures(),
		PageFailures:  result.PageFailures,
	})
}

type analyzeImageResponse struct {
	VisualFeatures analyze.PromptScores `json:"visual_features"`
	ExtractedText  []string             `json:"extracted_text"`
}

// handleAnalyzeImage implements POST /analyze-image/: one multipart image
// in, OCR fragments and the relevance distribution out.
func (s *Server) handleAnalyzeImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "missing or unreadable 'file' upload")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not read upload")
		return
	}

	format := constants.NormalizeExt(filepath.Ext(header.Filename))
	if format == "" {
		format = "jpg"
	}

	analysis, err := s.analyzer.Analyze(r.Context(), data, format, s.prompts)
	if err != nil {
		s.logger.Error("analyze_image.failed", "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	fragments := analysis.Fragments
	if fragments == nil {
		fragments = []string{}
	}
	writeJSON(w, http.StatusOK, analyzeImageResponse{
		VisualFeatures: analysis.Scores,
		ExtractedText:  fragments,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusNotFound, "run store disabled")
		return
	}
	recs, err := s.runs.List(r.Context(), 50)
	if err != nil {
		s.logger.Error("runs.list_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list runs")
		return
	}
	if recs == nil {
		recs = []repository.RunRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": recs})
}

func (s *Server) handleExportRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusNotFound, "run store disabled")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}
	rec, failures, err := s.runs.Get(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.logger.Error("runs.get_failed", "run_id", id.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "could not load run")
		return
	}
	book, err := s.exporter.RunXLSX(rec, failures)
	if err != nil {
		s.logger.Error("runs.export_failed", "run_id", id.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "could not export run")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "run-"+id.String()+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(book)
}

// stageUpload copies a multipart file into the intake directory under a
// collision-free name and returns the staged path.
func (s *Server) stageUpload(file multipart.File, header *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(s.cfg.Storage.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s", uuid.New().String()[:8], filepath.Base(header.Filename))
	path := filepath.Join(s.cfg.Storage.UploadDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("copy upload: %w", err)
	}
	return path, nil
}

// recordRun appends to the audit trail; failures here are logged, never
// surfaced to the client.
func (s *Server) recordRun(r *http.Request, result extract.DocumentResult, status constants.RunStatus, filename string, dur time.Duration) {
	if s.runs == nil {
		return
	}
	docID := result.DocumentID
	if docID == "" {
		docID = filepath.Base(filename)
	}
	rec := repository.RunRecord{
		ID:         uuid.New(),
		DocumentID: docID,
		Status:     status,
		Pages:      len(result.Pages),
		Images:     result.ImageCount(),
		Failures:   result.FailureCount(),
		TextBytes:  len(result.FullText()),
		DurationMS: dur.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	var failures []repository.RunFailure
	for _, f := range result.PageFailures {
		failures = append(failures, repository.RunFailure{PageIndex: f.PageIndex, Kind: f.Kind, Message: f.Message})
	}
	for _, f := range result.ImageFailures() {
		failures = append(failures, repository.RunFailure{PageIndex: f.PageIndex, ImageIndex: f.ImageIndex, Kind: f.Kind, Message: f.Message})
	}
	if err := s.runs.Record(r.Context(), rec, failures); err != nil {
		s.logger.Error("runs.record_failed", "run_id", rec.ID.String(), "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/jo-hoe/scribed/internal/common"
	"github.com/jo-hoe/scribed/internal/config"
	"github.com/jo-hoe/scribed/internal/engine"
	"github.com/jo-hoe/scribed/internal/media"
	"github.com/jo-hoe/scribed/internal/util"
)

// Transcriber runs one synchronous transcription job.
type Transcriber interface {
	Transcribe(ctx context.Context, req engine.Request) (engine.Result, error)
}

type Service struct {
	Log    *slog.Logger
	Cfg    *config.Config
	Engine Transcriber
}

// NewHTTPServer builds the http.Server with routes and middleware.
func NewHTTPServer(svc *Service) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc(http.MethodGet+" "+common.PathHealthz, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc(http.MethodPost+" "+common.PathTranscriptions, svc.withCommon(svc.handleCreateTranscription))

	s := &http.Server{
		Addr:         svc.Cfg.Server.Addr,
		Handler:      loggingMiddleware(recoveryMiddleware(mux), svc.Log),
		ReadTimeout:  svc.Cfg.Server.ReadTimeout,
		WriteTimeout: svc.Cfg.Server.WriteTimeout,
		IdleTimeout:  svc.Cfg.Server.IdleTimeout,
	}
	return s
}

func (svc *Service) withCommon(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Enforce API key if configured
		if key := strings.TrimSpace(svc.Cfg.Server.APIKey); key != "" {
			if r.Header.Get(common.HeaderAPIKey) != key {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
				return
			}
		}
		// Enforce max body size
		max := safeInt64(svc.Cfg.Server.MaxUploadSize)
		if max > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, max)
		}
		next.ServeHTTP(w, r)
	}
}

type transcriptionResponse struct {
	Transcription json.RawMessage `json:"transcription"`
	Media         *media.Info     `json:"media,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (svc *Service) handleCreateTranscription(w http.ResponseWriter, r *http.Request) {
	// Parts up to this size stay in memory; larger spill to temp files.
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form", Details: err.Error()})
		return
	}

	fileHeaders := r.MultipartForm.File[common.FormFieldFile]
	if len(fileHeaders) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "file is required", Details: "multipart field \"file\" is missing"})
		return
	}
	uploaded := fileHeaders[0]

	diarize := strings.TrimSpace(r.FormValue(common.FormFieldDiarize)) == "true"

	src, err := uploaded.Open()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "cannot read upload", Details: err.Error()})
		return
	}
	defer func() { _ = src.Close() }()

	id := util.NewID()
	if svc.Log != nil {
		svc.Log.Info("job received", "job_id", id, "filename", uploaded.Filename, "size", uploaded.Size, "diarize", diarize)
	}

	res, err := svc.Engine.Transcribe(r.Context(), engine.Request{
		ID:       id,
		Media:    src,
		Filename: uploaded.Filename,
		Diarize:  diarize,
	})
	if err != nil {
		if svc.Log != nil {
			svc.Log.Error("job failed", "job_id", id, "err", err)
		}
		writeJSON(w, statusFor(err), errorResponse{
			Error:   shortMessage(err),
			Details: engine.DetailsOf(err),
		})
		return
	}

	if svc.Log != nil {
		svc.Log.Info("job completed", "job_id", id, "duration", res.Duration)
	}
	writeJSON(w, http.StatusOK, transcriptionResponse{
		Transcription: res.Transcription,
		Media:         res.Media,
	})
}

// statusFor maps the failure taxonomy onto HTTP codes: user-correctable
// request problems are 400, everything else is a server-side 500.
func statusFor(err error) int {
	if kind, ok := engine.KindOf(err); ok && kind == engine.KindInvalidRequest {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func shortMessage(err error) string {
	var e *engine.Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", common.ContentTypeJSON)
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(v)
}

func safeInt64(u config.ByteSize) int64 {
	if u > config.ByteSize(math.MaxInt64) {
		return math.MaxInt64
	}
	return int64(u) // #nosec G115 - safe cast after explicit upper-bound check
}

func loggingMiddleware(next http.Handler, log *slog.Logger) http.Handler {
	// Fallback to a discard logger if none provided to avoid nil deref in tests or minimal setups.
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &writeWrap{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(ww, r)
		log.Info("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.code,
			"duration", time.Since(start).String(),
			"remote", r.RemoteAddr)
	})
}

type writeWrap struct {
	http.ResponseWriter
	code int
}

func (w *writeWrap) WriteHeader(statusCode int) {
	w.code = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

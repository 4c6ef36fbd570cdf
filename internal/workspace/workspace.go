// Package workspace manages per-job temporary artifacts in a well-known
// subdirectory of the system temp root.
package workspace

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jo-hoe/scribed/internal/common"
)

// Job is the ephemeral per-request artifact set. It is created at request
// receipt, owned solely by that request, and destroyed via Cleanup before
// the request returns.
type Job struct {
	ID           string // log-correlation id, never part of artifact names
	OriginalName string
	InputPath    string
	OutputPath   string
	Diarize      bool
	HFToken      string // never logged or serialized
	CreatedAt    time.Time
}

// Workspace stores job artifacts under a shared durable temp directory.
type Workspace struct {
	dir string
}

// New creates a workspace rooted at dir, defaulting to <tmp>/scribed.
func New(dir string) *Workspace {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), common.WorkspaceDirName)
	}
	return &Workspace{dir: dir}
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string { return w.dir }

// Ensure idempotently creates the workspace directory.
func (w *Workspace) Ensure() error {
	if err := os.MkdirAll(w.dir, 0o750); err != nil {
		return fmt.Errorf("ensure workspace dir: %w", err)
	}
	return nil
}

// CreateJob writes the uploaded payload as the job's input artifact and
// derives the expected output artifact path. The input name combines a
// monotonic timestamp with the sanitized original filename so concurrent
// jobs never collide; the original extension is preserved. The output
// path swaps the extension for .json in the same directory.
func (w *Workspace) CreateJob(id string, src io.Reader, originalName string, maxBytes int64) (*Job, error) {
	if err := w.Ensure(); err != nil {
		return nil, err
	}

	base := SanitizeFilename(originalName)
	inputName := fmt.Sprintf("%d-%s", time.Now().UnixNano(), base)
	inputPath := filepath.Join(w.dir, inputName)

	dst, err := os.OpenFile(inputPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o640)
	if err != nil {
		return nil, fmt.Errorf("create input artifact: %w", err)
	}

	reader := src
	if maxBytes > 0 {
		reader = io.LimitReader(src, maxBytes)
	}
	if _, err := io.Copy(dst, reader); err != nil {
		_ = dst.Close()
		_ = os.Remove(inputPath)
		return nil, fmt.Errorf("write input artifact: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(inputPath)
		return nil, fmt.Errorf("close input artifact: %w", err)
	}

	return &Job{
		ID:           id,
		OriginalName: originalName,
		InputPath:    inputPath,
		OutputPath:   deriveOutputPath(inputPath),
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Cleanup deletes the input artifact and, if present, the output artifact.
// Failures are logged and never returned; cleanup must not alter the
// request outcome.
func (j *Job) Cleanup(log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.Remove(j.InputPath); err != nil && !os.IsNotExist(err) {
		log.Warn("cleanup input artifact failed", "job_id", j.ID, "path", j.InputPath, "err", err)
	}
	if err := os.Remove(j.OutputPath); err != nil && !os.IsNotExist(err) {
		log.Warn("cleanup output artifact failed", "job_id", j.ID, "path", j.OutputPath, "err", err)
	}
}

func deriveOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	out := strings.TrimSuffix(inputPath, ext) + common.OutputExtension
	if out == inputPath {
		// The upload itself carried the structured-data extension.
		out = strings.TrimSuffix(inputPath, ext) + ".out" + common.OutputExtension
	}
	return out
}

// SanitizeFilename strips path components and characters that are unsafe
// in artifact names (separators, quotes, control bytes). Argv-vector
// invocation already makes hostile names inert; sanitizing additionally
// keeps workspace listings and logs unambiguous.
func SanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s := b.String()
	s = strings.TrimLeft(s, ".")
	if s == "" {
		s = "upload.bin"
	}
	const maxLen = 128
	if len(s) > maxLen {
		ext := filepath.Ext(s)
		s = s[:maxLen-len(ext)] + ext
	}
	return s
}

// Package engine executes transcription jobs by delegating to an external
// worker process and correlating its output artifact.
package engine

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/jo-hoe/scribed/internal/config"
	"github.com/jo-hoe/scribed/internal/locator"
	"github.com/jo-hoe/scribed/internal/media"
	"github.com/jo-hoe/scribed/internal/workspace"
)

// Request describes one transcription job.
type Request struct {
	ID       string
	Media    io.Reader
	Filename string
	Diarize  bool
}

// Result is a completed transcription.
type Result struct {
	Transcription json.RawMessage
	Media         *media.Info
	Runtime       string
	Duration      time.Duration
}

// Engine orchestrates locate, materialize, build, run, recover, cleanup
// for one synchronous job per call. It holds no mutable per-job state, so
// concurrent calls are independent.
type Engine struct {
	log            *slog.Logger
	locator        *locator.Locator
	workspace      *workspace.Workspace
	runner         *Runner
	workerScript   string
	tokenEnvVar    string
	maxUploadBytes int64
	lookupEnv      func(string) (string, bool)
}

// New wires the production engine from config.
func New(log *slog.Logger, cfg *config.Config, loc *locator.Locator, ws *workspace.Workspace) *Engine {
	return &Engine{
		log:            log,
		locator:        loc,
		workspace:      ws,
		runner:         NewRunner(cfg.Engine.JobTimeout, safeInt64(uint64(cfg.Engine.MaxCapture)), log),
		workerScript:   cfg.Engine.WorkerScript,
		tokenEnvVar:    cfg.Engine.HFTokenEnvVar,
		maxUploadBytes: safeInt64(uint64(cfg.Server.MaxUploadSize)),
		lookupEnv:      os.LookupEnv,
	}
}

// NewForTests constructs an engine with injectable dependencies.
func NewForTests(
	log *slog.Logger,
	loc *locator.Locator,
	ws *workspace.Workspace,
	runner *Runner,
	workerScript string,
	tokenEnvVar string,
	lookupEnv func(string) (string, bool),
) *Engine {
	return &Engine{
		log:          log,
		locator:      loc,
		workspace:    ws,
		runner:       runner,
		workerScript: workerScript,
		tokenEnvVar:  tokenEnvVar,
		lookupEnv:    lookupEnv,
	}
}

// Transcribe runs one job end to end. Artifact cleanup is deferred
// immediately after creation, so every exit path, including panics
// unwinding through the handler, releases the workspace state.
func (e *Engine) Transcribe(ctx context.Context, req Request) (Result, error) {
	log := e.log.With("job_id", req.ID)

	rt, err := e.locator.Resolve(ctx)
	if err != nil {
		return Result{}, &Error{
			Kind:    KindRuntimeNotFound,
			Message: "no usable engine runtime on this host",
			Details: err.Error(),
			Err:     err,
		}
	}

	job, err := e.workspace.CreateJob(req.ID, req.Media, req.Filename, e.maxUploadBytes)
	if err != nil {
		return Result{}, &Error{
			Kind:    KindWorkspaceIO,
			Message: "cannot materialize upload",
			Details: err.Error(),
			Err:     err,
		}
	}
	defer job.Cleanup(log)

	job.Diarize = req.Diarize
	var token string
	if req.Diarize {
		token, _ = e.lookupEnv(e.tokenEnvVar)
		if token == "" {
			log.Warn("diarization requested but no credential token is set, proceeding without it", "env", e.tokenEnvVar)
		}
		job.HFToken = token
	}

	var info *media.Info
	if mi, ok := media.Probe(job.InputPath); ok {
		info = &mi
		log.Info("media probed",
			"duration_s", mi.DurationSeconds,
			"sample_rate", mi.SampleRate,
			"channels", mi.Channels)
	}

	spec := BuildCommand(rt, e.workerScript, job.InputPath, job.OutputPath, req.Diarize, token)
	log.Info("engine starting", "command", spec.Redacted(), "diarize", req.Diarize)

	outcome := e.runner.Run(ctx, spec)
	raw, rerr := Recover(job, outcome)
	if rerr != nil {
		log.Error("engine failed",
			"classification", outcome.Class,
			"exit", outcome.ExitCode,
			"duration", outcome.Duration)
		return Result{}, rerr
	}

	log.Info("engine finished", "duration", outcome.Duration)
	return Result{Transcription: raw, Media: info, Runtime: rt, Duration: outcome.Duration}, nil
}

// StartupCheck resolves the runtime once at boot so operators see an
// unusable host in the logs before the first request fails.
func (e *Engine) StartupCheck(ctx context.Context) {
	rt, err := e.locator.Resolve(ctx)
	if err != nil {
		e.log.Warn("no engine runtime found at startup, requests will fail until one is installed", "err", err)
		return
	}
	e.log.Info("engine runtime available", "runtime", rt)
}

func safeInt64(u uint64) int64 {
	if u > uint64(math.MaxInt64) {
		return math.MaxInt64
	}
	return int64(u) // #nosec G115 - safe cast after explicit upper-bound check
}

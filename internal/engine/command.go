package engine

import (
	"strings"

	"github.com/jo-hoe/scribed/internal/common"
)

// CommandSpec is the resolved invocation for exactly one job. It is an
// explicit argument vector; no shell is ever involved, so caller-supplied
// filename content cannot break out of argument boundaries.
type CommandSpec struct {
	Runtime string
	Args    []string
	token   string // remembered only so Redacted can mask it
}

// BuildCommand assembles the engine invocation:
//
//	<runtime> <script> --input <in> --output-json <out> [--diarize] [--hf-token <token>]
//
// A diarization request without a token proceeds without the token flag
// (degraded mode); the caller is responsible for logging the degradation.
func BuildCommand(runtime, script, inputPath, outputPath string, diarize bool, token string) CommandSpec {
	args := []string{
		script,
		common.FlagInput, inputPath,
		common.FlagOutputJSON, outputPath,
	}
	if diarize {
		args = append(args, common.FlagDiarize)
		if token != "" {
			args = append(args, common.FlagHFToken, token)
		}
	}
	return CommandSpec{Runtime: runtime, Args: args, token: token}
}

// Argv returns the full argument vector including the runtime.
func (s CommandSpec) Argv() []string {
	return append([]string{s.Runtime}, s.Args...)
}

// Redacted renders the invocation for logging with the credential token
// masked.
func (s CommandSpec) Redacted() string {
	parts := s.Argv()
	if s.token != "" {
		parts = append([]string(nil), parts...)
		for i, p := range parts {
			if p == s.token {
				parts[i] = "***"
			}
		}
	}
	return strings.Join(parts, " ")
}

package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jo-hoe/scribed/internal/workspace"
)

// Recover correlates a run outcome with the expected output artifact.
//
// On a clean exit the artifact is required and must parse as JSON. On any
// failure the artifact is read best-effort so partially written engine
// output lands in the error detail; read problems there never mask the
// original classification.
func Recover(job *workspace.Job, out Outcome) (json.RawMessage, error) {
	if out.Class == ClassOK {
		data, err := os.ReadFile(job.OutputPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, &Error{
					Kind:    KindOutputMissing,
					Message: "engine exited cleanly but wrote no output",
					Details: failureDetails(out, nil),
					Err:     err,
				}
			}
			return nil, &Error{
				Kind:    KindWorkspaceIO,
				Message: "cannot read engine output",
				Details: failureDetails(out, nil),
				Err:     err,
			}
		}
		var raw json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, &Error{
				Kind:    KindOutputParse,
				Message: "engine output is not valid JSON",
				Details: failureDetails(out, data),
				Err:     err,
			}
		}
		return raw, nil
	}

	partial, _ := os.ReadFile(job.OutputPath)
	ferr := &Error{
		Details: failureDetails(out, partial),
		Err:     out.Err,
	}
	switch out.Class {
	case ClassTimeout:
		ferr.Kind = KindTimeout
		ferr.Message = "engine exceeded the job timeout"
	case ClassOverflow:
		ferr.Kind = KindOutputOverflow
		ferr.Message = "engine output exceeded the capture limit"
	default:
		ferr.Kind = KindNonZeroExit
		ferr.Message = fmt.Sprintf("engine exited with status %d", out.ExitCode)
	}
	return nil, ferr
}

// failureDetails assembles the diagnostic block surfaced in error
// responses: classification, captured streams, and any recovered output.
func failureDetails(out Outcome, partialOutput []byte) string {
	var b strings.Builder
	fmt.Fprintf(&b, "classification=%s exit=%d duration=%s", out.Class, out.ExitCode, out.Duration)
	if out.Err != nil {
		fmt.Fprintf(&b, " err=%v", out.Err)
	}
	if s := strings.TrimSpace(out.Stderr); s != "" {
		b.WriteString("\n--- stderr ---\n")
		b.WriteString(s)
	}
	if s := strings.TrimSpace(out.Stdout); s != "" {
		b.WriteString("\n--- stdout ---\n")
		b.WriteString(s)
	}
	if len(partialOutput) > 0 {
		b.WriteString("\n--- recovered output ---\n")
		b.Write(partialOutput)
	}
	return b.String()
}

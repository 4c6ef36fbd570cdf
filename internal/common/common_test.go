package common

import (
	"strings"
	"testing"
)

func TestConstantsValues(t *testing.T) {
	if ContentTypeJSON != "application/json" {
		t.Fatalf("ContentTypeJSON = %q", ContentTypeJSON)
	}
	if HeaderAPIKey != "X-API-Key" {
		t.Fatalf("HeaderAPIKey = %q", HeaderAPIKey)
	}
	if PathHealthz != "/healthz" || PathTranscriptions != "/v1/transcriptions" {
		t.Fatalf("paths mismatch: %q, %q", PathHealthz, PathTranscriptions)
	}
	if FormFieldFile == "" || FormFieldDiarize == "" {
		t.Fatalf("form field names should be non-empty")
	}
	for _, f := range []string{FlagInput, FlagOutputJSON, FlagDiarize, FlagHFToken, FlagVersion} {
		if !strings.HasPrefix(f, "--") {
			t.Fatalf("flag %q should be a long option", f)
		}
	}
	if DefaultMaxCaptureBytes != 10*1024*1024 {
		t.Fatalf("DefaultMaxCaptureBytes = %d", DefaultMaxCaptureBytes)
	}
	if WorkspaceDirName == "" || OutputExtension != ".json" {
		t.Fatalf("filesystem constants mismatch")
	}
}

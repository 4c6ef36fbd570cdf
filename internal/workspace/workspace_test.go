package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCreateJob_WritesInputAndDerivesOutput(t *testing.T) {
	w := New(t.TempDir())

	job, err := w.CreateJob("job-1", strings.NewReader("media-bytes"), "meeting.mp3", 0)
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	data, err := os.ReadFile(job.InputPath)
	if err != nil {
		t.Fatalf("read input artifact: %v", err)
	}
	if string(data) != "media-bytes" {
		t.Fatalf("input content = %q", data)
	}
	if filepath.Ext(job.InputPath) != ".mp3" {
		t.Fatalf("input extension not preserved: %q", job.InputPath)
	}
	if filepath.Ext(job.OutputPath) != ".json" {
		t.Fatalf("output extension = %q", job.OutputPath)
	}
	if filepath.Dir(job.OutputPath) != filepath.Dir(job.InputPath) {
		t.Fatalf("output not in same directory: %q vs %q", job.OutputPath, job.InputPath)
	}
	if strings.TrimSuffix(job.InputPath, ".mp3") != strings.TrimSuffix(job.OutputPath, ".json") {
		t.Fatalf("output stem differs: %q vs %q", job.OutputPath, job.InputPath)
	}
}

func TestCreateJob_UniqueNamesForSameFilename(t *testing.T) {
	w := New(t.TempDir())

	a, err := w.CreateJob("a", strings.NewReader("x"), "same.wav", 0)
	if err != nil {
		t.Fatalf("CreateJob a: %v", err)
	}
	b, err := w.CreateJob("b", strings.NewReader("y"), "same.wav", 0)
	if err != nil {
		t.Fatalf("CreateJob b: %v", err)
	}
	if a.InputPath == b.InputPath {
		t.Fatalf("artifact names collided: %q", a.InputPath)
	}
}

func TestCreateJob_LimitsBytes(t *testing.T) {
	w := New(t.TempDir())

	job, err := w.CreateJob("j", strings.NewReader(strings.Repeat("a", 100)), "big.wav", 10)
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	data, _ := os.ReadFile(job.InputPath)
	if len(data) != 10 {
		t.Fatalf("input size = %d, want 10", len(data))
	}
}

func TestCreateJob_FailsOnUnwritableDir(t *testing.T) {
	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocked, []byte("not a dir"), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	w := New(filepath.Join(blocked, "sub"))
	if _, err := w.CreateJob("j", strings.NewReader("x"), "a.mp3", 0); err == nil {
		t.Fatalf("expected error creating job under a file path")
	}
}

func TestCleanup_RemovesArtifacts(t *testing.T) {
	w := New(t.TempDir())
	job, err := w.CreateJob("j", strings.NewReader("x"), "a.mp4", 0)
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	// Simulate the engine having written output.
	if err := os.WriteFile(job.OutputPath, []byte("{}"), 0o600); err != nil {
		t.Fatalf("write output: %v", err)
	}

	job.Cleanup(nil)

	if _, err := os.Stat(job.InputPath); !os.IsNotExist(err) {
		t.Fatalf("input artifact still present")
	}
	if _, err := os.Stat(job.OutputPath); !os.IsNotExist(err) {
		t.Fatalf("output artifact still present")
	}
	// Second cleanup is a no-op, not a panic or error surface.
	job.Cleanup(nil)
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain.mp3", "plain.mp3"},
		{"with space.mp3", "with_space.mp3"},
		{`quo"te'.wav`, "quo_te_.wav"},
		{"../../etc/passwd", "passwd"},
		{`..\..\evil.mp3`, "evil.mp3"},
		{"", "upload.bin"},
		{"...", "upload.bin"},
	}
	for _, c := range cases {
		if got := SanitizeFilename(c.in); got != c.want {
			t.Fatalf("SanitizeFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSanitizeFilename_TruncatesLongNames(t *testing.T) {
	got := SanitizeFilename(strings.Repeat("a", 300) + ".mp3")
	if len(got) > 128 {
		t.Fatalf("len = %d", len(got))
	}
	if filepath.Ext(got) != ".mp3" {
		t.Fatalf("extension lost: %q", got)
	}
}

func TestDeriveOutputPath_JSONUploadDoesNotCollide(t *testing.T) {
	if got := deriveOutputPath("/tmp/x/1-a.json"); got == "/tmp/x/1-a.json" {
		t.Fatalf("output path collides with input")
	}
}

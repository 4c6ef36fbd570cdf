// Package locator discovers a usable engine runtime among prioritized,
// platform-specific candidate executables.
package locator

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/jo-hoe/scribed/internal/common"
)

// ErrNoRuntime indicates that none of the candidate executables could be
// probed successfully on this host.
var ErrNoRuntime = errors.New("no usable runtime found")

// ProbeFunc checks whether a candidate executable is usable. It should
// return nil only if the candidate starts and exits without error.
type ProbeFunc func(ctx context.Context, candidate string) error

// Locator resolves the first usable runtime from an ordered candidate list.
type Locator struct {
	candidates []string
	probe      ProbeFunc
}

// DefaultCandidates returns the platform-specific runtime search order.
func DefaultCandidates() []string {
	if runtime.GOOS == "windows" {
		return []string{"python", "py", "python3"}
	}
	return []string{"python3", "python"}
}

// New creates a Locator probing with a trivial version check. An empty
// candidate list falls back to the platform defaults.
func New(candidates []string) *Locator {
	if len(candidates) == 0 {
		candidates = DefaultCandidates()
	}
	return &Locator{candidates: candidates, probe: versionProbe}
}

// NewForTests creates a Locator with an injectable probe.
func NewForTests(candidates []string, probe ProbeFunc) *Locator {
	return &Locator{candidates: candidates, probe: probe}
}

// Resolve tries candidates strictly in order and returns the first for
// which the probe succeeds. Probing stops at the first success.
func (l *Locator) Resolve(ctx context.Context) (string, error) {
	for _, c := range l.candidates {
		if err := l.probe(ctx, c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: tried %v", ErrNoRuntime, l.candidates)
}

// versionProbe spawns `<candidate> --version` and waits for a clean exit.
func versionProbe(ctx context.Context, candidate string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, candidate, common.FlagVersion).Run()
}

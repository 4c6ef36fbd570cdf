// Package media performs lightweight inspection of uploaded artifacts.
package media

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Info describes an uploaded media artifact for logs and responses.
type Info struct {
	Format          string  `json:"format"`
	DurationSeconds float64 `json:"durationSeconds"`
	SampleRate      int     `json:"sampleRate"`
	Channels        int     `json:"channels"`
}

// Probe inspects the artifact header and reports duration and layout.
// Only WAV is decoded locally; other containers are the engine's concern.
// Probe is diagnostics-only: any problem yields ok=false, never an error
// that could affect the request.
func Probe(path string) (Info, bool) {
	if strings.ToLower(filepath.Ext(path)) != ".wav" {
		return Info{}, false
	}
	f, err := os.Open(path) // #nosec G304 - path is a workspace-owned artifact
	if err != nil {
		return Info{}, false
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return Info{}, false
	}
	dur, err := d.Duration()
	if err != nil {
		return Info{}, false
	}
	// Decode a small chunk to confirm the PCM data is actually readable,
	// not just a plausible header.
	buf := &audio.IntBuffer{Format: d.Format(), Data: make([]int, 1024)}
	if _, err := d.PCMBuffer(buf); err != nil {
		return Info{}, false
	}

	return Info{
		Format:          "wav",
		DurationSeconds: dur.Seconds(),
		SampleRate:      int(d.SampleRate),
		Channels:        int(d.NumChans),
	}, true
}

package common

// Shared constants to enforce DRY and avoid magic strings/numbers.

// HTTP headers and content types
const (
	HeaderAPIKey    = "X-API-Key" // #nosec G101 - header name constant, not a credential
	ContentTypeJSON = "application/json"
)

// API paths
const (
	PathHealthz        = "/healthz"
	PathTranscriptions = "/v1/transcriptions"
)

// Multipart form fields
const (
	FormFieldFile    = "file"
	FormFieldDiarize = "diarize"
)

// Engine invocation flags understood by the worker script.
const (
	FlagInput      = "--input"
	FlagOutputJSON = "--output-json"
	FlagDiarize    = "--diarize"
	FlagHFToken    = "--hf-token" // #nosec G101 - flag name constant, not a credential
	FlagVersion    = "--version"
)

// Defaults and limits
const (
	DefaultMaxCaptureBytes = 10 * 1024 * 1024
	DefaultMaxUploadBytes  = 512 * 1024 * 1024
	DefaultHFTokenEnvVar   = "HF_TOKEN" // #nosec G101 - env var name, not a credential
	DefaultWorkerScript    = "worker/transcribe.py"
)

// Filesystem names
const (
	WorkspaceDirName = "scribed"
	OutputExtension  = ".json"
)

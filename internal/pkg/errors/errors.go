package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConsentRequired means capture was started before the operator recorded consent.
	ErrConsentRequired = errors.New("consent required")
	// ErrPermissionRequired means the microphone side-channel test failed.
	ErrPermissionRequired = errors.New("microphone permission required")
	// ErrDevice is fatal to capture and needs a manual restart.
	ErrDevice = errors.New("capture device error")

	ErrTranscriptionUnavailable = errors.New("transcription unavailable")
	ErrSilentChunk              = errors.New("silent chunk")
	// ErrProviderAuth trips the provider's session breaker.
	ErrProviderAuth = errors.New("provider authentication failed")

	ErrIngestionForwardFailed = errors.New("ingestion forward failed")
	ErrSnapshotLoadInvalid    = errors.New("snapshot payload invalid")
)

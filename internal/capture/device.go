package capture

import "context"

// Device is the platform microphone. CheckPermission is the side-channel test
// run before every start.
type Device interface {
	CheckPermission(ctx context.Context) error
	Open(ctx context.Context) (Stream, error)
}

// Stream is a live device stream. Recorders are created and torn down on it
// without reopening the device.
type Stream interface {
	NewRecorder(onChunk func(data []byte, mimeType string)) (Recorder, error)
	// Failed delivers at most one error when the stream dies.
	Failed() <-chan error
	Close() error
}

// Recorder buffers audio. Cut closes the current buffer, emits it through the
// onChunk callback, and starts the next buffer immediately.
type Recorder interface {
	Cut()
	Close() error
}

type WakeLock interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// PermissionPrompter re-opens the operator's permission UI.
type PermissionPrompter interface {
	PromptPermission(reason error)
}

// Feed is the realtime event subscription owned by the capture session.
type Feed interface {
	Start(ctx context.Context)
	Stop()
}

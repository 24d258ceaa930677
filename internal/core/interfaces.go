// Package core defines the domain types and collaborator interfaces for the
// translation pipeline.
package core

import "context"

// ObjectStore defines the interface for interacting with a key-value blob store.
// Objects are addressed by a logical bucket and a key within it.
type ObjectStore interface {
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	Upload(ctx context.Context, bucket, key string, data []byte) error
}

// SpeechToText defines the interface for an asynchronous transcription engine.
// Submit starts a remote job; JobStatus reports its current lifecycle state.
// A completed job publishes its transcript document to the object store and
// reports the transcript key through TranscriptionJob.
type SpeechToText interface {
	Submit(ctx context.Context, jobName, bucket, key string) error
	JobStatus(ctx context.Context, jobName string) (TranscriptionJob, error)
}

// Translator defines the interface for a synchronous text translation engine.
// The source language may be "auto" to request detection by the engine.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// SpeechSynthesizer defines the interface for a synchronous speech synthesis
// engine. It returns the encoded audio bytes for the given text and voice.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// IDSource produces the correlation id for a pipeline run. Implementations
// must be safe for concurrent use and need no coordination between calls.
type IDSource interface {
	NewID() string
}

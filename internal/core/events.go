package core

import "github.com/book-expert/events"

// ObjectCreatedEvent is the wire form of an arrival notification: an object
// landed in a bucket and the pipeline should consider it.
type ObjectCreatedEvent struct {
	Header events.EventHeader `json:"header"`
	Bucket string             `json:"bucket"`
	Key    string             `json:"key"`
}

// PipelineCompletedEvent is published after every run with the structured
// outcome. Stage, ErrorKind and Error are empty unless State is "failed";
// Bucket and Key are empty unless State is "succeeded".
type PipelineCompletedEvent struct {
	Header    events.EventHeader `json:"header"`
	RunID     string             `json:"run_id,omitempty"`
	State     string             `json:"state"`
	Bucket    string             `json:"bucket,omitempty"`
	Key       string             `json:"key,omitempty"`
	Stage     string             `json:"stage,omitempty"`
	ErrorKind string             `json:"error_kind,omitempty"`
	Error     string             `json:"error,omitempty"`
}

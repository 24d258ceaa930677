package core

import "fmt"

// ArrivalEvent identifies a newly created object in the store. It is produced
// by the external event-delivery mechanism and consumed exactly once.
type ArrivalEvent struct {
	Bucket string
	Key    string
}

// FilterDecision is the output of the eligibility filter. A decision with
// ShouldProcess set to false terminates the run with a skipped outcome.
type FilterDecision struct {
	ShouldProcess bool
	Bucket        string
	Key           string
}

// JobStatus is the lifecycle state of a remote transcription job. Transitions
// only move forward: IN_PROGRESS to COMPLETED or FAILED, never backward.
type JobStatus string

const (
	// JobStatusInProgress indicates the remote job is still running.
	JobStatusInProgress JobStatus = "IN_PROGRESS"
	// JobStatusCompleted indicates the remote job finished successfully.
	JobStatusCompleted JobStatus = "COMPLETED"
	// JobStatusFailed indicates the remote job reported failure.
	JobStatusFailed JobStatus = "FAILED"
)

// TranscriptionJob is a snapshot of one remote transcription job. It is
// mutated only by querying the remote engine, never by the orchestrator.
type TranscriptionJob struct {
	JobName       string
	Status        JobStatus
	TranscriptKey string
	FailureReason string
}

// RunContext carries the identity of one pipeline run and accumulates stage
// outputs as the run progresses. Everything in it is run-local.
type RunContext struct {
	RunID     string
	Bucket    string
	SourceKey string

	JobName       string
	TranscriptKey string
	Transcript    string
	Translation   TranslationResult
	OutputKey     string
}

// TranslationResult is the output of the translation stage.
type TranslationResult struct {
	SourceText     string
	TargetText     string
	TargetLanguage string
}

// SynthesisArtifact is the location of the synthesized speech audio, the
// terminal output of a successful run.
type SynthesisArtifact struct {
	Bucket string
	Key    string
}

// Stage names the pipeline step at which a failure occurred.
type Stage string

const (
	// StageTranscribe covers job submission and polling.
	StageTranscribe Stage = "transcribe"
	// StageTranslate covers transcript retrieval and translation.
	StageTranslate Stage = "translate"
	// StageSynthesize covers speech synthesis and artifact storage.
	StageSynthesize Stage = "synthesize"
)

// ErrorKind classifies a pipeline failure for observability.
type ErrorKind string

const (
	// ErrorKindSubmit indicates the transcription job could not be started.
	ErrorKindSubmit ErrorKind = "transcription_submit"
	// ErrorKindQuery indicates the job status query failed persistently.
	ErrorKindQuery ErrorKind = "transcription_query"
	// ErrorKindJobFailed indicates the remote job reported failure.
	ErrorKindJobFailed ErrorKind = "transcription_job"
	// ErrorKindTimeout indicates the polling budget was exhausted.
	ErrorKindTimeout ErrorKind = "transcription_timeout"
	// ErrorKindTranslate indicates the translation engine failed.
	ErrorKindTranslate ErrorKind = "translate"
	// ErrorKindSynthesis indicates the synthesis engine failed.
	ErrorKindSynthesis ErrorKind = "synthesis"
	// ErrorKindStorage indicates an object store read or write failed.
	ErrorKindStorage ErrorKind = "storage"
)

// PipelineError is a typed pipeline failure carrying the stage and kind that
// observability consumers key on.
type PipelineError struct {
	Kind  ErrorKind
	Stage Stage
	Err   error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline failed at stage %q (%s): %v", e.Stage, e.Kind, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// OutcomeState is the variant tag of a pipeline outcome.
type OutcomeState string

const (
	// OutcomeSkipped means the filter rejected the event; nothing ran.
	OutcomeSkipped OutcomeState = "skipped"
	// OutcomeSucceeded means every stage completed and the artifact was stored.
	OutcomeSucceeded OutcomeState = "succeeded"
	// OutcomeFailed means a stage failed and the run was aborted.
	OutcomeFailed OutcomeState = "failed"
)

// Outcome is the single result of one orchestrator invocation. Exactly one of
// the three states is produced per arrival event; Artifact is set only on
// success and Failure only on failure.
type Outcome struct {
	State    OutcomeState
	RunID    string
	Artifact *SynthesisArtifact
	Failure  *PipelineError
}

// Skipped builds the outcome for an event the filter rejected.
func Skipped() Outcome {
	return Outcome{State: OutcomeSkipped, RunID: "", Artifact: nil, Failure: nil}
}

// Succeeded builds the outcome for a run that stored its artifact.
func Succeeded(runID string, artifact SynthesisArtifact) Outcome {
	return Outcome{State: OutcomeSucceeded, RunID: runID, Artifact: &artifact, Failure: nil}
}

// Failed builds the outcome for a run aborted by a stage failure.
func Failed(runID string, kind ErrorKind, stage Stage, err error) Outcome {
	return Outcome{
		State:    OutcomeFailed,
		RunID:    runID,
		Artifact: nil,
		Failure:  &PipelineError{Kind: kind, Stage: stage, Err: err},
	}
}

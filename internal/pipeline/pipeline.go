// Package pipeline sequences one translation run: filter, transcription job
// dispatch and resolution, translation, speech synthesis, and artifact
// storage.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/book-expert/logger"

	"github.com/book-expert/translation-pipeline/internal/core"
	"github.com/book-expert/translation-pipeline/internal/filter"
	"github.com/book-expert/translation-pipeline/internal/poller"
)

const jobNamePrefix = "transcription-"

// Config is the pipeline-level policy: the reserved output namespace and the
// translation and synthesis parameters.
type Config struct {
	OutputPrefix   string
	SourceLanguage string
	TargetLanguage string
	Voice          string
	OutputFormat   string
}

// Orchestrator runs the linear pipeline state machine. All collaborators are
// injected at construction; one Orchestrator serves any number of concurrent
// runs because every run keeps its state in a run-local RunContext.
type Orchestrator struct {
	store      core.ObjectStore
	engine     core.SpeechToText
	translator core.Translator
	synth      core.SpeechSynthesizer
	ids        core.IDSource
	eligible   *filter.Filter
	jobs       *poller.Poller
	cfg        Config
	log        *logger.Logger
}

// New creates an Orchestrator from its collaborators.
func New(
	store core.ObjectStore,
	engine core.SpeechToText,
	translator core.Translator,
	synth core.SpeechSynthesizer,
	ids core.IDSource,
	eligible *filter.Filter,
	jobs *poller.Poller,
	cfg Config,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:      store,
		engine:     engine,
		translator: translator,
		synth:      synth,
		ids:        ids,
		eligible:   eligible,
		jobs:       jobs,
		cfg:        cfg,
		log:        log,
	}
}

// Run executes the pipeline for one arrival event and returns exactly one
// outcome. The filter decision is the only branch point; after it, the first
// stage failure aborts the run. Retries happen only inside the job poller.
func (o *Orchestrator) Run(ctx context.Context, event core.ArrivalEvent) core.Outcome {
	decision := o.eligible.Decide(event)
	if !decision.ShouldProcess {
		o.log.Info("Skipping %s/%s: inside the output namespace", event.Bucket, event.Key)

		return core.Skipped()
	}

	run := core.RunContext{
		RunID:         o.ids.NewID(),
		Bucket:        decision.Bucket,
		SourceKey:     decision.Key,
		JobName:       "",
		TranscriptKey: "",
		Transcript:    "",
		Translation:   core.TranslationResult{SourceText: "", TargetText: "", TargetLanguage: ""},
		OutputKey:     "",
	}
	run.JobName = jobNamePrefix + run.RunID

	o.log.Info("Run %s: processing %s/%s", run.RunID, run.Bucket, run.SourceKey)

	stageErr := o.transcribe(ctx, &run)
	if stageErr != nil {
		return failed(run.RunID, stageErr)
	}

	stageErr = o.translate(ctx, &run)
	if stageErr != nil {
		return failed(run.RunID, stageErr)
	}

	artifact, stageErr := o.synthesize(ctx, &run)
	if stageErr != nil {
		return failed(run.RunID, stageErr)
	}

	o.log.Info("Run %s: stored artifact at %s/%s", run.RunID, artifact.Bucket, artifact.Key)

	return core.Succeeded(run.RunID, artifact)
}

// transcribe submits the job and drives it to completion, recording the
// transcript key in the run.
func (o *Orchestrator) transcribe(ctx context.Context, run *core.RunContext) *core.PipelineError {
	submitErr := o.engine.Submit(ctx, run.JobName, run.Bucket, run.SourceKey)
	if submitErr != nil {
		return &core.PipelineError{
			Kind:  core.ErrorKindSubmit,
			Stage: core.StageTranscribe,
			Err:   fmt.Errorf("submitting job %q: %w", run.JobName, submitErr),
		}
	}

	job, awaitErr := o.jobs.Await(ctx, run.JobName)
	if awaitErr != nil {
		return &core.PipelineError{
			Kind:  pollErrorKind(awaitErr),
			Stage: core.StageTranscribe,
			Err:   awaitErr,
		}
	}

	run.TranscriptKey = job.TranscriptKey

	return nil
}

// translate fetches the transcript document, extracts its text, and runs the
// translation stage.
func (o *Orchestrator) translate(ctx context.Context, run *core.RunContext) *core.PipelineError {
	document, downloadErr := o.store.Download(ctx, run.Bucket, run.TranscriptKey)
	if downloadErr != nil {
		return &core.PipelineError{
			Kind:  core.ErrorKindStorage,
			Stage: core.StageTranslate,
			Err:   fmt.Errorf("fetching transcript %q: %w", run.TranscriptKey, downloadErr),
		}
	}

	run.Transcript = transcriptText(document)

	translated, translateErr := o.translator.Translate(
		ctx, run.Transcript, o.cfg.SourceLanguage, o.cfg.TargetLanguage,
	)
	if translateErr != nil {
		return &core.PipelineError{
			Kind:  core.ErrorKindTranslate,
			Stage: core.StageTranslate,
			Err:   fmt.Errorf("translating transcript to %q: %w", o.cfg.TargetLanguage, translateErr),
		}
	}

	run.Translation = core.TranslationResult{
		SourceText:     run.Transcript,
		TargetText:     translated,
		TargetLanguage: o.cfg.TargetLanguage,
	}

	return nil
}

// synthesize renders the translation to audio and stores the artifact under
// the reserved output prefix, the run's sole durable write.
func (o *Orchestrator) synthesize(
	ctx context.Context, run *core.RunContext,
) (core.SynthesisArtifact, *core.PipelineError) {
	audio, synthErr := o.synth.Synthesize(ctx, run.Translation.TargetText, o.cfg.Voice)
	if synthErr != nil {
		return core.SynthesisArtifact{Bucket: "", Key: ""}, &core.PipelineError{
			Kind:  core.ErrorKindSynthesis,
			Stage: core.StageSynthesize,
			Err:   fmt.Errorf("synthesizing speech with voice %q: %w", o.cfg.Voice, synthErr),
		}
	}

	run.OutputKey = o.cfg.OutputPrefix + run.RunID + "." + o.cfg.OutputFormat

	uploadErr := o.store.Upload(ctx, run.Bucket, run.OutputKey, audio)
	if uploadErr != nil {
		return core.SynthesisArtifact{Bucket: "", Key: ""}, &core.PipelineError{
			Kind:  core.ErrorKindStorage,
			Stage: core.StageSynthesize,
			Err:   fmt.Errorf("storing artifact %q: %w", run.OutputKey, uploadErr),
		}
	}

	return core.SynthesisArtifact{Bucket: run.Bucket, Key: run.OutputKey}, nil
}

func failed(runID string, stageErr *core.PipelineError) core.Outcome {
	return core.Failed(runID, stageErr.Kind, stageErr.Stage, stageErr.Err)
}

// pollErrorKind maps a poller error to the outcome taxonomy.
func pollErrorKind(err error) core.ErrorKind {
	switch {
	case errors.Is(err, poller.ErrTimeout):
		return core.ErrorKindTimeout
	case errors.Is(err, poller.ErrJobFailed), errors.Is(err, poller.ErrMissingTranscript):
		return core.ErrorKindJobFailed
	default:
		return core.ErrorKindQuery
	}
}

// transcriptDocument is the shape transcription engines publish: the AWS
// Transcribe output document.
type transcriptDocument struct {
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
	} `json:"results"`
}

// transcriptText extracts the transcript text from a stored document. JSON
// transcript documents are parsed; anything else is treated as plain UTF-8
// text so non-JSON engines plug in without a format shim.
func transcriptText(document []byte) string {
	var parsed transcriptDocument

	err := json.Unmarshal(document, &parsed)
	if err == nil && len(parsed.Results.Transcripts) > 0 {
		parts := make([]string, 0, len(parsed.Results.Transcripts))
		for _, entry := range parsed.Results.Transcripts {
			parts = append(parts, entry.Transcript)
		}

		return strings.TrimSpace(strings.Join(parts, " "))
	}

	return strings.TrimSpace(string(document))
}

// Package worker provides the NATS worker that turns object-created events
// into pipeline runs.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/book-expert/translation-pipeline/internal/core"
	"github.com/book-expert/translation-pipeline/internal/pipeline"
)

// NATSWorker listens for object-created events and dispatches one pipeline
// run per event. Runs execute in their own goroutines so a transcription job
// that polls for minutes never delays later arrivals.
type NATSWorker struct {
	natsConnection   *nats.Conn
	arrivalSubject   string
	completedSubject string
	orchestrator     *pipeline.Orchestrator
	runTimeout       time.Duration
	log              *logger.Logger

	runs sync.WaitGroup
}

// NewNATSWorker creates a new instance of the worker. runTimeout bounds one
// whole run, including the transcription polling budget.
func NewNATSWorker(
	natsConnection *nats.Conn,
	arrivalSubject string,
	completedSubject string,
	orchestrator *pipeline.Orchestrator,
	runTimeout time.Duration,
	log *logger.Logger,
) (*NATSWorker, error) {
	return &NATSWorker{
		natsConnection:   natsConnection,
		arrivalSubject:   arrivalSubject,
		completedSubject: completedSubject,
		orchestrator:     orchestrator,
		runTimeout:       runTimeout,
		log:              log,
		runs:             sync.WaitGroup{},
	}, nil
}

// Run starts the worker and blocks until the context is cancelled, then
// drains the subscription and waits for in-flight runs to finish.
func (w *NATSWorker) Run(ctx context.Context) error {
	handler := func(msg *nats.Msg) {
		w.handleMessage(ctx, msg)
	}

	sub, err := w.natsConnection.Subscribe(w.arrivalSubject, handler)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.arrivalSubject, err)
	}

	<-ctx.Done()

	drainErr := sub.Drain()

	w.runs.Wait()

	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NATSWorker) handleMessage(ctx context.Context, msg *nats.Msg) {
	var event core.ObjectCreatedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		w.log.Error("Failed to unmarshal object-created event: %v", err)

		return
	}

	w.runs.Add(1)

	go func() {
		defer w.runs.Done()

		w.runPipeline(ctx, event)
	}()
}

func (w *NATSWorker) runPipeline(ctx context.Context, event core.ObjectCreatedEvent) {
	runCtx, cancel := context.WithTimeout(ctx, w.runTimeout)
	defer cancel()

	arrival := core.ArrivalEvent{Bucket: event.Bucket, Key: event.Key}
	outcome := w.orchestrator.Run(runCtx, arrival)

	if outcome.State == core.OutcomeFailed {
		w.log.Error(
			"Run %s for %s/%s failed: %v",
			outcome.RunID, event.Bucket, event.Key, outcome.Failure,
		)
	}

	publishErr := w.publishOutcome(event, outcome)
	if publishErr != nil {
		w.log.Error(
			"Failed to publish outcome event for %s/%s: %v",
			event.Bucket, event.Key, publishErr,
		)
	}
}

// publishOutcome emits the structured outcome on the completed subject,
// carrying the arrival event's header for correlation.
func (w *NATSWorker) publishOutcome(event core.ObjectCreatedEvent, outcome core.Outcome) error {
	completed := core.PipelineCompletedEvent{
		Header:    event.Header,
		RunID:     outcome.RunID,
		State:     string(outcome.State),
		Bucket:    "",
		Key:       "",
		Stage:     "",
		ErrorKind: "",
		Error:     "",
	}

	if outcome.Artifact != nil {
		completed.Bucket = outcome.Artifact.Bucket
		completed.Key = outcome.Artifact.Key
	}

	if outcome.Failure != nil {
		completed.Stage = string(outcome.Failure.Stage)
		completed.ErrorKind = string(outcome.Failure.Kind)
		completed.Error = outcome.Failure.Error()
	}

	data, err := json.Marshal(completed)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome event: %w", err)
	}

	err = w.natsConnection.Publish(w.completedSubject, data)
	if err != nil {
		return fmt.Errorf("failed to publish outcome event: %w", err)
	}

	return nil
}

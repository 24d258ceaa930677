// Package poller_test tests the transcription job poller.
package poller_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/translation-pipeline/internal/core"
	"github.com/book-expert/translation-pipeline/internal/poller"
)

var errQueryBroken = errors.New("query broken")

// scriptedEngine returns one scripted response per JobStatus call, repeating
// the last entry once the script is exhausted.
type scriptedEngine struct {
	script []scriptStep
	calls  atomic.Int64
}

type scriptStep struct {
	job core.TranscriptionJob
	err error
}

func (e *scriptedEngine) Submit(_ context.Context, _, _, _ string) error {
	return nil
}

func (e *scriptedEngine) JobStatus(_ context.Context, _ string) (core.TranscriptionJob, error) {
	index := int(e.calls.Add(1)) - 1
	if index >= len(e.script) {
		index = len(e.script) - 1
	}

	step := e.script[index]

	return step.job, step.err
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "poller-test.log")
	require.NoError(t, err)

	return log
}

func fastPolicy() poller.Policy {
	return poller.Policy{
		Timeout:          250 * time.Millisecond,
		InitialInterval:  5 * time.Millisecond,
		MaxInterval:      20 * time.Millisecond,
		Multiplier:       1.5,
		JitterFraction:   0.2,
		MaxQueryFailures: 3,
	}
}

func inProgress(name string) core.TranscriptionJob {
	return core.TranscriptionJob{
		JobName:       name,
		Status:        core.JobStatusInProgress,
		TranscriptKey: "",
		FailureReason: "",
	}
}

func completed(name, transcriptKey string) core.TranscriptionJob {
	return core.TranscriptionJob{
		JobName:       name,
		Status:        core.JobStatusCompleted,
		TranscriptKey: transcriptKey,
		FailureReason: "",
	}
}

func TestAwaitImmediateCompletion(t *testing.T) {
	t.Parallel()

	engine := &scriptedEngine{script: []scriptStep{
		{job: completed("job-1", "transcriptions/job-1.json"), err: nil},
	}}
	jobPoller := poller.New(engine, fastPolicy(), testLogger(t))

	job, err := jobPoller.Await(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, core.JobStatusCompleted, job.Status)
	assert.Equal(t, "transcriptions/job-1.json", job.TranscriptKey)
	assert.EqualValues(t, 1, engine.calls.Load())
}

func TestAwaitCompletesAfterPolling(t *testing.T) {
	t.Parallel()

	engine := &scriptedEngine{script: []scriptStep{
		{job: inProgress("job-2"), err: nil},
		{job: inProgress("job-2"), err: nil},
		{job: completed("job-2", "transcriptions/job-2.json"), err: nil},
	}}
	jobPoller := poller.New(engine, fastPolicy(), testLogger(t))

	job, err := jobPoller.Await(context.Background(), "job-2")
	require.NoError(t, err)
	assert.Equal(t, "transcriptions/job-2.json", job.TranscriptKey)
	assert.EqualValues(t, 3, engine.calls.Load())
}

func TestAwaitJobFailure(t *testing.T) {
	t.Parallel()

	engine := &scriptedEngine{script: []scriptStep{
		{
			job: core.TranscriptionJob{
				JobName:       "job-3",
				Status:        core.JobStatusFailed,
				TranscriptKey: "",
				FailureReason: "unsupported codec",
			},
			err: nil,
		},
	}}
	jobPoller := poller.New(engine, fastPolicy(), testLogger(t))

	_, err := jobPoller.Await(context.Background(), "job-3")
	require.ErrorIs(t, err, poller.ErrJobFailed)
	assert.Contains(t, err.Error(), "unsupported codec")
}

func TestAwaitTimesOutWhileInProgress(t *testing.T) {
	t.Parallel()

	engine := &scriptedEngine{script: []scriptStep{
		{job: inProgress("job-4"), err: nil},
	}}
	jobPoller := poller.New(engine, fastPolicy(), testLogger(t))

	start := time.Now()
	_, err := jobPoller.Await(context.Background(), "job-4")

	require.ErrorIs(t, err, poller.ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 250*time.Millisecond)
}

func TestAwaitRejectsCompletionWithoutTranscript(t *testing.T) {
	t.Parallel()

	engine := &scriptedEngine{script: []scriptStep{
		{job: completed("job-5", ""), err: nil},
	}}
	jobPoller := poller.New(engine, fastPolicy(), testLogger(t))

	_, err := jobPoller.Await(context.Background(), "job-5")
	require.ErrorIs(t, err, poller.ErrMissingTranscript)
}

func TestAwaitRetriesTransientQueryFailures(t *testing.T) {
	t.Parallel()

	engine := &scriptedEngine{script: []scriptStep{
		{job: core.TranscriptionJob{}, err: errQueryBroken},
		{job: core.TranscriptionJob{}, err: errQueryBroken},
		{job: completed("job-6", "transcriptions/job-6.json"), err: nil},
	}}
	jobPoller := poller.New(engine, fastPolicy(), testLogger(t))

	job, err := jobPoller.Await(context.Background(), "job-6")
	require.NoError(t, err)
	assert.Equal(t, "transcriptions/job-6.json", job.TranscriptKey)
}

func TestAwaitSurfacesPersistentQueryFailure(t *testing.T) {
	t.Parallel()

	engine := &scriptedEngine{script: []scriptStep{
		{job: core.TranscriptionJob{}, err: errQueryBroken},
	}}
	jobPoller := poller.New(engine, fastPolicy(), testLogger(t))

	_, err := jobPoller.Await(context.Background(), "job-7")
	require.ErrorIs(t, err, poller.ErrStatusQuery)
	assert.EqualValues(t, 3, engine.calls.Load(), "should stop at the consecutive failure limit")
}

func TestAwaitHonoursCancellation(t *testing.T) {
	t.Parallel()

	engine := &scriptedEngine{script: []scriptStep{
		{job: inProgress("job-8"), err: nil},
	}}

	policy := fastPolicy()
	policy.Timeout = 10 * time.Second
	policy.InitialInterval = 50 * time.Millisecond
	jobPoller := poller.New(engine, policy, testLogger(t))

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := jobPoller.Await(ctx, "job-8")

	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second, "cancellation should abort promptly")
}

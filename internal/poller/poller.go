// Package poller drives an asynchronous remote transcription job to a
// terminal state with bounded, jittered polling.
package poller

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/book-expert/logger"

	"github.com/book-expert/translation-pipeline/internal/core"
)

// Static errors.
var (
	// ErrTimeout indicates the job stayed non-terminal past the polling budget.
	ErrTimeout = errors.New("transcription job did not reach a terminal state within the polling budget")
	// ErrJobFailed indicates the remote job reported failure.
	ErrJobFailed = errors.New("transcription job failed")
	// ErrMissingTranscript indicates the job completed without a transcript key.
	ErrMissingTranscript = errors.New("transcription job completed without a transcript key")
	// ErrStatusQuery indicates the status query failed persistently.
	ErrStatusQuery = errors.New("transcription status query failed")
)

// Default policy values, applied by Normalize for unset fields.
const (
	DefaultTimeout          = 15 * time.Minute
	DefaultInitialInterval  = 2 * time.Second
	DefaultMaxInterval      = 30 * time.Second
	DefaultMultiplier       = 1.5
	DefaultJitterFraction   = 0.2
	DefaultMaxQueryFailures = 5
)

// Policy is the polling budget: total timeout, backoff shape, and how many
// consecutive query failures to tolerate before giving up.
type Policy struct {
	Timeout          time.Duration
	InitialInterval  time.Duration
	MaxInterval      time.Duration
	Multiplier       float64
	JitterFraction   float64
	MaxQueryFailures int
}

// Normalize fills unset fields with defaults and returns the result.
func (p Policy) Normalize() Policy {
	if p.Timeout <= 0 {
		p.Timeout = DefaultTimeout
	}

	if p.InitialInterval <= 0 {
		p.InitialInterval = DefaultInitialInterval
	}

	if p.MaxInterval <= 0 {
		p.MaxInterval = DefaultMaxInterval
	}

	if p.Multiplier < 1.0 {
		p.Multiplier = DefaultMultiplier
	}

	if p.JitterFraction < 0 || p.JitterFraction >= 1.0 {
		p.JitterFraction = DefaultJitterFraction
	}

	if p.MaxQueryFailures <= 0 {
		p.MaxQueryFailures = DefaultMaxQueryFailures
	}

	return p
}

// Poller resolves transcription jobs to terminal states by querying the
// remote engine under a Policy.
type Poller struct {
	engine core.SpeechToText
	policy Policy
	log    *logger.Logger
}

// New creates a Poller over the given engine. The policy is normalized.
func New(engine core.SpeechToText, policy Policy, log *logger.Logger) *Poller {
	return &Poller{
		engine: engine,
		policy: policy.Normalize(),
		log:    log,
	}
}

// Await polls the job until it is terminal, the budget is exhausted, or the
// context is cancelled. A COMPLETED job is returned only with a non-empty
// transcript key; completion without one is surfaced as an error, never as
// success. Transient query failures are retried up to the policy's
// consecutive-failure limit.
func (p *Poller) Await(ctx context.Context, jobName string) (core.TranscriptionJob, error) {
	deadline := time.Now().Add(p.policy.Timeout)
	interval := p.policy.InitialInterval
	queryFailures := 0

	for {
		job, queryErr := p.engine.JobStatus(ctx, jobName)
		if queryErr != nil {
			queryFailures++
			p.log.Warn(
				"Status query %d/%d for job %q failed: %v",
				queryFailures, p.policy.MaxQueryFailures, jobName, queryErr,
			)

			if queryFailures >= p.policy.MaxQueryFailures {
				return core.TranscriptionJob{}, fmt.Errorf(
					"%w: %d consecutive failures, last: %v",
					ErrStatusQuery, queryFailures, queryErr,
				)
			}
		} else {
			queryFailures = 0

			terminal, job, termErr := p.resolveStatus(job, jobName)
			if terminal {
				return job, termErr
			}
		}

		if !time.Now().Before(deadline) {
			return core.TranscriptionJob{}, fmt.Errorf("%w: job %q after %s", ErrTimeout, jobName, p.policy.Timeout)
		}

		waitErr := p.wait(ctx, interval, deadline)
		if waitErr != nil {
			return core.TranscriptionJob{}, waitErr
		}

		interval = p.nextInterval(interval)
	}
}

// resolveStatus maps a job snapshot to (terminal, job, err).
func (p *Poller) resolveStatus(job core.TranscriptionJob, jobName string) (bool, core.TranscriptionJob, error) {
	switch job.Status {
	case core.JobStatusCompleted:
		if job.TranscriptKey == "" {
			return true, core.TranscriptionJob{}, fmt.Errorf("%w: job %q", ErrMissingTranscript, jobName)
		}

		return true, job, nil
	case core.JobStatusFailed:
		return true, core.TranscriptionJob{}, fmt.Errorf("%w: job %q: %s", ErrJobFailed, jobName, job.FailureReason)
	case core.JobStatusInProgress:
		return false, job, nil
	default:
		// Unknown statuses are treated as still running; the budget bounds them.
		p.log.Warn("Job %q reported unknown status %q", jobName, job.Status)

		return false, job, nil
	}
}

// wait sleeps for the jittered interval, clipped to the deadline, honouring
// cancellation.
func (p *Poller) wait(ctx context.Context, interval time.Duration, deadline time.Time) error {
	wait := p.jittered(interval)
	if remaining := time.Until(deadline); wait > remaining {
		wait = remaining
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("polling cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// jittered spreads the interval by ±JitterFraction so concurrent runs do not
// query the engine in lockstep.
func (p *Poller) jittered(interval time.Duration) time.Duration {
	if p.policy.JitterFraction == 0 {
		return interval
	}

	spread := (rand.Float64()*2 - 1) * p.policy.JitterFraction

	return time.Duration(float64(interval) * (1 + spread))
}

func (p *Poller) nextInterval(interval time.Duration) time.Duration {
	next := time.Duration(float64(interval) * p.policy.Multiplier)
	if next > p.policy.MaxInterval {
		next = p.policy.MaxInterval
	}

	return next
}

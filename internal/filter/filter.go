// Package filter decides whether an arriving object is eligible for
// processing. Objects under the pipeline's own output prefix are rejected so
// the pipeline never reprocesses artifacts it produced itself.
package filter

import (
	"strings"

	"github.com/book-expert/translation-pipeline/internal/core"
)

// Filter is a pure eligibility decision over arrival events. It has no
// failure mode: any well-formed event yields a decision.
type Filter struct {
	outputPrefix string
}

// New creates a Filter that rejects keys under outputPrefix.
func New(outputPrefix string) *Filter {
	return &Filter{outputPrefix: outputPrefix}
}

// Decide returns the eligibility decision for one arrival event.
func (f *Filter) Decide(event core.ArrivalEvent) core.FilterDecision {
	if strings.HasPrefix(event.Key, f.outputPrefix) {
		return core.FilterDecision{ShouldProcess: false, Bucket: event.Bucket, Key: event.Key}
	}

	return core.FilterDecision{ShouldProcess: true, Bucket: event.Bucket, Key: event.Key}
}

// Package runid provides the correlation id source for pipeline runs.
package runid

import "github.com/google/uuid"

// UUIDSource implements core.IDSource with random UUIDs. Collisions across
// concurrent runs are vanishingly unlikely and no coordination is needed.
type UUIDSource struct{}

// New creates a UUIDSource.
func New() *UUIDSource {
	return &UUIDSource{}
}

// NewID returns a fresh run id.
func (s *UUIDSource) NewID() string {
	return uuid.NewString()
}

package pickup

import (
	"time"

	"github.com/google/uuid"
)

// ResolutionSession is the aggregate carrying state between an initial
// resolution and feedback-driven refinements for one driver/passenger pair.
// It is updated atomically: no partial state is recorded until a full
// ScoredCandidate has been selected.
type ResolutionSession struct {
	id          uuid.UUID
	driver      GeoPoint
	passenger   GeoPoint
	strategy    SourceKind
	lastResult  *ScoredCandidate
	refinements int

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewResolutionSession creates a session for one driver/passenger pair.
func NewResolutionSession(driver, passenger GeoPoint, strategy SourceKind) (*ResolutionSession, error) {
	if !driver.Valid() {
		return nil, NewMissingInputError("driver coordinates are missing or out of range")
	}
	if !passenger.Valid() {
		return nil, NewMissingInputError("passenger coordinates are missing or out of range")
	}
	if _, ok := ParseSourceKind(string(strategy)); !ok {
		return nil, NewMissingInputError("unknown candidate strategy: " + string(strategy))
	}

	now := time.Now().UTC()
	return &ResolutionSession{
		id:        uuid.New(),
		driver:    driver,
		passenger: passenger,
		strategy:  strategy,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructSession rebuilds a session from persistence data (no validation).
func ReconstructSession(
	id uuid.UUID,
	driver, passenger GeoPoint,
	strategy SourceKind,
	lastResult *ScoredCandidate,
	refinements int,
	version int64,
	createdAt, updatedAt time.Time,
) *ResolutionSession {
	return &ResolutionSession{
		id:          id,
		driver:      driver,
		passenger:   passenger,
		strategy:    strategy,
		lastResult:  lastResult,
		refinements: refinements,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// ID returns the session's unique identifier.
func (s *ResolutionSession) ID() uuid.UUID { return s.id }

// Driver returns the driver's position.
func (s *ResolutionSession) Driver() GeoPoint { return s.driver }

// Passenger returns the passenger's position.
func (s *ResolutionSession) Passenger() GeoPoint { return s.passenger }

// Strategy returns the candidate strategy bound at session creation.
func (s *ResolutionSession) Strategy() SourceKind { return s.strategy }

// LastResult returns the most recently selected pickup, or nil before the
// first successful resolution.
func (s *ResolutionSession) LastResult() *ScoredCandidate { return s.lastResult }

// Refinements returns the number of feedback rounds applied so far.
func (s *ResolutionSession) Refinements() int { return s.refinements }

// Version returns the entity version for optimistic locking.
func (s *ResolutionSession) Version() int64 { return s.version }

// CreatedAt returns the creation timestamp.
func (s *ResolutionSession) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (s *ResolutionSession) UpdatedAt() time.Time { return s.updatedAt }

// RecordResult stores the winning candidate of an initial resolution.
func (s *ResolutionSession) RecordResult(result ScoredCandidate) {
	s.lastResult = &result
	s.updatedAt = time.Now().UTC()
}

// RecordRefinement stores the winning candidate of a feedback round.
func (s *ResolutionSession) RecordRefinement(result ScoredCandidate) {
	s.lastResult = &result
	s.refinements++
	s.updatedAt = time.Now().UTC()
}

// IncrementVersion bumps the version for optimistic locking.
func (s *ResolutionSession) IncrementVersion() {
	s.version++
	s.updatedAt = time.Now().UTC()
}

package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/meetpoint/service-pickup/internal/domain/pickup"
)

// ErrVersionConflict is returned by Update when the stored session version no
// longer matches the caller's snapshot.
var ErrVersionConflict = errors.New("session was modified by another transaction")

// sessionRecord is the serialized form shared by the memory and Redis stores.
type sessionRecord struct {
	ID          uuid.UUID               `json:"id"`
	Driver      pickup.GeoPoint         `json:"driver"`
	Passenger   pickup.GeoPoint         `json:"passenger"`
	Strategy    string                  `json:"strategy"`
	LastResult  *pickup.ScoredCandidate `json:"last_result,omitempty"`
	Refinements int                     `json:"refinements"`
	Version     int64                   `json:"version"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

func newSessionRecord(s *pickup.ResolutionSession) sessionRecord {
	return sessionRecord{
		ID:          s.ID(),
		Driver:      s.Driver(),
		Passenger:   s.Passenger(),
		Strategy:    string(s.Strategy()),
		LastResult:  s.LastResult(),
		Refinements: s.Refinements(),
		Version:     s.Version(),
		CreatedAt:   s.CreatedAt(),
		UpdatedAt:   s.UpdatedAt(),
	}
}

func (r sessionRecord) toDomain() *pickup.ResolutionSession {
	return pickup.ReconstructSession(
		r.ID,
		r.Driver,
		r.Passenger,
		pickup.SourceKind(r.Strategy),
		r.LastResult,
		r.Refinements,
		r.Version,
		r.CreatedAt,
		r.UpdatedAt,
	)
}

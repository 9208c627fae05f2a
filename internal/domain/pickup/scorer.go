package pickup

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ErrWalkExceedsCeiling marks a candidate whose passenger walking leg is
// longer than the configured ceiling. The constraint is strict and
// independent of the driver leg.
type walkCeilingError struct {
	walkMin    float64
	ceilingMin float64
}

func (e *walkCeilingError) Error() string {
	return fmt.Sprintf("passenger walk of %.1f min exceeds ceiling of %.1f min", e.walkMin, e.ceilingMin)
}

// IsWalkCeilingExceeded reports whether a scoring rejection was caused by the
// walking-time constraint rather than a route failure.
func IsWalkCeilingExceeded(err error) bool {
	_, ok := err.(*walkCeilingError)
	return ok
}

// Scorer evaluates one candidate by resolving both route legs and combining
// them into a single comparable score.
type Scorer struct {
	directions DirectionsProvider
}

// NewScorer creates a Scorer backed by the given directions provider.
func NewScorer(directions DirectionsProvider) *Scorer {
	return &Scorer{directions: directions}
}

// Score requests the driving route driver→candidate and the walking route
// passenger→candidate concurrently. It returns an error when either route
// call fails or the passenger walking duration exceeds walkCeilingMin; the
// caller treats any error as "this candidate is not viable", never as fatal
// to the whole resolution.
func (s *Scorer) Score(ctx context.Context, driver, passenger GeoPoint, cand Candidate, walkCeilingMin float64) (*ScoredCandidate, error) {
	var driverRoute, passengerRoute *Route

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.directions.Route(gctx, driver, cand.Location, ModeDriving)
		if err != nil {
			return fmt.Errorf("driver route: %w", err)
		}
		driverRoute = r
		return nil
	})
	g.Go(func() error {
		r, err := s.directions.Route(gctx, passenger, cand.Location, ModeWalking)
		if err != nil {
			return fmt.Errorf("passenger route: %w", err)
		}
		passengerRoute = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if passengerRoute.DurationMin > walkCeilingMin {
		return nil, &walkCeilingError{walkMin: passengerRoute.DurationMin, ceilingMin: walkCeilingMin}
	}

	scored := NewScoredCandidate(cand, *driverRoute, *passengerRoute)
	return &scored, nil
}

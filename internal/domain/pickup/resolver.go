package pickup

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// defaultScoreConcurrency caps the number of candidates scored in parallel
// when no explicit cap is configured, to respect external API rate limits.
const defaultScoreConcurrency = 10

// Resolver drives one CandidateSource, scores every yielded candidate and
// selects the best feasible result. The selection logic is identical for the
// first pass and for refinements, so the same tie-break and rejection rules
// apply uniformly.
type Resolver struct {
	source         CandidateSource
	scorer         *Scorer
	walkCeilingMin float64
	maxConcurrency int
	logger         *zap.Logger
}

// NewResolver creates a Resolver for one strategy. walkCeilingMin is the
// strategy-specific passenger walking-time ceiling in minutes.
func NewResolver(source CandidateSource, scorer *Scorer, walkCeilingMin float64, maxConcurrency int, logger *zap.Logger) *Resolver {
	if maxConcurrency <= 0 {
		maxConcurrency = defaultScoreConcurrency
	}
	return &Resolver{
		source:         source,
		scorer:         scorer,
		walkCeilingMin: walkCeilingMin,
		maxConcurrency: maxConcurrency,
		logger:         logger,
	}
}

// Strategy returns the kind of the underlying candidate source.
func (r *Resolver) Strategy() SourceKind { return r.source.Kind() }

// SupportsFeedback reports whether Refine is available for this resolver.
func (r *Resolver) SupportsFeedback() bool { return r.source.SupportsFeedback() }

// ResolveInitial runs the candidate strategy for the session's pair, scores
// every candidate independently and records the minimum-score eligible one
// into the session. The session is only mutated on success.
func (r *Resolver) ResolveInitial(ctx context.Context, session *ResolutionSession) (*ScoredCandidate, error) {
	best, err := r.resolve(ctx, session, "")
	if err != nil {
		return nil, err
	}
	session.RecordResult(*best)
	return best, nil
}

// Refine re-invokes the candidate strategy with the passenger's feedback and
// repeats the scoring/selection step. Strategies that cannot consume feedback
// reject the operation explicitly rather than silently falling back to
// initial-resolution semantics.
func (r *Resolver) Refine(ctx context.Context, session *ResolutionSession, feedback string) (*ScoredCandidate, error) {
	if !r.source.SupportsFeedback() {
		return nil, NewUnsupportedOperationError(
			"strategy " + string(r.source.Kind()) + " does not support feedback refinement")
	}
	best, err := r.resolve(ctx, session, feedback)
	if err != nil {
		return nil, err
	}
	session.RecordRefinement(*best)
	return best, nil
}

func (r *Resolver) resolve(ctx context.Context, session *ResolutionSession, feedback string) (*ScoredCandidate, error) {
	driver, passenger := session.Driver(), session.Passenger()

	candidates, err := r.source.Generate(ctx, driver, passenger, feedback)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, NewNoCandidatesError("strategy " + string(r.source.Kind()) + " produced no candidates")
	}

	// Score candidates in parallel. Results keep the generation order so the
	// first-seen candidate wins exact score ties, deterministically.
	scored := make([]*ScoredCandidate, len(candidates))

	g := new(errgroup.Group)
	limit := len(candidates)
	if limit > r.maxConcurrency {
		limit = r.maxConcurrency
	}
	g.SetLimit(limit)

	for i, cand := range candidates {
		g.Go(func() error {
			sc, err := r.scorer.Score(ctx, driver, passenger, cand, r.walkCeilingMin)
			if err != nil {
				// A failed or ineligible candidate contributes nothing; the
				// remaining candidates are still evaluated.
				r.logger.Debug("candidate rejected",
					zap.Float64("lat", cand.Location.Lat),
					zap.Float64("lng", cand.Location.Lng),
					zap.Bool("walk_ceiling", IsWalkCeilingExceeded(err)),
					zap.Error(err),
				)
				return nil
			}
			scored[i] = sc
			return nil
		})
	}
	_ = g.Wait()

	var best *ScoredCandidate
	for _, sc := range scored {
		if sc == nil {
			continue
		}
		if best == nil || sc.Score < best.Score {
			best = sc
		}
	}
	if best == nil {
		return nil, NewNoEligibleCandidateError("no suitable pickup point found within walking distance")
	}

	r.logger.Info("pickup point selected",
		zap.String("strategy", string(r.source.Kind())),
		zap.Float64("score", best.Score),
		zap.Float64("driver_min", best.DriverRoute.DurationMin),
		zap.Float64("walk_min", best.PassengerRoute.DurationMin),
	)
	return best, nil
}

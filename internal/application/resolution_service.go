package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meetpoint/service-pickup/internal/domain/pickup"
	"github.com/meetpoint/service-pickup/internal/events"
	"github.com/meetpoint/service-pickup/internal/kafka"
	"go.uber.org/zap"
)

// ResolveRequest holds the inputs for a new resolution session.
type ResolveRequest struct {
	Driver    pickup.GeoPoint
	Passenger pickup.GeoPoint
	Strategy  string
}

// RouteDTO is the response representation of one travel leg.
type RouteDTO struct {
	DurationMin float64           `json:"duration_min"`
	DistanceKm  float64           `json:"distance_km"`
	Geometry    []pickup.GeoPoint `json:"geometry,omitempty"`
	Text        pickup.RouteText  `json:"text"`
}

// PickupDTO is the response representation of a selected pickup point.
type PickupDTO struct {
	Location       pickup.GeoPoint `json:"location"`
	Name           string          `json:"name,omitempty"`
	Source         string          `json:"source"`
	ScoreMin       float64         `json:"score_min"`
	DriverRoute    RouteDTO        `json:"driver_route"`
	PassengerRoute RouteDTO        `json:"passenger_route"`
	Message        string          `json:"message"`
}

// SessionDTO is the response representation of a resolution session.
type SessionDTO struct {
	ID          uuid.UUID       `json:"id"`
	Strategy    string          `json:"strategy"`
	Driver      pickup.GeoPoint `json:"driver"`
	Passenger   pickup.GeoPoint `json:"passenger"`
	Pickup      *PickupDTO      `json:"pickup,omitempty"`
	Refinements int             `json:"refinements"`
	Version     int64           `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// EventPublisher is the outbound port for domain events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// ResolutionService orchestrates the pickup resolution use cases: creating
// sessions, running the strategy resolvers and applying feedback refinements.
type ResolutionService struct {
	sessions  pickup.SessionRepository
	resolvers map[pickup.SourceKind]*pickup.Resolver
	producer  EventPublisher
	logger    *zap.Logger

	mu       sync.Mutex
	inFlight map[uuid.UUID]*sync.Mutex
}

// NewResolutionService creates a ResolutionService. Each resolver serves the
// strategy reported by its Strategy method.
func NewResolutionService(
	sessions pickup.SessionRepository,
	resolvers []*pickup.Resolver,
	producer EventPublisher,
	logger *zap.Logger,
) *ResolutionService {
	byKind := make(map[pickup.SourceKind]*pickup.Resolver, len(resolvers))
	for _, r := range resolvers {
		byKind[r.Strategy()] = r
	}
	return &ResolutionService{
		sessions:  sessions,
		resolvers: byKind,
		producer:  producer,
		logger:    logger,
		inFlight:  make(map[uuid.UUID]*sync.Mutex),
	}
}

// Resolve creates a session for the pair, runs the chosen strategy and
// returns the session with its first pickup result.
func (s *ResolutionService) Resolve(ctx context.Context, req ResolveRequest) (*SessionDTO, error) {
	kind, ok := pickup.ParseSourceKind(req.Strategy)
	if !ok {
		return nil, pickup.NewMissingInputError("unknown candidate strategy: " + req.Strategy)
	}
	resolver, ok := s.resolvers[kind]
	if !ok {
		return nil, pickup.NewMissingInputError("strategy " + req.Strategy + " is not enabled")
	}

	session, err := pickup.NewResolutionSession(req.Driver, req.Passenger, kind)
	if err != nil {
		return nil, err
	}

	if _, err := resolver.ResolveInitial(ctx, session); err != nil {
		s.publishFailed(ctx, session.ID(), kind, err)
		return nil, err
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	s.publishResolved(ctx, events.PickupResolved, session)

	dto := toSessionDTO(session)
	return &dto, nil
}

// Refine applies passenger feedback to an existing session and returns the
// session with its updated pickup result. Concurrent refinements of the same
// session are serialized.
func (s *ResolutionService) Refine(ctx context.Context, sessionID uuid.UUID, feedback string) (*SessionDTO, error) {
	unlock := s.lockSession(sessionID)
	defer unlock()

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	resolver, ok := s.resolvers[session.Strategy()]
	if !ok {
		return nil, pickup.NewUnsupportedOperationError(
			"strategy " + string(session.Strategy()) + " is not enabled")
	}

	if _, err := resolver.Refine(ctx, session, feedback); err != nil {
		s.publishFailed(ctx, session.ID(), session.Strategy(), err)
		return nil, err
	}

	session.IncrementVersion()
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}

	s.publishResolved(ctx, events.PickupRefined, session)

	dto := toSessionDTO(session)
	return &dto, nil
}

// GetSession returns the current state of a session.
func (s *ResolutionService) GetSession(ctx context.Context, sessionID uuid.UUID) (*SessionDTO, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	dto := toSessionDTO(session)
	return &dto, nil
}

// lockSession returns the unlock function of the per-session mutex, creating
// the mutex on first use.
func (s *ResolutionService) lockSession(id uuid.UUID) func() {
	s.mu.Lock()
	m, ok := s.inFlight[id]
	if !ok {
		m = &sync.Mutex{}
		s.inFlight[id] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func (s *ResolutionService) publishResolved(ctx context.Context, eventType string, session *pickup.ResolutionSession) {
	result := session.LastResult()
	if result == nil {
		return
	}

	evt := events.PickupResolvedEvent{
		SessionID:   session.ID(),
		Strategy:    string(session.Strategy()),
		Location:    result.Candidate.Location,
		Name:        result.Candidate.Name,
		ScoreMin:    result.Score,
		Refinements: session.Refinements(),
		OccurredAt:  time.Now().UTC(),
	}

	cloudEvent, err := kafka.NewCloudEvent("service-pickup", eventType, evt)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, events.TopicPickupEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", events.TopicPickupEvents),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

// publishFailed reports resolution outcomes only. Caller errors such as
// unsupported refinement are surfaced to the caller, not to the event bus.
func (s *ResolutionService) publishFailed(ctx context.Context, sessionID uuid.UUID, strategy pickup.SourceKind, cause error) {
	resErr, ok := pickup.AsResolutionError(cause)
	if !ok {
		return
	}
	switch resErr.Kind {
	case pickup.KindNoCandidates, pickup.KindNoEligibleCandidate, pickup.KindExtractionFailed:
	default:
		return
	}

	evt := events.PickupResolutionFailedEvent{
		SessionID:  sessionID,
		Strategy:   string(strategy),
		Kind:       string(resErr.Kind),
		Message:    resErr.Message,
		OccurredAt: time.Now().UTC(),
	}

	cloudEvent, err := kafka.NewCloudEvent("service-pickup", events.PickupResolutionFailed, evt)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", events.PickupResolutionFailed),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, events.TopicPickupEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", events.TopicPickupEvents),
			zap.String("event_type", events.PickupResolutionFailed),
			zap.Error(err),
		)
	}
}

func toSessionDTO(session *pickup.ResolutionSession) SessionDTO {
	dto := SessionDTO{
		ID:          session.ID(),
		Strategy:    string(session.Strategy()),
		Driver:      session.Driver(),
		Passenger:   session.Passenger(),
		Refinements: session.Refinements(),
		Version:     session.Version(),
		CreatedAt:   session.CreatedAt(),
		UpdatedAt:   session.UpdatedAt(),
	}

	if result := session.LastResult(); result != nil {
		dto.Pickup = &PickupDTO{
			Location:       result.Candidate.Location,
			Name:           result.Candidate.Name,
			Source:         string(result.Candidate.Source),
			ScoreMin:       result.Score,
			DriverRoute:    toRouteDTO(result.DriverRoute),
			PassengerRoute: toRouteDTO(result.PassengerRoute),
			Message: fmt.Sprintf(
				"Best pickup found with max travel time %.1f min.", result.Score),
		}
	}
	return dto
}

func toRouteDTO(r pickup.Route) RouteDTO {
	return RouteDTO{
		DurationMin: r.DurationMin,
		DistanceKm:  r.DistanceKm,
		Geometry:    r.Geometry,
		Text:        r.Text,
	}
}

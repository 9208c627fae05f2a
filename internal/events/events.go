package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/meetpoint/service-pickup/internal/domain/pickup"
)

// Topics.
const (
	TopicPickupEvents   = "pickup.events"
	TopicPickupFeedback = "pickup.feedback"
)

// Event types.
const (
	PickupResolved         = "pickup.resolved"
	PickupRefined          = "pickup.refined"
	PickupResolutionFailed = "pickup.resolution_failed"
	FeedbackSubmitted      = "feedback.submitted"
)

// PickupResolvedEvent is published after a pickup point is selected for a
// session, both on the initial resolution and on every refinement.
type PickupResolvedEvent struct {
	SessionID   uuid.UUID       `json:"session_id"`
	Strategy    string          `json:"strategy"`
	Location    pickup.GeoPoint `json:"location"`
	Name        string          `json:"name,omitempty"`
	ScoreMin    float64         `json:"score_min"`
	Refinements int             `json:"refinements"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// PickupResolutionFailedEvent is published when a strategy run cannot produce
// an eligible pickup point. Caller errors (bad input, unsupported refinement)
// do not emit it.
type PickupResolutionFailedEvent struct {
	SessionID  uuid.UUID `json:"session_id"`
	Strategy   string    `json:"strategy"`
	Kind       string    `json:"kind"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// FeedbackSubmittedEvent asks the service to refine an existing session with
// passenger feedback. Published by upstream clients on the feedback topic.
type FeedbackSubmittedEvent struct {
	SessionID  uuid.UUID `json:"session_id"`
	Feedback   string    `json:"feedback"`
	OccurredAt time.Time `json:"occurred_at"`
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meetpoint/service-pickup/internal/domain/pickup"
	"gorm.io/gorm"
)

// SessionModel is the GORM model for the resolution_sessions table.
type SessionModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	DriverLat    float64         `gorm:"not null"`
	DriverLng    float64         `gorm:"not null"`
	PassengerLat float64         `gorm:"not null"`
	PassengerLng float64         `gorm:"not null"`
	Strategy     string          `gorm:"not null;size:20;index"`
	LastResult   json.RawMessage `gorm:"type:jsonb"`
	Refinements  int             `gorm:"not null;default:0"`
	Version      int64           `gorm:"not null;default:1"`
	CreatedAt    time.Time       `gorm:"not null;index"`
	UpdatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (SessionModel) TableName() string {
	return "resolution_sessions"
}

// GormSessionRepository is the GORM-based implementation of SessionRepository
// for deployments that want durable sessions.
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a new GormSessionRepository.
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

// FindByID retrieves a session by its unique identifier.
func (r *GormSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*pickup.ResolutionSession, error) {
	var model SessionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pickup.NewSessionNotFoundError(id.String())
		}
		return nil, fmt.Errorf("failed to find session by ID: %w", err)
	}
	return toDomainSession(&model)
}

// Save persists a new session.
func (r *GormSessionRepository) Save(ctx context.Context, session *pickup.ResolutionSession) error {
	model, err := toSessionModel(session)
	if err != nil {
		return fmt.Errorf("failed to convert session to model: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Update persists changes to an existing session with optimistic locking.
func (r *GormSessionRepository) Update(ctx context.Context, session *pickup.ResolutionSession) error {
	model, err := toSessionModel(session)
	if err != nil {
		return fmt.Errorf("failed to convert session to model: %w", err)
	}

	// Only update if the stored version matches the pre-increment version.
	expectedVersion := session.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&SessionModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"last_result": model.LastResult,
			"refinements": model.Refinements,
			"version":     model.Version,
			"updated_at":  model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// Delete removes a session.
func (r *GormSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&SessionModel{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions older than the retention window. Intended to
// be run periodically by the owning process.
func (r *GormSessionRepository) DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("updated_at < ?", olderThan).
		Delete(&SessionModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// --- Conversion Helpers ---

func toSessionModel(s *pickup.ResolutionSession) (*SessionModel, error) {
	var lastResultJSON json.RawMessage
	if s.LastResult() != nil {
		data, err := json.Marshal(s.LastResult())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal last result: %w", err)
		}
		lastResultJSON = data
	}

	return &SessionModel{
		ID:           s.ID(),
		DriverLat:    s.Driver().Lat,
		DriverLng:    s.Driver().Lng,
		PassengerLat: s.Passenger().Lat,
		PassengerLng: s.Passenger().Lng,
		Strategy:     string(s.Strategy()),
		LastResult:   lastResultJSON,
		Refinements:  s.Refinements(),
		Version:      s.Version(),
		CreatedAt:    s.CreatedAt(),
		UpdatedAt:    s.UpdatedAt(),
	}, nil
}

func toDomainSession(m *SessionModel) (*pickup.ResolutionSession, error) {
	var lastResult *pickup.ScoredCandidate
	if len(m.LastResult) > 0 {
		var sc pickup.ScoredCandidate
		if err := json.Unmarshal(m.LastResult, &sc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal last result: %w", err)
		}
		lastResult = &sc
	}

	return pickup.ReconstructSession(
		m.ID,
		pickup.GeoPoint{Lat: m.DriverLat, Lng: m.DriverLng},
		pickup.GeoPoint{Lat: m.PassengerLat, Lng: m.PassengerLng},
		pickup.SourceKind(m.Strategy),
		lastResult,
		m.Refinements,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

var _ pickup.SessionRepository = (*GormSessionRepository)(nil)

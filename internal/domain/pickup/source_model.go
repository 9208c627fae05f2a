package pickup

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ModelSource asks a language model for a single coordinate suggestion. It is
// the only feedback-capable strategy: every refinement re-invokes the model
// with the passenger's latest note.
type ModelSource struct {
	completion CompletionProvider
	logger     *zap.Logger
}

// NewModelSource creates a model-suggested coordinate strategy.
func NewModelSource(completion CompletionProvider, logger *zap.Logger) *ModelSource {
	return &ModelSource{completion: completion, logger: logger}
}

// Kind identifies the strategy.
func (s *ModelSource) Kind() SourceKind { return SourceModel }

// SupportsFeedback reports that this strategy consumes feedback.
func (s *ModelSource) SupportsFeedback() bool { return true }

// Generate prompts the model and parses the first decimal pair from its
// reply. A reply with no parsable pair yields an extraction error carrying
// the raw reply text.
func (s *ModelSource) Generate(ctx context.Context, driver, passenger GeoPoint, feedback string) ([]Candidate, error) {
	prompt := buildSuggestionPrompt(driver, passenger, feedback)

	reply, err := s.completion.Complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("model suggestion failed", zap.Error(err))
		return nil, nil
	}

	point, ok := ExtractCoordinatePair(reply)
	if !ok {
		return nil, NewExtractionError("model reply contained no coordinate pair", reply)
	}

	return []Candidate{{
		Location: point,
		Source:   SourceModel,
		RawTrace: reply,
	}}, nil
}

func buildSuggestionPrompt(driver, passenger GeoPoint, feedback string) string {
	prompt := fmt.Sprintf(
		"A driver is at latitude %.6f, longitude %.6f. A passenger is at latitude %.6f, longitude %.6f, "+
			"about %.1f km apart. Suggest a single pickup point that keeps the passenger's walk short, "+
			"is a legal and safe place for a car to stop, and adds minimal detour for the driver. "+
			"Reply with only the coordinates as \"lat, lng\".",
		driver.Lat, driver.Lng, passenger.Lat, passenger.Lng, HaversineKm(driver, passenger),
	)
	if feedback != "" {
		prompt += fmt.Sprintf(" The passenger rejected the previous suggestion with this feedback: %q. Take it into account.", feedback)
	}
	return prompt
}

package pickup

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// OcrSource renders a static map marking both parties, runs text recognition
// over the image, and extracts a pickup location from the recognized text:
// first as a direct coordinate pair, then by geocoding address-like lines.
type OcrSource struct {
	renderer StaticMapProvider
	ocr      ImageTextProvider
	geocoder GeocodeProvider
	logger   *zap.Logger
}

// NewOcrSource creates an OCR/geocode extraction strategy.
func NewOcrSource(renderer StaticMapProvider, ocr ImageTextProvider, geocoder GeocodeProvider, logger *zap.Logger) *OcrSource {
	return &OcrSource{
		renderer: renderer,
		ocr:      ocr,
		geocoder: geocoder,
		logger:   logger,
	}
}

// Kind identifies the strategy.
func (s *OcrSource) Kind() SourceKind { return SourceOcr }

// SupportsFeedback reports that this strategy ignores feedback.
func (s *OcrSource) SupportsFeedback() bool { return false }

// Generate runs the render → recognize → extract pipeline. Render and
// recognition failures yield zero candidates; recognized text that contains
// neither a coordinate pair nor a geocodable address yields an extraction
// error carrying the recognized text.
func (s *OcrSource) Generate(ctx context.Context, driver, passenger GeoPoint, _ string) ([]Candidate, error) {
	image, err := s.renderer.RenderMap(ctx, []Marker{
		{Label: "D", Location: driver},
		{Label: "P", Location: passenger},
	})
	if err != nil {
		s.logger.Warn("static map render failed", zap.Error(err))
		return nil, nil
	}

	text, err := s.ocr.RecognizeText(ctx, image)
	if err != nil {
		s.logger.Warn("text recognition failed", zap.Error(err))
		return nil, nil
	}

	// First attempt: a decimal coordinate pair straight out of the image.
	if point, ok := ExtractCoordinatePair(text); ok {
		return []Candidate{{
			Location: point,
			Source:   SourceOcr,
			RawTrace: text,
		}}, nil
	}

	// Fallback: geocode address-like lines until one resolves.
	for _, line := range AddressCandidateLines(text) {
		point, err := s.geocoder.Geocode(ctx, line)
		if err != nil {
			if !errors.Is(err, ErrAddressNotFound) {
				s.logger.Warn("geocode failed", zap.String("line", line), zap.Error(err))
			}
			continue
		}
		return []Candidate{{
			Location: point,
			Source:   SourceOcr,
			Name:     line,
			RawTrace: text,
		}}, nil
	}

	return nil, NewExtractionError("no valid pickup location found", text)
}

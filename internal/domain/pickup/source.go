package pickup

import "context"

// CandidateSource produces a finite sequence of candidate pickup points.
// Calling Generate again issues fresh external calls and may return different
// candidates. Provider failures inside a strategy are converted to zero
// candidates and logged; they never propagate as a crash. A typed
// ResolutionError (extraction_failed) is returned only when the strategy ran
// its external calls but could not extract a usable location from the output.
type CandidateSource interface {
	// Kind identifies the strategy.
	Kind() SourceKind

	// SupportsFeedback reports whether Generate consults the feedback string.
	SupportsFeedback() bool

	// Generate produces candidates for the given pair of parties. feedback is
	// empty on initial resolution and carries the passenger's latest note on
	// refinement; non-feedback strategies ignore it.
	Generate(ctx context.Context, driver, passenger GeoPoint, feedback string) ([]Candidate, error)
}

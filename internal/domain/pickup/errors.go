package pickup

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-checkable classification of a resolution failure.
type ErrorKind string

const (
	// KindMissingInput means driver or passenger coordinates were absent or invalid.
	KindMissingInput ErrorKind = "missing_input"
	// KindNoCandidates means the strategy yielded no candidates at all.
	KindNoCandidates ErrorKind = "no_candidates"
	// KindNoEligibleCandidate means candidates existed but none passed the scoring constraints.
	KindNoEligibleCandidate ErrorKind = "no_eligible_candidate"
	// KindExtractionFailed means a strategy-specific parse or recognition step failed.
	KindExtractionFailed ErrorKind = "extraction_failed"
	// KindUnsupportedOperation means refinement was requested on a strategy that cannot consume feedback.
	KindUnsupportedOperation ErrorKind = "unsupported_operation"
	// KindSessionNotFound means the referenced resolution session does not exist or has expired.
	KindSessionNotFound ErrorKind = "session_not_found"
)

// ResolutionError is the structured failure surfaced to callers: a
// machine-checkable kind plus a human-readable message. Trace optionally
// carries the raw model reply or OCR text for debugging; it is never shown to
// end users.
type ResolutionError struct {
	Kind    ErrorKind
	Message string
	Trace   string
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewMissingInputError reports absent or out-of-range coordinates.
func NewMissingInputError(message string) *ResolutionError {
	return &ResolutionError{Kind: KindMissingInput, Message: message}
}

// NewNoCandidatesError reports a strategy run that produced nothing.
func NewNoCandidatesError(message string) *ResolutionError {
	return &ResolutionError{Kind: KindNoCandidates, Message: message}
}

// NewNoEligibleCandidateError reports that every candidate was rejected by the
// scoring constraints.
func NewNoEligibleCandidateError(message string) *ResolutionError {
	return &ResolutionError{Kind: KindNoEligibleCandidate, Message: message}
}

// NewExtractionError reports a parse/recognition failure, retaining the raw
// text that failed to parse.
func NewExtractionError(message, trace string) *ResolutionError {
	return &ResolutionError{Kind: KindExtractionFailed, Message: message, Trace: trace}
}

// NewUnsupportedOperationError reports refinement on a non-feedback strategy.
func NewUnsupportedOperationError(message string) *ResolutionError {
	return &ResolutionError{Kind: KindUnsupportedOperation, Message: message}
}

// NewSessionNotFoundError reports a missing or expired session.
func NewSessionNotFoundError(id string) *ResolutionError {
	return &ResolutionError{Kind: KindSessionNotFound, Message: fmt.Sprintf("resolution session %s not found", id)}
}

// AsResolutionError unwraps err into a *ResolutionError if it is one.
func AsResolutionError(err error) (*ResolutionError, bool) {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// ErrAddressNotFound is returned by geocoding providers when a free-text
// address resolves to nothing. Strategies treat it as "try the next line",
// not as a provider outage.
var ErrAddressNotFound = errors.New("address not found")

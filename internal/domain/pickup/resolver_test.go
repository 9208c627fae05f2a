package pickup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSource yields a fixed candidate list and records feedback it was given.
type fakeSource struct {
	kind             SourceKind
	feedbackCapable  bool
	candidates       []Candidate
	err              error
	receivedFeedback []string
}

func (f *fakeSource) Kind() SourceKind       { return f.kind }
func (f *fakeSource) SupportsFeedback() bool { return f.feedbackCapable }

func (f *fakeSource) Generate(_ context.Context, _, _ GeoPoint, feedback string) ([]Candidate, error) {
	f.receivedFeedback = append(f.receivedFeedback, feedback)
	return f.candidates, f.err
}

func newTestSession(t *testing.T, strategy SourceKind) *ResolutionSession {
	t.Helper()
	sess, err := NewResolutionSession(testDriver, testPassenger, strategy)
	require.NoError(t, err)
	return sess
}

func poiCandidates(points ...GeoPoint) []Candidate {
	cands := make([]Candidate, len(points))
	for i, p := range points {
		cands[i] = Candidate{Location: p, Source: SourcePoi}
	}
	return cands
}

func TestResolver_SelectsMinimumScore(t *testing.T) {
	// Three candidates with walking times [40, 12, 8] and driving times
	// [5, 6, 9] under a 30 minute ceiling: the first is excluded, the
	// remaining scores are max(6,12)=12 and max(9,8)=9, so the third wins.
	c1 := GeoPoint{Lat: 37.791, Lng: -122.405}
	c2 := GeoPoint{Lat: 37.792, Lng: -122.406}
	c3 := GeoPoint{Lat: 37.793, Lng: -122.407}

	directions := &fakeDirections{
		driving: map[GeoPoint]float64{c1: 5, c2: 6, c3: 9},
		walking: map[GeoPoint]float64{c1: 40, c2: 12, c3: 8},
	}
	source := &fakeSource{kind: SourcePoi, candidates: poiCandidates(c1, c2, c3)}
	resolver := NewResolver(source, NewScorer(directions), 30, 0, zap.NewNop())

	sess := newTestSession(t, SourcePoi)
	best, err := resolver.ResolveInitial(context.Background(), sess)
	require.NoError(t, err)

	assert.True(t, best.Candidate.Location.AlmostEqual(c3))
	assert.Equal(t, 9.0, best.Score)
	require.NotNil(t, sess.LastResult())
	assert.Equal(t, 9.0, sess.LastResult().Score)
}

func TestResolver_TieBreakIsFirstSeen(t *testing.T) {
	c1 := GeoPoint{Lat: 37.791, Lng: -122.405}
	c2 := GeoPoint{Lat: 37.792, Lng: -122.406}

	directions := &fakeDirections{
		driving: map[GeoPoint]float64{c1: 10, c2: 10},
		walking: map[GeoPoint]float64{c1: 10, c2: 10},
	}
	source := &fakeSource{kind: SourcePoi, candidates: poiCandidates(c1, c2)}
	resolver := NewResolver(source, NewScorer(directions), 30, 0, zap.NewNop())

	// Re-run several times: the selection must be deterministic despite
	// parallel scoring.
	for range 5 {
		best, err := resolver.ResolveInitial(context.Background(), newTestSession(t, SourcePoi))
		require.NoError(t, err)
		assert.True(t, best.Candidate.Location.AlmostEqual(c1))
	}
}

func TestResolver_SingleRouteFailureDoesNotAbort(t *testing.T) {
	c1 := GeoPoint{Lat: 37.791, Lng: -122.405}
	c2 := GeoPoint{Lat: 37.792, Lng: -122.406}

	directions := &fakeDirections{
		driving:     map[GeoPoint]float64{c1: 5, c2: 7},
		walking:     map[GeoPoint]float64{c1: 10, c2: 11},
		failDriving: map[GeoPoint]bool{c1: true},
	}
	source := &fakeSource{kind: SourcePoi, candidates: poiCandidates(c1, c2)}
	resolver := NewResolver(source, NewScorer(directions), 30, 0, zap.NewNop())

	best, err := resolver.ResolveInitial(context.Background(), newTestSession(t, SourcePoi))
	require.NoError(t, err)
	assert.True(t, best.Candidate.Location.AlmostEqual(c2))
}

func TestResolver_NoCandidates(t *testing.T) {
	source := &fakeSource{kind: SourcePoi}
	resolver := NewResolver(source, NewScorer(&fakeDirections{}), 30, 0, zap.NewNop())

	sess := newTestSession(t, SourcePoi)
	_, err := resolver.ResolveInitial(context.Background(), sess)
	re, ok := AsResolutionError(err)
	require.True(t, ok)
	assert.Equal(t, KindNoCandidates, re.Kind)
	assert.Nil(t, sess.LastResult())
}

func TestResolver_NoEligibleCandidate(t *testing.T) {
	c1 := GeoPoint{Lat: 37.791, Lng: -122.405}
	directions := &fakeDirections{
		driving: map[GeoPoint]float64{c1: 5},
		walking: map[GeoPoint]float64{c1: 45},
	}
	source := &fakeSource{kind: SourcePoi, candidates: poiCandidates(c1)}
	resolver := NewResolver(source, NewScorer(directions), 30, 0, zap.NewNop())

	_, err := resolver.ResolveInitial(context.Background(), newTestSession(t, SourcePoi))
	re, ok := AsResolutionError(err)
	require.True(t, ok)
	assert.Equal(t, KindNoEligibleCandidate, re.Kind)
}

func TestResolver_ExtractionErrorPropagates(t *testing.T) {
	source := &fakeSource{
		kind: SourceOcr,
		err:  NewExtractionError("no valid pickup location found", "garbled text"),
	}
	resolver := NewResolver(source, NewScorer(&fakeDirections{}), 15, 0, zap.NewNop())

	_, err := resolver.ResolveInitial(context.Background(), newTestSession(t, SourceOcr))
	re, ok := AsResolutionError(err)
	require.True(t, ok)
	assert.Equal(t, KindExtractionFailed, re.Kind)
	assert.Equal(t, "garbled text", re.Trace)
}

func TestResolver_RefineUnsupported(t *testing.T) {
	c1 := GeoPoint{Lat: 37.791, Lng: -122.405}
	source := &fakeSource{kind: SourcePoi, candidates: poiCandidates(c1)}
	directions := &fakeDirections{
		driving: map[GeoPoint]float64{c1: 5},
		walking: map[GeoPoint]float64{c1: 10},
	}
	resolver := NewResolver(source, NewScorer(directions), 30, 0, zap.NewNop())

	sess := newTestSession(t, SourcePoi)
	_, err := resolver.Refine(context.Background(), sess, "closer to the park")
	re, ok := AsResolutionError(err)
	require.True(t, ok)
	assert.Equal(t, KindUnsupportedOperation, re.Kind)

	// The strategy must not have been invoked at all.
	assert.Empty(t, source.receivedFeedback)
}

func TestResolver_RefineCarriesFeedback(t *testing.T) {
	c1 := GeoPoint{Lat: 37.791, Lng: -122.405}
	source := &fakeSource{
		kind:            SourceModel,
		feedbackCapable: true,
		candidates:      []Candidate{{Location: c1, Source: SourceModel}},
	}
	directions := &fakeDirections{
		driving: map[GeoPoint]float64{c1: 5},
		walking: map[GeoPoint]float64{c1: 10},
	}
	resolver := NewResolver(source, NewScorer(directions), 30, 0, zap.NewNop())

	sess := newTestSession(t, SourceModel)
	_, err := resolver.ResolveInitial(context.Background(), sess)
	require.NoError(t, err)

	_, err = resolver.Refine(context.Background(), sess, "somewhere with shade")
	require.NoError(t, err)

	assert.Equal(t, []string{"", "somewhere with shade"}, source.receivedFeedback)
	assert.Equal(t, 1, sess.Refinements())
}

package biometric

type (
	// Enrollment is one user's stored template, as returned by the template store.
	Enrollment struct {
		UserID   string
		Template Embedding
	}

	// Match identifies the enrolled user a probe resolved to and the Euclidean
	// distance between probe and template.
	Match struct {
		UserID   string
		Distance float64
	}

	// Matcher decides whether a probe identifies one enrolled user. The
	// enrolled set is a snapshot read at request start; matchers never mutate
	// it and may be called concurrently.
	//
	// All implementations share two rules: a template whose dimensionality
	// differs from the probe's is skipped (not comparable, not an error), and
	// the threshold comparison is strict less-than. The matcher is an
	// interface so the linear scan can later be swapped for an
	// approximate-nearest-neighbor index without touching the auth flow.
	Matcher interface {
		Match(probe Embedding, enrolled []Enrollment, threshold float64) (Match, bool)
	}
)

// ScanMatcher is the default matcher: a linear scan that accepts the first
// enrolled template within threshold and stops. Outcomes therefore depend on
// the (unspecified) order of the enrolled listing when several users are
// within threshold of the same probe; see NearestMatcher for the stricter
// policy. First-match-wins is kept as the default for parity with the
// historical behavior of the platform.
type ScanMatcher struct{}

var _ Matcher = ScanMatcher{}

func (ScanMatcher) Match(probe Embedding, enrolled []Enrollment, threshold float64) (Match, bool) {
	for _, enr := range enrolled {
		if enr.Template.Dim() != probe.Dim() {
			continue
		}
		if d := EuclideanDistance(probe, enr.Template); d < threshold {
			return Match{UserID: enr.UserID, Distance: d}, true
		}
	}
	return Match{}, false
}

// NearestMatcher scans the full enrolled set and returns the globally closest
// template below threshold, breaking distance ties by lowest user ID. Unlike
// ScanMatcher its outcome does not depend on listing order.
type NearestMatcher struct{}

var _ Matcher = NearestMatcher{}

func (NearestMatcher) Match(probe Embedding, enrolled []Enrollment, threshold float64) (Match, bool) {
	var best Match
	var found bool
	for _, enr := range enrolled {
		if enr.Template.Dim() != probe.Dim() {
			continue
		}
		d := EuclideanDistance(probe, enr.Template)
		if d >= threshold {
			continue
		}
		if !found || d < best.Distance || (d == best.Distance && enr.UserID < best.UserID) {
			best = Match{UserID: enr.UserID, Distance: d}
			found = true
		}
	}
	return best, found
}

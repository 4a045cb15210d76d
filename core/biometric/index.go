package biometric

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sync"

	"github.com/coder/hnsw"
)

const (
	indexMaxNeighbors = 16
	// indexCandidates is how many approximate neighbors are pulled from the
	// graph before exact re-verification.
	indexCandidates = 8
)

// IndexMatcher is an approximate-nearest-neighbor matcher backed by an HNSW
// graph, for deployments where the enrolled set is too large for a linear
// scan per login. One graph is kept per embedding dimensionality, which
// preserves the rule that dimension-mismatched templates are skipped.
//
// The graph search is approximate and runs in float32; every candidate is
// re-verified with the exact float64 Euclidean distance against the stored
// template before the strict threshold test, so accepted matches obey the
// same numeric contract as ScanMatcher. The graph is rebuilt lazily whenever
// the enrolled snapshot changes.
type IndexMatcher struct {
	mu        sync.Mutex
	graphs    map[int]*hnsw.Graph[string] // keyed by dimensionality
	templates map[string]Embedding
	snapshot  uint64
}

var _ Matcher = (*IndexMatcher)(nil)

func NewIndexMatcher() *IndexMatcher {
	return &IndexMatcher{
		graphs:    make(map[int]*hnsw.Graph[string]),
		templates: make(map[string]Embedding),
	}
}

func (m *IndexMatcher) Match(probe Embedding, enrolled []Enrollment, threshold float64) (Match, bool) {
	m.mu.Lock()
	if fp := fingerprint(enrolled); fp != m.snapshot || len(m.templates) != len(enrolled) {
		m.rebuild(enrolled)
		m.snapshot = fp
	}
	graph := m.graphs[probe.Dim()]
	m.mu.Unlock()

	if graph == nil {
		return Match{}, false
	}

	query := make([]float32, len(probe))
	for i, x := range probe {
		query[i] = float32(x)
	}

	var best Match
	var found bool
	for _, node := range graph.Search(query, indexCandidates) {
		tmpl, ok := m.templates[node.Key]
		if !ok || tmpl.Dim() != probe.Dim() {
			continue
		}
		d := EuclideanDistance(probe, tmpl)
		if d >= threshold {
			continue
		}
		if !found || d < best.Distance || (d == best.Distance && node.Key < best.UserID) {
			best = Match{UserID: node.Key, Distance: d}
			found = true
		}
	}
	return best, found
}

// rebuild replaces the per-dimension graphs from the enrolled snapshot.
// Caller holds m.mu.
func (m *IndexMatcher) rebuild(enrolled []Enrollment) {
	m.graphs = make(map[int]*hnsw.Graph[string])
	m.templates = make(map[string]Embedding, len(enrolled))

	for _, enr := range enrolled {
		if enr.Template.Dim() == 0 {
			continue
		}
		g, ok := m.graphs[enr.Template.Dim()]
		if !ok {
			g = hnsw.NewGraph[string]()
			g.M = indexMaxNeighbors
			g.Ml = 1.0 / float64(indexMaxNeighbors)
			g.Distance = hnsw.EuclideanDistance
			m.graphs[enr.Template.Dim()] = g
		}

		vec := make([]float32, len(enr.Template))
		for i, x := range enr.Template {
			vec[i] = float32(x)
		}
		g.Add(hnsw.MakeNode(enr.UserID, vec))
		m.templates[enr.UserID] = enr.Template
	}
}

// fingerprint is a content hash of the enrolled snapshot used to decide
// whether the graphs must be rebuilt. Hashing is O(N·D), same order as one
// linear scan; the saving is in skipping the O(N·logN) graph build.
func fingerprint(enrolled []Enrollment) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, enr := range enrolled {
		_, _ = h.Write([]byte(enr.UserID))
		for _, x := range enr.Template {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(x))
			_, _ = h.Write(buf[:])
		}
	}
	return h.Sum64()
}

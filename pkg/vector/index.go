package vector

import (
	"sort"
	"sync"
)

// Metadata is the opaque metadata bag attached to a stored vector.
type Metadata map[string]any

// SearchResult is one nearest-neighbor hit.
type SearchResult struct {
	ID       string   `json:"id"`
	Score    float64  `json:"score"`
	Metadata Metadata `json:"metadata"`
}

// FilterFunc decides whether a stored entry participates in a search.
// It runs before scoring, so filtering never starves the top-k.
type FilterFunc func(meta Metadata) bool

// Index is the contract every vector backend satisfies. Vectors are
// L2-normalized on insert so the stored dot product equals cosine
// similarity.
type Index interface {
	Insert(id string, vec []float32, meta Metadata)
	Search(query []float32, topK int) []SearchResult
	SearchWithFilter(query []float32, topK int, filter FilterFunc) []SearchResult
	Get(id string) ([]float32, Metadata, bool)
	Delete(id string)
	Clear()
	Count() int
	Entries() []Entry
}

// Entry is a stored (id, normalized vector, metadata) triple, exposed for
// snapshots.
type Entry struct {
	ID   string   `json:"id"`
	Vec  []float32 `json:"vec"`
	Meta Metadata `json:"meta"`
}

// Mem is the exact brute-force index: a full scan of every stored vector
// per query. Intended scale is thousands of entries per collection, where
// the scan beats any index on simplicity and is still fast.
type Mem struct {
	mu        sync.RWMutex
	dimension int
	order     []string // insertion order, for deterministic tie-breaks
	byID      map[string]*memEntry
}

type memEntry struct {
	vec  []float32
	meta Metadata
}

// NewMem creates an empty brute-force index.
func NewMem(dimension int) *Mem {
	return &Mem{
		dimension: dimension,
		byID:      make(map[string]*memEntry),
	}
}

// Insert stores a normalized copy of vec, replacing any prior entry for
// the same id. A replaced id keeps its original insertion position.
func (m *Mem) Insert(id string, vec []float32, meta Metadata) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if meta == nil {
		meta = Metadata{}
	}
	entry := &memEntry{vec: NormalizedCopy(vec), meta: meta}
	if _, exists := m.byID[id]; !exists {
		m.order = append(m.order, id)
	}
	m.byID[id] = entry
}

// Search returns the topK highest-scoring entries, score-descending,
// ties broken by insertion order.
func (m *Mem) Search(query []float32, topK int) []SearchResult {
	return m.SearchWithFilter(query, topK, nil)
}

// SearchWithFilter is Search with a metadata predicate applied before
// scoring and top-k selection.
func (m *Mem) SearchWithFilter(query []float32, topK int, filter FilterFunc) []SearchResult {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.byID) == 0 || topK <= 0 {
		return nil
	}
	q := NormalizedCopy(query)

	scored := make([]SearchResult, 0, len(m.byID))
	for _, id := range m.order {
		entry, ok := m.byID[id]
		if !ok {
			continue
		}
		if filter != nil && !filter(entry.meta) {
			continue
		}
		scored = append(scored, SearchResult{
			ID:       id,
			Score:    Dot(q, entry.vec),
			Metadata: entry.meta,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

// Get returns the stored (normalized) vector and metadata for an id.
func (m *Mem) Get(id string) ([]float32, Metadata, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.byID[id]
	if !ok {
		return nil, nil, false
	}
	return entry.vec, entry.meta, true
}

// Delete removes an entry; unknown ids are a no-op.
func (m *Mem) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return
	}
	delete(m.byID, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Clear removes every entry.
func (m *Mem) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.order = nil
	m.byID = make(map[string]*memEntry)
}

// Count returns the number of stored vectors.
func (m *Mem) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

// Entries dumps the stored triples in insertion order.
func (m *Mem) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, 0, len(m.byID))
	for _, id := range m.order {
		if entry, ok := m.byID[id]; ok {
			out = append(out, Entry{ID: id, Vec: entry.vec, Meta: entry.meta})
		}
	}
	return out
}

// Dimension reports the configured vector dimensionality.
func (m *Mem) Dimension() int {
	return m.dimension
}

var _ Index = (*Mem)(nil)

package vector

import (
	"sort"
	"sync"

	"github.com/fogfish/hnsw"
	fvector "github.com/fogfish/hnsw/vector"
	kvector "github.com/kshard/vector"
)

// HNSW wraps a fogfish/hnsw graph behind the Index contract. It keeps a
// side table of entries so metadata, deletes and snapshots behave exactly
// like the brute-force backend; the graph only accelerates Search.
//
// hnsw cannot remove nodes, so Delete tombstones the id and Search
// over-fetches to compensate.
type HNSW struct {
	mu        sync.RWMutex
	dimension int
	index     *hnsw.HNSW[fvector.VF32]

	order  []string
	byID   map[string]*hnswEntry
	keyTo  map[uint32]string
	nextKey uint32
}

type hnswEntry struct {
	key  uint32
	vec  []float32
	meta Metadata
	dead bool
}

// NewHNSW creates an empty HNSW-backed index with the standard cosine
// surface.
func NewHNSW(dimension int) *HNSW {
	return &HNSW{
		dimension: dimension,
		index:     hnsw.New[fvector.VF32](fvector.SurfaceVF32(kvector.Cosine())),
		byID:      make(map[string]*hnswEntry),
		keyTo:     make(map[uint32]string),
	}
}

// Insert stores a normalized copy of vec. Replacing an id tombstones the
// old graph node and inserts a fresh one under a new key.
func (h *HNSW) Insert(id string, vec []float32, meta Metadata) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if meta == nil {
		meta = Metadata{}
	}
	normalized := NormalizedCopy(vec)

	if prior, ok := h.byID[id]; ok {
		delete(h.keyTo, prior.key)
	} else {
		h.order = append(h.order, id)
	}

	key := h.nextKey
	h.nextKey++
	h.byID[id] = &hnswEntry{key: key, vec: normalized, meta: meta}
	h.keyTo[key] = id

	h.index.Insert(fvector.VF32{Key: key, Vec: normalized})
}

// Search returns the topK nearest live entries. Approximate: the graph may
// miss a true neighbor, which is the documented trade-off of this backend.
func (h *HNSW) Search(query []float32, topK int) []SearchResult {
	return h.SearchWithFilter(query, topK, nil)
}

// SearchWithFilter applies the predicate to candidates before top-k
// selection, over-fetching from the graph so filtering does not starve
// the result set.
func (h *HNSW) SearchWithFilter(query []float32, topK int, filter FilterFunc) []SearchResult {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.index.Size() == 0 || topK <= 0 {
		return nil
	}
	q := NormalizedCopy(query)

	// Over-fetch: tombstoned or filtered candidates are discarded below.
	fetch := topK * 4
	if fetch < 32 {
		fetch = 32
	}
	if fetch > h.index.Size() {
		fetch = h.index.Size()
	}
	ef := fetch * 2
	if ef < 100 {
		ef = 100
	}

	hits := h.index.Search(fvector.VF32{Vec: q}, fetch, ef)

	results := make([]SearchResult, 0, topK)
	for _, hit := range hits {
		id, ok := h.keyTo[hit.Key]
		if !ok {
			continue // tombstoned or replaced
		}
		entry := h.byID[id]
		if entry == nil || entry.dead {
			continue
		}
		if filter != nil && !filter(entry.meta) {
			continue
		}
		results = append(results, SearchResult{
			ID:       id,
			Score:    Dot(q, entry.vec),
			Metadata: entry.meta,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// Get returns the stored (normalized) vector and metadata for an id.
func (h *HNSW) Get(id string) ([]float32, Metadata, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	entry, ok := h.byID[id]
	if !ok || entry.dead {
		return nil, nil, false
	}
	return entry.vec, entry.meta, true
}

// Delete tombstones an entry; the graph node stays but never surfaces.
func (h *HNSW) Delete(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.byID[id]
	if !ok {
		return
	}
	delete(h.keyTo, entry.key)
	delete(h.byID, id)
	for i, oid := range h.order {
		if oid == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Clear drops the graph and every entry.
func (h *HNSW) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.index = hnsw.New[fvector.VF32](fvector.SurfaceVF32(kvector.Cosine()))
	h.order = nil
	h.byID = make(map[string]*hnswEntry)
	h.keyTo = make(map[uint32]string)
	h.nextKey = 0
}

// Count returns the number of live entries.
func (h *HNSW) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byID)
}

// Entries dumps the live triples in insertion order.
func (h *HNSW) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Entry, 0, len(h.byID))
	for _, id := range h.order {
		if entry, ok := h.byID[id]; ok {
			out = append(out, Entry{ID: id, Vec: entry.vec, Meta: entry.meta})
		}
	}
	return out
}

var _ Index = (*HNSW)(nil)

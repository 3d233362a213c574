package vector

// Backend selects the concrete index implementation a Manager creates.
type Backend string

const (
	// BackendBrute is the exact full-scan index (default).
	BackendBrute Backend = "brute"
	// BackendHNSW is the approximate graph index.
	BackendHNSW Backend = "hnsw"
)

// Well-known collection names.
const (
	CollectionPages   = "pages"
	CollectionIntents = "intents"
)

// Manager partitions the vector space into independent named collections.
// Each collection is one Index sharing the same contract, created lazily
// on first access. Exactly one backend kind is active per Manager.
type Manager struct {
	backend   Backend
	dimension int
	stores    map[string]Index
}

// NewManager creates a manager with the pages and intents collections
// pre-registered.
func NewManager(backend Backend, dimension int) *Manager {
	m := &Manager{
		backend:   backend,
		dimension: dimension,
		stores:    make(map[string]Index),
	}
	m.Collection(CollectionPages)
	m.Collection(CollectionIntents)
	return m
}

func (m *Manager) newIndex() Index {
	if m.backend == BackendHNSW {
		return NewHNSW(m.dimension)
	}
	return NewMem(m.dimension)
}

// Collection returns the named index, creating it on first access.
func (m *Manager) Collection(name string) Index {
	if idx, ok := m.stores[name]; ok {
		return idx
	}
	idx := m.newIndex()
	m.stores[name] = idx
	return idx
}

// Pages is the page-embedding collection.
func (m *Manager) Pages() Index { return m.Collection(CollectionPages) }

// Intents is the intent-embedding collection.
func (m *Manager) Intents() Index { return m.Collection(CollectionIntents) }

// Names lists the collections created so far.
func (m *Manager) Names() []string {
	out := make([]string, 0, len(m.stores))
	for name := range m.stores {
		out = append(out, name)
	}
	return out
}

// Dimension reports the configured vector dimensionality.
func (m *Manager) Dimension() int { return m.dimension }

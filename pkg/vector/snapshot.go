package vector

import (
	"encoding/json"
	"fmt"

	"github.com/hack-pad/hackpadfs"
)

// Snapshot is the serialized form of every collection in a Manager.
type Snapshot struct {
	Backend     Backend            `json:"backend"`
	Dimension   int                `json:"dimension"`
	Collections map[string][]Entry `json:"collections"`
}

// Export captures every collection. Vectors are already normalized, so a
// later Import restores search behavior exactly.
func (m *Manager) Export() Snapshot {
	snap := Snapshot{
		Backend:     m.backend,
		Dimension:   m.dimension,
		Collections: make(map[string][]Entry, len(m.stores)),
	}
	for name, idx := range m.stores {
		snap.Collections[name] = idx.Entries()
	}
	return snap
}

// Import replaces the manager's contents with a snapshot.
func (m *Manager) Import(snap Snapshot) {
	for _, idx := range m.stores {
		idx.Clear()
	}
	for name, entries := range snap.Collections {
		idx := m.Collection(name)
		for _, e := range entries {
			idx.Insert(e.ID, e.Vec, e.Meta)
		}
	}
}

// Save persists the manager's snapshot to fs at path. Metadata is
// schemaless, so the on-disk form is JSON rather than gob.
func (m *Manager) Save(fs hackpadfs.FS, path string) error {
	data, err := json.Marshal(m.Export())
	if err != nil {
		return fmt.Errorf("failed to encode vector snapshot: %w", err)
	}
	if err := hackpadfs.WriteFullFile(fs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write vector snapshot: %w", err)
	}
	return nil
}

// Load restores the manager from a snapshot previously written by Save.
func (m *Manager) Load(fs hackpadfs.FS, path string) error {
	data, err := hackpadfs.ReadFile(fs, path)
	if err != nil {
		return err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode vector snapshot: %w", err)
	}
	m.Import(snap)
	return nil
}

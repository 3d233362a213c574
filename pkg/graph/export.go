package graph

import "github.com/navikit/navgraph/pkg/schema"

// Export is the full dump of the in-memory graph, sufficient to
// reconstruct it verbatim. Records are full-fidelity copies, not summary
// views, so Export→Import→Export is byte-stable.
type Export struct {
	Apps        []schema.App        `json:"apps"`
	Pages       []schema.Page       `json:"pages"`
	Transitions []schema.Transition `json:"transitions"`
}

// Export dumps the store in insertion order.
func (g *Mem) Export() *Export {
	g.mu.RLock()
	defer g.mu.RUnlock()

	snap := &Export{
		Apps:        make([]schema.App, 0, len(g.apps)),
		Pages:       make([]schema.Page, 0, len(g.pages)),
		Transitions: make([]schema.Transition, 0, len(g.transitions)),
	}
	for _, id := range g.appOrder {
		snap.Apps = append(snap.Apps, *g.apps[id])
	}
	for _, id := range g.pageOrder {
		snap.Pages = append(snap.Pages, *g.pages[id])
	}
	for _, id := range g.transOrder {
		snap.Transitions = append(snap.Transitions, *g.transitions[id])
	}
	return snap
}

// Import replaces the store's contents with a snapshot.
func (g *Mem) Import(snap *Export) {
	g.Clear()
	if snap == nil {
		return
	}
	for i := range snap.Apps {
		app := snap.Apps[i]
		g.AddApp(&app)
	}
	for i := range snap.Pages {
		page := snap.Pages[i]
		g.AddPage(&page)
	}
	for i := range snap.Transitions {
		t := snap.Transitions[i]
		g.AddTransition(&t)
	}
}

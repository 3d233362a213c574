// Package graph owns the directed page-transition graph: CRUD over pages,
// transitions and apps, breadth-first path search, bounded all-paths
// enumeration, reachability closures, and the online transition-statistics
// update that is the system's only learning mechanism.
package graph

import (
	"sync"
	"time"

	"github.com/navikit/navgraph/pkg/schema"
)

// PathResult is the outcome of a path query: the page-id sequence and the
// transition taken on each hop.
type PathResult struct {
	Pages       []string             `json:"pages"`
	Transitions []*schema.Transition `json:"transitions"`
	TotalSteps  int                  `json:"total_steps"`
}

// Stats aggregates graph-level counters.
type Stats struct {
	TotalApps        int     `json:"total_apps"`
	TotalPages       int     `json:"total_pages"`
	TotalTransitions int     `json:"total_transitions"`
	AvgOutDegree     float64 `json:"avg_out_degree"`
}

// Store is the graph backend contract. Exactly one concrete implementation
// is active per deployment; callers depend only on this interface.
//
// Absent endpoints and unreachable targets are reported as nil/empty
// results, never as errors: "no path" is a normal outcome here.
type Store interface {
	AddApp(app *schema.App)
	AddPage(page *schema.Page)
	AddTransition(t *schema.Transition)

	GetApp(appID string) *schema.App
	GetPage(pageID string) *schema.Page
	GetAllPages(appID string) []*schema.Page
	GetTransitionByID(transitionID string) *schema.Transition
	GetTransition(sourceID, targetID string) *schema.Transition
	FindPageByName(pageName, appID string) *schema.Page

	FindShortestPath(startID, endID string) *PathResult
	FindAllPaths(startID, endID string, maxLength int) []*PathResult
	GetOutgoingTransitions(pageID string) []*schema.Transition
	GetIncomingTransitions(pageID string) []*schema.Transition
	GetReachablePages(startID string, maxDepth int) []string

	UpdateTransitionStats(transitionID string, success bool, latencyMS float64) bool
	GraphStats() Stats

	Export() *Export
	Import(snap *Export)
	Clear()
}

// maxAllPaths caps how many simple paths FindAllPaths returns.
const maxAllPaths = 5

// Mem is the in-memory graph store. Node storage is a map keyed by page
// id; edges live both in the transition table (every id-distinct record)
// and in an adjacency structure that keeps one live transition per
// (source, target) pair for routing, with insertion-ordered neighbor
// lists so BFS tie-breaks are deterministic by discovery order.
type Mem struct {
	mu sync.RWMutex

	apps        map[string]*schema.App
	pages       map[string]*schema.Page
	transitions map[string]*schema.Transition

	// Insertion order, for deterministic iteration and export.
	appOrder   []string
	pageOrder  []string
	transOrder []string

	// Adjacency: source -> target -> live transition, plus the ordered
	// neighbor list per source.
	adjacency map[string]map[string]*schema.Transition
	neighbors map[string][]string
}

// NewMem creates an empty graph store.
func NewMem() *Mem {
	return &Mem{
		apps:        make(map[string]*schema.App),
		pages:       make(map[string]*schema.Page),
		transitions: make(map[string]*schema.Transition),
		adjacency:   make(map[string]map[string]*schema.Transition),
		neighbors:   make(map[string][]string),
	}
}

// AddApp registers an application. Re-adding an id replaces the record.
func (g *Mem) AddApp(app *schema.App) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.apps[app.AppID]; !exists {
		g.appOrder = append(g.appOrder, app.AppID)
	}
	g.apps[app.AppID] = app
}

// AddPage inserts or replaces a page node. Page ids are content-addressed
// upstream, so re-observing the same screen state hits the same slot.
func (g *Mem) AddPage(page *schema.Page) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.pages[page.PageID]; !exists {
		g.pageOrder = append(g.pageOrder, page.PageID)
	}
	g.pages[page.PageID] = page
}

// AddTransition records a transition and mirrors it into the adjacency
// structure. A second transition for the same (source, target) pair
// replaces the routing edge in place, keeping its discovery position.
func (g *Mem) AddTransition(t *schema.Transition) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.transitions[t.TransitionID]; !exists {
		g.transOrder = append(g.transOrder, t.TransitionID)
	}
	g.transitions[t.TransitionID] = t

	targets := g.adjacency[t.SourcePageID]
	if targets == nil {
		targets = make(map[string]*schema.Transition)
		g.adjacency[t.SourcePageID] = targets
	}
	if _, exists := targets[t.TargetPageID]; !exists {
		g.neighbors[t.SourcePageID] = append(g.neighbors[t.SourcePageID], t.TargetPageID)
	}
	targets[t.TargetPageID] = t
}

// GetApp returns the app record, nil if absent.
func (g *Mem) GetApp(appID string) *schema.App {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.apps[appID]
}

// GetPage returns the page, nil if absent.
func (g *Mem) GetPage(pageID string) *schema.Page {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.pages[pageID]
}

// GetAllPages lists pages in insertion order, optionally filtered by app.
func (g *Mem) GetAllPages(appID string) []*schema.Page {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []*schema.Page
	for _, id := range g.pageOrder {
		p := g.pages[id]
		if appID == "" || p.AppID == appID {
			out = append(out, p)
		}
	}
	return out
}

// GetTransitionByID returns the transition record, nil if absent.
func (g *Mem) GetTransitionByID(transitionID string) *schema.Transition {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.transitions[transitionID]
}

// GetTransition returns the first transition between two pages in
// discovery order, nil if none exists.
func (g *Mem) GetTransition(sourceID, targetID string) *schema.Transition {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, id := range g.transOrder {
		t := g.transitions[id]
		if t.SourcePageID == sourceID && t.TargetPageID == targetID {
			return t
		}
	}
	return nil
}

// FindPageByName looks a page up by exact display name, optionally scoped
// to an app.
func (g *Mem) FindPageByName(pageName, appID string) *schema.Page {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, id := range g.pageOrder {
		p := g.pages[id]
		if p.PageName == pageName && (appID == "" || p.AppID == appID) {
			return p
		}
	}
	return nil
}

// GetOutgoingTransitions filters the transition table by source page.
func (g *Mem) GetOutgoingTransitions(pageID string) []*schema.Transition {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []*schema.Transition
	for _, id := range g.transOrder {
		if t := g.transitions[id]; t.SourcePageID == pageID {
			out = append(out, t)
		}
	}
	return out
}

// GetIncomingTransitions filters the transition table by target page.
func (g *Mem) GetIncomingTransitions(pageID string) []*schema.Transition {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []*schema.Transition
	for _, id := range g.transOrder {
		if t := g.transitions[id]; t.TargetPageID == pageID {
			out = append(out, t)
		}
	}
	return out
}

// FindShortestPath runs an unweighted BFS from start to end. Ties break by
// edge discovery order. Returns nil when either endpoint is absent or the
// target is unreachable; a start equal to end yields a zero-length path.
func (g *Mem) FindShortestPath(startID, endID string) *PathResult {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.pages[startID]; !ok {
		return nil
	}
	if _, ok := g.pages[endID]; !ok {
		return nil
	}
	if startID == endID {
		return &PathResult{Pages: []string{startID}, TotalSteps: 0}
	}

	prev := map[string]string{startID: ""}
	queue := []string{startID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range g.neighbors[current] {
			if _, visited := prev[next]; visited {
				continue
			}
			prev[next] = current
			if next == endID {
				return g.materializePath(g.backtrack(prev, startID, endID))
			}
			queue = append(queue, next)
		}
	}
	return nil
}

func (g *Mem) backtrack(prev map[string]string, startID, endID string) []string {
	var rev []string
	for at := endID; at != ""; at = prev[at] {
		rev = append(rev, at)
		if at == startID {
			break
		}
	}
	pages := make([]string, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		pages = append(pages, rev[i])
	}
	return pages
}

// materializePath resolves the live transition for each hop. Callers must
// hold at least the read lock.
func (g *Mem) materializePath(pages []string) *PathResult {
	result := &PathResult{Pages: pages, TotalSteps: len(pages) - 1}
	for i := 0; i+1 < len(pages); i++ {
		if t := g.adjacency[pages[i]][pages[i+1]]; t != nil {
			result.Transitions = append(result.Transitions, t)
		}
	}
	return result
}

// FindAllPaths enumerates simple paths from start to end no longer than
// maxLength hops, returning up to 5 ordered by length ascending, ties by
// discovery order.
func (g *Mem) FindAllPaths(startID, endID string, maxLength int) []*PathResult {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.pages[startID]; !ok {
		return nil
	}
	if _, ok := g.pages[endID]; !ok {
		return nil
	}
	if maxLength <= 0 {
		maxLength = 10
	}

	var found [][]string
	onPath := map[string]bool{startID: true}
	path := []string{startID}

	var dfs func(current string)
	dfs = func(current string) {
		if current == endID {
			cp := make([]string, len(path))
			copy(cp, path)
			found = append(found, cp)
			return
		}
		if len(path)-1 >= maxLength {
			return
		}
		for _, next := range g.neighbors[current] {
			if onPath[next] {
				continue
			}
			onPath[next] = true
			path = append(path, next)
			dfs(next)
			path = path[:len(path)-1]
			onPath[next] = false
		}
	}
	dfs(startID)

	// Stable sort by length keeps discovery order within a length class.
	for i := 1; i < len(found); i++ {
		for j := i; j > 0 && len(found[j]) < len(found[j-1]); j-- {
			found[j], found[j-1] = found[j-1], found[j]
		}
	}
	if len(found) > maxAllPaths {
		found = found[:maxAllPaths]
	}

	results := make([]*PathResult, 0, len(found))
	for _, pages := range found {
		results = append(results, g.materializePath(pages))
	}
	return results
}

// GetReachablePages returns the BFS closure of start bounded by maxDepth
// hops, including start itself. An unknown start yields just itself,
// matching the "no path is not an error" policy.
func (g *Mem) GetReachablePages(startID string, maxDepth int) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if maxDepth <= 0 {
		maxDepth = 5
	}

	type item struct {
		id    string
		depth int
	}
	visited := map[string]bool{startID: true}
	order := []string{startID}
	queue := []item{{startID, 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		for _, next := range g.neighbors[cur.id] {
			if visited[next] {
				continue
			}
			visited[next] = true
			order = append(order, next)
			queue = append(queue, item{next, cur.depth + 1})
		}
	}
	return order
}

// UpdateTransitionStats applies one observed outcome: increments the
// success or fail counter and folds the latency into the running mean as
// avg' = (avg*(n-1) + latency) / n with n the new observation total.
// Returns false if the transition is unknown.
func (g *Mem) UpdateTransitionStats(transitionID string, success bool, latencyMS float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	t, ok := g.transitions[transitionID]
	if !ok {
		return false
	}
	if success {
		t.SuccessCount++
	} else {
		t.FailCount++
	}
	n := float64(t.SuccessCount + t.FailCount)
	t.AvgLatencyMS = (t.AvgLatencyMS*(n-1) + latencyMS) / n
	t.LastVerified = time.Now()
	return true
}

// GraphStats aggregates counters. Average out-degree counts routing edges,
// one per (source, target) pair.
func (g *Mem) GraphStats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edges := 0
	for _, targets := range g.adjacency {
		edges += len(targets)
	}
	pages := len(g.pages)
	avg := 0.0
	if pages > 0 {
		avg = float64(edges) / float64(pages)
	}
	return Stats{
		TotalApps:        len(g.apps),
		TotalPages:       pages,
		TotalTransitions: len(g.transitions),
		AvgOutDegree:     avg,
	}
}

// Clear removes every app, page and transition.
func (g *Mem) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.apps = make(map[string]*schema.App)
	g.pages = make(map[string]*schema.Page)
	g.transitions = make(map[string]*schema.Transition)
	g.appOrder = nil
	g.pageOrder = nil
	g.transOrder = nil
	g.adjacency = make(map[string]map[string]*schema.Transition)
	g.neighbors = make(map[string][]string)
}

var _ Store = (*Mem)(nil)

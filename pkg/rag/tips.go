package rag

import (
	"fmt"
	"strings"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"

	"github.com/navikit/navgraph/pkg/schema"
)

// Lexicon is an Aho-Corasick automaton over every page keyword and intent
// phrase known to the graph. One scan of a free-text query surfaces which
// known vocabulary it touches, turned into navigation tips.
type Lexicon struct {
	ac        ahocorasick.AhoCorasick
	patterns  []string
	pageNames [][]string // pattern index -> page names carrying it
}

// BuildLexicon compiles the automaton from the given pages. Rebuilding after
// graph growth is the caller's concern; the automaton itself is immutable.
func BuildLexicon(pages []*schema.Page) *Lexicon {
	lex := &Lexicon{}
	index := make(map[string]int)

	add := func(surface, pageName string) {
		key := strings.ToLower(strings.TrimSpace(surface))
		if key == "" {
			return
		}
		idx, exists := index[key]
		if !exists {
			idx = len(lex.patterns)
			index[key] = idx
			lex.patterns = append(lex.patterns, key)
			lex.pageNames = append(lex.pageNames, nil)
		}
		for _, existing := range lex.pageNames[idx] {
			if existing == pageName {
				return
			}
		}
		lex.pageNames[idx] = append(lex.pageNames[idx], pageName)
	}

	for _, p := range pages {
		for _, kw := range p.Keywords {
			add(kw, p.PageName)
		}
		for _, it := range p.Intents {
			add(it, p.PageName)
		}
	}

	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  true,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
	})
	lex.ac = builder.Build(lex.patterns)
	return lex
}

// Tips scans the query and renders one tip per distinct matched term.
func (l *Lexicon) Tips(query string) []string {
	if len(l.patterns) == 0 {
		return nil
	}
	var tips []string
	seen := make(map[int]bool)
	for _, m := range l.ac.FindAll(strings.ToLower(query)) {
		idx := m.Pattern()
		if seen[idx] {
			continue
		}
		seen[idx] = true
		tips = append(tips, fmt.Sprintf(
			"%q relates to page %s", l.patterns[idx], strings.Join(l.pageNames[idx], ", ")))
	}
	return tips
}

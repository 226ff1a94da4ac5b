package discovery

import "github.com/nvandessel/snowball/internal/corpus"

// RelatedStrength is the strength assigned to edges derived from related
// keyword lists rather than explicit connections.
const RelatedStrength = 0.4

// Link is an undirected edge between two discovered keywords.
type Link struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Strength float64 `json:"strength"`
}

// Links returns the edges among discovered keywords (seeds included).
// Explicit corpus connections come first, then related-keyword adjacency of
// discovered records. Pairs are deduplicated irrespective of direction;
// self-pairs and unknown endpoints are skipped.
func Links(s *State, c *corpus.Corpus) []Link {
	seen := make(map[[2]string]bool)
	var links []Link

	add := func(a, b string, strength float64) {
		if a == b || !s.IsDiscovered(a) || !s.IsDiscovered(b) {
			return
		}
		key := [2]string{a, b}
		if b < a {
			key = [2]string{b, a}
		}
		if seen[key] {
			return
		}
		seen[key] = true
		links = append(links, Link{Source: a, Target: b, Strength: strength})
	}

	for _, conn := range c.Connections() {
		add(conn.Source, conn.Target, conn.Weight())
	}
	for _, id := range s.DiscoveredIDs() {
		r := s.records[id]
		for _, rel := range r.Related {
			add(id, rel, RelatedStrength)
		}
	}
	return links
}

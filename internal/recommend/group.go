package recommend

import (
	"strings"

	"github.com/54b3r/carrierfit/internal/budget"
	"github.com/54b3r/carrierfit/internal/carrier"
	"github.com/54b3r/carrierfit/internal/rag"
)

// Group is the set of retrieved matches that belong to one carrier.
type Group struct {
	CarrierID string
	Matches   []rag.Match
	// Top is the highest-scoring match of the group, used for the
	// heuristic fallback and the fallback citation.
	Top rag.Match
}

// GroupMatches partitions matches by carrier id, preserving the order in
// which carriers first appear. Matches without a carrier id are grouped
// under carrier.Unknown.
func GroupMatches(matches []rag.Match) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, m := range matches {
		id := strings.TrimSpace(strings.ToLower(m.Metadata.CarrierID))
		if id == "" {
			id = carrier.Unknown
		}
		i, ok := index[id]
		if !ok {
			index[id] = len(groups)
			groups = append(groups, Group{CarrierID: id, Top: m})
			i = len(groups) - 1
		}
		g := &groups[i]
		g.Matches = append(g.Matches, m)
		if m.Score > g.Top.Score {
			g.Top = m
		}
	}
	return groups
}

// Evidence joins the group's chunk texts in retrieval order and caps the
// result at maxChars characters.
func (g Group) Evidence(maxChars int) string {
	parts := make([]string, 0, len(g.Matches))
	for _, m := range g.Matches {
		if t := strings.TrimSpace(m.Metadata.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return budget.Truncate(strings.Join(parts, "\n\n"), maxChars)
}

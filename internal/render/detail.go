package render

import (
	"fmt"

	"github.com/nvandessel/snowball/internal/discovery"
)

// DetailView is the information shown when a keyword node is selected.
type DetailView struct {
	Keyword     string   `json:"keyword"`
	Round       int      `json:"round"`
	RoundLabel  string   `json:"round_label"`
	Connections []string `json:"connections"`
	Example     string   `json:"example"`
}

// Detail builds the detail view for id. It returns false for unknown ids.
func Detail(s *discovery.State, id string) (DetailView, bool) {
	r, ok := s.Record(id)
	if !ok {
		return DetailView{}, false
	}

	v := DetailView{
		Keyword:     id,
		Round:       r.Round,
		RoundLabel:  RoundLabel(r.Round),
		Connections: []string{},
		Example:     discovery.ExamplePlaceholder(id),
	}
	for _, rel := range r.Related {
		if s.Known(rel) {
			v.Connections = append(v.Connections, rel)
		}
	}
	if len(r.Examples) > 0 && r.Examples[0] != "" {
		v.Example = r.Examples[0]
	}
	return v, true
}

// RoundLabel names the round a keyword was found in.
func RoundLabel(round int) string {
	switch {
	case round == discovery.RoundUndiscovered:
		return "Undiscovered"
	case round == 0:
		return "Seed"
	default:
		return fmt.Sprintf("Round %d", round)
	}
}

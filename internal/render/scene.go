// Package render turns a discovery state into a drawable scene and applies
// it to a retained drawing surface.
package render

import (
	"github.com/nvandessel/snowball/internal/corpus"
	"github.com/nvandessel/snowball/internal/discovery"
	"github.com/nvandessel/snowball/internal/layout"
)

// Node colors by discovery status.
const (
	ColorSeed         = "#667eea"
	ColorDiscovered   = "#48bb78"
	ColorUndiscovered = "#e2e8f0"
)

// Label truncation: ids longer than LabelMax runes are cut to LabelKeep
// runes followed by "...".
const (
	LabelMax  = 15
	LabelKeep = 12
)

// NodeView is the visual description of one keyword.
type NodeView struct {
	ID           string           `json:"id"`
	Label        string           `json:"label"`
	Class        discovery.Status `json:"class"`
	Round        int              `json:"round"`
	X            float64          `json:"x"`
	Y            float64          `json:"y"`
	Radius       float64          `json:"radius"`
	Fill         string           `json:"fill"`
	Stroke       string           `json:"stroke"`
	Opacity      float64          `json:"opacity"`
	LabelFill    string           `json:"label_fill"`
	LabelOpacity float64          `json:"label_opacity"`
	FontWeight   int              `json:"font_weight"`
	FontSize     int              `json:"font_size"`
}

// EdgeView is one drawn link between two discovered keywords.
type EdgeView struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Strength float64 `json:"strength"`
	X1       float64 `json:"x1"`
	Y1       float64 `json:"y1"`
	X2       float64 `json:"x2"`
	Y2       float64 `json:"y2"`
}

// Scene is the complete drawable view of a state under one layout.
type Scene struct {
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Epoch  int        `json:"epoch"`
	Nodes  []NodeView `json:"nodes"`
	Edges  []EdgeView `json:"edges"`
}

// BuildScene derives the scene for the current state. The layout must
// already be computed for the state's keywords; ids without a position are
// left out, as are edges touching them.
func BuildScene(l *layout.Layout, s *discovery.State, c *corpus.Corpus) Scene {
	w, h := l.Size()
	scene := Scene{Width: w, Height: h, Epoch: l.Epoch()}

	for _, id := range s.IDs() {
		p, ok := l.Point(id)
		if !ok {
			continue
		}
		r, _ := s.Record(id)
		scene.Nodes = append(scene.Nodes, nodeView(id, r, p))
	}

	for _, link := range discovery.Links(s, c) {
		p1, ok1 := l.Point(link.Source)
		p2, ok2 := l.Point(link.Target)
		if !ok1 || !ok2 {
			continue
		}
		scene.Edges = append(scene.Edges, EdgeView{
			Source:   link.Source,
			Target:   link.Target,
			Strength: link.Strength,
			X1:       p1.X,
			Y1:       p1.Y,
			X2:       p2.X,
			Y2:       p2.Y,
		})
	}
	return scene
}

func nodeView(id string, r discovery.Record, p layout.Point) NodeView {
	v := NodeView{
		ID:           id,
		Label:        Label(id),
		Class:        r.Type,
		Round:        r.Round,
		X:            p.X,
		Y:            p.Y,
		Radius:       8,
		Fill:         ColorDiscovered,
		Stroke:       "white",
		Opacity:      1,
		LabelFill:    "#333",
		LabelOpacity: 1,
		FontWeight:   500,
		FontSize:     10,
	}
	switch r.Type {
	case discovery.StatusSeed:
		v.Radius = 12
		v.Fill = ColorSeed
		v.FontWeight = 600
		v.FontSize = 12
	case discovery.StatusUndiscovered:
		v.Fill = ColorUndiscovered
		v.Stroke = "#cbd5e0"
		v.Opacity = 0.4
		v.LabelFill = "#999"
		v.LabelOpacity = 0.5
	}
	return v
}

// Label returns the display label for a keyword id.
func Label(id string) string {
	runes := []rune(id)
	if len(runes) > LabelMax {
		return string(runes[:LabelKeep]) + "..."
	}
	return id
}

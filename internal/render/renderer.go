package render

import (
	"strconv"

	"github.com/nvandessel/snowball/internal/svg"
)

// Surface is a retained drawing target. Nodes are addressed by keyword id
// and persist between draws; edges are redrawn from scratch every time.
type Surface interface {
	HasNode(id string) bool
	CreateNode(n NodeView)
	StyleNode(n NodeView)
	MoveNode(id string, x, y float64)
	ClearEdges()
	DrawEdge(e EdgeView)
}

// Renderer applies scenes to a surface incrementally.
type Renderer struct {
	surface Surface
	epoch   int
}

// NewRenderer creates a renderer for surface. A nil surface makes every
// Draw a no-op.
func NewRenderer(surface Surface) *Renderer {
	return &Renderer{surface: surface}
}

// Draw applies scene. Missing nodes are created, existing nodes are
// restyled in place and only moved when the layout epoch changed since the
// previous draw. Edges are cleared and redrawn.
func (r *Renderer) Draw(scene Scene) {
	if r == nil || r.surface == nil {
		return
	}

	relayout := scene.Epoch != r.epoch
	for _, n := range scene.Nodes {
		if !r.surface.HasNode(n.ID) {
			r.surface.CreateNode(n)
			continue
		}
		if relayout {
			r.surface.MoveNode(n.ID, n.X, n.Y)
		}
		r.surface.StyleNode(n)
	}

	r.surface.ClearEdges()
	for _, e := range scene.Edges {
		r.surface.DrawEdge(e)
	}
	r.epoch = scene.Epoch
}

// SVGSurface draws into an svg.Document using a "links" group under a
// "nodes" group, one node-group per keyword.
type SVGSurface struct {
	doc   *svg.Document
	links *svg.Element
	nodes *svg.Element
}

// NewSVGSurface prepares doc for drawing, reusing existing groups.
func NewSVGSurface(doc *svg.Document) *SVGSurface {
	s := &SVGSurface{doc: doc}
	s.links = doc.Root.Find("class", "links")
	if s.links == nil {
		s.links = doc.Root.Append(svg.El("g", "class", "links"))
	}
	s.nodes = doc.Root.Find("class", "nodes")
	if s.nodes == nil {
		s.nodes = doc.Root.Append(svg.El("g", "class", "nodes"))
	}
	return s
}

// Document returns the underlying document.
func (s *SVGSurface) Document() *svg.Document { return s.doc }

func (s *SVGSurface) group(id string) *svg.Element {
	return s.nodes.Find("data-keyword", id)
}

func (s *SVGSurface) HasNode(id string) bool { return s.group(id) != nil }

func (s *SVGSurface) CreateNode(n NodeView) {
	g := s.nodes.Append(svg.El("g", "class", "node-group", "data-keyword", n.ID))
	g.Append(svg.El("circle", "stroke-width", "2"))
	g.Append(svg.El("text",
		"class", "node-label",
		"text-anchor", "middle",
		"font-family", "Segoe UI, sans-serif",
	)).Text = n.Label
	s.place(g, n.X, n.Y)
	s.StyleNode(n)
}

func (s *SVGSurface) StyleNode(n NodeView) {
	g := s.group(n.ID)
	if g == nil {
		return
	}
	if c := g.FindName("circle"); c != nil {
		c.Set("class", "node "+string(n.Class)).
			Set("r", svg.Num(n.Radius)).
			Set("fill", n.Fill).
			Set("stroke", n.Stroke).
			Set("opacity", svg.Num(n.Opacity))
	}
	if t := g.FindName("text"); t != nil {
		dy := n.Radius + 8
		t.Set("dy", svg.Num(dy)).
			Set("font-size", strconv.Itoa(n.FontSize)+"px").
			Set("font-weight", strconv.Itoa(n.FontWeight)).
			Set("fill", n.LabelFill).
			Set("opacity", svg.Num(n.LabelOpacity))
	}
}

func (s *SVGSurface) MoveNode(id string, x, y float64) {
	if g := s.group(id); g != nil {
		s.place(g, x, y)
	}
}

func (s *SVGSurface) place(g *svg.Element, x, y float64) {
	g.Set("transform", "translate("+svg.Num(x)+","+svg.Num(y)+")").
		Set("data-x", svg.Num(x)).
		Set("data-y", svg.Num(y))
}

func (s *SVGSurface) ClearEdges() { s.links.Clear() }

func (s *SVGSurface) DrawEdge(e EdgeView) {
	s.links.Append(svg.El("line",
		"class", "link",
		"data-source", e.Source,
		"data-target", e.Target,
		"x1", svg.Num(e.X1),
		"y1", svg.Num(e.Y1),
		"x2", svg.Num(e.X2),
		"y2", svg.Num(e.Y2),
		"stroke", "#999",
		"stroke-opacity", "0.6",
		"stroke-width", "1.5",
	))
}

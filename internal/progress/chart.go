package progress

import (
	"math"
	"strconv"
	"strings"

	"github.com/nvandessel/snowball/internal/svg"
)

// Chart geometry.
const (
	MarginTop    = 20.0
	MarginRight  = 20.0
	MarginBottom = 40.0
	MarginLeft   = 40.0
	ChartHeight  = 250.0
	DefaultWidth = 400.0
	YTickCount   = 5
)

// Chart colors.
const (
	LineColor = "#667eea"
	BarColor  = "#48bb78"
)

// Kind is the chart type.
type Kind string

const (
	KindLine Kind = "line"
	KindBar  Kind = "bar"
)

// Tick is an axis label.
type Tick struct {
	Pos   float64
	Label string
}

// Point is a data point of a line chart in plot coordinates.
type Point struct {
	Round int
	Value int
	X, Y  float64
}

// Bar is one bar of a bar chart in plot coordinates.
type Bar struct {
	Round         int
	Value         int
	X, Y          float64
	Width, Height float64
}

// Chart is a fully laid out chart. Coordinates are relative to the plot
// area, which is offset by the left and top margins.
type Chart struct {
	Kind       Kind
	Width      float64
	Height     float64
	PlotWidth  float64
	PlotHeight float64
	Color      string
	XTicks     []Tick
	YTicks     []Tick
	Points     []Point
	Bars       []Bar
}

// BuildLineChart lays out the cumulative total per round. The line is only
// drawn with at least two samples.
func BuildLineChart(samples []Sample, width float64) Chart {
	c, xScale, yScale := frame(KindLine, samples, width, func(s Sample) int { return s.Total })
	c.Color = LineColor
	if len(samples) < 2 {
		return c
	}
	for _, s := range samples {
		c.Points = append(c.Points, Point{
			Round: s.Round,
			Value: s.Total,
			X:     float64(s.Round) * xScale,
			Y:     c.PlotHeight - float64(s.Total)*yScale,
		})
	}
	return c
}

// BuildBarChart lays out the keywords found per round. Rounds with no new
// keywords get no bar.
func BuildBarChart(samples []Sample, width float64) Chart {
	c, xScale, yScale := frame(KindBar, samples, width, func(s Sample) int { return s.New })
	c.Color = BarColor
	barWidth := math.Max(xScale*0.6, 20)
	for _, s := range samples {
		if s.New <= 0 {
			continue
		}
		h := float64(s.New) * yScale
		c.Bars = append(c.Bars, Bar{
			Round:  s.Round,
			Value:  s.New,
			X:      float64(s.Round)*xScale - barWidth/2,
			Y:      c.PlotHeight - h,
			Width:  barWidth,
			Height: h,
		})
	}
	return c
}

func frame(kind Kind, samples []Sample, width float64, value func(Sample) int) (Chart, float64, float64) {
	if width <= 0 {
		width = DefaultWidth
	}
	c := Chart{
		Kind:       kind,
		Width:      width,
		Height:     ChartHeight,
		PlotWidth:  width - MarginLeft - MarginRight,
		PlotHeight: ChartHeight - MarginTop - MarginBottom,
	}
	if len(samples) == 0 {
		return c, 0, 0
	}

	maxX, maxY := 0, 0
	for _, s := range samples {
		if s.Round > maxX {
			maxX = s.Round
		}
		if v := value(s); v > maxY {
			maxY = v
		}
	}
	xScale := c.PlotWidth / float64(max(maxX, 1))
	yScale := c.PlotHeight / float64(max(maxY, 1))

	for i := 0; i <= maxX; i++ {
		c.XTicks = append(c.XTicks, Tick{Pos: float64(i) * xScale, Label: strconv.Itoa(i)})
	}
	for i := 0; i <= YTickCount; i++ {
		c.YTicks = append(c.YTicks, Tick{
			Pos:   c.PlotHeight - float64(i)*c.PlotHeight/YTickCount,
			Label: strconv.Itoa(int(math.Round(float64(i*maxY) / YTickCount))),
		})
	}
	return c, xScale, yScale
}

// Empty reports whether the chart has no axes, which happens when there
// are no samples.
func (c Chart) Empty() bool { return len(c.XTicks) == 0 }

// Draw clears doc and draws the chart into it.
func (c Chart) Draw(doc *svg.Document) {
	if doc == nil {
		return
	}
	doc.Width, doc.Height = c.Width, c.Height
	doc.Root.Clear()
	if c.Empty() {
		return
	}

	g := doc.Root.Append(svg.El("g", "transform", "translate("+svg.Num(MarginLeft)+","+svg.Num(MarginTop)+")"))
	c.drawAxes(g)

	switch c.Kind {
	case KindLine:
		if len(c.Points) < 2 {
			return
		}
		var d strings.Builder
		for i, p := range c.Points {
			if i == 0 {
				d.WriteString("M ")
			} else {
				d.WriteString(" L ")
			}
			d.WriteString(svg.Num(p.X) + " " + svg.Num(p.Y))
		}
		g.Append(svg.El("path",
			"d", d.String(),
			"stroke", c.Color,
			"stroke-width", "3",
			"fill", "none",
			"stroke-linecap", "round",
		))
		for _, p := range c.Points {
			g.Append(svg.El("circle",
				"cx", svg.Num(p.X),
				"cy", svg.Num(p.Y),
				"r", "4",
				"fill", c.Color,
				"stroke", "white",
				"stroke-width", "2",
			))
		}
	case KindBar:
		for _, b := range c.Bars {
			g.Append(svg.El("rect",
				"x", svg.Num(b.X),
				"y", svg.Num(b.Y),
				"width", svg.Num(b.Width),
				"height", svg.Num(b.Height),
				"fill", c.Color,
				"opacity", "0.7",
				"stroke", c.Color,
				"stroke-width", "1",
			))
		}
	}
}

func (c Chart) drawAxes(g *svg.Element) {
	w, h := svg.Num(c.PlotWidth), svg.Num(c.PlotHeight)
	g.Append(svg.El("line", "x1", "0", "y1", h, "x2", w, "y2", h, "stroke", "#333", "stroke-width", "1"))
	g.Append(svg.El("line", "x1", "0", "y1", "0", "x2", "0", "y2", h, "stroke", "#333", "stroke-width", "1"))

	for _, t := range c.XTicks {
		g.Append(svg.El("text",
			"x", svg.Num(t.Pos),
			"y", svg.Num(c.PlotHeight+20),
			"text-anchor", "middle",
			"font-size", "12px",
			"fill", "#666",
		)).Text = t.Label
	}
	for _, t := range c.YTicks {
		g.Append(svg.El("text",
			"x", "-10",
			"y", svg.Num(t.Pos+4),
			"text-anchor", "end",
			"font-size", "12px",
			"fill", "#666",
		)).Text = t.Label
	}

	g.Append(svg.El("text",
		"x", svg.Num(c.PlotWidth/2),
		"y", svg.Num(c.PlotHeight+35),
		"text-anchor", "middle",
		"font-size", "14px",
		"fill", "#333",
	)).Text = "Round"
	g.Append(svg.El("text",
		"x", "-35",
		"y", svg.Num(c.PlotHeight/2),
		"text-anchor", "middle",
		"font-size", "14px",
		"fill", "#333",
		"transform", "rotate(-90, -35, "+svg.Num(c.PlotHeight/2)+")",
	)).Text = "Keywords"
}

// SVG renders the chart as a standalone document.
func (c Chart) SVG() string {
	doc := svg.NewDocument(c.Width, c.Height)
	c.Draw(doc)
	return doc.String()
}

package progress

import (
	"math"
	"strings"
	"testing"

	"github.com/nvandessel/snowball/internal/corpus"
	"github.com/nvandessel/snowball/internal/discovery"
	"github.com/nvandessel/snowball/internal/svg"
)

type always float64

func (a always) Float64() float64 { return float64(a) }

func freq(f float64) *float64 { return &f }

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func newState(t *testing.T) (*corpus.Corpus, *discovery.State) {
	t.Helper()
	c, err := corpus.New(corpus.Document{KeywordDatabase: map[string]corpus.Keyword{
		"a": {Related: []string{"b"}, Frequency: freq(1)},
		"b": {Related: []string{"c"}, Frequency: freq(1)},
		"c": {Related: []string{}},
	}})
	if err != nil {
		t.Fatalf("corpus.New: %v", err)
	}
	s := discovery.NewState(c)
	s.AddSeed(c, "a")
	return c, s
}

func TestTracker_InitialSample(t *testing.T) {
	tr := NewTracker(2)
	got := tr.Samples()
	if len(got) != 1 || got[0] != (Sample{Round: 0, Total: 2, New: 2}) {
		t.Errorf("Samples() = %+v, want one round-0 sample with 2 seeds", got)
	}
}

func TestTracker_RecordUpsertsByRound(t *testing.T) {
	c, s := newState(t)
	tr := NewTracker(1)
	eng := discovery.NewEngine(discovery.DefaultConfig(), always(0))

	s.NextRound()
	eng.AdvanceRound(s, c)
	tr.Record(s)
	s.NextRound()
	eng.AdvanceRound(s, c)
	tr.Record(s)
	// Sampling round 2 again replaces the existing sample.
	second := tr.Record(s)

	samples := tr.Samples()
	if len(samples) != 3 {
		t.Fatalf("samples = %+v, want rounds 0..2", samples)
	}
	n := 0
	for _, sm := range samples {
		if sm.Round == 2 {
			n++
		}
	}
	if n != 1 {
		t.Errorf("round 2 appears %d times, want 1", n)
	}
	if second != (Sample{Round: 2, Total: 3, New: 1}) {
		t.Errorf("round 2 sample = %+v", second)
	}
	if latest, _ := tr.Latest(); latest != second {
		t.Errorf("Latest() = %+v, want %+v", latest, second)
	}

	tr.Reset(1)
	if len(tr.Samples()) != 1 {
		t.Errorf("Reset should leave only the round-0 sample")
	}
}

func TestBuildLineChart(t *testing.T) {
	samples := []Sample{{0, 2, 2}, {1, 5, 3}, {2, 6, 1}}
	c := BuildLineChart(samples, 440)

	if c.PlotWidth != 380 || c.PlotHeight != 190 {
		t.Fatalf("plot area = %vx%v, want 380x190", c.PlotWidth, c.PlotHeight)
	}
	if len(c.XTicks) != 3 || c.XTicks[2].Pos != 380 {
		t.Errorf("x ticks = %+v", c.XTicks)
	}
	if len(c.YTicks) != YTickCount+1 || c.YTicks[5].Label != "6" || c.YTicks[5].Pos != 0 {
		t.Errorf("y ticks = %+v", c.YTicks)
	}
	if len(c.Points) != 3 {
		t.Fatalf("points = %+v", c.Points)
	}
	if p := c.Points[1]; !near(p.X, 190) || !near(p.Y, 190-5*190.0/6) {
		t.Errorf("point 1 = %+v", p)
	}

	single := BuildLineChart(samples[:1], 440)
	if len(single.Points) != 0 {
		t.Error("line needs at least two samples")
	}
	if single.XTicks[0].Label != "0" || len(single.XTicks) != 1 {
		t.Errorf("single-sample x ticks = %+v", single.XTicks)
	}
}

func TestBuildBarChart(t *testing.T) {
	samples := []Sample{{0, 1, 1}, {1, 1, 0}, {2, 4, 3}}
	c := BuildBarChart(samples, 440)

	if len(c.Bars) != 2 {
		t.Fatalf("bars = %+v, want zero-valued round skipped", c.Bars)
	}
	// xScale = 190, bar width = 114.
	b := c.Bars[1]
	if b.Round != 2 || !near(b.Width, 114) || !near(b.X, 2*190-57) || !near(b.Height, 190) {
		t.Errorf("bar = %+v", b)
	}

	// Narrow scale falls back to the minimum bar width.
	wide := make([]Sample, 0, 40)
	for i := 0; i < 40; i++ {
		wide = append(wide, Sample{Round: i, Total: i + 1, New: 1})
	}
	if w := BuildBarChart(wide, 440).Bars[0].Width; w != 20 {
		t.Errorf("min bar width = %v, want 20", w)
	}
}

func TestChart_Draw(t *testing.T) {
	samples := []Sample{{0, 2, 2}, {1, 5, 3}}
	doc := svg.NewDocument(0, 0)

	BuildLineChart(samples, 440).Draw(doc)
	if doc.Root.Count("path") != 1 || doc.Root.Count("circle") != 2 {
		t.Errorf("line chart: paths=%d circles=%d", doc.Root.Count("path"), doc.Root.Count("circle"))
	}

	// Redrawing clears previous content.
	BuildBarChart(samples, 440).Draw(doc)
	if doc.Root.Count("path") != 0 || doc.Root.Count("rect") != 2 {
		t.Errorf("bar chart: paths=%d rects=%d", doc.Root.Count("path"), doc.Root.Count("rect"))
	}

	out := BuildLineChart(samples, 440).SVG()
	for _, want := range []string{">Round<", ">Keywords<", `d="M 0 114 L 380 0"`, LineColor} {
		if !strings.Contains(out, want) {
			t.Errorf("line chart svg missing %q", want)
		}
	}

	empty := svg.NewDocument(0, 0)
	BuildLineChart(nil, 440).Draw(empty)
	if len(empty.Root.Children) != 0 {
		t.Error("empty chart should draw nothing")
	}
}

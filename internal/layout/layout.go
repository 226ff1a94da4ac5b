// Package layout assigns stable screen coordinates to keywords. Positions
// are computed once per layout epoch (a seed-set change) and then held fixed
// while discovery proceeds, so nodes light up in place instead of moving.
package layout

import "math"

// Ring layout constants.
const (
	// RingCount is the number of concentric rings for non-seed keywords.
	RingCount = 4

	// SeedRadius is the radius of the central circle holding the seeds.
	SeedRadius = 50.0

	// RingOffset rotates each ring by ringIndex*RingOffset radians so that
	// nodes on neighboring rings do not line up radially.
	RingOffset = 0.3

	// MinWidth is the minimum canvas width.
	MinWidth = 800.0

	// DefaultHeight is the canvas height.
	DefaultHeight = 600.0
)

// Point is a 2-D screen coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layout holds the coordinates of the current epoch.
type Layout struct {
	width, height float64
	points        map[string]Point
	epoch         int
	valid         bool
}

// New creates an empty layout for a canvas. Width is clamped to MinWidth and
// a non-positive height falls back to DefaultHeight.
func New(width, height float64) *Layout {
	if width < MinWidth {
		width = MinWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Layout{width: width, height: height, points: make(map[string]Point)}
}

// Size returns the canvas dimensions.
func (l *Layout) Size() (width, height float64) { return l.width, l.height }

// Epoch returns the number of times positions have been computed.
func (l *Layout) Epoch() int { return l.epoch }

// Valid reports whether the current positions are still in force.
func (l *Layout) Valid() bool { return l.valid }

// Invalidate marks the positions stale. The next Ensure recomputes them.
func (l *Layout) Invalidate() { l.valid = false }

// Point returns the coordinate assigned to id.
func (l *Layout) Point(id string) (Point, bool) {
	p, ok := l.points[id]
	return p, ok
}

// Ensure computes positions if the layout is invalid and reports whether it
// did. ids lists every known keyword in a stable order; seeds lists the seed
// set in insertion order.
func (l *Layout) Ensure(ids, seeds []string) bool {
	if l.valid {
		return false
	}
	l.points = Compute(ids, seeds, l.width, l.height)
	l.valid = true
	l.epoch++
	return true
}

// Compute places seeds on a small central circle and every other id on
// RingCount concentric rings, filled in index order.
func Compute(ids, seeds []string, width, height float64) map[string]Point {
	cx, cy := width/2, height/2
	maxRadius := math.Min(width, height) / 2.2

	isSeed := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		isSeed[s] = true
	}

	var seedIDs, others []string
	for _, id := range ids {
		if isSeed[id] {
			seedIDs = append(seedIDs, id)
		} else {
			others = append(others, id)
		}
	}
	// Keep seeds in insertion order rather than id order.
	seedIDs = orderBy(seedIDs, seeds)

	points := make(map[string]Point, len(ids))
	for i, id := range seedIDs {
		angle := float64(i) * 2 * math.Pi / float64(len(seedIDs))
		points[id] = Point{X: cx + math.Cos(angle)*SeedRadius, Y: cy + math.Sin(angle)*SeedRadius}
	}

	if len(others) == 0 {
		return points
	}
	perRing := int(math.Ceil(float64(len(others)) / RingCount))
	for i, id := range others {
		ring := i / perRing
		pos := i % perRing
		inRing := perRing
		if rest := len(others) - ring*perRing; rest < inRing {
			inRing = rest
		}
		radius := maxRadius * (0.4 + float64(ring+1)*0.25)
		angle := float64(pos)*2*math.Pi/float64(inRing) + float64(ring)*RingOffset
		points[id] = Point{X: cx + math.Cos(angle)*radius, Y: cy + math.Sin(angle)*radius}
	}
	return points
}

// orderBy returns ids sorted by their position in order.
func orderBy(ids, order []string) []string {
	present := make(map[string]bool, len(ids))
	for _, id := range ids {
		present[id] = true
	}
	out := make([]string, 0, len(ids))
	for _, id := range order {
		if present[id] {
			out = append(out, id)
			delete(present, id)
		}
	}
	for _, id := range ids {
		if present[id] {
			out = append(out, id)
		}
	}
	return out
}

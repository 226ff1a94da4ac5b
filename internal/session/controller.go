// Package session owns one interactive snowball-sampling run: the discovery
// state, its layout and drawings, progress samples and the autoplay timer.
// Every control the demo page offers maps to one Controller method.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nvandessel/snowball/internal/corpus"
	"github.com/nvandessel/snowball/internal/discovery"
	"github.com/nvandessel/snowball/internal/layout"
	"github.com/nvandessel/snowball/internal/logging"
	"github.com/nvandessel/snowball/internal/progress"
	"github.com/nvandessel/snowball/internal/render"
	"github.com/nvandessel/snowball/internal/svg"
)

var (
	// ErrNoSeeds is returned by Start when the seed set is empty.
	ErrNoSeeds = errors.New("please add at least one seed keyword before starting")

	// ErrSamplingStarted is returned when seeds are removed after round 0.
	ErrSamplingStarted = errors.New("seeds can only be removed before sampling starts")

	// ErrSamplingComplete is returned when advancing a finished run.
	ErrSamplingComplete = errors.New("sampling complete - no new keywords found")

	// ErrAlreadyStarted is returned by Start while a run is in progress.
	ErrAlreadyStarted = errors.New("sampling already started")

	// ErrNotStarted is returned when advancing or autoplaying before Start.
	ErrNotStarted = errors.New("sampling has not started")

	// ErrUnknownKeyword is returned for ids the session does not know.
	ErrUnknownKeyword = errors.New("unknown keyword")

	// ErrInvalidSpeed is returned for a non-positive autoplay delay.
	ErrInvalidSpeed = errors.New("autoplay speed must be positive")
)

// Phase is the controller's lifecycle phase.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseSampling Phase = "sampling"
	PhaseComplete Phase = "complete"
)

// DefaultAutoplayDelay is the pause between autoplay rounds.
const DefaultAutoplayDelay = time.Second

// DefaultSeeds are the seeds a fresh session starts with.
var DefaultSeeds = []string{"climate change", "global warming"}

// Options configures a Controller. Zero values get defaults.
type Options struct {
	Corpus *corpus.Corpus
	Seeds  []string
	// DiscoveryFactor overrides the engine default when set; a zero factor
	// disables discovery.
	DiscoveryFactor *float64
	Rand            discovery.Rand
	RandSeed        uint64
	AutoplayDelay   time.Duration
	Width           float64
	Height          float64
	ChartWidth      float64

	// Surface receives graph drawings. When nil the controller draws into
	// its own SVG document, available from GraphSVG.
	Surface render.Surface

	// Scheduler runs autoplay steps; nil uses the runtime timer.
	Scheduler Scheduler
	Now       func() time.Time
	Logger    *slog.Logger
	Trace     *logging.TraceLogger
}

// Controller is the single owner of a session's mutable state. All methods
// are safe for concurrent use; they are serialized by one mutex.
type Controller struct {
	mu sync.Mutex

	corpus   *corpus.Corpus
	state    *discovery.State
	engine   *discovery.Engine
	layout   *layout.Layout
	renderer *render.Renderer
	graphDoc *svg.Document
	tracker  *progress.Tracker
	totalDoc *svg.Document
	newDoc   *svg.Document

	chartWidth float64
	phase      Phase
	step       int
	runID      string
	autoplay   bool
	delay      time.Duration
	gen        uint64
	stopTimer  func() bool
	detail     *render.DetailView

	sched  Scheduler
	now    func() time.Time
	logger *slog.Logger
	trace  *logging.TraceLogger

	lmu       sync.Mutex
	listeners []func(Snapshot)
}

// New creates a controller with the configured seeds and draws the initial
// graph and progress charts.
func New(opts Options) (*Controller, error) {
	c := opts.Corpus
	if c == nil {
		c = corpus.Fallback()
	}

	cfg := discovery.DefaultConfig()
	if opts.DiscoveryFactor != nil {
		cfg.DiscoveryFactor = *opts.DiscoveryFactor
	}
	if cfg.DiscoveryFactor < 0 || cfg.DiscoveryFactor > 1 {
		return nil, fmt.Errorf("discovery factor %v out of range [0,1]", cfg.DiscoveryFactor)
	}

	rng := opts.Rand
	if rng == nil {
		seed := opts.RandSeed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}

	delay := opts.AutoplayDelay
	if delay == 0 {
		delay = DefaultAutoplayDelay
	}
	if delay < 0 {
		return nil, ErrInvalidSpeed
	}

	seeds := opts.Seeds
	if seeds == nil {
		seeds = DefaultSeeds
	}

	ctl := &Controller{
		corpus:     c,
		state:      discovery.NewState(c),
		engine:     discovery.NewEngine(cfg, rng),
		layout:     layout.New(opts.Width, opts.Height),
		chartWidth: opts.ChartWidth,
		phase:      PhaseIdle,
		runID:      uuid.NewString(),
		delay:      delay,
		sched:      opts.Scheduler,
		now:        opts.Now,
		logger:     logging.OrDiscard(opts.Logger),
		trace:      opts.Trace,
	}
	if ctl.chartWidth <= 0 {
		ctl.chartWidth = progress.DefaultWidth
	}
	if ctl.sched == nil {
		ctl.sched = wallScheduler{}
	}
	if ctl.now == nil {
		ctl.now = time.Now
	}

	surface := opts.Surface
	if surface == nil {
		w, h := ctl.layout.Size()
		ctl.graphDoc = svg.NewDocument(w, h)
		surface = render.NewSVGSurface(ctl.graphDoc)
	}
	ctl.renderer = render.NewRenderer(surface)
	ctl.totalDoc = svg.NewDocument(ctl.chartWidth, progress.ChartHeight)
	ctl.newDoc = svg.NewDocument(ctl.chartWidth, progress.ChartHeight)

	for _, s := range seeds {
		ctl.state.AddSeed(c, s)
	}
	ctl.tracker = progress.NewTracker(len(ctl.state.Seeds()))
	ctl.refreshLocked()
	ctl.drawChartsLocked()

	ctl.logger.Info("session created", "run_id", ctl.runID, "keywords", ctl.state.Len(), "seeds", len(ctl.state.Seeds()))
	return ctl, nil
}

// OnChange registers fn to be called with a fresh snapshot after every
// state change, including autoplay rounds. fn runs outside the controller
// lock.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.lmu.Lock()
	defer c.lmu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) notify(s Snapshot) {
	c.lmu.Lock()
	fns := append([]func(Snapshot){}, c.listeners...)
	c.lmu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

// commit snapshots the state, releases the lock and notifies listeners.
func (c *Controller) commit() Snapshot {
	s := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(s)
	return s
}

// AddSeed normalizes text and adds it to the seed set. It returns the id
// and whether anything changed; blank text and existing seeds are no-ops.
func (c *Controller) AddSeed(text string) (string, bool) {
	c.mu.Lock()
	id, added := c.state.AddSeed(c.corpus, text)
	if !added {
		c.mu.Unlock()
		return id, false
	}

	c.layout.Invalidate()
	c.refreshLocked()
	if c.phase == PhaseIdle {
		c.tracker.Reset(len(c.state.Seeds()))
		c.drawChartsLocked()
	}
	c.logger.Debug("seed added", "run_id", c.runID, "keyword", id)
	c.commit()
	return id, true
}

// RemoveSeed demotes a seed back to undiscovered. It only works before
// sampling starts.
func (c *Controller) RemoveSeed(id string) error {
	c.mu.Lock()
	id = corpus.Normalize(id)
	if c.phase != PhaseIdle || c.state.Round() != 0 {
		c.mu.Unlock()
		return ErrSamplingStarted
	}
	if !c.state.RemoveSeed(id) {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q is not a seed", ErrUnknownKeyword, id)
	}

	c.layout.Invalidate()
	c.refreshLocked()
	c.tracker.Reset(len(c.state.Seeds()))
	c.drawChartsLocked()
	c.logger.Debug("seed removed", "run_id", c.runID, "keyword", id)
	c.commit()
	return nil
}

// Start begins sampling and runs the first round.
func (c *Controller) Start() (discovery.RoundResult, error) {
	c.mu.Lock()
	switch {
	case c.phase == PhaseSampling:
		c.mu.Unlock()
		return discovery.RoundResult{}, ErrAlreadyStarted
	case c.phase == PhaseComplete:
		c.mu.Unlock()
		return discovery.RoundResult{}, ErrSamplingComplete
	case len(c.state.Seeds()) == 0:
		c.mu.Unlock()
		return discovery.RoundResult{}, ErrNoSeeds
	}

	c.phase = PhaseSampling
	c.step = 1
	c.logger.Info("sampling started", "run_id", c.runID, "seeds", c.state.Seeds())
	res := c.advanceLocked()
	c.commit()
	return res, nil
}

// AdvanceRound runs one discovery round. An empty result completes the run.
func (c *Controller) AdvanceRound() (discovery.RoundResult, error) {
	c.mu.Lock()
	if err := c.canAdvanceLocked(); err != nil {
		c.mu.Unlock()
		return discovery.RoundResult{}, err
	}
	res := c.advanceLocked()
	c.commit()
	return res, nil
}

func (c *Controller) canAdvanceLocked() error {
	switch c.phase {
	case PhaseIdle:
		return ErrNotStarted
	case PhaseComplete:
		return ErrSamplingComplete
	}
	return nil
}

// advanceLocked runs a round, completes the run when nothing new was found
// and otherwise redraws and reschedules autoplay.
func (c *Controller) advanceLocked() discovery.RoundResult {
	c.state.NextRound()
	res := c.engine.Advance(c.state, c.corpus)
	c.traceRoundLocked(res)

	if len(res.Discovered) == 0 {
		c.phase = PhaseComplete
		c.step = 3
		c.stopAutoplayLocked()
		c.logger.Info("sampling complete", "run_id", c.runID, "rounds", res.Round, "discovered", len(c.state.DiscoveredIDs()))
		return res
	}

	c.refreshLocked()
	c.tracker.Record(c.state)
	c.drawChartsLocked()
	c.step = min(c.state.Round()+1, 3)
	c.logger.Debug("round advanced", "run_id", c.runID, "round", res.Round, "new", len(res.Discovered))

	if c.autoplay {
		c.scheduleLocked()
	}
	return res
}

func (c *Controller) traceRoundLocked(res discovery.RoundResult) {
	ctx := context.Background()
	if c.logger.Enabled(ctx, logging.LevelTrace) {
		for _, d := range res.Draws {
			c.logger.Log(ctx, logging.LevelTrace, "candidate draw",
				"run_id", c.runID, "round", res.Round, "keyword", d.ID, "via", d.Via,
				"probability", d.Probability, "value", d.Value, "discovered", d.Discovered)
		}
	}
	c.trace.Log(map[string]any{
		"event":      "round",
		"run_id":     c.runID,
		"round":      res.Round,
		"draws":      res.Draws,
		"discovered": res.Discovered,
	})
}

// ToggleAutoplay flips autoplay. Turning it on advances immediately and
// keeps advancing every delay; turning it off cancels the pending round.
func (c *Controller) ToggleAutoplay() (bool, error) {
	c.mu.Lock()
	if c.autoplay {
		c.stopAutoplayLocked()
		c.logger.Debug("autoplay off", "run_id", c.runID)
		c.commit()
		return false, nil
	}
	if err := c.canAdvanceLocked(); err != nil {
		c.mu.Unlock()
		return false, err
	}

	c.autoplay = true
	c.logger.Debug("autoplay on", "run_id", c.runID, "delay", c.delay)
	c.advanceLocked()
	on := c.autoplay
	c.commit()
	return on, nil
}

// SetAutoplaySpeed sets the autoplay delay in seconds. A pending round
// keeps its old delay; the next one uses the new value.
func (c *Controller) SetAutoplaySpeed(seconds float64) error {
	if seconds <= 0 {
		return ErrInvalidSpeed
	}
	c.mu.Lock()
	c.delay = time.Duration(seconds * float64(time.Second))
	c.commit()
	return nil
}

func (c *Controller) scheduleLocked() {
	if c.stopTimer != nil {
		c.stopTimer()
	}
	c.gen++
	gen := c.gen
	c.stopTimer = c.sched.AfterFunc(c.delay, func() { c.autoStep(gen) })
}

func (c *Controller) autoStep(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.autoplay || c.phase != PhaseSampling {
		c.mu.Unlock()
		return
	}
	c.stopTimer = nil
	c.advanceLocked()
	c.commit()
}

// stopAutoplayLocked clears the autoplay flag and invalidates any pending
// or in-flight step.
func (c *Controller) stopAutoplayLocked() {
	c.autoplay = false
	c.gen++
	if c.stopTimer != nil {
		c.stopTimer()
		c.stopTimer = nil
	}
}

// Reset returns the session to its seed-only configuration. The corpus and
// the seed set are kept.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.stopAutoplayLocked()
	c.state.Reset()
	c.phase = PhaseIdle
	c.step = 0
	c.detail = nil
	c.runID = uuid.NewString()
	c.tracker.Reset(len(c.state.Seeds()))
	c.layout.Invalidate()
	c.refreshLocked()
	c.drawChartsLocked()
	c.logger.Info("session reset", "run_id", c.runID)
	c.commit()
}

// Detail opens the detail view for a keyword.
func (c *Controller) Detail(id string) (render.DetailView, error) {
	c.mu.Lock()
	d, ok := render.Detail(c.state, corpus.Normalize(id))
	if !ok {
		c.mu.Unlock()
		return render.DetailView{}, fmt.Errorf("%w: %q", ErrUnknownKeyword, id)
	}
	c.detail = &d
	c.commit()
	return d, nil
}

// CloseDetail closes the detail view.
func (c *Controller) CloseDetail() {
	c.mu.Lock()
	c.detail = nil
	c.commit()
}

// refreshLocked recomputes the layout if a seed change invalidated it and
// redraws the graph.
func (c *Controller) refreshLocked() {
	if c.layout.Ensure(c.state.IDs(), c.state.Seeds()) {
		c.logger.Debug("layout computed", "run_id", c.runID, "epoch", c.layout.Epoch())
	}
	c.renderer.Draw(render.BuildScene(c.layout, c.state, c.corpus))
}

func (c *Controller) drawChartsLocked() {
	samples := c.tracker.Samples()
	progress.BuildLineChart(samples, c.chartWidth).Draw(c.totalDoc)
	progress.BuildBarChart(samples, c.chartWidth).Draw(c.newDoc)
}

// Scene returns the current graph scene.
func (c *Controller) Scene() render.Scene {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layout.Ensure(c.state.IDs(), c.state.Seeds())
	return render.BuildScene(c.layout, c.state, c.corpus)
}

// GraphSVG returns the graph drawing. With an external surface it renders
// the current scene into a fresh document.
func (c *Controller) GraphSVG() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.graphDoc != nil {
		return c.graphDoc.String()
	}
	w, h := c.layout.Size()
	doc := svg.NewDocument(w, h)
	render.NewRenderer(render.NewSVGSurface(doc)).Draw(render.BuildScene(c.layout, c.state, c.corpus))
	return doc.String()
}

// TotalChartSVG returns the cumulative discovery chart.
func (c *Controller) TotalChartSVG() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalDoc.String()
}

// NewChartSVG returns the per-round discovery chart.
func (c *Controller) NewChartSVG() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.newDoc.String()
}

// Samples returns the progress samples.
func (c *Controller) Samples() []progress.Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracker.Samples()
}

// Candidates returns the keywords the next round can discover.
func (c *Controller) Candidates() []discovery.Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Candidates(c.state, c.corpus)
}

// Record returns the discovery record of one keyword.
func (c *Controller) Record(id string) (discovery.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Record(corpus.Normalize(id))
}

// Validate checks the discovery invariants of the current state.
func (c *Controller) Validate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Validate()
}

// RunToCompletion starts sampling if needed and advances until the run
// completes or maxRounds rounds have been played (0 means no limit). It
// returns the number of rounds played by this call.
func (c *Controller) RunToCompletion(ctx context.Context, maxRounds int) (int, error) {
	played := 0
	snap := c.Snapshot()
	if snap.Phase == PhaseIdle {
		if _, err := c.Start(); err != nil {
			return 0, err
		}
		played++
	}
	for maxRounds <= 0 || played < maxRounds {
		if err := ctx.Err(); err != nil {
			return played, err
		}
		if _, err := c.AdvanceRound(); err != nil {
			if errors.Is(err, ErrSamplingComplete) {
				return played, nil
			}
			return played, err
		}
		played++
	}
	return played, nil
}

// Close stops autoplay.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopAutoplayLocked()
}

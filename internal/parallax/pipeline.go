package parallax

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/relabs-tech/motion_parallax/internal/imu"
	"github.com/relabs-tech/motion_parallax/internal/orientation"
	"github.com/relabs-tech/motion_parallax/internal/policy"
)

// Ticker is the part of *time.Ticker the pipeline uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.Ticker.C }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithTicker replaces the ticker factory driving the sample loop.
func WithTicker(f func(time.Duration) Ticker) Option {
	return func(p *Pipeline) {
		if f != nil {
			p.newTicker = f
		}
	}
}

// Pipeline samples a motion source on a fixed timer and emits one Offset per
// tick to the registered sink. It owns the orientation tracker it reads
// from. Ticks are serialized: at most one is ever in flight.
type Pipeline struct {
	cfg       Config
	src       imu.Source
	tracker   *orientation.Tracker
	gate      policy.Gate
	logger    *zap.Logger
	newTicker func(time.Duration) Ticker

	mu     sync.Mutex
	active atomic.Bool
	done   chan struct{}
	wg     sync.WaitGroup

	tickMu sync.Mutex

	sinkMu   sync.RWMutex
	sink     func(Offset)
	last     Offset
	haveLast bool
}

// New validates cfg and builds an idle pipeline. The tracker following sig is
// created here and closed by Close. When gate has no Sensor, the source's own
// availability is used.
func New(cfg Config, src imu.Source, sig orientation.Signal, gate policy.Gate, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("%w: motion source is required", ErrInvalidConfig)
	}
	if sig == nil {
		return nil, fmt.Errorf("%w: orientation signal is required", ErrInvalidConfig)
	}
	if gate.Sensor == nil {
		gate.Sensor = src
	}

	p := &Pipeline{
		cfg:       cfg,
		src:       src,
		gate:      gate,
		logger:    zap.NewNop(),
		newTicker: newTimeTicker,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.tracker = orientation.NewTracker(sig, p.logger.Named("orientation"))
	return p, nil
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() Config { return p.cfg }

// Orientation returns the tracker's current orientation.
func (p *Pipeline) Orientation() orientation.Orientation { return p.tracker.Current() }

// Tracker exposes the owned tracker so callers can observe orientation
// changes.
func (p *Pipeline) Tracker() *orientation.Tracker { return p.tracker }

// OnOffsetChanged registers the sink receiving every emitted offset,
// replacing any previous one. The sink runs on the sampling goroutine and
// must not call Start, Stop or Close.
func (p *Pipeline) OnOffsetChanged(fn func(Offset)) {
	p.sinkMu.Lock()
	p.sink = fn
	p.sinkMu.Unlock()
}

// Last returns the most recently emitted offset.
func (p *Pipeline) Last() (Offset, bool) {
	p.sinkMu.RLock()
	defer p.sinkMu.RUnlock()
	return p.last, p.haveLast
}

// Active reports whether sampling is running.
func (p *Pipeline) Active() bool {
	return p.active.Load()
}

// Start begins sensor acquisition and the sample timer. It reports whether
// the pipeline is active afterwards. When motion is disabled by policy, or
// the source refuses to start, the pipeline stays idle until the next Start.
// Calling Start while active does nothing.
func (p *Pipeline) Start() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active.Load() {
		return true
	}

	if reason := p.gate.Check(); reason != policy.Enabled {
		p.logger.Debug("motion disabled, staying idle", zap.String("reason", string(reason)))
		return false
	}
	if err := p.src.Start(p.cfg.Sensor, p.cfg.SampleInterval); err != nil {
		p.logger.Warn("sensor start failed, staying idle",
			zap.Stringer("sensor", p.cfg.Sensor), zap.Error(err))
		return false
	}

	p.active.Store(true)
	p.done = make(chan struct{})
	p.wg.Add(1)
	go p.run(p.done)

	p.logger.Info("pipeline started",
		zap.Stringer("sensor", p.cfg.Sensor),
		zap.String("table", p.cfg.Table.Name),
		zap.Duration("interval", p.cfg.SampleInterval),
		zap.Float64("strength", p.cfg.Strength),
		zap.Float64("min", p.cfg.Range.Min),
		zap.Float64("max", p.cfg.Range.Max))
	return true
}

// Stop halts the sample timer, waits for any tick in progress to finish and
// then stops sensor acquisition. It is safe to call when not started.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active.Load() {
		return
	}
	close(p.done)
	p.wg.Wait()
	p.src.Stop(p.cfg.Sensor)
	p.active.Store(false)
	p.logger.Info("pipeline stopped")
}

// Close stops the pipeline and releases the orientation tracker.
func (p *Pipeline) Close() {
	p.Stop()
	p.tracker.Close()
}

func (p *Pipeline) run(done <-chan struct{}) {
	defer p.wg.Done()
	ticker := p.newTicker(p.cfg.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C():
			select {
			case <-done:
				return
			default:
			}
			p.Tick()
		}
	}
}

// Tick runs one sampling step and reports whether an offset was emitted.
// Nothing is emitted when policy disables motion, when the source has no
// usable sample, or when another tick is still running.
func (p *Pipeline) Tick() bool {
	if !p.tickMu.TryLock() {
		p.logger.Debug("tick dropped, previous tick still running")
		return false
	}
	defer p.tickMu.Unlock()

	if !p.gate.Allowed() {
		return false
	}
	s, ok := p.src.Latest(p.cfg.Sensor)
	if !ok || !finite(s) {
		return false
	}

	off := Transform(s, p.tracker.Current(), p.cfg)

	p.sinkMu.Lock()
	p.last = off
	p.haveLast = true
	sink := p.sink
	p.sinkMu.Unlock()

	if sink != nil {
		sink(off)
	}
	return true
}

func finite(s imu.Sample) bool {
	for _, v := range [...]float64{s.X, s.Y, s.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

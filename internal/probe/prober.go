// Package probe estimates download bandwidth with a single timed GET against
// one of a fixed table of targets.
package probe

import (
	"context"
	"net/http"
	"sync"
	"time"

	"sysbro/internal/domain"
	"sysbro/internal/logger"

	"github.com/google/uuid"
)

const (
	DefaultMaxDuration  = 13 * time.Second
	defaultSampleBuffer = 256
	readBufferSize      = 32 * 1024
)

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Publisher interface {
	Publish(event any)
}

type Prober struct {
	client  Doer
	targets []Target
	log     logger.Logger
	bus     Publisher
	now     func() time.Time

	maxDuration  time.Duration
	sampleBuffer int

	mu      sync.Mutex
	state   domain.ProbeState
	current *Session
}

type Option func(*Prober)

func WithLogger(log logger.Logger) Option {
	return func(p *Prober) { p.log = log }
}

func WithPublisher(bus Publisher) Option {
	return func(p *Prober) { p.bus = bus }
}

// WithClock replaces time.Now for elapsed-time measurement.
func WithClock(now func() time.Time) Option {
	return func(p *Prober) { p.now = now }
}

func WithMaxDuration(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.maxDuration = d
		}
	}
}

func WithSampleBuffer(n int) Option {
	return func(p *Prober) {
		if n > 0 {
			p.sampleBuffer = n
		}
	}
}

func New(client Doer, targets []Target, opts ...Option) *Prober {
	if client == nil {
		client = NewHTTPClient()
	}
	if len(targets) == 0 {
		targets = DefaultTargets
	}

	p := &Prober{
		client:       client,
		targets:      targets,
		log:          logger.Nop(),
		now:          time.Now,
		maxDuration:  DefaultMaxDuration,
		sampleBuffer: defaultSampleBuffer,
		state:        domain.ProbeIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Prober) Targets() []Target {
	out := make([]Target, len(p.targets))
	copy(out, p.targets)
	return out
}

func (p *Prober) State() domain.ProbeState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Current returns the running or most recently finished session, or nil.
func (p *Prober) Current() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Start begins a probe against targets[serverIndex]. Only one probe runs at a
// time: while one is running Start returns domain.ErrProbeInProgress. An
// out-of-range index returns domain.ErrInvalidSelection and no request is
// made.
func (p *Prober) Start(ctx context.Context, serverIndex int) (*Session, error) {
	s, runCtx, err := p.begin(ctx, serverIndex)
	if err != nil {
		return nil, err
	}

	p.log.Info("probe: started", "id", s.ID, "server_index", serverIndex, "url", s.Target.URL)
	p.publish(domain.EventProbeStarted{ID: s.ID, ServerIndex: serverIndex, URL: s.Target.URL})

	go p.run(runCtx, s)

	return s, nil
}

func (p *Prober) begin(ctx context.Context, serverIndex int) (*Session, context.Context, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == domain.ProbeRunning {
		return nil, nil, domain.Errorf(domain.KindProbeInProgress, "start probe", "probe %s still running", p.current.ID)
	}

	target, err := p.target(serverIndex)
	if err != nil {
		p.state = domain.ProbeIdle
		return nil, nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)

	s := &Session{
		ID:          uuid.New(),
		ServerIndex: serverIndex,
		Target:      target,
		StartedAt:   p.now(),

		samples: make(chan domain.SpeedSample, p.sampleBuffer),
		done:    make(chan struct{}),
		cancel:  cancel,
	}

	p.state = domain.ProbeRunning
	p.current = s

	return s, runCtx, nil
}

// Cancel aborts the running probe, if any.
func (p *Prober) Cancel() bool {
	p.mu.Lock()
	s := p.current
	running := p.state == domain.ProbeRunning
	p.mu.Unlock()

	if !running || s == nil {
		return false
	}

	s.Cancel()
	return true
}

func (p *Prober) finish(s *Session, state domain.ProbeState) {
	p.mu.Lock()
	if p.current == s {
		p.state = state
	}
	p.mu.Unlock()
}

func (p *Prober) publish(event any) {
	if p.bus != nil {
		p.bus.Publish(event)
	}
}

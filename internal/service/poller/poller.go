package poller

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/andres10976/homework-bot/internal/failure"
	"github.com/andres10976/homework-bot/internal/model"
	"github.com/andres10976/homework-bot/internal/service/statusapi"
	"github.com/andres10976/homework-bot/internal/service/verdict"
)

// DefaultInterval is the pause between the end of one cycle and the start of the next.
const DefaultInterval = 600 * time.Second

type statusClient interface {
	Fetch(ctx context.Context, cursor int64) (any, error)
}

type notifier interface {
	Notify(ctx context.Context, text string) error
}

// Recorder receives cycle metrics. *metrics.Metrics implements it.
type Recorder interface {
	ObserveCycle(d time.Duration, err error)
	NotificationSent(typ string)
	NotificationSuppressed()
	SetCursor(cursor int64)
}

type Options struct {
	Interval time.Duration

	// NotifyAll sends one message per submission in the response instead of
	// only the first (most recent) one.
	NotifyAll bool

	Logger   *zap.Logger
	Recorder Recorder
}

// Poller owns the cursor and the last reported error, and runs the
// fetch, validate, format and notify sequence once per cycle.
type Poller struct {
	client    statusClient
	notifier  notifier
	interval  time.Duration
	notifyAll bool
	logger    *zap.Logger
	recorder  Recorder
	now       func() time.Time

	mu            sync.Mutex
	cursor        int64
	lastError     string
	lastCycleAt   time.Time
	lastSuccessAt time.Time
	cycles        int64
	failures      int64
}

func New(client statusClient, n notifier, opts Options) *Poller {
	p := &Poller{
		client:    client,
		notifier:  n,
		interval:  opts.Interval,
		notifyAll: opts.NotifyAll,
		logger:    opts.Logger,
		recorder:  opts.Recorder,
		now:       time.Now,
	}
	if p.interval <= 0 {
		p.interval = DefaultInterval
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.recorder == nil {
		p.recorder = nopRecorder{}
	}
	p.cursor = p.now().Unix()
	return p
}

// Run executes cycles until ctx is canceled, sleeping the configured
// interval after each one regardless of its outcome.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started",
		zap.Duration("interval", p.interval),
		zap.Int64("cursor", p.Cursor()),
		zap.Bool("notify_all", p.notifyAll),
	)

	for {
		p.cycle(ctx)

		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			p.logger.Info("poller stopped", zap.Int64("cursor", p.Cursor()))
			return nil
		case <-timer.C:
		}
	}
}

// RunOnce executes a single cycle without sleeping and returns its
// classified error, or nil on success.
func (p *Poller) RunOnce(ctx context.Context) error {
	return p.cycle(ctx)
}

// Cursor returns the lower bound of the next status query.
func (p *Poller) Cursor() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// Snapshot returns a copy of the loop state.
func (p *Poller) Snapshot() model.PollerState {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := model.PollerState{
		Cursor:    p.cursor,
		LastError: p.lastError,
		Cycles:    p.cycles,
		Failures:  p.failures,
		Interval:  p.interval,
	}
	if !p.lastCycleAt.IsZero() {
		t := p.lastCycleAt
		s.LastCycleAt = &t
	}
	if !p.lastSuccessAt.IsZero() {
		t := p.lastSuccessAt
		s.LastSuccessAt = &t
	}
	return s
}

func (p *Poller) cycle(ctx context.Context) error {
	start := p.now()
	cursor := p.Cursor()

	resp, err := p.process(ctx, cursor)
	if err != nil && ctx.Err() != nil {
		p.logger.Info("cycle interrupted by shutdown", zap.Error(err))
		return err
	}
	p.recorder.ObserveCycle(p.now().Sub(start), err)

	if err != nil {
		p.handleFailure(ctx, cursor, err)
		return err
	}

	p.mu.Lock()
	next := p.cursor
	if resp.CurrentDate >= next {
		next = resp.CurrentDate
	}
	p.cursor = next
	p.lastError = ""
	p.lastCycleAt = p.now()
	p.lastSuccessAt = p.lastCycleAt
	p.cycles++
	p.mu.Unlock()

	// The cursor never moves backwards across successful cycles.
	if next != resp.CurrentDate {
		p.logger.Warn("server cursor is behind, keeping current one",
			zap.Int64("current_date", resp.CurrentDate),
			zap.Int64("cursor", next),
		)
	}
	p.recorder.SetCursor(next)
	return nil
}

// process runs steps that can fail. A panic is turned into a
// failure.KindUnknown error so one bad cycle never ends the loop.
func (p *Poller) process(ctx context.Context, cursor int64) (resp *model.StatusResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("poll cycle panicked", zap.Any("panic", r), zap.String("stack", string(debug.Stack())))
			resp, err = nil, failure.Newf(failure.KindUnknown, "panic: %v", r)
		}
	}()

	p.logger.Info("querying status API", zap.Int64("from_date", cursor))
	raw, err := p.client.Fetch(ctx, cursor)
	if err != nil {
		return nil, err
	}

	resp, err = statusapi.Validate(raw)
	if err != nil {
		return nil, err
	}

	homeworks := resp.Homeworks
	if len(homeworks) == 0 {
		p.logger.Debug("no review status changes", zap.Int64("current_date", resp.CurrentDate))
		return resp, nil
	}
	if !p.notifyAll {
		homeworks = homeworks[:1]
	}

	for _, hw := range homeworks {
		text, err := verdict.Format(hw)
		if err != nil {
			return nil, err
		}
		if err := p.notifier.Notify(ctx, text); err != nil {
			return nil, err
		}
		p.recorder.NotificationSent("status")
		p.logger.Info("review status change reported",
			zap.String("homework", hw.Name),
			zap.String("status", string(hw.Status)),
		)
	}
	return resp, nil
}

func (p *Poller) handleFailure(ctx context.Context, cursor int64, err error) {
	kind := failure.KindOf(err)
	msg := failure.Describe(err)

	p.logger.Error("poll cycle failed",
		zap.String("kind", kind.String()),
		zap.Int64("cursor", cursor),
		zap.Error(err),
	)

	p.mu.Lock()
	duplicate := msg == p.lastError
	p.mu.Unlock()

	switch {
	case kind == failure.KindNotification:
		p.logger.Warn("messaging failure not forwarded to chat")
	case duplicate:
		p.logger.Info("duplicate error notification suppressed", zap.String("message", msg))
		p.recorder.NotificationSuppressed()
	default:
		if nerr := p.notifier.Notify(ctx, msg); nerr != nil {
			p.logger.Error("failed to report error to chat",
				zap.String("message", msg),
				zap.Error(nerr),
			)
		} else {
			p.recorder.NotificationSent("error")
		}
	}

	now := p.now()
	p.mu.Lock()
	p.cursor = now.Unix()
	p.lastError = msg
	p.lastCycleAt = now
	p.cycles++
	p.failures++
	p.mu.Unlock()

	p.recorder.SetCursor(now.Unix())
}

type nopRecorder struct{}

func (nopRecorder) ObserveCycle(time.Duration, error) {}
func (nopRecorder) NotificationSent(string)           {}
func (nopRecorder) NotificationSuppressed()           {}
func (nopRecorder) SetCursor(int64)                   {}

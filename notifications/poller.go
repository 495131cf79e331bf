package notifications

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusfind/lostfound/models"
)

var (
	ErrAlreadyRunning = errors.New("notification poller already running")
	ErrNotRunning     = errors.New("notification poller not running")
)

// MessageFeed is the slice of the portal client the poller needs.
type MessageFeed interface {
	Messages(ctx context.Context, userID, chatWith uuid.UUID) ([]models.Message, error)
}

// PollerOptions tunes a Poller.
type PollerOptions struct {
	// Interval between inbox checks. Default 5s.
	Interval time.Duration
	Logger   *zap.Logger
	// OnNew fires once per newly noticed message, on the polling goroutine.
	OnNew func(Notification)
	// Now is swappable for tests.
	Now func() time.Time
}

// Poller is the session-scoped watcher for new inbound messages. Its
// lifetime is tied to an authenticated session: start on login, stop on
// logout. The user it watches is fixed at construction so the start/stop
// semantics stay testable in isolation.
type Poller struct {
	feed     MessageFeed
	userID   uuid.UUID
	center   *Center
	interval time.Duration
	logger   *zap.Logger
	onNew    func(Notification)
	now      func() time.Time

	mu            sync.Mutex
	running       bool
	cancel        context.CancelFunc
	lastCheckedAt time.Time
}

func NewPoller(feed MessageFeed, userID uuid.UUID, center *Center, opts PollerOptions) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Poller{
		feed:     feed,
		userID:   userID,
		center:   center,
		interval: opts.Interval,
		logger:   opts.Logger.With(zap.String("userId", userID.String())),
		onNew:    opts.OnNew,
		now:      opts.Now,
	}
}

// Start begins the background loop. Messages older than the start moment are
// never notified; they belong to a previous session.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrAlreadyRunning
	}

	if ctx == nil {
		ctx = context.Background()
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true
	p.lastCheckedAt = p.now()

	go p.run(loopCtx)
	p.logger.Debug("notification poller started")

	return nil
}

// Stop cancels the loop. Call on logout or session teardown.
func (p *Poller) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return ErrNotRunning
	}

	p.cancel()
	p.running = false
	p.logger.Debug("notification poller stopped")
	return nil
}

// IsRunning reports the poller state.
func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll performs one inbox check: fetch everything for the user, elevate the
// unseen unread inbound messages, then advance the checked-at watermark. A
// failed fetch leaves the watermark alone so the same window is retried on
// the next tick; a notification may fire late but never not at all.
func (p *Poller) Poll(ctx context.Context) {
	p.mu.Lock()
	since := p.lastCheckedAt
	p.mu.Unlock()

	msgs, err := p.feed.Messages(ctx, p.userID, uuid.Nil)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("inbox poll failed", zap.Error(err))
		}
		return
	}

	now := p.now()
	for _, msg := range msgs {
		if msg.RecipientID != p.userID || msg.Read || !msg.Timestamp.After(since) {
			continue
		}
		n := Notification{Message: msg, ReceivedAt: now}
		if p.center.Add(n) && p.onNew != nil {
			p.onNew(n)
		}
	}

	p.mu.Lock()
	p.lastCheckedAt = now
	p.mu.Unlock()
}

// SetLastCheckedAt rewinds or advances the watermark. Exposed for tests and
// for hosts that persist the watermark across reconnects.
func (p *Poller) SetLastCheckedAt(t time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastCheckedAt = t
}

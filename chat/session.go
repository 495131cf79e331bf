// Package chat keeps a live two-party thread while a chat view is open. The
// design is poll-based: the session re-fetches the whole thread at a fixed
// interval and after every send, so the rendered view always converges on
// the store's source of truth instead of patching messages in locally.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusfind/lostfound/client"
	"github.com/campusfind/lostfound/models"
)

var (
	ErrSessionOpen   = errors.New("chat session already open")
	ErrSessionClosed = errors.New("chat session not open")
	ErrEmptyMessage  = errors.New("message is empty")
	ErrSendInFlight  = errors.New("a send is already in flight")
)

// MessageAPI is the slice of the portal client a session needs.
type MessageAPI interface {
	Messages(ctx context.Context, userID, chatWith uuid.UUID) ([]models.Message, error)
	SendMessage(ctx context.Context, in client.SendMessageInput) (models.Message, error)
}

// Options tunes a Session. Zero values get sensible defaults.
type Options struct {
	// PollInterval is how often the open thread is re-fetched. Default 3s.
	PollInterval time.Duration
	// RefetchDelay is the pause between a successful send and the follow-up
	// fetch that makes the new message visible. Default 300ms.
	RefetchDelay time.Duration
	// Subject is stamped on outgoing messages, typically the item listing
	// the conversation is about.
	Subject string
	Logger  *zap.Logger
	// OnThread receives every thread snapshot. It runs on the session's
	// polling goroutine and must not call back into the session.
	OnThread func([]models.Message)
}

// Session is the stateful unit behind one open chat view.
type Session struct {
	api     MessageAPI
	self    models.User
	partner models.User

	pollInterval time.Duration
	refetchDelay time.Duration
	subject      string
	logger       *zap.Logger
	onThread     func([]models.Message)

	mu      sync.Mutex
	open    bool
	gen     int
	ctx     context.Context
	cancel  context.CancelFunc
	sending bool
}

func NewSession(api MessageAPI, self, partner models.User, opts Options) *Session {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Second
	}
	if opts.RefetchDelay <= 0 {
		opts.RefetchDelay = 300 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Session{
		api:          api,
		self:         self,
		partner:      partner,
		pollInterval: opts.PollInterval,
		refetchDelay: opts.RefetchDelay,
		subject:      opts.Subject,
		logger: opts.Logger.With(
			zap.String("userId", self.ID.String()),
			zap.String("partnerId", partner.ID.String()),
		),
		onThread: opts.OnThread,
	}
}

// Open starts the session: one immediate fetch, then fixed-interval polling
// until Close.
func (s *Session) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return ErrSessionOpen
	}

	s.open = true
	s.gen++
	s.ctx, s.cancel = context.WithCancel(context.Background())

	go s.run(s.ctx, s.gen)
	s.logger.Debug("chat session opened")

	return nil
}

// Close stops polling. After Close returns no further snapshot is delivered,
// even for a fetch that was already in flight.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return ErrSessionClosed
	}

	s.open = false
	s.cancel()
	s.logger.Debug("chat session closed")

	return nil
}

// IsOpen reports the session state.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Send posts text to the partner. Empty input and overlapping sends are
// rejected. On success the thread is re-fetched after a short delay instead
// of appending the message locally.
func (s *Session) Send(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.sending {
		s.mu.Unlock()
		return ErrSendInFlight
	}
	s.sending = true
	sessionCtx, gen := s.ctx, s.gen
	s.mu.Unlock()

	_, err := s.api.SendMessage(ctx, client.SendMessageInput{
		SenderID:       s.self.ID,
		SenderName:     s.self.FullName,
		SenderEmail:    s.self.Email,
		RecipientID:    s.partner.ID,
		RecipientName:  s.partner.FullName,
		RecipientEmail: s.partner.Email,
		Subject:        s.subject,
		Content:        trimmed,
	})

	s.mu.Lock()
	s.sending = false
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("send failed", zap.Error(err))
		return err
	}

	time.AfterFunc(s.refetchDelay, func() {
		s.fetch(sessionCtx, gen)
	})

	return nil
}

func (s *Session) run(ctx context.Context, gen int) {
	s.fetch(ctx, gen)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fetch(ctx, gen)
		}
	}
}

// fetch pulls the full thread snapshot and hands it to OnThread, unless the
// session was closed or reopened while the request was in flight.
func (s *Session) fetch(ctx context.Context, gen int) {
	msgs, err := s.api.Messages(ctx, s.self.ID, s.partner.ID)
	if err != nil {
		if ctx.Err() == nil {
			// Transient: the next tick retries.
			s.logger.Warn("thread fetch failed", zap.Error(err))
		}
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open || gen != s.gen {
		return
	}
	if s.onThread != nil {
		s.onThread(msgs)
	}
}

package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusfind/lostfound/conversations"
)

const (
	defaultPopupTimeout = 8 * time.Second
	defaultMaxVisible   = 5
	previewRunes        = 80
)

// Popup is what the host renders for one notification.
type Popup struct {
	NotificationID uuid.UUID
	SenderID       uuid.UUID
	SenderName     string
	SentLabel      string
	Preview        string
	// Index is the stacking slot at show time; hosts offset popups by it.
	Index int
}

// PopupOptions tunes a PopupManager.
type PopupOptions struct {
	// Timeout before a popup self-dismisses. Default 8s.
	Timeout time.Duration
	// MaxVisible caps simultaneous popups; the rest queue FIFO. Default 5.
	MaxVisible int
	// Lookup resolves sender profiles; on failure the popup shows
	// "Unknown User" rather than failing.
	Lookup conversations.UserLookup
	Logger *zap.Logger
	// OnShow and OnHide drive the host's rendering.
	OnShow func(Popup)
	OnHide func(uuid.UUID)
	// OnOpenChat is the click-through signal: the host should open a chat
	// session with this partner.
	OnOpenChat func(partnerID uuid.UUID)
	Now        func() time.Time
}

type visiblePopup struct {
	notification Notification
	popup        Popup
	timer        *time.Timer
}

// PopupManager renders and dismisses the transient popups derived from the
// notification center, deduplicating against ones already on screen.
type PopupManager struct {
	center     *Center
	timeout    time.Duration
	maxVisible int
	lookup     conversations.UserLookup
	logger     *zap.Logger
	onShow     func(Popup)
	onHide     func(uuid.UUID)
	onOpenChat func(uuid.UUID)
	now        func() time.Time

	mu      sync.Mutex
	visible map[uuid.UUID]*visiblePopup
	queue   []Notification
}

func NewPopupManager(center *Center, opts PopupOptions) *PopupManager {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultPopupTimeout
	}
	if opts.MaxVisible <= 0 {
		opts.MaxVisible = defaultMaxVisible
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &PopupManager{
		center:     center,
		timeout:    opts.Timeout,
		maxVisible: opts.MaxVisible,
		lookup:     opts.Lookup,
		logger:     opts.Logger,
		onShow:     opts.OnShow,
		onHide:     opts.OnHide,
		onOpenChat: opts.OnOpenChat,
		now:        opts.Now,
	}
}

// Notify surfaces a notification: shown immediately when a slot is free,
// queued otherwise. Already-visible ids are ignored.
func (m *PopupManager) Notify(ctx context.Context, n Notification) {
	popup := m.buildPopup(ctx, n)

	m.mu.Lock()
	if m.visible == nil {
		m.visible = make(map[uuid.UUID]*visiblePopup)
	}
	id := n.Message.ID
	if _, dup := m.visible[id]; dup {
		m.mu.Unlock()
		return
	}
	if len(m.visible) >= m.maxVisible {
		m.queue = append(m.queue, n)
		m.mu.Unlock()
		return
	}
	popup.Index = len(m.visible)
	vp := &visiblePopup{notification: n, popup: popup}
	vp.timer = time.AfterFunc(m.timeout, func() { m.expire(id) })
	m.visible[id] = vp
	show := m.onShow
	m.mu.Unlock()

	if show != nil {
		show(popup)
	}
}

// Dismiss removes a popup for good: it leaves the screen and the underlying
// notification set, so a later poll cannot bring it back.
func (m *PopupManager) Dismiss(id uuid.UUID) {
	m.remove(id, nil)
}

// OpenChat is click-through: dismiss the popup and tell the host to open a
// chat with the sender.
func (m *PopupManager) OpenChat(id uuid.UUID) {
	m.remove(id, m.onOpenChat)
}

// VisibleCount reports how many popups are on screen.
func (m *PopupManager) VisibleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.visible)
}

// QueuedCount reports how many notifications wait for a slot.
func (m *PopupManager) QueuedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func (m *PopupManager) remove(id uuid.UUID, openChat func(uuid.UUID)) {
	m.mu.Lock()
	vp, onScreen := m.visible[id]
	var senderID uuid.UUID
	if onScreen {
		vp.timer.Stop()
		delete(m.visible, id)
		senderID = vp.notification.Message.SenderID
	} else {
		// It may still be waiting in the queue.
		for i, queued := range m.queue {
			if queued.Message.ID == id {
				senderID = queued.Message.SenderID
				m.queue = append(m.queue[:i], m.queue[i+1:]...)
				onScreen = false
				break
			}
		}
	}
	next, hasNext := m.popQueueLocked()
	hide := m.onHide
	m.mu.Unlock()

	m.center.Remove(id)

	if onScreen && hide != nil {
		hide(id)
	}
	if openChat != nil && senderID != uuid.Nil {
		openChat(senderID)
	}
	if hasNext {
		m.Notify(context.Background(), next)
	}
}

// expire is the auto-dismiss path: the popup leaves the screen but the
// notification stays in the center for the host's notification list.
func (m *PopupManager) expire(id uuid.UUID) {
	m.mu.Lock()
	_, ok := m.visible[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.visible, id)
	next, hasNext := m.popQueueLocked()
	hide := m.onHide
	m.mu.Unlock()

	if hide != nil {
		hide(id)
	}
	if hasNext {
		m.Notify(context.Background(), next)
	}
}

func (m *PopupManager) popQueueLocked() (Notification, bool) {
	if len(m.queue) == 0 || len(m.visible) >= m.maxVisible {
		return Notification{}, false
	}
	next := m.queue[0]
	m.queue = m.queue[1:]
	return next, true
}

func (m *PopupManager) buildPopup(ctx context.Context, n Notification) Popup {
	senderName := "Unknown User"
	if m.lookup != nil {
		if user, err := m.lookup(ctx, n.Message.SenderID); err == nil && user.FullName != "" {
			senderName = user.FullName
		} else if err != nil {
			m.logger.Debug("sender lookup failed",
				zap.String("senderId", n.Message.SenderID.String()), zap.Error(err))
		}
	}

	return Popup{
		NotificationID: n.Message.ID,
		SenderID:       n.Message.SenderID,
		SenderName:     senderName,
		SentLabel:      relativeTime(n.Message.Timestamp, m.now()),
		Preview:        truncatePreview(n.Message.Content, previewRunes),
	}
}

func relativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("Jan 2")
	}
}

func truncatePreview(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// Package notifications watches a user's inbox for new messages while their
// session is active and drives the transient popups shown for them. Nothing
// here is persisted: the whole notification set lives and dies with the
// session.
package notifications

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusfind/lostfound/models"
)

// Notification is a message elevated to the notification layer.
type Notification struct {
	Message    models.Message
	ReceivedAt time.Time
}

// Center is the session-scoped notification set, keyed by message id. The
// poller adds, the popup manager removes; the id-keyed insert is the only
// synchronization the two need.
type Center struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]Notification
	seen  map[uuid.UUID]struct{}
	order []uuid.UUID
}

func NewCenter() *Center {
	return &Center{
		byID: make(map[uuid.UUID]Notification),
		seen: make(map[uuid.UUID]struct{}),
	}
}

// Add inserts a notification unless one for the same message id already
// exists or existed and was consumed this session. Returns whether it was
// inserted.
func (c *Center) Add(n Notification) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := n.Message.ID
	if _, dup := c.seen[id]; dup {
		return false
	}
	c.seen[id] = struct{}{}
	c.byID[id] = n
	c.order = append(c.order, id)
	return true
}

// Remove drops a notification by message id. The id stays in the seen set so
// a later re-poll cannot resurrect it.
func (c *Center) Remove(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byID[id]; !ok {
		return false
	}
	delete(c.byID, id)
	return true
}

// Contains reports whether the id was ever added this session, consumed or
// not.
func (c *Center) Contains(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.seen[id]
	return ok
}

// Items returns the live notifications in arrival order.
func (c *Center) Items() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notification, 0, len(c.byID))
	for _, id := range c.order {
		if n, ok := c.byID[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Len counts the live notifications.
func (c *Center) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byID)
}

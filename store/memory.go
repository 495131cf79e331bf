package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusfind/lostfound/models"
)

var _ MessageStore = (*MemoryStore)(nil)

// MemoryStore keeps everything in process memory. It backs handler tests and
// local development without a database.
type MemoryStore struct {
	mu       sync.Mutex
	messages map[uuid.UUID]models.Message
	order    []uuid.UUID
	users    map[uuid.UUID]models.User

	// Now is swappable so tests can pin timestamps.
	Now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		messages: make(map[uuid.UUID]models.Message),
		users:    make(map[uuid.UUID]models.User),
		Now:      time.Now,
	}
}

// AddUser registers a profile for User lookups.
func (s *MemoryStore) AddUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *MemoryStore) Send(_ context.Context, in SendInput) (models.Message, error) {
	if err := validateSend(in); err != nil {
		return models.Message{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now().UTC()
	deliveredAt := now
	msg := models.Message{
		ID:             uuid.New(),
		SenderID:       in.SenderID,
		SenderName:     in.SenderName,
		SenderEmail:    in.SenderEmail,
		RecipientID:    in.RecipientID,
		RecipientName:  in.RecipientName,
		RecipientEmail: in.RecipientEmail,
		Subject:        in.Subject,
		Content:        in.Content,
		Read:           false,
		Status:         models.StatusDelivered,
		Timestamp:      now,
		DeliveredAt:    &deliveredAt,
	}
	s.messages[msg.ID] = msg
	s.order = append(s.order, msg.ID)

	return msg, nil
}

func (s *MemoryStore) Messages(_ context.Context, userID, chatWith uuid.UUID) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Message
	for _, id := range s.order {
		msg := s.messages[id]
		if chatWith != uuid.Nil {
			twoParty := (msg.SenderID == userID && msg.RecipientID == chatWith) ||
				(msg.SenderID == chatWith && msg.RecipientID == userID)
			if twoParty {
				out = append(out, msg)
			}
			continue
		}
		if msg.SenderID == userID || msg.RecipientID == userID {
			out = append(out, msg)
		}
	}

	if chatWith != uuid.Nil {
		sortByTimestamp(out)
	}
	return out, nil
}

func (s *MemoryStore) MarkRead(_ context.Context, userID, chatWith uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now().UTC()
	var updated int64
	for id, msg := range s.messages {
		if msg.SenderID == chatWith && msg.RecipientID == userID && !msg.Read {
			seenAt := now
			msg.Read = true
			msg.Status = models.StatusSeen
			msg.SeenAt = &seenAt
			s.messages[id] = msg
			updated++
		}
	}
	return updated, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id uuid.UUID, status string) (models.Message, error) {
	if !models.ValidStatus(status) {
		return models.Message{}, ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[id]
	if !ok {
		return models.Message{}, ErrMessageNotFound
	}
	if !models.CanTransition(msg.Status, status) {
		return models.Message{}, ErrInvalidStatus
	}

	now := s.Now().UTC()
	msg.Status = status
	switch status {
	case models.StatusDelivered:
		if msg.DeliveredAt == nil {
			deliveredAt := now
			msg.DeliveredAt = &deliveredAt
		}
	case models.StatusSeen:
		msg.Read = true
		if msg.SeenAt == nil {
			seenAt := now
			msg.SeenAt = &seenAt
		}
	}
	s.messages[id] = msg

	return msg, nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[id]; !ok {
		return ErrMessageNotFound
	}
	delete(s.messages, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) SweepUndelivered(_ context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now().UTC()
	cutoff := now.Add(-olderThan)
	var updated int64
	for id, msg := range s.messages {
		if msg.Status == models.StatusSent && msg.Timestamp.Before(cutoff) {
			deliveredAt := now
			msg.Status = models.StatusDelivered
			msg.DeliveredAt = &deliveredAt
			s.messages[id] = msg
			updated++
		}
	}
	return updated, nil
}

func (s *MemoryStore) User(_ context.Context, id uuid.UUID) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return user, nil
}

func sortByTimestamp(msgs []models.Message) {
	// Insertion sort keeps equal timestamps in arrival order.
	for i := 1; i < len(msgs); i++ {
		for j := i; j > 0 && msgs[j].Timestamp.Before(msgs[j-1].Timestamp); j-- {
			msgs[j], msgs[j-1] = msgs[j-1], msgs[j]
		}
	}
}

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusfind/lostfound/models"
)

var _ MessageStore = (*GormStore)(nil)

// GormStore is the PostgreSQL-backed message store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Send(ctx context.Context, in SendInput) (models.Message, error) {
	if err := validateSend(in); err != nil {
		return models.Message{}, err
	}

	now := time.Now().UTC()
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
		Status:         models.StatusSent,
		Timestamp:      now,
	}

	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return models.Message{}, err
	}

	// Delivery is treated as instantaneous: there is no connection to the
	// recipient to track actual receipt, so every stored message advances
	// straight to delivered. The sweep job repairs rows left behind if the
	// process dies between these two statements.
	deliveredAt := time.Now().UTC()
	err := s.db.WithContext(ctx).Model(&msg).Updates(map[string]interface{}{
		"status":       models.StatusDelivered,
		"delivered_at": deliveredAt,
	}).Error
	if err != nil {
		return models.Message{}, err
	}
	msg.Status = models.StatusDelivered
	msg.DeliveredAt = &deliveredAt

	return msg, nil
}

func (s *GormStore) Messages(ctx context.Context, userID, chatWith uuid.UUID) ([]models.Message, error) {
	var messages []models.Message

	q := s.db.WithContext(ctx)
	if chatWith != uuid.Nil {
		q = q.
			Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
				userID, chatWith, chatWith, userID).
			Order("created_at asc")
	} else {
		q = q.Where("sender_id = ? OR recipient_id = ?", userID, userID)
	}

	if err := q.Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *GormStore) MarkRead(ctx context.Context, userID, chatWith uuid.UUID) (int64, error) {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("sender_id = ? AND recipient_id = ? AND read = ?", chatWith, userID, false).
		Updates(map[string]interface{}{
			"read":    true,
			"status":  models.StatusSeen,
			"seen_at": now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (s *GormStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (models.Message, error) {
	if !models.ValidStatus(status) {
		return models.Message{}, ErrInvalidStatus
	}

	var msg models.Message
	err := s.db.WithContext(ctx).First(&msg, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		return models.Message{}, err
	}

	if !models.CanTransition(msg.Status, status) {
		return models.Message{}, ErrInvalidStatus
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{"status": status}
	switch status {
	case models.StatusDelivered:
		if msg.DeliveredAt == nil {
			updates["delivered_at"] = now
			msg.DeliveredAt = &now
		}
	case models.StatusSeen:
		updates["read"] = true
		msg.Read = true
		if msg.SeenAt == nil {
			updates["seen_at"] = now
			msg.SeenAt = &now
		}
	}

	if err := s.db.WithContext(ctx).Model(&msg).Updates(updates).Error; err != nil {
		return models.Message{}, err
	}
	msg.Status = status

	return msg, nil
}

func (s *GormStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.Message{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (s *GormStore) SweepUndelivered(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res := s.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("status = ? AND created_at < ?", models.StatusSent, cutoff).
		Updates(map[string]interface{}{
			"status":       models.StatusDelivered,
			"delivered_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (s *GormStore) User(ctx context.Context, id uuid.UUID) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

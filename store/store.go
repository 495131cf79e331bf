package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campusfind/lostfound/models"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidStatus   = errors.New("invalid message status")
)

// ValidationError rejects a send before anything touches the database.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SendInput carries everything needed to create a message. Sender and
// recipient display fields are denormalized onto the row at send time.
type SendInput struct {
	SenderID       uuid.UUID
	SenderName     string
	SenderEmail    string
	RecipientID    uuid.UUID
	RecipientName  string
	RecipientEmail string
	Subject        string
	Content        string
}

// MessageStore is the persistence contract behind the messaging endpoints.
type MessageStore interface {
	// Send validates and persists a message. The stored message is created
	// as sent and immediately advanced to delivered, since there is no
	// persistent connection to observe actual client receipt.
	Send(ctx context.Context, in SendInput) (models.Message, error)

	// Messages returns the two-party thread between userID and chatWith in
	// chronological order, or, when chatWith is uuid.Nil, every message
	// where userID is sender or recipient with no ordering promise.
	Messages(ctx context.Context, userID, chatWith uuid.UUID) ([]models.Message, error)

	// MarkRead flips every unread chatWith→userID message to read/seen and
	// returns how many rows changed. Zero matches is not an error.
	MarkRead(ctx context.Context, userID, chatWith uuid.UUID) (int64, error)

	// UpdateStatus advances one message's delivery state. Backward
	// transitions and unknown states fail with ErrInvalidStatus.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (models.Message, error)

	// Delete removes a message outright. Moderation hook for admins.
	Delete(ctx context.Context, id uuid.UUID) error

	// SweepUndelivered promotes messages stuck in sent for longer than
	// olderThan to delivered and returns how many were touched.
	SweepUndelivered(ctx context.Context, olderThan time.Duration) (int64, error)

	// User looks up a profile for display resolution.
	User(ctx context.Context, id uuid.UUID) (models.User, error)
}

func validateSend(in SendInput) error {
	if in.RecipientID == uuid.Nil {
		return &ValidationError{Field: "recipientId", Reason: "recipient is required"}
	}
	if in.SenderID == uuid.Nil {
		return &ValidationError{Field: "senderId", Reason: "sender is required"}
	}
	if strings.TrimSpace(in.Content) == "" {
		return &ValidationError{Field: "content", Reason: "content must not be empty"}
	}
	return nil
}

// Package conversations derives per-partner conversation summaries from a
// flat message list. Summaries are recomputed on demand and never persisted,
// so they cannot drift from the store.
package conversations

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/campusfind/lostfound/models"
)

// UserLookup resolves a partner's current profile.
type UserLookup func(ctx context.Context, id uuid.UUID) (models.User, error)

// Conversation summarizes one thread from the viewer's perspective.
type Conversation struct {
	PartnerID        uuid.UUID       `json:"partnerId"`
	PartnerName      string          `json:"partnerName"`
	PartnerEmail     string          `json:"partnerEmail"`
	PartnerAvatarURL *string         `json:"partnerAvatarUrl,omitempty"`
	LastMessage      models.Message  `json:"lastMessage"`
	UnreadCount      int             `json:"unreadCount"`
}

// Build partitions the viewer's messages by the other party, picks the most
// recent message and inbound unread count per partition, resolves partner
// profiles, and sorts by recency. A failed profile lookup falls back to the
// display fields captured on the latest message; a conversation is never
// dropped.
func Build(ctx context.Context, viewerID uuid.UUID, msgs []models.Message, lookup UserLookup) []Conversation {
	partitions := make(map[uuid.UUID][]models.Message)
	var partnerOrder []uuid.UUID

	for _, msg := range msgs {
		partner := msg.RecipientID
		if msg.RecipientID == viewerID {
			partner = msg.SenderID
		} else if msg.SenderID != viewerID {
			// Not the viewer's message at all.
			continue
		}
		if _, seen := partitions[partner]; !seen {
			partnerOrder = append(partnerOrder, partner)
		}
		partitions[partner] = append(partitions[partner], msg)
	}

	out := make([]Conversation, 0, len(partitions))
	for _, partner := range partnerOrder {
		thread := partitions[partner]

		last := thread[0]
		unread := 0
		for _, msg := range thread {
			if msg.Timestamp.After(last.Timestamp) {
				last = msg
			}
			if msg.RecipientID == viewerID && !msg.Read {
				unread++
			}
		}

		conv := Conversation{
			PartnerID:   partner,
			LastMessage: last,
			UnreadCount: unread,
		}

		resolved := false
		if lookup != nil {
			if user, err := lookup(ctx, partner); err == nil {
				conv.PartnerName = user.FullName
				conv.PartnerEmail = user.Email
				conv.PartnerAvatarURL = user.AvatarURL
				resolved = true
			}
		}
		if !resolved {
			if last.SenderID == partner {
				conv.PartnerName = last.SenderName
				conv.PartnerEmail = last.SenderEmail
			} else {
				conv.PartnerName = last.RecipientName
				conv.PartnerEmail = last.RecipientEmail
			}
		}

		out = append(out, conv)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessage.Timestamp.After(out[j].LastMessage.Timestamp)
	})

	return out
}

package conversations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusfind/lostfound/models"
)

func msgAt(sender, recipient uuid.UUID, ts time.Time, read bool) models.Message {
	return models.Message{
		ID:             uuid.New(),
		SenderID:       sender,
		SenderName:     "Sender Name",
		SenderEmail:    "sender@campus.edu",
		RecipientID:    recipient,
		RecipientName:  "Recipient Name",
		RecipientEmail: "recipient@campus.edu",
		Content:        "hi",
		Read:           read,
		Status:         models.StatusDelivered,
		Timestamp:      ts,
	}
}

func TestBuildSinglePartnerSummary(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	base := time.Now()

	// (A→B, t=1), (B→A, t=3, unread), (A→B, t=2), viewed by B.
	msgs := []models.Message{
		msgAt(a, b, base.Add(1*time.Second), true),
		msgAt(b, a, base.Add(3*time.Second), false),
		msgAt(a, b, base.Add(2*time.Second), true),
	}

	convs := Build(context.Background(), b, msgs, nil)
	require.Len(t, convs, 1)
	assert.Equal(t, a, convs[0].PartnerID)
	assert.True(t, convs[0].LastMessage.Timestamp.Equal(base.Add(3*time.Second)))
	// The unread message is B→A, so for viewer B nothing is inbound unread...
	assert.Equal(t, 0, convs[0].UnreadCount)

	// ...while viewer A sees exactly one unread from B.
	convs = Build(context.Background(), a, msgs, nil)
	require.Len(t, convs, 1)
	assert.Equal(t, b, convs[0].PartnerID)
	assert.Equal(t, 1, convs[0].UnreadCount)
	assert.True(t, convs[0].LastMessage.Timestamp.Equal(base.Add(3*time.Second)))
}

func TestBuildSortsByRecency(t *testing.T) {
	viewer, stale, fresh := uuid.New(), uuid.New(), uuid.New()
	base := time.Now()

	msgs := []models.Message{
		msgAt(stale, viewer, base.Add(-time.Hour), true),
		msgAt(fresh, viewer, base, false),
	}

	convs := Build(context.Background(), viewer, msgs, nil)
	require.Len(t, convs, 2)
	assert.Equal(t, fresh, convs[0].PartnerID)
	assert.Equal(t, stale, convs[1].PartnerID)
	assert.Equal(t, 1, convs[0].UnreadCount)
}

func TestBuildResolvesProfiles(t *testing.T) {
	viewer, partner := uuid.New(), uuid.New()
	avatar := "https://cdn.campus.edu/a.png"

	lookup := func(_ context.Context, id uuid.UUID) (models.User, error) {
		require.Equal(t, partner, id)
		return models.User{ID: id, FullName: "Current Name", Email: "current@campus.edu", AvatarURL: &avatar}, nil
	}

	convs := Build(context.Background(), viewer, []models.Message{
		msgAt(partner, viewer, time.Now(), false),
	}, lookup)

	require.Len(t, convs, 1)
	assert.Equal(t, "Current Name", convs[0].PartnerName)
	assert.Equal(t, "current@campus.edu", convs[0].PartnerEmail)
	require.NotNil(t, convs[0].PartnerAvatarURL)
	assert.Equal(t, avatar, *convs[0].PartnerAvatarURL)
}

func TestBuildFallsBackToDenormalizedFields(t *testing.T) {
	viewer, partner := uuid.New(), uuid.New()

	lookup := func(_ context.Context, _ uuid.UUID) (models.User, error) {
		return models.User{}, errors.New("lookup down")
	}

	msg := msgAt(partner, viewer, time.Now(), false)
	msg.SenderName = "Archived Partner"
	msg.SenderEmail = "archived@campus.edu"

	convs := Build(context.Background(), viewer, []models.Message{msg}, lookup)
	require.Len(t, convs, 1, "a failed lookup must not drop the conversation")
	assert.Equal(t, "Archived Partner", convs[0].PartnerName)
	assert.Equal(t, "archived@campus.edu", convs[0].PartnerEmail)
}

func TestBuildFallbackUsesMostRecentMessage(t *testing.T) {
	viewer, partner := uuid.New(), uuid.New()
	base := time.Now()

	older := msgAt(partner, viewer, base.Add(-time.Minute), true)
	older.SenderName = "Old Name"
	// Most recent message in the partition is viewer→partner, so the fallback
	// reads the recipient-side fields.
	newer := msgAt(viewer, partner, base, true)
	newer.RecipientName = "New Name"
	newer.RecipientEmail = "new@campus.edu"

	convs := Build(context.Background(), viewer, []models.Message{older, newer}, nil)
	require.Len(t, convs, 1)
	assert.Equal(t, "New Name", convs[0].PartnerName)
	assert.Equal(t, "new@campus.edu", convs[0].PartnerEmail)
}

func TestBuildIgnoresForeignMessages(t *testing.T) {
	viewer, x, y := uuid.New(), uuid.New(), uuid.New()

	convs := Build(context.Background(), viewer, []models.Message{
		msgAt(x, y, time.Now(), false),
	}, nil)
	assert.Empty(t, convs)
}

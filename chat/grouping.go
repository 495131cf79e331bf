package chat

import (
	"time"

	"github.com/campusfind/lostfound/models"
)

// runGap is the largest silence between two messages from the same sender
// that still renders as one run.
const runGap = 5 * time.Minute

// ThreadEntry is a message plus its rendering hints.
type ThreadEntry struct {
	Message       models.Message
	ShowAvatar    bool
	ShowTimestamp bool
}

// GroupThread annotates a chronological thread for display. The avatar shows
// on the first message of each same-sender run; a timestamp shows under a
// message when it ends its run, the next message comes from someone else, or
// the next message from the same sender arrives more than runGap later.
func GroupThread(msgs []models.Message) []ThreadEntry {
	entries := make([]ThreadEntry, len(msgs))

	for i, msg := range msgs {
		entry := ThreadEntry{Message: msg}

		entry.ShowAvatar = i == 0 || msgs[i-1].SenderID != msg.SenderID

		if i == len(msgs)-1 {
			entry.ShowTimestamp = true
		} else {
			next := msgs[i+1]
			entry.ShowTimestamp = next.SenderID != msg.SenderID ||
				next.Timestamp.Sub(msg.Timestamp) > runGap
		}

		entries[i] = entry
	}

	return entries
}

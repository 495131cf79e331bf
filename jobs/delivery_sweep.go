package jobs

import (
	"context"
	"log"
	"time"

	"github.com/campusfind/lostfound/store"
)

// Messages are marked delivered immediately after persistence; a crash
// between the insert and the status update leaves rows stuck in "sent".
const deliveryGrace = time.Minute

// SweepUndelivered returns a cron closure that repairs messages stuck in
// the "sent" status for longer than the grace period.
func SweepUndelivered(s store.MessageStore) func() {
	return func() {
		log.Println("Running job: SweepUndelivered...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		n, err := s.SweepUndelivered(ctx, deliveryGrace)
		if err != nil {
			log.Printf("Error sweeping undelivered messages: %v", err)
			return
		}
		if n > 0 {
			log.Printf("Marked %d stuck messages as delivered", n)
		}
	}
}

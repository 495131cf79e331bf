package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/campusfind/lostfound/client"
	config "github.com/campusfind/lostfound/configs"
	"github.com/campusfind/lostfound/notifications"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// notifier runs the desktop-style notification loop for a single logged-in
// user: it polls the portal inbox, keeps the notification center, and prints
// popups to the terminal until interrupted.
func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("🔥 Failed to build logger: %v", err)
	}
	defer logger.Sync()

	userID, err := uuid.Parse(config.Config("NOTIFIER_USER_ID"))
	if err != nil {
		log.Fatalf("🔥 NOTIFIER_USER_ID must be a valid UUID: %v", err)
	}

	api := client.New(client.Options{
		BaseURL: config.ConfigDefault("PORTAL_API_URL", "http://localhost:8080"),
		Token:   config.Config("PORTAL_API_TOKEN"),
	})

	center := notifications.NewCenter()

	popups := notifications.NewPopupManager(center, notifications.PopupOptions{
		Lookup: api.User,
		Logger: logger,
		OnShow: func(p notifications.Popup) {
			logger.Info("new message",
				zap.String("from", p.SenderName),
				zap.String("sent", p.SentLabel),
				zap.String("preview", p.Preview))
		},
		OnHide: func(id uuid.UUID) {
			logger.Debug("popup hidden", zap.String("notification", id.String()))
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poller := notifications.NewPoller(api, userID, center, notifications.PollerOptions{
		Logger: logger,
		OnNew: func(n notifications.Notification) {
			popups.Notify(ctx, n)
		},
	})

	if err := poller.Start(ctx); err != nil {
		log.Fatalf("🔥 Failed to start notification poller: %v", err)
	}
	logger.Info("notification poller started", zap.String("user", userID.String()))

	<-ctx.Done()

	if err := poller.Stop(); err != nil {
		logger.Warn("poller stop", zap.Error(err))
	}
	logger.Info("notifier stopped", zap.Int("unread", center.Len()))
}

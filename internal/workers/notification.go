package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"ecoroute/internal/models"
	"ecoroute/internal/queue"
	"ecoroute/internal/store"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationWorker persists queued notifications. Live delivery is the
// gateway's job; this worker is the durable half.
type NotificationWorker struct {
	notifications store.NotificationStore
}

func NewNotificationWorker(notifications store.NotificationStore) *NotificationWorker {
	return &NotificationWorker{notifications: notifications}
}

func (w *NotificationWorker) HandleCreate(ctx context.Context, t *asynq.Task) error {
	var p queue.NotificationCreatePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("invalid notification payload: %w: %w", err, asynq.SkipRetry)
	}

	n, err := notificationFromPayload(p)
	if err != nil {
		// A malformed user id will not get better on retry.
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	if err := w.notifications.Create(ctx, n); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"user": p.UserID,
		"type": p.Type,
	}).Info("notification saved")
	return nil
}

func notificationFromPayload(p queue.NotificationCreatePayload) (*models.Notification, error) {
	userID, err := primitive.ObjectIDFromHex(p.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid notification user id %q: %w", p.UserID, err)
	}

	n := models.NewNotification(userID, p.Type, p.Title, p.Message)
	n.Data = p.Data
	if p.Link != "" {
		n.Link = p.Link
	}
	if p.Icon != "" {
		n.Icon = p.Icon
	}
	if p.Color != "" {
		n.Color = p.Color
	}
	if p.Priority != "" {
		n.Priority = p.Priority
	}
	return &n, nil
}

package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"ecoroute/internal/queue"
	"ecoroute/internal/services"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// EmailWorker consumes email jobs. A failed send is retried by the server
// up to the task's budget; the worker only reports the error.
type EmailWorker struct {
	sender *services.EmailSender
}

func NewEmailWorker(sender *services.EmailSender) *EmailWorker {
	return &EmailWorker{sender: sender}
}

func (w *EmailWorker) HandleWelcome(ctx context.Context, t *asynq.Task) error {
	var p queue.EmailWelcomePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("invalid welcome payload: %w: %w", err, asynq.SkipRetry)
	}

	if err := w.sender.SendWelcome(p.To, p.Name); err != nil {
		return err
	}
	logrus.WithField("to", p.To).Info("welcome email sent")
	return nil
}

func (w *EmailWorker) HandleVerification(ctx context.Context, t *asynq.Task) error {
	var p queue.EmailVerificationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("invalid verification payload: %w: %w", err, asynq.SkipRetry)
	}

	if err := w.sender.SendVerificationCode(p.To, p.Name, p.Code); err != nil {
		return err
	}
	logrus.WithField("to", p.To).Info("verification email sent")
	return nil
}

func (w *EmailWorker) HandleCollection(ctx context.Context, t *asynq.Task) error {
	var p queue.EmailCollectionPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("invalid collection payload: %w: %w", err, asynq.SkipRetry)
	}

	if err := w.sender.SendCollection(p.To, p.Name, p.PointName, p.Volume); err != nil {
		return err
	}
	logrus.WithField("to", p.To).Info("collection email sent")
	return nil
}

func (w *EmailWorker) HandleRoute(ctx context.Context, t *asynq.Task) error {
	var p queue.EmailRoutePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("invalid route payload: %w: %w", err, asynq.SkipRetry)
	}

	if err := w.sender.SendRoute(p.To, p.Name, p.RouteName); err != nil {
		return err
	}
	logrus.WithField("to", p.To).Info("route email sent")
	return nil
}

package queue

import (
	"context"
	"fmt"
	"time"

	"ecoroute/internal/models"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// Default retry budgets, mirrored in the server's backoff policy.
const (
	emailMaxRetry        = 3
	notificationMaxRetry = 2
	// notificationDelay spaces out notification writes a little so a chat
	// burst does not hammer the store.
	notificationDelay = time.Second
)

// Client enqueues background jobs. Enqueue never waits for processing.
type Client struct {
	client *asynq.Client
}

func NewClient(opt asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(opt)}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error {
	info, err := c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", task.Type(), err)
	}
	logrus.WithFields(logrus.Fields{
		"task":  task.Type(),
		"id":    info.ID,
		"queue": info.Queue,
	}).Debug("job enqueued")
	return nil
}

func (c *Client) EnqueueWelcomeEmail(ctx context.Context, to, name string) error {
	task, err := newTask(TypeEmailWelcome, EmailWelcomePayload{To: to, Name: name})
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task, asynq.Queue(QueueEmail), asynq.MaxRetry(emailMaxRetry))
}

func (c *Client) EnqueueVerificationEmail(ctx context.Context, to, name, code string) error {
	task, err := newTask(TypeEmailVerification, EmailVerificationPayload{To: to, Name: name, Code: code})
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task, asynq.Queue(QueueEmail), asynq.MaxRetry(emailMaxRetry))
}

func (c *Client) EnqueueCollectionEmail(ctx context.Context, to, name, pointName string, volume float64) error {
	task, err := newTask(TypeEmailCollection, EmailCollectionPayload{To: to, Name: name, PointName: pointName, Volume: volume})
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task, asynq.Queue(QueueEmail), asynq.MaxRetry(emailMaxRetry))
}

func (c *Client) EnqueueRouteEmail(ctx context.Context, to, name, routeName string) error {
	task, err := newTask(TypeEmailRoute, EmailRoutePayload{To: to, Name: name, RouteName: routeName})
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task, asynq.Queue(QueueEmail), asynq.MaxRetry(emailMaxRetry))
}

// EnqueueNotification queues a durable notification write. Callers build the
// notification with the models constructors; the worker persists it.
func (c *Client) EnqueueNotification(ctx context.Context, n models.Notification) error {
	task, err := newTask(TypeNotificationCreate, NotificationPayloadFrom(n))
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task,
		asynq.Queue(QueueNotification),
		asynq.MaxRetry(notificationMaxRetry),
		asynq.ProcessIn(notificationDelay),
	)
}

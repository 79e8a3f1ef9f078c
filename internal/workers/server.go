package workers

import (
	"context"
	"time"

	"ecoroute/internal/queue"
	"ecoroute/internal/services"
	"ecoroute/internal/store"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

const backoffBase = 2 * time.Second

// exponentialBackoff doubles the delay on every retry: 2s, 4s, 8s, ...
func exponentialBackoff(n int, _ error, _ *asynq.Task) time.Duration {
	return backoffBase * time.Duration(1<<n)
}

// NewServer builds the job server with both worker families registered.
// Notification writes outrank email sends.
func NewServer(opt asynq.RedisClientOpt, sender *services.EmailSender, notifications store.NotificationStore) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			queue.QueueNotification: 3,
			queue.QueueEmail:        2,
			queue.QueueDefault:      1,
		},
		RetryDelayFunc: exponentialBackoff,
		ErrorHandler:   asynq.ErrorHandlerFunc(logJobError),
	})

	emailWorker := NewEmailWorker(sender)
	notificationWorker := NewNotificationWorker(notifications)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeEmailWelcome, emailWorker.HandleWelcome)
	mux.HandleFunc(queue.TypeEmailVerification, emailWorker.HandleVerification)
	mux.HandleFunc(queue.TypeEmailCollection, emailWorker.HandleCollection)
	mux.HandleFunc(queue.TypeEmailRoute, emailWorker.HandleRoute)
	mux.HandleFunc(queue.TypeNotificationCreate, notificationWorker.HandleCreate)

	return srv, mux
}

// logJobError records every failed attempt. When the retry budget is spent
// the job is archived by the server; the log line is the operational signal
// that a job is permanently failed.
func logJobError(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	taskID, _ := asynq.GetTaskID(ctx)

	entry := logrus.WithFields(logrus.Fields{
		"task":    task.Type(),
		"task_id": taskID,
		"retried": retried,
		"max":     maxRetry,
	})

	if retried >= maxRetry {
		entry.WithError(err).Error("job permanently failed, retries exhausted")
		return
	}
	entry.WithError(err).Warn("job failed, will retry")
}

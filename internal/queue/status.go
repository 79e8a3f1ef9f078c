package queue

import (
	"fmt"

	"github.com/hibiken/asynq"
)

// QueueCounts is a point-in-time snapshot of one queue, for the
// operational status endpoint.
type QueueCounts struct {
	Pending   int `json:"pending"`
	Active    int `json:"active"`
	Scheduled int `json:"scheduled"`
	Retry     int `json:"retry"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

type Inspector struct {
	inspector *asynq.Inspector
}

func NewInspector(opt asynq.RedisClientOpt) *Inspector {
	return &Inspector{inspector: asynq.NewInspector(opt)}
}

func (i *Inspector) Close() error {
	return i.inspector.Close()
}

// Status reports counts for every queue the application uses.
func (i *Inspector) Status() (map[string]QueueCounts, error) {
	status := make(map[string]QueueCounts)
	for _, name := range []string{QueueEmail, QueueNotification, QueueDefault} {
		info, err := i.inspector.GetQueueInfo(name)
		if err != nil {
			// A queue that has never seen a job does not exist yet.
			status[name] = QueueCounts{}
			continue
		}
		status[name] = QueueCounts{
			Pending:   info.Pending,
			Active:    info.Active,
			Scheduled: info.Scheduled,
			Retry:     info.Retry,
			Completed: info.Completed,
			Failed:    info.Failed,
		}
	}
	if len(status) == 0 {
		return nil, fmt.Errorf("no queues found")
	}
	return status, nil
}

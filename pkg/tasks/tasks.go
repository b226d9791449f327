package tasks

import (
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeRefreshAnalytics = "analytics:refresh"

	// QueueDefault is the queue refresh tasks run on.
	QueueDefault = "default"

	// RefreshMaxRetry bounds how often a failed cycle is retried before the
	// next scheduled tick takes over.
	RefreshMaxRetry = 3
)

// RefreshOptions are the asynq options every refresh task is created with.
func RefreshOptions() []asynq.Option {
	return []asynq.Option{
		asynq.MaxRetry(RefreshMaxRetry),
		asynq.Queue(QueueDefault),
	}
}

// NewRefreshAnalyticsTask creates a refresh task. It carries no payload; the
// worker stamps the cycle's snapshots with the time it picks the task up.
func NewRefreshAnalyticsTask() *asynq.Task {
	return asynq.NewTask(TypeRefreshAnalytics, nil, RefreshOptions()...)
}

// EnqueueRefreshNow asks the workers for an immediate refresh cycle. Duplicate
// requests within the uniqueness window are collapsed by the queue.
func EnqueueRefreshNow(e TaskEnqueuer) (*asynq.TaskInfo, error) {
	return e.Enqueue(NewRefreshAnalyticsTask(), asynq.Unique(10*time.Minute))
}

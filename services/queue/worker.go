package queuesvc

import (
	"context"
	"net/mail"

	"github.com/tmalache/chuo/core"
)

// Worker drains the task queue and dispatches each task to the matching
// service. Delivery is best-effort; a failed task is logged and dropped.
type Worker struct {
	queue  core.TaskQueue
	email  core.EmailService
	logger core.Logger
}

func NewWorker(queue core.TaskQueue, email core.EmailService, logger core.Logger) *Worker {
	return &Worker{queue: queue, email: email, logger: logger}
}

// Run blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	tasks, err := w.queue.Consume(ctx)
	if err != nil {
		return err
	}
	for task := range tasks {
		w.dispatch(task)
	}
	return ctx.Err()
}

func (w *Worker) dispatch(task core.Task) {
	switch task.Type {
	case core.TaskEmail:
		et, err := core.DecodeEmailTask(task.Body)
		if err != nil {
			w.logger.Error("decoding email task", err)
			return
		}
		w.email.SendMessages(&core.EmailMessage{
			To:          []mail.Address{{Name: et.ToName, Address: et.ToAddress}},
			Subject:     et.Subject,
			TextContent: et.Text,
		})
	default:
		w.logger.Warn("unknown task type: " + task.Type)
	}
}

package queuesvc

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tmalache/chuo/core"
)

// memoryQueue is a buffered-channel task queue for dev and tests; tasks
// are lost on restart.
type memoryQueue struct {
	tasks chan core.Task
}

var _ core.TaskQueue = (*memoryQueue)(nil)

func NewMemoryQueue(size int) core.TaskQueue {
	if size <= 0 {
		size = 128
	}
	return &memoryQueue{tasks: make(chan core.Task, size)}
}

func (q *memoryQueue) Publish(ctx context.Context, task core.Task) error {
	select {
	case q.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.New("task queue full")
	}
}

func (q *memoryQueue) Consume(ctx context.Context) (<-chan core.Task, error) {
	out := make(chan core.Task)
	go func() {
		defer close(out)
		for {
			select {
			case task := <-q.tasks:
				select {
				case out <- task:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Len reports the number of buffered tasks. Test helper.
func (q *memoryQueue) Len() int { return len(q.tasks) }

package queuesvc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/tmalache/chuo/core"
)

// redisQueue is a Redis-list backed task queue: LPUSH to publish,
// BRPOP to consume. Tasks survive API restarts as long as Redis does.
type redisQueue struct {
	client *redis.Client
	key    string
	logger core.Logger
}

var _ core.TaskQueue = (*redisQueue)(nil)

func NewRedisQueue(conf *core.Config, logger core.Logger) (core.TaskQueue, error) {
	client := redis.NewClient(&redis.Options{Addr: conf.Redis.Addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "pinging redis")
	}
	return &redisQueue{client: client, key: conf.Redis.QueueKey, logger: logger}, nil
}

func (q *redisQueue) Publish(ctx context.Context, task core.Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return errors.Wrap(err, "encoding task")
	}
	if err = q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return errors.Wrap(err, "pushing task")
	}
	return nil
}

func (q *redisQueue) Consume(ctx context.Context) (<-chan core.Task, error) {
	tasks := make(chan core.Task)
	go func() {
		defer close(tasks)
		for {
			res, err := q.client.BRPop(ctx, 0, q.key).Result()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				q.logger.Error("popping task", err)
				time.Sleep(time.Second)
				continue
			}
			// res[0] is the key, res[1] the payload
			var task core.Task
			if err = json.Unmarshal([]byte(res[1]), &task); err != nil {
				q.logger.Error("decoding task", err)
				continue
			}
			select {
			case tasks <- task:
			case <-ctx.Done():
				return
			}
		}
	}()
	return tasks, nil
}

package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueueConfig 描述 Redis 事件队列的连接参数。
type RedisQueueConfig struct {
	Address   string
	Username  string
	Password  string
	DB        int
	Key       string
	BlockWait time.Duration
}

// RedisQueue 使用 Redis list 传递事件：LPUSH 发布，BRPOP 消费。
type RedisQueue struct {
	client redis.UniversalClient
	key    string
	wait   time.Duration
}

var _ Stream = (*RedisQueue)(nil)

// NewRedisQueue 创建 Redis 事件队列。
func NewRedisQueue(ctx context.Context, cfg RedisQueueConfig) (*RedisQueue, error) {
	if cfg.Address == "" {
		return nil, errors.New("Redis address 不能为空")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}
	return newRedisQueue(client, cfg.Key, cfg.BlockWait), nil
}

func newRedisQueue(client redis.UniversalClient, key string, wait time.Duration) *RedisQueue {
	if key == "" {
		key = "airchitect:events"
	}
	if wait <= 0 {
		wait = 5 * time.Second
	}
	return &RedisQueue{client: client, key: key, wait: wait}
}

// Publish 将事件写入 Redis list。
func (q *RedisQueue) Publish(ctx context.Context, ev Event) error {
	payload, err := Encode(ev)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("Redis 发布事件失败: %w", err)
	}
	return nil
}

// Consume 通过 BRPOP 拉取事件，无法解析的消息被跳过。
func (q *RedisQueue) Consume(ctx context.Context, workerCount int, handler Handler) error {
	if workerCount <= 0 {
		workerCount = 1
	}
	errCh := make(chan error, workerCount)
	for i := 0; i < workerCount; i++ {
		go func() {
			for {
				if err := ctx.Err(); err != nil {
					errCh <- err
					return
				}
				values, err := q.client.BRPop(ctx, q.wait, q.key).Result()
				if err != nil {
					if errors.Is(err, redis.Nil) {
						continue
					}
					if ctx.Err() != nil {
						errCh <- ctx.Err()
						return
					}
					errCh <- fmt.Errorf("Redis 拉取事件失败: %w", err)
					return
				}
				if len(values) != 2 {
					continue
				}
				ev, err := Decode([]byte(values[1]))
				if err != nil {
					continue
				}
				_ = handler(ctx, ev)
			}
		}()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Close 关闭 Redis 连接。
func (q *RedisQueue) Close() error {
	if q == nil || q.client == nil {
		return nil
	}
	return q.client.Close()
}

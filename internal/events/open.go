package events

import (
	"context"
	"fmt"

	"AIrchitect-CLI/internal/config"
)

// Open 按 driver 创建事件流；driver 为 "none" 时返回 nil。
func Open(ctx context.Context, cfg config.EventsConfig) (Stream, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryQueue(cfg.Buffer), nil
	case "redis":
		q, err := NewRedisQueue(ctx, RedisQueueConfig{
			Address:  cfg.Redis.Address,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return q, nil
	case "rabbitmq":
		q, err := NewRabbitMQQueue(RabbitMQConfig{
			URL:      cfg.RabbitMQ.URL,
			Queue:    cfg.RabbitMQ.Queue,
			Prefetch: cfg.RabbitMQ.Prefetch,
			Durable:  true,
		})
		if err != nil {
			return nil, err
		}
		return q, nil
	default:
		return nil, fmt.Errorf("未知的事件驱动 %q", cfg.Driver)
	}
}

package events

import "context"

// Handler 处理一条调用事件。
type Handler func(ctx context.Context, ev Event) error

// Publisher 负责投递事件。
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Consumer 负责消费事件，阻塞直到 ctx 结束或出现不可恢复的错误。
type Consumer interface {
	Consume(ctx context.Context, workerCount int, handler Handler) error
	Close() error
}

// Stream 同时具备发布与消费能力。
type Stream interface {
	Publisher
	Consumer
}

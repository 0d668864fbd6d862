package events

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrClosed 表示队列已关闭。
	ErrClosed = errors.New("事件队列已关闭")
	// ErrQueueFull 表示内存队列已满，事件被丢弃。
	ErrQueueFull = errors.New("事件队列已满")
)

// MemoryQueue 使用 channel 在进程内传递事件。
type MemoryQueue struct {
	ch     chan Event
	mu     sync.RWMutex
	closed bool
}

var _ Stream = (*MemoryQueue)(nil)

// NewMemoryQueue 创建一个内存队列。
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 64
	}
	return &MemoryQueue{ch: make(chan Event, size)}
}

// Publish 将事件放入队列。队列已满时立即丢弃并返回 ErrQueueFull，不阻塞调用方。
func (q *MemoryQueue) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.ch <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// Consume 启动 workerCount 个协程处理事件，处理失败的事件被丢弃。
func (q *MemoryQueue) Consume(ctx context.Context, workerCount int, handler Handler) error {
	if workerCount <= 0 {
		workerCount = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case ev, ok := <-q.ch:
					if !ok {
						return
					}
					_ = handler(ctx, ev)
				}
			}
		}()
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrClosed
}

// Close 关闭队列，已排队的事件仍可被消费。
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	if !q.closed {
		close(q.ch)
		q.closed = true
	}
	q.mu.Unlock()
	return nil
}

package events

import (
	"context"
	"log/slog"
	"time"

	"AIrchitect-CLI/pkg/logger"
	"AIrchitect-CLI/pkg/plugin"
)

// DefaultPublishTimeout 限制单次发布的等待时间。
const DefaultPublishTimeout = 2 * time.Second

// Observer 把调度器的调用记录转发到事件队列。发布失败只记录日志，不影响调用结果。
type Observer struct {
	pub     Publisher
	timeout time.Duration
	log     *slog.Logger
}

var _ plugin.Observer = (*Observer)(nil)

// NewObserver 创建事件观察者。
func NewObserver(pub Publisher, timeout time.Duration) *Observer {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	return &Observer{pub: pub, timeout: timeout, log: logger.Named("events")}
}

// ObserveInvocation 实现 plugin.Observer。
func (o *Observer) ObserveInvocation(ctx context.Context, inv plugin.Invocation) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	if err := o.pub.Publish(ctx, FromInvocation(inv)); err != nil {
		o.log.Warn("发布调用事件失败",
			slog.String("invocation_id", inv.ID),
			slog.String("plugin", inv.Plugin),
			slog.Any("error", err))
	}
}

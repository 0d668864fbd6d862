// Package events 将插件调用结果作为事件发布到内存、Redis 或 RabbitMQ 队列，
// 供 `airchitect events tail` 等消费者实时订阅。
package events

package events

import (
	"encoding/json"
	"fmt"
	"time"

	"AIrchitect-CLI/pkg/plugin"
)

// Outcome 取值。
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Event 是一次调用结束后对外发布的记录，不包含任何参数值。
type Event struct {
	ID         string    `json:"id"`
	Plugin     string    `json:"plugin"`
	Command    string    `json:"command"`
	ArgCount   int       `json:"arg_count"`
	Outcome    string    `json:"outcome"`
	Kind       string    `json:"kind,omitempty"`
	Message    string    `json:"message,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	OccurredAt time.Time `json:"occurred_at"`
}

// FromInvocation 将调度器的观测记录转换为事件。
func FromInvocation(inv plugin.Invocation) Event {
	ev := Event{
		ID:         inv.ID,
		Plugin:     inv.Plugin,
		Command:    inv.Command,
		ArgCount:   inv.ArgCount,
		Outcome:    OutcomeOK,
		DurationMS: inv.Duration.Milliseconds(),
		OccurredAt: inv.Started.Add(inv.Duration).UTC(),
	}
	if inv.Kind != "" {
		ev.Outcome = OutcomeError
		ev.Kind = string(inv.Kind)
		ev.Message = inv.Message
	}
	return ev
}

// Encode 序列化事件。
func Encode(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}

// Decode 反序列化事件。
func Decode(raw []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, fmt.Errorf("解析调用事件失败: %w", err)
	}
	return ev, nil
}

// String 返回便于终端阅读的一行摘要。
func (e Event) String() string {
	line := fmt.Sprintf("%s %s/%s args=%d %s %dms",
		e.OccurredAt.Format(time.RFC3339), e.Plugin, e.Command, e.ArgCount, e.Outcome, e.DurationMS)
	if e.Kind != "" {
		line += fmt.Sprintf(" %s: %s", e.Kind, e.Message)
	}
	return line
}

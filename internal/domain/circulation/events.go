package circulation

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// EventType 流通事件类型（同时作为MQ routing key）
type EventType string

const (
	EventLoanCreated          EventType = "loan.created"
	EventLoanCancelled        EventType = "loan.cancelled"
	EventReturnRegistered     EventType = "return.registered"
	EventReservationCreated   EventType = "reservation.created"
	EventReservationCancelled EventType = "reservation.cancelled"
	EventReservationFulfilled EventType = "reservation.fulfilled"
	EventReservationsExpired  EventType = "reservations.expired"
)

// Event 流通事件
// 事务提交后发布，发布失败只记录日志，不影响已提交的结果
type Event struct {
	Type       EventType              `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload"`
}

// NewEvent 创建事件
func NewEvent(t EventType, payload map[string]interface{}) Event {
	return Event{Type: t, OccurredAt: time.Now(), Payload: payload}
}

// Publisher 事件发布接口
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// NopPublisher 不发布任何事件（未启用MQ时使用）
type NopPublisher struct{}

// Publish 实现Publisher接口
func (NopPublisher) Publish(ctx context.Context, evt Event) error { return nil }

// Notify 事务提交后发布事件，失败只记录日志
func Notify(ctx context.Context, pub Publisher, events ...Event) {
	if pub == nil {
		return
	}
	for _, evt := range events {
		if err := pub.Publish(ctx, evt); err != nil {
			log.Warn().Err(err).Str("event", string(evt.Type)).Msg("发布流通事件失败")
		}
	}
}

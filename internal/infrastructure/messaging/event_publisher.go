// Package messaging 流通事件发布
package messaging

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xiebiao/library/internal/domain/circulation"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/pkg/circuitbreaker"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/mq"
)

// publishTimeout 单条事件的发布超时，事务已提交，不让请求等太久
const publishTimeout = 2 * time.Second

// Broker 消息发布通道（*mq.Publisher实现）
type Broker interface {
	Exchange() string
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// EventPublisher 经熔断器把流通事件发布到MQ
type EventPublisher struct {
	broker  Broker
	breaker *circuitbreaker.CircuitBreaker
}

// NewEventPublisher 创建事件发布者
func NewEventPublisher(broker Broker, breaker *circuitbreaker.CircuitBreaker) *EventPublisher {
	return &EventPublisher{broker: broker, breaker: breaker}
}

// Publish 实现circulation.Publisher，routing key为事件类型
func (p *EventPublisher) Publish(ctx context.Context, evt circulation.Event) error {
	routingKey := string(evt.Type)
	err := p.breaker.Execute(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		return p.broker.Publish(ctx, routingKey, evt)
	})
	metrics.IncMessagePublished(p.broker.Exchange(), routingKey, err)
	return err
}

// NewBreaker 事件发布熔断器，状态和请求结果写入指标
func NewBreaker() *circuitbreaker.CircuitBreaker {
	cfg := circuitbreaker.DefaultConfig()
	cfg.OnStateChange = func(name string, from, to circuitbreaker.State) {
		log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("熔断器状态变化")
		metrics.SetCircuitBreakerState(name, int(to))
	}
	cfg.OnResult = metrics.IncCircuitBreakerRequest
	return circuitbreaker.New("event-publisher", cfg)
}

// LogPublisher 未配置MQ时使用，事件只写日志
type LogPublisher struct{}

// Publish 实现circulation.Publisher
func (LogPublisher) Publish(ctx context.Context, evt circulation.Event) error {
	log.Info().Str("event", string(evt.Type)).Interface("payload", evt.Payload).Msg("流通事件")
	return nil
}

// NewPublisher 按配置选择事件发布方式
// MQ连接失败不阻止服务启动，退化为只写日志；返回的cleanup关闭连接
func NewPublisher(cfg *config.Config) (circulation.Publisher, func()) {
	if cfg.MQ.URL == "" {
		return LogPublisher{}, func() {}
	}

	pub, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, mq.ExchangeTopic, cfg.Tracing.ServiceName)
	if err != nil {
		log.Warn().Err(err).Msg("连接RabbitMQ失败，流通事件只记录日志")
		return LogPublisher{}, func() {}
	}
	return NewEventPublisher(pub, NewBreaker()), func() { _ = pub.Close() }
}

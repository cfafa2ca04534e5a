// Package mq RabbitMQ消息发布/订阅
//
// 流通事件发布到topic类型的Exchange，routing key即事件类型（loan.created等），
// 订阅方可以用通配符（loan.*、reservation.#）绑定自己的队列。
package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ExchangeTopic topic类型Exchange
const ExchangeTopic = "topic"

// Publisher 消息发布者
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	appID    string
}

// NewPublisher 连接RabbitMQ并声明持久化Exchange
func NewPublisher(url, exchange, exchangeType, appID string) (*Publisher, error) {
	conn, channel, err := open(url, exchange, exchangeType)
	if err != nil {
		return nil, err
	}

	log.Info().Str("exchange", exchange).Str("type", exchangeType).Msg("消息发布者已创建")
	return &Publisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		appID:    appID,
	}, nil
}

func open(url, exchange, exchangeType string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("连接RabbitMQ失败: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("创建Channel失败: %w", err)
	}

	// durable=true, autoDelete=false, internal=false, noWait=false
	if err := channel.ExchangeDeclare(exchange, exchangeType, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("声明Exchange失败: %w", err)
	}
	return conn, channel, nil
}

// Exchange 名称
func (p *Publisher) Exchange() string {
	return p.exchange
}

// Publish 发布消息（JSON编码、持久化投递）
func (p *Publisher) Publish(ctx context.Context, routingKey string, message interface{}) error {
	msg, err := NewMessage(p.appID, message)
	if err != nil {
		return err
	}

	// mandatory=false, immediate=false
	if err := p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("发布消息失败: %w", err)
	}

	log.Debug().Str("routing_key", routingKey).Str("message_id", msg.MessageId).Msg("消息已发布")
	return nil
}

// NewMessage 编码消息体，MessageId用于消费方去重
func NewMessage(appID string, message interface{}) (amqp.Publishing, error) {
	body, err := json.Marshal(message)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("消息序列化失败: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		AppId:        appID,
		Timestamp:    time.Now(),
	}, nil
}

// Close 关闭发布者
func (p *Publisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Delivery 收到的消息
type Delivery struct {
	MessageID  string
	RoutingKey string
	Timestamp  time.Time
	Body       []byte
}

// Decode 解码消息体
func (d Delivery) Decode(v interface{}) error {
	return json.Unmarshal(d.Body, v)
}

// Consumer 消息消费者
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

// NewConsumer 声明队列并按routing key绑定到Exchange
// queue为空时创建服务端命名的独占临时队列（断开即删除）
func NewConsumer(url, exchange, exchangeType, queue string, routingKeys []string) (*Consumer, error) {
	conn, channel, err := open(url, exchange, exchangeType)
	if err != nil {
		return nil, err
	}

	durable, exclusive := true, false
	if queue == "" {
		durable, exclusive = false, true
	}
	q, err := channel.QueueDeclare(queue, durable, !durable, exclusive, false, nil)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("声明Queue失败: %w", err)
	}

	for _, key := range routingKeys {
		if err := channel.QueueBind(q.Name, key, exchange, false, nil); err != nil {
			channel.Close()
			conn.Close()
			return nil, fmt.Errorf("绑定Queue失败: %w", err)
		}
	}

	log.Info().Str("queue", q.Name).Strs("routing_keys", routingKeys).Msg("消息消费者已创建")
	return &Consumer{conn: conn, channel: channel, queue: q.Name}, nil
}

// Consume 阻塞消费直到ctx取消
// handler返回错误时消息Nack并重新入队
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, Delivery) error) error {
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("设置Qos失败: %w", err)
	}

	msgs, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("开始消费失败: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("消息Channel已关闭")
			}
			d := Delivery{
				MessageID:  msg.MessageId,
				RoutingKey: msg.RoutingKey,
				Timestamp:  msg.Timestamp,
				Body:       msg.Body,
			}
			if err := handler(ctx, d); err != nil {
				log.Warn().Err(err).Str("message_id", d.MessageID).Msg("消息处理失败，重新入队")
				_ = msg.Nack(false, true)
				continue
			}
			_ = msg.Ack(false)
		}
	}
}

// Close 关闭消费者
func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// 事件类型同时用作 routing key
const (
	EventTransactionCreated      = "transaction.created"
	EventTransactionUpdated      = "transaction.updated"
	EventTransactionDeleted      = "transaction.deleted"
	EventCategoryArchived        = "category.archived"
	EventStatusArchived          = "status.archived"
	EventTransactionTypeArchived = "transaction_type.archived"
)

// LedgerEvent 账本变更事件
type LedgerEvent struct {
	Type       string         `json:"type"`
	EntityID   uint           `json:"entity_id"`
	Amount     string         `json:"amount,omitempty"`
	Impact     *CascadeImpact `json:"impact,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func newEvent(kind string, id uint) LedgerEvent {
	return LedgerEvent{Type: kind, EntityID: id, OccurredAt: time.Now()}
}

func (e LedgerEvent) withImpact(impact CascadeImpact) LedgerEvent {
	e.Impact = &impact
	return e
}

// Publisher 事件发布。发布发生在数据库提交之后，失败只记日志，不影响写入结果。
type Publisher interface {
	Publish(ctx context.Context, e LedgerEvent)
	Close() error
}

// NopPublisher 未启用事件推送时使用
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, LedgerEvent) {}
func (NopPublisher) Close() error                         { return nil }

// AMQPPublisher 推送到 RabbitMQ topic exchange
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      *zap.Logger
}

// NewAMQPPublisher 连接 RabbitMQ 并声明持久化 topic exchange
func NewAMQPPublisher(url, exchange string, log *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange, log: log}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, e LedgerEvent) {
	body, err := json.Marshal(e)
	if err != nil {
		p.log.Error("编码账本事件失败", zap.String("type", e.Type), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx, p.exchange, e.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    e.OccurredAt,
		Body:         body,
	})
	if err != nil {
		p.log.Warn("推送账本事件失败",
			zap.String("type", e.Type),
			zap.Uint("entity_id", e.EntityID),
			zap.Error(err))
	}
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

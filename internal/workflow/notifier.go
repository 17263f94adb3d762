package workflow

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cafe-ops-dev/shift-planner/backend/internal/config"
	"github.com/cafe-ops-dev/shift-planner/backend/internal/domain"
)

// NotificationQueue 是通知事件队列的名称，由 api 进程在启动时声明
const NotificationQueue = "notification_queue"

// AMQPPublisher 把通知事件序列化后投递到 RabbitMQ
type AMQPPublisher struct {
	cfg     *config.Config
	channel *amqp.Channel
}

func NewAMQPPublisher(cfg *config.Config, channel *amqp.Channel) *AMQPPublisher {
	return &AMQPPublisher{
		cfg:     cfg,
		channel: channel,
	}
}

func (p *AMQPPublisher) Publish(_ context.Context, msg *domain.NotificationMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(p.cfg.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return p.channel.PublishWithContext(
		ctx,
		"",
		NotificationQueue,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// Package events публикует события жизненного цикла в RabbitMQ.
// Очередь служит каналом наблюдаемости: одобрения, истечения и проглоченные
// сбои доставки доступны операторам вне логов процесса.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/channel-gatekeeper/internal/models"
)

// Ключи маршрутизации публикуемых событий.
const (
	KindPaymentSubmitted    = "payment.submitted"
	KindPaymentApproved     = "payment.approved"
	KindPaymentRejected     = "payment.rejected"
	KindSubscriptionExpired = "subscription.expired"
	KindGatewayFailure      = "gateway.failure"
	KindNotifyFailure       = "notify.failure"
)

type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// New подключается к RabbitMQ и объявляет topic-exchange для событий.
func New(url, exchange string) (*Publisher, error) {
	const op = "events.New"
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish сериализует событие в JSON и публикует его с routing key,
// равным виду события.
func (p *Publisher) Publish(event models.LifecycleEvent) error {
	const op = "events.Publish"
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = p.ch.Publish(
		p.exchange,
		event.Kind,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			MessageId:    event.ID,
			Timestamp:    event.OccurredAt,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает канал и соединение с RabbitMQ.
func (p *Publisher) Close() error {
	if err := p.ch.Close(); err != nil {
		_ = p.conn.Close()
		return err
	}
	return p.conn.Close()
}

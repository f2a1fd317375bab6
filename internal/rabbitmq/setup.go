package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

const (
	// NotificationsExchange общий exchange всех почтовых уведомлений.
	NotificationsExchange = "notifications"
	// ShareCreatedQueue очередь сообщений о новых квотах.
	ShareCreatedQueue = "share_created_emails"
	// ShareCreatedKey ключ маршрутизации сообщений о новых квотах.
	ShareCreatedKey = "share.created"
)

// QueueConfig пара очередь/ключ маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди, которые должен объявить
// каждый процесс, работающий с уведомлениями.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: ShareCreatedQueue, RoutingKey: ShareCreatedKey},
	}
}

// SetupChannel открывает канал, объявляет exchange и привязывает очереди.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		NotificationsExchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}

		err = ch.QueueBind(
			q.QueueName,
			q.RoutingKey,
			NotificationsExchange,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}

// Package notifier реализует уведомителя биллингового движка поверх
// очереди RabbitMQ: сообщение о новой квоте публикуется в exchange
// уведомлений, а доставку письма выполняет отдельный сервис рассылки.
package notifier

import (
	"github.com/streadway/amqp"

	"github.com/clubops/club-billing/internal/models"
	"github.com/clubops/club-billing/internal/rabbitmq"
)

// RabbitNotifier публикует уведомления в RabbitMQ.
type RabbitNotifier struct {
	ch *amqp.Channel
}

// New создает новый экземпляр RabbitNotifier.
func New(ch *amqp.Channel) *RabbitNotifier {
	return &RabbitNotifier{ch: ch}
}

// NotifyShareCreated публикует сообщение о новой квоте. Ошибка касается
// только одного получателя: вызывающая сторона логирует её и продолжает.
func (n *RabbitNotifier) NotifyShareCreated(info models.ShareCreatedInfo) error {
	return rabbitmq.PublishMessage(n.ch, rabbitmq.NotificationsExchange, rabbitmq.ShareCreatedKey, info)
}

package rabbitmq

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubops/club-billing/internal/models"
)

func TestPublishMessage(t *testing.T) {
	if os.Getenv("SKIP_RABBITMQ_TESTS") != "" {
		t.Skip("Skipping RabbitMQ tests in CI")
	}

	ctx := context.Background()
	rmqContainer, cleanup := SetupRabbitMQContainer(ctx, t)
	defer cleanup()

	amqpURI, err := GetAmqpURI(ctx, rmqContainer)
	require.NoError(t, err)

	conn, err := Connect(amqpURI, 3, time.Second)
	require.NoError(t, err)
	defer func() {
		if err := conn.Close(); err != nil {
			t.Errorf("failed to close connection: %v", err)
		}
	}()

	ch, err := conn.Channel()
	require.NoError(t, err)
	defer func() {
		if err := ch.Close(); err != nil {
			t.Errorf("failed to close channel: %v", err)
		}
	}()

	queueName := "publish-test"
	_, err = ch.QueueDeclare(queueName, false, false, false, false, nil)
	require.NoError(t, err)

	t.Run("success publish and consume", func(t *testing.T) {
		msg := models.ShareCreatedInfo{
			Email:      "ivanov@example.com",
			MemberName: "Иванов Иван",
			PeriodDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			Amount:     30000,
		}

		// Публикуем сообщение
		err = PublishMessage(ch, "", queueName, msg)
		require.NoError(t, err)

		// Читаем из очереди
		deliveries, err := ch.Consume(queueName, "test-consumer", true, false, false, false, nil)
		require.NoError(t, err)

		select {
		case d := <-deliveries:
			var got models.ShareCreatedInfo
			err := json.Unmarshal(d.Body, &got)
			require.NoError(t, err)
			assert.Equal(t, msg.Email, got.Email)
			assert.Equal(t, msg.Amount, got.Amount)
			assert.Equal(t, "application/json", d.ContentType)
			assert.True(t, msg.PeriodDate.Equal(got.PeriodDate))
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for message")
		}
	})

	t.Run("marshal error", func(t *testing.T) {
		// В json marshal нельзя сериализовать канал
		badMsg := struct {
			Ch chan int `json:"ch"`
		}{
			Ch: make(chan int),
		}

		err := PublishMessage(ch, "", queueName, badMsg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
	})
}

func TestPublishMessage_ToExchangeWithRoutingKey(t *testing.T) {
	if os.Getenv("SKIP_RABBITMQ_TESTS") != "" {
		t.Skip("Skipping RabbitMQ tests in CI")
	}

	ctx := context.Background()
	rmqContainer, cleanup := SetupRabbitMQContainer(ctx, t)
	defer cleanup()

	amqpURI, err := GetAmqpURI(ctx, rmqContainer)
	require.NoError(t, err)

	conn, err := Connect(amqpURI, 3, time.Second)
	require.NoError(t, err)
	defer func() {
		_ = conn.Close()
	}()

	// SetupChannel объявляет exchange и привязывает очередь уведомлений
	ch, err := SetupChannel(conn, GetNotificationQueues())
	require.NoError(t, err)
	defer func() {
		_ = ch.Close()
	}()

	msg := models.ShareCreatedInfo{
		Email:      "petrov@example.com",
		MemberName: "Петров Петр",
		PeriodDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		Amount:     27000,
	}
	err = PublishMessage(ch, NotificationsExchange, ShareCreatedKey, msg)
	require.NoError(t, err)

	deliveries, err := ch.Consume(ShareCreatedQueue, "test-consumer", true, false, false, false, nil)
	require.NoError(t, err)

	select {
	case d := <-deliveries:
		var got models.ShareCreatedInfo
		require.NoError(t, json.Unmarshal(d.Body, &got))
		assert.Equal(t, msg.Email, got.Email)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for routed message")
	}
}

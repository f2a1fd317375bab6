// Package cache реализует хранилище административных настроек биллинга
// поверх Redis. Ядро читает отсюда текущую базовую сумму квоты;
// запись выполняется только административным действием.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/clubops/club-billing/internal/config"
)

// Settings инкапсулирует подключение к Redis.
type Settings struct {
	Db *redis.Client
}

// InitServer подключается к Redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Settings, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Settings{Db: db}, nil
}

// Get читает значение по ключу. Возвращает false без ошибки,
// если ключ отсутствует.
func (s *Settings) Get(ctx context.Context, key string, result any) (bool, error) {
	const op = "cache.Get"
	val, err := s.Db.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err = json.Unmarshal([]byte(val), result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Set сохраняет значение по ключу без срока жизни: настройки
// действуют до следующего административного изменения.
func (s *Settings) Set(ctx context.Context, key string, value any) error {
	const op = "cache.Set"
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = s.Db.Set(ctx, key, jsonData, 0).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

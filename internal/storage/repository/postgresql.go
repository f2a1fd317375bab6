// Package repository реализует хранилище биллингового ядра на основе
// PostgreSQL: квоты участников и чтение справочника участников.
// Пакетные операции (вставка недостающих квот, переоценка) выполняются
// в одной транзакции — это единица атомарности заданий биллинга.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	// ErrShareNotFound квота с указанным ID отсутствует.
	ErrShareNotFound = errors.New("share not found")
	// ErrShareAlreadyPaid квота уже оплачена; повторная фиксация запрещена.
	ErrShareAlreadyPaid = errors.New("share already paid")
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'shares'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table shares missing or query error: %w", err)
	}
	return nil
}

// Package smtp предоставляет транспорт исходящей почты поверх net/smtp
// с обязательным STARTTLS. Сервис рассылки работает только с интерфейсами
// пакета, что позволяет подменять транспорт в тестах.
package smtp

import "io"

// Client интерфейс SMTP-клиента на время одного письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface интерфейс SMTP-транспорта.
type TransportInterface interface {
	Connect() (Client, error)
	GetSMTPUser() string
}

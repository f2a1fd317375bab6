// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	SMTP                    `yaml:"smtp"`
	HTTPServer              `yaml:"http_server"`
	Billing                 `yaml:"billing"`
}

// HTTPServer структура для настройки административного HTTP-сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:"localhost:8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis,
// где хранятся административные настройки биллинга (базовая сумма квоты)
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// RabbitMQ структура для настройки подключения к брокеру уведомлений
type RabbitMQ struct {
	RabbitMQURL    string        `yaml:"rabbitmq_url"`
	ConnectRetries int           `yaml:"connect_retries" env-default:"5"`
	ConnectDelay   time.Duration `yaml:"connect_delay" env-default:"3s"`
}

// SMTP структура для настройки исходящей почты
type SMTP struct {
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort string `yaml:"smtp_port" env-default:"587"`
	SMTPUser string `yaml:"smtp_user"`
	SMTPPass string `yaml:"smtp_pass" env:"SMTP_PASS"`
}

// Billing структура с настройками биллингового ядра.
// Timezone — гражданский часовой пояс клуба, в нём считаются
// границы расчётных периодов и номер дня месяца.
type Billing struct {
	Timezone           string        `yaml:"timezone" env-default:"America/Argentina/Buenos_Aires"`
	FallbackBaseAmount int           `yaml:"fallback_base_amount" env-default:"30000"`
	JobTimeout         time.Duration `yaml:"job_timeout" env-default:"2m"`
	DailyRunAt         time.Duration `yaml:"daily_run_at" env-default:"5m"`
	MonthlyRunAt       time.Duration `yaml:"monthly_run_at" env-default:"10m"`
}

// MustLoad функция для загрузки конфига, путь берётся из переменной окружения CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"StorageConnectionString: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  User: %s\n"+
			"  DB: %d\n"+
			"RabbitMQ:\n"+
			"  URL: %s\n"+
			"SMTP:\n"+
			"  Host: %s\n"+
			"  Port: %s\n"+
			"  User: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Billing:\n"+
			"  Timezone: %s\n"+
			"  FallbackBaseAmount: %d\n"+
			"  JobTimeout: %s\n",
		c.Env,
		c.StorageConnectionString,
		c.AddressRedis,
		c.User,
		c.DB,
		c.RabbitMQURL,
		c.SMTPHost,
		c.SMTPPort,
		c.SMTPUser,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.Timezone,
		c.FallbackBaseAmount,
		c.JobTimeout,
	)
}

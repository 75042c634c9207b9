// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	APIKey          string `yaml:"api_key" env:"API_KEY" env-required:"true"`
	NASType         string `yaml:"nas_type" env:"NAS_TYPE" env-default:"mikrotik"`
	SecretFormat    string `yaml:"secret_format" env:"SECRET_FORMAT" env-default:"cleartext"`
	MigrationsPath  string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:""`
	Storage         `yaml:"storage"`
	RedisConnection `yaml:"redis_connection"`
	HTTPServer      `yaml:"http_server"`
	Webhooks        `yaml:"webhooks"`
	EventBus        `yaml:"event_bus"`
}

// Storage структура для настройки подключения к общей базе RADIUS.
// База принадлежит внешнему AAA-серверу, поэтому драйвер выбирается
// конфигом: pgx, mysql или sqlite3.
type Storage struct {
	Driver           string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"mysql"`
	ConnectionString string `yaml:"connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	TablePrefix      string `yaml:"table_prefix" env:"TABLE_PREFIX" env-default:""`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:"0.0.0.0:8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	Enabled      bool          `yaml:"enabled" env-default:"false"`
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// Webhooks структура для настройки реестра веб-хуков
type Webhooks struct {
	Enabled bool   `yaml:"enabled" env-default:"true"`
	File    string `yaml:"file" env:"WEBHOOKS_FILE" env-default:"./webhooks.json"`
}

// EventBus структура для настройки публикации событий в RabbitMQ
type EventBus struct {
	Enabled    bool          `yaml:"enabled" env-default:"false"`
	URL        string        `yaml:"url"`
	Exchange   string        `yaml:"exchange" env-default:"radius.events"`
	Retries    int           `yaml:"retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// MustLoad функция для загрузки конфига, путь берётся из CONFIG_PATH
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

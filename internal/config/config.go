// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек агента панели
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer      `yaml:"http_server"`
	RemoteAPI       `yaml:"remote_api"`
	Storage         `yaml:"storage"`
	RedisConnection `yaml:"redis_connection"`
	Theme           `yaml:"theme"`
}

// HTTPServer структура для настройки локального сервера панели
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:"127.0.0.1:8090"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RemoteAPI структура для настройки клиента удалённого API хостинга
type RemoteAPI struct {
	BaseURL        string        `yaml:"base_url" env:"REMOTE_API_URL" env-default:"https://kurumi.software/api"`
	RequestTimeout time.Duration `yaml:"request_timeout" env-default:"15s"`
	RateLimit      float64       `yaml:"rate_limit" env-default:"20"`
	RateBurst      int           `yaml:"rate_burst" env-default:"40"`
}

// Storage структура для настройки локального хранилища состояния
type Storage struct {
	Backend    string `yaml:"backend" env-default:"file"` // file или redis
	StateDir   string `yaml:"state_dir" env:"STATE_DIR" env-default:".panel-agent"`
	SealKeyHex string `yaml:"seal_key_hex" env:"SEAL_KEY_HEX"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// Theme структура для настройки отслеживания системной темы
type Theme struct {
	PollInterval time.Duration `yaml:"poll_interval" env-default:"5s"`
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

// Package rediskv реализует порт storage.KV поверх redis.
//
// Используется, когда агент работает в контейнере и файловый каталог состояния
// не переживает перезапуск. Записи хранятся без TTL: сессия и настройки живут
// до явного logout или изменения.
package rediskv

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/kurumisoft/panel-agent/internal/config"
)

// Store redis-реализация порта storage.KV.
type Store struct {
	Db *redis.Client
}

// New подключается к redis по настройкам из конфига и проверяет соединение.
func New(ctx context.Context, cfg config.RedisConnection) (*Store, error) {
	const op = "rediskv.New"
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
	return &Store{Db: db}, nil
}

// Load читает значение ключа, found=false для отсутствующего ключа.
func (s *Store) Load(ctx context.Context, key string) ([]byte, bool, error) {
	const op = "rediskv.Load"
	val, err := s.Db.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return val, true, nil
}

// Save записывает значение ключа без срока жизни.
func (s *Store) Save(ctx context.Context, key string, value []byte) error {
	const op = "rediskv.Save"
	if err := s.Db.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Delete удаляет запись ключа.
func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "rediskv.Delete"
	if err := s.Db.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

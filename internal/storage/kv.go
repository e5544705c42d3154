// Package storage определяет порт долговременного key-value хранилища состояния агента.
//
// Хранилище используется персистентными сторами (сессия, настройки) и намеренно
// не знает о формате значений: сторы сами сериализуют своё состояние в JSON.
package storage

import "context"

// Ключи записей состояния агента.
const (
	// SessionKey — запись сессии (токен + профиль пользователя).
	SessionKey = "auth-storage"
	// SettingsKey — запись настроек интерфейса (язык + тема).
	SettingsKey = "settings-storage"
)

// KV описывает контракт долговременного хранилища.
//
// Load возвращает found=false для отсутствующего ключа, без ошибки.
type KV interface {
	Load(ctx context.Context, key string) (value []byte, found bool, err error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

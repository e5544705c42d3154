// Package filekv реализует файловое key-value хранилище состояния агента.
//
// Каждый ключ хранится отдельным файлом в каталоге состояния. Запись идёт
// через временный файл с переименованием, чтобы обрыв процесса не оставил
// полузаписанную запись. При наличии ключа шифрования значения запечатываются
// chacha20poly1305 — токен сессии не лежит на диске открытым текстом.
package filekv

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
)

// Store файловая реализация порта storage.KV.
type Store struct {
	dir     string
	sealKey []byte
}

// New создаёт хранилище в каталоге dir, создавая его при необходимости.
//
// sealKeyHex — hex-ключ для шифрования значений; пустая строка отключает
// шифрование. Ключ должен давать ровно 32 байта.
func New(dir, sealKeyHex string) (*Store, error) {
	const op = "filekv.New"
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s := &Store{dir: dir}
	if sealKeyHex != "" {
		key, err := hex.DecodeString(sealKeyHex)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("%s: seal key must be %d bytes", op, chacha20poly1305.KeySize)
		}
		s.sealKey = key
	}
	return s, nil
}

// Load читает значение ключа. Отсутствующий файл — не ошибка.
func (s *Store) Load(_ context.Context, key string) ([]byte, bool, error) {
	const op = "filekv.Load"
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if s.sealKey != nil {
		data, err = s.open(data)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", op, err)
		}
	}
	return data, true, nil
}

// Save записывает значение атомарно: во временный файл с переименованием.
func (s *Store) Save(_ context.Context, key string, value []byte) error {
	const op = "filekv.Save"
	data := value
	if s.sealKey != nil {
		sealed, err := s.seal(value)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		data = sealed
	}
	tmp, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Delete удаляет запись ключа. Отсутствующий файл — не ошибка.
func (s *Store) Delete(_ context.Context, key string) error {
	const op = "filekv.Delete"
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *Store) seal(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.sealKey)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err = rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *Store) open(sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.sealKey)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("sealed value too short")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, nil)
}

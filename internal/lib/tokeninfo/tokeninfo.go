// Package tokeninfo извлекает открытые claims из bearer-токена без проверки подписи.
//
// Агент не владеет секретным ключом удалённого API, поэтому токен для него —
// непрозрачная строка. Если строка оказывается JWT, из неё можно достать срок
// действия и subject, чтобы показать их в карточке сессии.
package tokeninfo

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Info открытые данные токена, доступные без проверки подписи.
type Info struct {
	Subject   string     `json:"subject,omitempty"`
	IssuedAt  *time.Time `json:"issued_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Peek разбирает токен как JWT без валидации подписи и возвращает claims.
//
// Возвращает ошибку, если строка не является JWT — для вызывающего это
// ожидаемая ситуация, токен остаётся валидным с точки зрения сессии.
func Peek(tokenStr string) (*Info, error) {
	const op = "tokeninfo.Peek"
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, &claims); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	info := &Info{Subject: claims.Subject}
	if claims.IssuedAt != nil {
		info.IssuedAt = &claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = &claims.ExpiresAt.Time
	}
	return info, nil
}

// Expired сообщает, истёк ли срок действия токена на момент now.
// Для токенов без exp всегда false.
func (i *Info) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && i.ExpiresAt.Before(now)
}

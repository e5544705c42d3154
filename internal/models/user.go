// Package models содержит доменные структуры агента панели: профиль пользователя,
// сервер, данные биллинга. Структуры используются сторами, клиентом удалённого API
// и обработчиками локальной поверхности.
package models

// User представляет профиль владельца текущей сессии.
// Обязательно только имя пользователя, остальные поля могут отсутствовать.
type User struct {
	ID          string `json:"id,omitempty"`           // Идентификатор на стороне API
	Username    string `json:"username"`               // Имя пользователя (уникальное)
	Email       string `json:"email,omitempty"`        // Электронная почта
	FirstName   string `json:"firstName,omitempty"`    // Имя
	LastName    string `json:"lastName,omitempty"`     // Фамилия
	SurName     string `json:"surName,omitempty"`      // Отчество
	PhoneNumber string `json:"phoneNumber,omitempty"`  // Номер телефона
}

// UserPatch описывает частичное обновление профиля: nil-поле не трогает
// существующее значение.
type UserPatch struct {
	Email       *string `json:"email,omitempty"`
	FirstName   *string `json:"firstName,omitempty"`
	LastName    *string `json:"lastName,omitempty"`
	SurName     *string `json:"surName,omitempty"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
}

// Apply возвращает копию u с наложенными ненулевыми полями патча.
func (p UserPatch) Apply(u User) User {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.SurName != nil {
		u.SurName = *p.SurName
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = *p.PhoneNumber
	}
	return u
}

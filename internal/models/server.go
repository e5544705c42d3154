package models

// Server представляет запись инвентаря серверов, как её отдаёт удалённый API.
type Server struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Characteristics string `json:"characteristics"` // Строка вида "2 CPU, 4 GB RAM, 60 GB NVMe"
	IP              string `json:"ip"`
	Created         string `json:"created"`
	OSIcon          string `json:"osIcon,omitempty"`
}

// CreateServerRequest параметры создания нового сервера.
type CreateServerRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=64"`
	Plan     string `json:"plan" validate:"required"`
	OS       string `json:"os" validate:"required"`
	Location string `json:"location,omitempty"`
}

// Balance текущий баланс аккаунта.
type Balance struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// PaymentRecord одна строка истории платежей.
type PaymentRecord struct {
	ID     string  `json:"id"`
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
	Status string  `json:"status"`
	Note   string  `json:"note,omitempty"`
}

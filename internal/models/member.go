package models

// Member участник клуба из справочника. Справочник ведётся вне
// биллингового ядра; здесь нужны только поля, влияющие на начисление.
type Member struct {
	UID                string // UUID участника
	FullName           string // Полное имя
	Email              string // Контактный адрес; пустая строка — адреса нет
	HasSiblingDiscount bool   // Семейная скидка 10% от базовой суммы
	IsActive           bool   // Только активным участникам выставляются квоты
}

// DummyPayment используется для приёма данных о фиксации оплаты
// из JSON-запроса администратора.
type DummyPayment struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cash transfer card"` // Способ оплаты
}

// DummyBaseAmount используется для приёма новой базовой суммы квоты
// из JSON-запроса администратора.
type DummyBaseAmount struct {
	Amount int `json:"amount" validate:"required,gt=0"` // Базовая сумма (>0)
}

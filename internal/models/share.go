// Package models содержит доменные структуры биллингового ядра:
// ежемесячную квоту (share), участника клуба и вспомогательные типы
// для обмена данными между движком, хранилищем и внешними сервисами.
package models

import "time"

// ShareState состояние квоты в платёжном цикле.
type ShareState string

const (
	// ShareStatePending квота выставлена, льготный период оплаты ещё не истёк.
	ShareStatePending ShareState = "pending"
	// ShareStateOverdue льготный период истёк, сумма увеличена надбавкой.
	ShareStateOverdue ShareState = "overdue"
	// ShareStatePaid квота оплачена; терминальное состояние для движка.
	ShareStatePaid ShareState = "paid"
)

// Share представляет собой обязательство участника по оплате одного
// календарного месяца. Поле PeriodDate всегда нормализовано к первому
// числу месяца в часовом поясе клуба. Поля PaymentMethod и PaymentDate
// заполняются только при фиксации оплаты: их наличие эквивалентно
// состоянию ShareStatePaid.
type Share struct {
	ID            int        // Идентификатор, назначается хранилищем
	MemberUID     string     // UUID участника-владельца квоты
	PeriodDate    time.Time  // Первое число оплачиваемого месяца
	Amount        int        // Сумма в целых единицах валюты
	State         ShareState // Текущее состояние
	PaymentMethod *string    // Способ оплаты, только при оплаченной квоте
	PaymentDate   *time.Time // Дата оплаты
	UpdatedBy     *string    // Кто менял запись; nil для системных изменений
}

// ShareDraft данные новой квоты до вставки в хранилище.
type ShareDraft struct {
	MemberUID  string
	PeriodDate time.Time
	Amount     int
	State      ShareState
}

// ShareUpdate изменение суммы и состояния существующей квоты,
// применяемое пакетным обновлением по ID.
type ShareUpdate struct {
	ID     int
	Amount int
	State  ShareState
}

// OutstandingShare неоплаченная квота вместе с признаком скидки
// её владельца; ровно то, что нужно ежедневной переоценке.
type OutstandingShare struct {
	Share              Share
	HasSiblingDiscount bool
}

// ShareCreatedInfo сообщение о новой квоте, публикуемое в очередь
// уведомлений и потребляемое сервисом рассылки.
type ShareCreatedInfo struct {
	Email      string    `json:"email"`
	MemberName string    `json:"member_name"`
	PeriodDate time.Time `json:"period_date"`
	Amount     int       `json:"amount"`
}

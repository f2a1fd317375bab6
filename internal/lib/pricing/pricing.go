// Package pricing реализует тарифную политику квоты: эскалацию суммы
// по номеру дня месяца и семейную скидку. Функции детерминированы,
// не обращаются ни ко времени, ни к хранилищу.
package pricing

import (
	"math"

	"github.com/clubops/club-billing/internal/models"
)

const (
	// GraceWindowLastDay последний день льготного окна оплаты.
	// До этого дня включительно квота остаётся в состоянии pending,
	// и до этого же дня разрешено ручное обновление текущего месяца.
	GraceWindowLastDay = 10

	// firstSurchargeLastDay последний день первой надбавки.
	firstSurchargeLastDay = 20

	firstSurchargeRate  = 1.10
	secondSurchargeRate = 1.20

	siblingDiscountRate = 0.90
)

// Price вычисляет сумму и состояние квоты для базовой суммы baseAmount
// на день месяца dayOfMonth. До 10-го числа включительно действует
// базовая сумма, с 11-го по 20-е — надбавка 10%, далее — 20%.
// Результат округляется до целой единицы валюты.
func Price(baseAmount, dayOfMonth int) (int, models.ShareState) {
	switch {
	case dayOfMonth <= GraceWindowLastDay:
		return baseAmount, models.ShareStatePending
	case dayOfMonth <= firstSurchargeLastDay:
		return roundToUnit(float64(baseAmount) * firstSurchargeRate), models.ShareStateOverdue
	default:
		return roundToUnit(float64(baseAmount) * secondSurchargeRate), models.ShareStateOverdue
	}
}

// ApplyDiscount возвращает базовую сумму участника: при семейной скидке
// сконфигурированная база уменьшается на 10%. Скидка применяется до
// эскалации и каждый раз вычисляется заново от текущей базы.
func ApplyDiscount(configuredBase int, hasSiblingDiscount bool) int {
	if !hasSiblingDiscount {
		return configuredBase
	}
	return roundToUnit(float64(configuredBase) * siblingDiscountRate)
}

func roundToUnit(v float64) int {
	return int(math.Round(v))
}

// Package civil содержит календарные вычисления в гражданском часовом
// поясе клуба: нормализацию расчётного периода к первому числу месяца,
// номер дня месяца и границы срабатывания планировщика. Все границы
// биллинга считаются именно в поясе клуба, а не в UTC, чтобы смена
// тарифного окна совпадала с местной полуночью.
package civil

import "time"

// PeriodStart возвращает первое число месяца момента t в поясе loc,
// с обнулённым временем. Результат используется как period_date квоты.
func PeriodStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
}

// DayOfMonth возвращает номер дня месяца момента t в поясе loc.
func DayOfMonth(t time.Time, loc *time.Location) int {
	return t.In(loc).Day()
}

// NextMonthStart возвращает ближайший момент после t, когда в поясе loc
// наступает первое число месяца со сдвигом offset от полуночи.
func NextMonthStart(t time.Time, loc *time.Location, offset time.Duration) time.Time {
	local := t.In(loc)
	next := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc).
		AddDate(0, 1, 0).Add(offset)
	if candidate := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc).Add(offset); candidate.After(local) {
		return candidate
	}
	return next
}

// NextDailyTick возвращает ближайший момент после t, когда в поясе loc
// наступает время runAt (сдвиг от полуночи) текущих или следующих суток.
func NextDailyTick(t time.Time, loc *time.Location, runAt time.Duration) time.Time {
	local := t.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).Add(runAt)
	if candidate.After(local) {
		return candidate
	}
	return candidate.AddDate(0, 0, 1)
}

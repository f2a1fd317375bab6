// Package billing содержит ядро биллинга клуба: ежемесячную генерацию
// квот, ежедневную переоценку по тарифным окнам и фиксацию оплаты.
// Все коллабораторы (хранилище квот, справочник участников, настройки,
// уведомления) передаются явными зависимостями, поэтому движок целиком
// проверяется на подменах в памяти.
package billing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/clubops/club-billing/internal/lib/civil"
	"github.com/clubops/club-billing/internal/lib/pricing"
	"github.com/clubops/club-billing/internal/lib/sl"
	"github.com/clubops/club-billing/internal/metrics"
	"github.com/clubops/club-billing/internal/models"
)

// baseAmountKey ключ настройки с текущей базовой суммой квоты.
const baseAmountKey = "billing:base_amount"

// ErrRefreshWindowClosed ручное обновление квот доступно только
// до конца льготного окна текущего месяца.
var ErrRefreshWindowClosed = errors.New("manual refresh is allowed only until the 10th day of the month")

// ShareRepository определяет методы хранилища квот.
type ShareRepository interface {
	// FindSharesByPeriod возвращает квоты периода, ограниченные списком участников.
	FindSharesByPeriod(ctx context.Context, periodDate time.Time, memberUIDs []string) ([]*models.Share, error)
	// FindSharesByStates возвращает квоты в перечисленных состояниях со скидкой владельца.
	FindSharesByStates(ctx context.Context, states []models.ShareState) ([]*models.OutstandingShare, error)
	// BulkInsertShares атомарно вставляет недостающие квоты.
	BulkInsertShares(ctx context.Context, drafts []models.ShareDraft) ([]*models.Share, error)
	// BulkUpdateShares атомарно применяет переоценку по ID.
	BulkUpdateShares(ctx context.Context, updates []models.ShareUpdate) (int, error)
	// MarkSharePaid фиксирует оплату квоты.
	MarkSharePaid(ctx context.Context, id int, paymentMethod string, paymentDate time.Time, updatedBy string) error
}

// MemberDirectory определяет чтение справочника участников.
type MemberDirectory interface {
	ListActiveMembers(ctx context.Context) ([]*models.Member, error)
}

// SettingsStore определяет хранилище административных настроек.
type SettingsStore interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// Notifier отправляет уведомление о новой квоте. Вызывается отдельно
// для каждого участника; ошибка одного получателя не влияет на остальных.
type Notifier interface {
	NotifyShareCreated(info models.ShareCreatedInfo) error
}

// GenerationSummary итог запуска ежемесячной генерации.
type GenerationSummary struct {
	PeriodDate    time.Time `json:"period_date"`
	ActiveMembers int       `json:"active_members"`
	Created       int       `json:"created"`
	Notified      int       `json:"notified"`
	NotifyFailed  int       `json:"notify_failed"`
}

// RepriceSummary итог запуска переоценки.
type RepriceSummary struct {
	Outstanding int `json:"outstanding"`
	Updated     int `json:"updated"`
}

// Engine реализует бизнес-логику биллинга квот.
type Engine struct {
	repo     ShareRepository
	members  MemberDirectory
	settings SettingsStore
	notifier Notifier

	loc          *time.Location
	fallbackBase int
	log          *slog.Logger

	// now подменяется в тестах; в остальном всегда time.Now.
	now func() time.Time
}

// NewEngine создает новый экземпляр Engine.
func NewEngine(repo ShareRepository, members MemberDirectory, settings SettingsStore,
	notifier Notifier, loc *time.Location, fallbackBase int, log *slog.Logger) *Engine {
	return &Engine{
		repo:         repo,
		members:      members,
		settings:     settings,
		notifier:     notifier,
		loc:          loc,
		fallbackBase: fallbackBase,
		log:          log,
		now:          time.Now,
	}
}

// GenerateMonthlyShares выставляет квоту текущего расчётного периода
// каждому активному участнику, у которого её ещё нет. Операция
// идемпотентна: повторный запуск для того же периода досоздаёт только
// недостающие квоты и никогда не дублирует существующие.
func (e *Engine) GenerateMonthlyShares(ctx context.Context) (*GenerationSummary, error) {
	const op = "billing.GenerateMonthlyShares"
	log := e.log.With(sl.Op(op))

	now := e.now()
	periodDate := civil.PeriodStart(now, e.loc)
	base := e.baseAmount(ctx, log)

	activeMembers, err := e.members.ListActiveMembers(ctx)
	if err != nil {
		return nil, err
	}

	memberUIDs := make([]string, 0, len(activeMembers))
	for _, m := range activeMembers {
		memberUIDs = append(memberUIDs, m.UID)
	}

	existing, err := e.repo.FindSharesByPeriod(ctx, periodDate, memberUIDs)
	if err != nil {
		return nil, err
	}
	covered := make(map[string]struct{}, len(existing))
	for _, share := range existing {
		covered[share.MemberUID] = struct{}{}
	}

	byUID := make(map[string]*models.Member, len(activeMembers))
	var drafts []models.ShareDraft
	for _, m := range activeMembers {
		byUID[m.UID] = m
		if _, ok := covered[m.UID]; ok {
			continue
		}
		// В момент генерации действует базовый тариф первого дня месяца.
		amount, state := pricing.Price(pricing.ApplyDiscount(base, m.HasSiblingDiscount), 1)
		drafts = append(drafts, models.ShareDraft{
			MemberUID:  m.UID,
			PeriodDate: periodDate,
			Amount:     amount,
			State:      state,
		})
	}

	created, err := e.repo.BulkInsertShares(ctx, drafts)
	if err != nil {
		return nil, err
	}
	metrics.SharesGenerated.Add(float64(len(created)))

	summary := &GenerationSummary{
		PeriodDate:    periodDate,
		ActiveMembers: len(activeMembers),
		Created:       len(created),
	}
	log.Info("monthly shares generated",
		slog.Time("period_date", periodDate),
		slog.Int("active_members", summary.ActiveMembers),
		slog.Int("created", summary.Created))

	// Уведомления рассылаются после фиксации квот и не откатывают её:
	// неудача отдельного получателя только логируется и попадает в итог.
	for _, share := range created {
		member, ok := byUID[share.MemberUID]
		if !ok || member.Email == "" {
			continue
		}
		err := e.notifier.NotifyShareCreated(models.ShareCreatedInfo{
			Email:      member.Email,
			MemberName: member.FullName,
			PeriodDate: share.PeriodDate,
			Amount:     share.Amount,
		})
		if err != nil {
			summary.NotifyFailed++
			metrics.NotifyFailures.Inc()
			log.Error("failed to notify member about new share",
				slog.String("member_uid", member.UID), sl.Err(err))
			continue
		}
		summary.Notified++
	}

	log.Info("share notifications dispatched",
		slog.Int("notified", summary.Notified),
		slog.Int("notify_failed", summary.NotifyFailed))
	return summary, nil
}

// RepriceOutstandingShares пересчитывает сумму и состояние всех
// неоплаченных квот по номеру сегодняшнего дня в поясе клуба.
// День берётся из текущей даты, а не из периода квоты: неоплаченная
// квота прошлого месяца эскалируется по сегодняшнему окну.
func (e *Engine) RepriceOutstandingShares(ctx context.Context) (*RepriceSummary, error) {
	const op = "billing.RepriceOutstandingShares"
	log := e.log.With(sl.Op(op))

	dayOfMonth := civil.DayOfMonth(e.now(), e.loc)
	return e.reprice(ctx, log, dayOfMonth, nil)
}

// RefreshPendingCurrentMonth ручной вариант переоценки: доступен только
// пока открыто льготное окно и затрагивает только квоты текущего месяца.
// Вне окна возвращает ErrRefreshWindowClosed, не выполняя ни одной записи.
func (e *Engine) RefreshPendingCurrentMonth(ctx context.Context) (*RepriceSummary, error) {
	const op = "billing.RefreshPendingCurrentMonth"
	log := e.log.With(sl.Op(op))

	now := e.now()
	dayOfMonth := civil.DayOfMonth(now, e.loc)
	if dayOfMonth > pricing.GraceWindowLastDay {
		log.Warn("manual refresh rejected", slog.Int("day_of_month", dayOfMonth))
		return nil, ErrRefreshWindowClosed
	}

	periodDate := civil.PeriodStart(now, e.loc)
	return e.reprice(ctx, log, dayOfMonth, &periodDate)
}

// reprice общая часть плановой и ручной переоценки. При непустом
// periodOnly обрабатываются только квоты этого расчётного периода.
func (e *Engine) reprice(ctx context.Context, log *slog.Logger, dayOfMonth int, periodOnly *time.Time) (*RepriceSummary, error) {
	base := e.baseAmount(ctx, log)

	outstanding, err := e.repo.FindSharesByStates(ctx,
		[]models.ShareState{models.ShareStatePending, models.ShareStateOverdue})
	if err != nil {
		return nil, err
	}

	var updates []models.ShareUpdate
	matched := 0
	for _, o := range outstanding {
		if periodOnly != nil && !samePeriod(o.Share.PeriodDate, *periodOnly) {
			continue
		}
		matched++
		amount, state := pricing.Price(pricing.ApplyDiscount(base, o.HasSiblingDiscount), dayOfMonth)
		if amount == o.Share.Amount && state == o.Share.State {
			continue
		}
		updates = append(updates, models.ShareUpdate{
			ID:     o.Share.ID,
			Amount: amount,
			State:  state,
		})
	}

	updated, err := e.repo.BulkUpdateShares(ctx, updates)
	if err != nil {
		return nil, err
	}
	metrics.SharesRepriced.Add(float64(updated))

	log.Info("shares repriced",
		slog.Int("day_of_month", dayOfMonth),
		slog.Int("outstanding", matched),
		slog.Int("updated", updated))
	return &RepriceSummary{Outstanding: matched, Updated: updated}, nil
}

// RecordPayment фиксирует оплату квоты от имени actor. После оплаты
// квота становится терминальной и исключается из переоценки.
func (e *Engine) RecordPayment(ctx context.Context, shareID int, paymentMethod, actor string) error {
	const op = "billing.RecordPayment"
	log := e.log.With(sl.Op(op))

	if err := e.repo.MarkSharePaid(ctx, shareID, paymentMethod, e.now(), actor); err != nil {
		return err
	}
	log.Info("share payment recorded",
		slog.Int("share_id", shareID),
		slog.String("payment_method", paymentMethod),
		slog.String("actor", actor))
	return nil
}

// SetBaseAmount сохраняет новую базовую сумму квоты в настройках.
func (e *Engine) SetBaseAmount(ctx context.Context, amount int) error {
	const op = "billing.SetBaseAmount"
	log := e.log.With(sl.Op(op))

	if err := e.settings.Set(ctx, baseAmountKey, amount); err != nil {
		return err
	}
	log.Info("base amount updated", slog.Int("amount", amount))
	return nil
}

// baseAmount читает текущую базовую сумму из настроек; при отсутствии
// ключа или недоступности хранилища действует значение из конфига.
func (e *Engine) baseAmount(ctx context.Context, log *slog.Logger) int {
	var amount int
	found, err := e.settings.Get(ctx, baseAmountKey, &amount)
	if err != nil {
		log.Warn("failed to read base amount, using fallback",
			slog.Int("fallback", e.fallbackBase), sl.Err(err))
		return e.fallbackBase
	}
	if !found {
		log.Warn("base amount is not configured, using fallback",
			slog.Int("fallback", e.fallbackBase))
		return e.fallbackBase
	}
	return amount
}

// samePeriod сравнивает расчётные периоды по календарному месяцу,
// игнорируя часовые пояса хранилища и клуба.
func samePeriod(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// Package scheduler запускает задания биллинга по настенным часам
// в гражданском поясе клуба: генерацию квот в начале первого числа
// месяца и переоценку вскоре после каждой полуночи. Планировщик не
// сериализует запуски сам — от наложения защищают идемпотентные
// операции хранилища.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/clubops/club-billing/internal/lib/civil"
	"github.com/clubops/club-billing/internal/lib/sl"
	"github.com/clubops/club-billing/internal/metrics"
	billingservice "github.com/clubops/club-billing/internal/services/billing"
)

// BillingEngine операции биллинга, запускаемые по расписанию.
type BillingEngine interface {
	GenerateMonthlyShares(ctx context.Context) (*billingservice.GenerationSummary, error)
	RepriceOutstandingShares(ctx context.Context) (*billingservice.RepriceSummary, error)
}

// SchedulerService вычисляет ближайшие гражданские границы запуска
// и вызывает операции движка с ограничением времени выполнения.
type SchedulerService struct {
	engine BillingEngine
	log    *slog.Logger

	loc          *time.Location
	jobTimeout   time.Duration
	monthlyRunAt time.Duration
	dailyRunAt   time.Duration

	now func() time.Time
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(engine BillingEngine, log *slog.Logger, loc *time.Location,
	jobTimeout, monthlyRunAt, dailyRunAt time.Duration) *SchedulerService {
	return &SchedulerService{
		engine:       engine,
		log:          log,
		loc:          loc,
		jobTimeout:   jobTimeout,
		monthlyRunAt: monthlyRunAt,
		dailyRunAt:   dailyRunAt,
		now:          time.Now,
	}
}

// RunMonthlyGeneration блокируется до отмены ctx, запуская генерацию
// квот в начале первого числа каждого месяца.
func (s *SchedulerService) RunMonthlyGeneration(ctx context.Context) {
	s.log.Info("monthly generation schedule started",
		slog.String("timezone", s.loc.String()))
	for {
		next := civil.NextMonthStart(s.now(), s.loc, s.monthlyRunAt)
		if !s.waitUntil(ctx, next) {
			return
		}
		s.runJob(ctx, "monthly_generation", func(jobCtx context.Context) error {
			_, err := s.engine.GenerateMonthlyShares(jobCtx)
			return err
		})
	}
}

// RunDailyReprice блокируется до отмены ctx, запуская переоценку
// неоплаченных квот вскоре после каждой полуночи.
func (s *SchedulerService) RunDailyReprice(ctx context.Context) {
	s.log.Info("daily reprice schedule started",
		slog.String("timezone", s.loc.String()))
	for {
		next := civil.NextDailyTick(s.now(), s.loc, s.dailyRunAt)
		if !s.waitUntil(ctx, next) {
			return
		}
		s.runJob(ctx, "daily_reprice", func(jobCtx context.Context) error {
			_, err := s.engine.RepriceOutstandingShares(jobCtx)
			return err
		})
	}
}

// waitUntil спит до момента at; false означает отмену контекста.
func (s *SchedulerService) waitUntil(ctx context.Context, at time.Time) bool {
	timer := time.NewTimer(time.Until(at))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// runJob выполняет одно задание с ограничением по времени. Ошибка
// логируется и учитывается в метриках; повторный запуск произойдёт
// только на следующей естественной границе расписания.
func (s *SchedulerService) runJob(ctx context.Context, job string, fn func(context.Context) error) {
	jobCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	s.log.Info("billing job started", slog.String("job", job))
	if err := fn(jobCtx); err != nil {
		metrics.JobFailures.WithLabelValues(job).Inc()
		s.log.Error("billing job failed", slog.String("job", job), sl.Err(err))
		return
	}
	s.log.Info("billing job finished", slog.String("job", job))
}

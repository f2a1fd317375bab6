// Package refresh реализует HTTP-обработчик ручного пересчёта квот
// текущего месяца. Действие доступно только пока открыто льготное окно
// оплаты; вне окна возвращается ошибка валидации без каких-либо записей.
package refresh

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/clubops/club-billing/internal/http/response"
	"github.com/clubops/club-billing/internal/lib/sl"
	billingservice "github.com/clubops/club-billing/internal/services/billing"
)

// Service описывает интерфейс бизнес-логики ручного пересчёта.
type Service interface {
	RefreshPendingCurrentMonth(ctx context.Context) (*billingservice.RepriceSummary, error)
}

// Handler управляет HTTP-запросами ручного пересчёта квот.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.refresh"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	summary, err := h.service.RefreshPendingCurrentMonth(r.Context())
	if err != nil {
		if errors.Is(err, billingservice.ErrRefreshWindowClosed) {
			log.Warn("manual refresh rejected", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		log.Error("failed to refresh shares", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not refresh shares"))
		return
	}

	log.Info("shares refreshed", slog.Int("updated", summary.Updated))
	render.JSON(w, r, response.OKWithData(summary))
}

// Package configset реализует HTTP-обработчик смены базовой суммы квоты.
// Новая сумма попадает в хранилище настроек и начинает действовать
// со следующего запуска генерации или переоценки.
package configset

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/clubops/club-billing/internal/http/response"
	"github.com/clubops/club-billing/internal/lib/sl"
	"github.com/clubops/club-billing/internal/models"
)

// Service описывает интерфейс бизнес-логики настройки базовой суммы.
type Service interface {
	SetBaseAmount(ctx context.Context, amount int) error
}

// Handler управляет HTTP-запросами смены базовой суммы.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.configset"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyBaseAmount
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.SetBaseAmount(r.Context(), req.Amount); err != nil {
		log.Error("failed to set base amount", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not set base amount"))
		return
	}

	log.Info("base amount updated", slog.Int("amount", req.Amount))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"amount": req.Amount,
	}))
}

// Package record реализует HTTP-обработчик фиксации оплаты квоты.
//
// Handler принимает JSON-запрос со способом оплаты, валидирует его
// и передаёт в бизнес-логику; оплаченная квота становится терминальной
// и перестаёт участвовать в переоценке.
package record

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/clubops/club-billing/internal/http/response"
	"github.com/clubops/club-billing/internal/lib/sl"
	"github.com/clubops/club-billing/internal/models"
	"github.com/clubops/club-billing/internal/storage/repository"
)

// Service описывает интерфейс бизнес-логики фиксации оплаты.
type Service interface {
	RecordPayment(ctx context.Context, shareID int, paymentMethod, actor string) error
}

// Handler управляет HTTP-запросами фиксации оплаты квот.
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
	const op = "handlers.payment.record"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	shareID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid share id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid share id"))
		return
	}

	var req models.DummyPayment
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

	if err := h.service.RecordPayment(r.Context(), shareID, req.PaymentMethod, "admin"); err != nil {
		switch {
		case errors.Is(err, repository.ErrShareNotFound):
			log.Warn("share not found", slog.Int("share_id", shareID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("share not found"))
		case errors.Is(err, repository.ErrShareAlreadyPaid):
			log.Warn("share already paid", slog.Int("share_id", shareID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("share already paid"))
		default:
			log.Error("failed to record payment", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not record payment"))
		}
		return
	}

	log.Info("payment recorded", slog.Int("share_id", shareID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"share_id": shareID,
	}))
}

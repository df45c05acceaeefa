// Package verify confirms a one-time code and opens the trial window.
package verify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/premium-access/internal/http/response"
	"github.com/magabrotheeeer/premium-access/internal/lib/sl"
	"github.com/magabrotheeeer/premium-access/internal/services/registration"
)

type Request struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	Code        string `json:"code" validate:"required"`
}

type Service interface {
	ConfirmVerification(ctx context.Context, phoneNumber, code string) (bool, error)
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Confirm verification code
// @Description Checks the one-time code and starts the 48-hour trial on first success.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body Request true "Phone number and code"
// @Success 200 {object} response.Response "Trial state"
// @Failure 401 {object} response.ErrorResponse "Code rejected"
// @Router /verify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.verify"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	activated, err := h.service.ConfirmVerification(r.Context(), req.PhoneNumber, req.Code)
	if err != nil {
		if errors.Is(err, registration.ErrNotVerified) {
			log.Info("code rejected", slog.String("phone_number", req.PhoneNumber))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("verification code rejected"))
			return
		}
		log.Error("verification failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	message := "already verified"
	if activated {
		message = "trial started"
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"trial_activated": activated,
		"message":         message,
	}))
}

// Package register handles account registration requests.
package register

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/premium-access/internal/http/response"
	"github.com/magabrotheeeer/premium-access/internal/lib/sl"
	"github.com/magabrotheeeer/premium-access/internal/services/registration"
)

// Request carries the registration input. The phone number is the mandatory
// identity key; email and password are optional.
type Request struct {
	PhoneNumber string  `json:"phone_number" validate:"required,min=7,max=20"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Password    string  `json:"password" validate:"omitempty,min=6"`
}

// Service is the registration business logic consumed by this handler.
type Service interface {
	Register(ctx context.Context, phoneNumber string, email *string, password string) (string, registration.ConflictReason, error)
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
// @Summary Register an account
// @Description Creates an account after the duplicate identity check. The trial starts later, at the first successful verification.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body Request true "Registration data"
// @Success 200 {object} response.Response "Account created"
// @Failure 400 {object} response.ErrorResponse "Invalid JSON"
// @Failure 409 {object} response.ErrorResponse "Phone or email already registered"
// @Failure 422 {object} response.Response "Validation error"
// @Router /register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

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

	uid, reason, err := h.service.Register(r.Context(), req.PhoneNumber, req.Email, req.Password)
	if err != nil {
		log.Error("registration failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to register account"))
		return
	}
	if reason != registration.ReasonNone {
		log.Info("registration conflict", slog.String("reason", string(reason)))
		status := http.StatusConflict
		if reason == registration.ReasonPhoneRequired {
			status = http.StatusUnprocessableEntity
		}
		render.Status(r, status)
		render.JSON(w, r, response.Conflict("identity already registered, log in instead", string(reason)))
		return
	}

	log.Info("account registered", slog.String("account_uid", uid))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"account_uid": uid,
		"message":     "account created successfully",
	}))
}

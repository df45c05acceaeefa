// Package check answers the access question for the authenticated account.
package check

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/premium-access/internal/http/middlewarectx"
	"github.com/magabrotheeeer/premium-access/internal/http/response"
	"github.com/magabrotheeeer/premium-access/internal/lib/sl"
	"github.com/magabrotheeeer/premium-access/internal/services/access"
)

type Service interface {
	Check(ctx context.Context, uid string, now time.Time) (*access.CheckResult, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Check access
// @Description Evaluates whether the account may use the product right now.
// @Tags Access
// @Produce json
// @Success 200 {object} response.Response "Access decision"
// @Failure 401 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /access [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.check"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := r.Context().Value(middlewarectx.AccountUID).(string)
	if !ok || uid == "" {
		log.Error("account uid missing from context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	result, err := h.service.Check(r.Context(), uid, time.Now().UTC())
	if err != nil {
		log.Error("access check failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"allowed":       result.Decision.Allowed(),
		"decision":      result.Decision,
		"status":        result.Status,
		"trial_message": result.TrialMessage,
	}))
}

package premiumaccess

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/premium-access/internal/config"
	"github.com/magabrotheeeer/premium-access/internal/http/handlers/access/check"
	"github.com/magabrotheeeer/premium-access/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/premium-access/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/premium-access/internal/http/handlers/auth/sendcode"
	"github.com/magabrotheeeer/premium-access/internal/http/handlers/auth/setpassword"
	"github.com/magabrotheeeer/premium-access/internal/http/handlers/auth/verify"
	"github.com/magabrotheeeer/premium-access/internal/http/handlers/health"
	"github.com/magabrotheeeer/premium-access/internal/http/handlers/payment/paymentinit"
	"github.com/magabrotheeeer/premium-access/internal/http/handlers/payment/paymentwebhook"
	"github.com/magabrotheeeer/premium-access/internal/http/middlewarectx"
	"github.com/magabrotheeeer/premium-access/internal/lib/jwt"
	accessservice "github.com/magabrotheeeer/premium-access/internal/services/access"
	paymentservice "github.com/magabrotheeeer/premium-access/internal/services/payment"
	registrationservice "github.com/magabrotheeeer/premium-access/internal/services/registration"
	"github.com/magabrotheeeer/premium-access/internal/storage/repository"
)

// RegisterRoutes mounts every endpoint of the service on the router.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config,
	jwtMaker jwt.Maker, db *repository.Storage,
	registrationSvc *registrationservice.Service,
	accessSvc *accessservice.Service,
	paymentSvc *paymentservice.Service) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Open endpoints
		r.Post("/register", register.New(logger, registrationSvc).ServeHTTP)
		r.Post("/login", login.New(logger, registrationSvc).ServeHTTP)
		r.Post("/sendcode", sendcode.New(logger, registrationSvc).ServeHTTP)
		r.Post("/verify", verify.New(logger, registrationSvc).ServeHTTP)

		// Session-protected endpoints
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Get("/access", check.New(logger, accessSvc).ServeHTTP)
			r.Put("/password", setpassword.New(logger, registrationSvc).ServeHTTP)
			r.Post("/payments", paymentinit.New(logger, paymentSvc).ServeHTTP)
		})

		// Gateway callback, authenticated by its HMAC signature
		r.Post("/payments/webhook",
			paymentwebhook.New(logger, paymentSvc, cfg.WebhookSecret).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
	r.Get("/health", health.New(logger, db).ServeHTTP)
}

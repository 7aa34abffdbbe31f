package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spendsmart-api/internal/application/auth"
	"github.com/spendsmart-api/internal/application/category"
	"github.com/spendsmart-api/internal/application/dashboard"
	"github.com/spendsmart-api/internal/application/notification"
	"github.com/spendsmart-api/internal/application/report"
	"github.com/spendsmart-api/internal/application/transaction"
	"github.com/spendsmart-api/internal/application/user"
	"github.com/spendsmart-api/internal/config"
	"github.com/spendsmart-api/internal/transport/http/handler"
	appmiddleware "github.com/spendsmart-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo        UserRepository
	CategoryRepo    CategoryRepository
	TransactionRepo TransactionRepository
	Codes           CodeStore
	ObjectStore     ObjectStore
	Mailer          Mailer
	SMSSender       SMSSender
	JWTProvider     TokenProvider
}

// NewRouter builds and returns the application router. Background work started
// here (rate limiter cleanup) stops when ctx is cancelled.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10, applied to the public code-issuing endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)
	go func() {
		<-ctx.Done()
		sensitiveRL.Close()
	}()

	notifSvc := notification.NewService(notification.ServiceDeps{
		Mailer:    deps.Mailer,
		SMSSender: deps.SMSSender,
		CodeTTL:   deps.Codes.TTL(),
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		Codes:          deps.Codes,
		UserRepo:       deps.UserRepo,
		Notifier:       notifSvc,
		JWTProvider:    deps.JWTProvider,
		ResendCooldown: cfg.OTPResendCooldown,
	})
	userSvc := user.NewService(deps.UserRepo)
	categorySvc := category.NewService(category.ServiceDeps{
		CategoryRepo:    deps.CategoryRepo,
		TransactionRepo: deps.TransactionRepo,
	})
	txSvc := transaction.NewService(transaction.ServiceDeps{
		TransactionRepo: deps.TransactionRepo,
		CategoryRepo:    deps.CategoryRepo,
	})
	dashSvc := dashboard.NewService(dashboard.ServiceDeps{Transactions: txSvc})
	reportSvc := report.NewService(report.ServiceDeps{
		Dashboard:    dashSvc,
		Transactions: txSvc,
		UserRepo:     deps.UserRepo,
		Store:        deps.ObjectStore,
		URLTTL:       cfg.ReportURLTTL,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	pwH := handler.NewPasswordHandler(authSvc)
	profileH := handler.NewProfileHandler(userSvc)
	categoryH := handler.NewCategoryHandler(categorySvc)
	txH := handler.NewTransactionHandler(txSvc, dashSvc)
	reportH := handler.NewReportHandler(reportSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)

		r.Route("/auth", func(r chi.Router) {
			r.With(sensitiveRL.Limit).Post("/register", authH.Register)
			r.With(sensitiveRL.Limit).Post("/verify-otp", authH.VerifyOTP)
			r.With(sensitiveRL.Limit).Post("/resend-otp", authH.ResendOTP)
			r.With(sensitiveRL.Limit).Post("/login", authH.Login)
		})

		r.Route("/password", func(r chi.Router) {
			r.Use(sensitiveRL.Limit)
			r.Post("/forgot", pwH.Forgot)
			r.Post("/verify-reset-otp", pwH.VerifyResetOTP)
			r.Post("/reset", pwH.Reset)
			r.Post("/resend-reset-otp", pwH.ResendResetOTP)
		})

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.JWTProvider))

			r.Get("/user/profile", profileH.Get)
			r.Put("/user/profile", profileH.Update)

			r.Get("/categories", categoryH.List)
			r.Post("/categories", categoryH.Create)
			r.Get("/categories/{id}", categoryH.Get)
			r.Put("/categories/{id}", categoryH.Update)
			r.Delete("/categories/{id}", categoryH.Delete)

			r.Get("/transactions", txH.List)
			r.Post("/transactions", txH.Create)
			r.Get("/transactions/dashboard/summary", txH.Summary)
			r.Get("/transactions/{id}", txH.Get)
			r.Put("/transactions/{id}", txH.Update)
			r.Delete("/transactions/{id}", txH.Delete)

			r.Post("/reports/statement", reportH.Statement)
		})
	})

	return r
}

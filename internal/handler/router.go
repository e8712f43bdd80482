package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/GoArmGo/OrnaCloud/internal/domain"
	"github.com/GoArmGo/OrnaCloud/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterDeps — зависимости HTTP-слоя
type RouterDeps struct {
	Auth         *AuthHandler
	Memos        *RecordHandler[*domain.Memo]
	Invoices     *RecordHandler[*domain.Invoice]
	Directory    *DirectoryHandler
	LoginLimiter *LoginLimiter
	DB           Pinger
	Timeout      time.Duration
	// TrustProxy: адрес клиента берётся из X-Forwarded-For / X-Real-IP.
	// Без доверенного прокси эти заголовки задаёт сам клиент.
	TrustProxy bool
	Logger     *slog.Logger
}

// NewRouter собирает chi-роутер со всеми маршрутами сервиса.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if d.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)
	if d.Timeout > 0 {
		r.Use(middleware.Timeout(d.Timeout))
	}

	r.Get("/healthz", Health(d.DB, d.Logger))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Публичные маршруты
	r.Group(func(r chi.Router) {
		if d.LoginLimiter != nil {
			r.Use(d.LoginLimiter.Middleware)
		}
		r.Post("/signup", d.Auth.Signup)
		r.Post("/login", d.Auth.Login)
	})
	r.Delete("/logout", d.Auth.Logout)
	r.Get("/check", d.Auth.Check)
	r.Get("/api/categories", d.Directory.Categories)

	// Защищённые маршруты
	r.Group(func(r chi.Router) {
		r.Use(d.Auth.RequireSession)

		r.Get("/companies", d.Directory.Companies)
		r.Route("/memos", func(r chi.Router) {
			r.Get("/upcoming", d.Directory.UpcomingMemos)
			d.Memos.Mount(r)
		})
		r.Route("/invoices", d.Invoices.Mount)
	})

	return r
}

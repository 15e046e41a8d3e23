package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"passportsheet/internal/http/handlers"
	"passportsheet/internal/middleware"
)

func NewRouter(app *handlers.App) http.Handler {
	cfg := app.Config
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.CleanPath,
		middleware.Logger(app.Logger),
		chimw.Recoverer,
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.I18N(cfg.DefaultLocale, app.CountryLookup),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	r.Route("/v1/credentials/gemini", func(r chi.Router) {
		r.Get("/", app.CredentialStatus)
		r.Put("/", app.CredentialPut)
		r.Delete("/", app.CredentialDelete)
	})

	limited := middleware.RateLimit(cfg.RateLimitPerMin, time.Minute)
	r.With(limited).Post("/v1/previews", app.PreviewsCreate)

	r.Route("/v1/sheets", func(r chi.Router) {
		r.Use(middleware.Session(cfg.SessionTTL))
		r.With(limited).Post("/", app.SheetsCreate)
		r.Get("/current", app.SheetCurrent)
		r.Delete("/current", app.SheetDiscard)
		r.Get("/current/download", app.SheetDownload)
	})

	return r
}

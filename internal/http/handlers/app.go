package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"passportsheet/internal/infra"
	"passportsheet/internal/infra/credentials"
	"passportsheet/internal/passport"
)

// CredentialStore is the persisted Gemini credential, backed by Postgres or
// process memory.
type CredentialStore interface {
	GeminiAPIKey(ctx context.Context) (string, error)
	SetGeminiAPIKey(ctx context.Context, key string) error
	ClearGeminiAPIKey(ctx context.Context) error
	GeminiStatus(ctx context.Context) (credentials.Status, error)
}

type App struct {
	Config      *infra.Config
	Logger      zerolog.Logger
	Passport    *passport.Service
	Credentials CredentialStore

	// CountryLookup feeds locale detection; nil disables IP lookups.
	CountryLookup func(ip string) (string, error)
}

func NewApp(cfg *infra.Config, logger zerolog.Logger, svc *passport.Service, creds CredentialStore) *App {
	return &App{Config: cfg, Logger: logger, Passport: svc, Credentials: creds}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]errorBody{"error": {Code: errCode, Message: message}})
}

func (a *App) defaultCount() int {
	if a.Config != nil && a.Config.DefaultSheetCount > 0 {
		return a.Config.DefaultSheetCount
	}
	return passport.DefaultCount
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"passportsheet/internal/infra/credentials"
	"passportsheet/internal/middleware"
)

type credentialRequest struct {
	APIKey string `json:"api_key"`
}

type credentialStatusResponse struct {
	Provider   string     `json:"provider"`
	Configured bool       `json:"configured"`
	Source     string     `json:"source"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

func (a *App) CredentialStatus(w http.ResponseWriter, r *http.Request) {
	status, err := a.Credentials.GeminiStatus(r.Context())
	if err != nil {
		a.fail(w, r, err, msgInternal)
		return
	}
	resp := credentialStatusResponse{Provider: credentials.ProviderGemini, Source: "none"}
	switch {
	case status.Configured:
		resp.Configured, resp.Source = true, "stored"
		if !status.UpdatedAt.IsZero() {
			updated := status.UpdatedAt
			resp.UpdatedAt = &updated
		}
	case a.Config != nil && a.Config.GeminiAPIKey != "":
		resp.Configured, resp.Source = true, "environment"
	}
	a.json(w, http.StatusOK, resp)
}

func (a *App) CredentialPut(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	var req credentialRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", message(locale, msgInvalidPayload))
		return
	}
	if err := a.Credentials.SetGeminiAPIKey(r.Context(), strings.TrimSpace(req.APIKey)); err != nil {
		if errors.Is(err, credentials.ErrEmptyKey) {
			a.error(w, http.StatusBadRequest, "missing_credential", message(locale, msgMissingCredential))
			return
		}
		a.fail(w, r, err, msgInternal)
		return
	}
	a.Logger.Info().Str("request_id", middleware.RequestIDFromContext(r.Context())).Msg("gemini credential stored")
	a.CredentialStatus(w, r)
}

func (a *App) CredentialDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.Credentials.ClearGeminiAPIKey(r.Context()); err != nil {
		a.fail(w, r, err, msgInternal)
		return
	}
	a.Logger.Info().Str("request_id", middleware.RequestIDFromContext(r.Context())).Msg("gemini credential cleared")
	w.WriteHeader(http.StatusNoContent)
}

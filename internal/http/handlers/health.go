package handlers

import (
	"net/http"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}
	if a.Config != nil && a.Config.AppEnv != "" {
		resp["env"] = a.Config.AppEnv
	}
	a.json(w, http.StatusOK, resp)
}

package handlers

import (
	"net/http"
)

type previewResponse struct {
	Filename string `json:"filename,omitempty"`
	MIMEType string `json:"mime_type"`
	Bytes    int64  `json:"bytes"`
	DataURL  string `json:"data_url"`
}

func (a *App) PreviewsCreate(w http.ResponseWriter, r *http.Request) {
	src, err := readPhoto(w, r)
	if err != nil {
		a.fail(w, r, err, msgPreviewFailed)
		return
	}
	payload, err := a.Passport.Preview(src)
	if err != nil {
		a.fail(w, r, err, msgPreviewFailed)
		return
	}
	a.json(w, http.StatusOK, previewResponse{
		Filename: src.Filename,
		MIMEType: payload.MIMEType,
		Bytes:    src.Size,
		DataURL:  payload.DataURL,
	})
}

package handlers

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"passportsheet/internal/middleware"
	"passportsheet/internal/passport"
	"passportsheet/internal/photo"
	"passportsheet/internal/sheet"
	"passportsheet/pkg/zip"
)

type sheetResponse struct {
	Filename string `json:"filename"`
	MIMEType string `json:"mime_type"`
	Count    int    `json:"count"`
	Columns  int    `json:"columns"`
	Rows     int    `json:"rows"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	DataURL  string `json:"data_url,omitempty"`
}

type submitResponse struct {
	Status     passport.Status `json:"status"`
	Message    string          `json:"message,omitempty"`
	Sheet      *sheetResponse  `json:"sheet,omitempty"`
	DurationMS int64           `json:"duration_ms"`
}

func toSheetResponse(s *sheet.Sheet, withData bool) *sheetResponse {
	resp := &sheetResponse{
		Filename: s.Filename,
		MIMEType: sheet.MIMEType,
		Count:    s.Layout.Count,
		Columns:  s.Layout.Columns,
		Rows:     s.Layout.Rows,
		Width:    s.Layout.Width,
		Height:   s.Layout.Height,
	}
	if withData {
		resp.DataURL = photo.DataURL(sheet.MIMEType, base64.StdEncoding.EncodeToString(s.PNG))
	}
	return resp
}

func (a *App) SheetsCreate(w http.ResponseWriter, r *http.Request) {
	src, err := readPhoto(w, r)
	if err != nil {
		a.fail(w, r, err, msgPreviewFailed)
		return
	}
	count, err := a.readCount(r)
	if err != nil {
		a.fail(w, r, err, msgPreviewFailed)
		return
	}

	out, err := a.Passport.Submit(r.Context(), passport.Submission{
		SessionID: middleware.SessionIDFromContext(r.Context()),
		RequestID: middleware.RequestIDFromContext(r.Context()),
		Source:    src,
		Count:     count,
		APIKey:    requestAPIKey(r),
	})
	if err != nil {
		a.fail(w, r, err, msgPreviewFailed)
		return
	}

	resp := submitResponse{Status: out.Status, DurationMS: out.Duration.Milliseconds()}
	if out.Status == passport.StatusNoImage {
		resp.Message = message(middleware.LocaleFromContext(r.Context()), msgNoImage)
	} else {
		resp.Sheet = toSheetResponse(out.Sheet, true)
	}
	a.json(w, http.StatusOK, resp)
}

func (a *App) SheetCurrent(w http.ResponseWriter, r *http.Request) {
	s, err := a.Passport.CurrentSheet(middleware.SessionIDFromContext(r.Context()))
	if err != nil {
		a.fail(w, r, err, msgInternal)
		return
	}
	withData := r.URL.Query().Get("include") == "data"
	a.json(w, http.StatusOK, toSheetResponse(s, withData))
}

// SheetDownload serves the current sheet as an attachment and ends its
// lifetime.
func (a *App) SheetDownload(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "png"
	}
	if format != "png" && format != "pdf" && format != "zip" {
		a.error(w, http.StatusBadRequest, "invalid_format", message(middleware.LocaleFromContext(r.Context()), msgInvalidFormat))
		return
	}

	s, err := a.Passport.CurrentSheet(sessionID)
	if err != nil {
		a.fail(w, r, err, msgInternal)
		return
	}
	body, contentType, filename, err := renderDownload(s, format)
	if err != nil {
		a.fail(w, r, err, msgInternal)
		return
	}
	if err := a.Passport.ReleaseSheet(sessionID, s); err != nil {
		a.fail(w, r, err, msgInternal)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func renderDownload(s *sheet.Sheet, format string) ([]byte, string, string, error) {
	switch format {
	case "pdf":
		pdf, err := sheet.RenderPDF(s)
		if err != nil {
			return nil, "", "", err
		}
		return pdf, "application/pdf", sheet.PDFFilename(), nil
	case "zip":
		pdf, err := sheet.RenderPDF(s)
		if err != nil {
			return nil, "", "", err
		}
		bundle, err := zip.Archive([]zip.File{
			{Filename: s.Filename, Data: s.PNG},
			{Filename: sheet.PDFFilename(), Data: pdf},
		}, time.Now())
		if err != nil {
			return nil, "", "", err
		}
		return bundle, "application/zip", strings.TrimSuffix(s.Filename, ".png") + ".zip", nil
	default:
		return s.PNG, sheet.MIMEType, s.Filename, nil
	}
}

func (a *App) SheetDiscard(w http.ResponseWriter, r *http.Request) {
	if err := a.Passport.DiscardSheet(middleware.SessionIDFromContext(r.Context())); err != nil {
		a.fail(w, r, err, msgInternal)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

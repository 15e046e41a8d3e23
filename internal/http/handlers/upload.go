package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"passportsheet/internal/domain"
	"passportsheet/internal/passport"
	"passportsheet/internal/photo"
)

const (
	photoField   = "photo"
	countField   = "count"
	apiKeyField  = "api_key"
	apiKeyHeader = "X-Goog-Api-Key"

	// multipart framing and the small text fields ride on top of the photo
	maxFormOverhead = 1 << 20
	maxMemory       = 8 << 20
)

var errMalformedUpload = fmt.Errorf("%w: malformed multipart upload", domain.ErrPrecondition)

// readPhoto extracts the uploaded photo from a multipart request. The body
// is capped a little above the upload limit so oversized files are rejected
// without reading them whole.
func readPhoto(w http.ResponseWriter, r *http.Request) (photo.SourceImage, error) {
	r.Body = http.MaxBytesReader(w, r.Body, photo.MaxUploadBytes+maxFormOverhead)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return photo.SourceImage{}, photo.ErrTooLarge
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return photo.SourceImage{}, passport.ErrNoSource
		}
		return photo.SourceImage{}, fmt.Errorf("%w: %v", errMalformedUpload, err)
	}
	file, header, err := r.FormFile(photoField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return photo.SourceImage{}, passport.ErrNoSource
		}
		return photo.SourceImage{}, fmt.Errorf("%w: %v", errMalformedUpload, err)
	}
	defer file.Close()

	src, err := photo.Read(file, header.Header.Get("Content-Type"))
	if err != nil {
		return photo.SourceImage{}, err
	}
	src.Filename = header.Filename
	if header.Size > src.Size {
		src.Size = header.Size
	}
	return src, nil
}

func (a *App) readCount(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.FormValue(countField))
	if raw == "" {
		return a.defaultCount(), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, passport.ErrInvalidCount
	}
	return n, nil
}

func requestAPIKey(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(apiKeyHeader)); v != "" {
		return v
	}
	return strings.TrimSpace(r.FormValue(apiKeyField))
}

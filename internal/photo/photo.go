package photo

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"passportsheet/internal/domain"
)

// MaxUploadBytes is the largest photo accepted for a submission.
const MaxUploadBytes = 5 << 20

// AcceptedMIMETypes lists the upload formats the service takes.
var AcceptedMIMETypes = []string{"image/jpeg", "image/png", "image/webp"}

var (
	ErrUnsupportedType = fmt.Errorf("%w: unsupported image type", domain.ErrPrecondition)
	ErrTooLarge        = fmt.Errorf("%w: image exceeds %d bytes", domain.ErrPrecondition, MaxUploadBytes)
	ErrEmpty           = fmt.Errorf("%w: image payload is empty", domain.ErrEncoding)
)

// SourceImage is an uploaded photo as received from the client.
type SourceImage struct {
	Data     []byte
	MIMEType string
	Size     int64
	Filename string
}

// EncodedPayload is the transmission form of a SourceImage.
type EncodedPayload struct {
	MIMEType string
	Base64   string
	DataURL  string
}

// Read consumes r into a SourceImage. Reading stops one byte past
// MaxUploadBytes so oversized uploads are still reported by Validate
// without buffering the whole stream. When declaredMIME is blank the type
// is sniffed from the content.
func Read(r io.Reader, declaredMIME string) (SourceImage, error) {
	if r == nil {
		return SourceImage{}, fmt.Errorf("%w: no reader", domain.ErrEncoding)
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return SourceImage{}, fmt.Errorf("%w: read image: %v", domain.ErrEncoding, err)
	}
	if len(data) == 0 {
		return SourceImage{}, ErrEmpty
	}
	mime := NormalizeMIME(declaredMIME)
	if mime == "" || mime == "application/octet-stream" {
		mime = NormalizeMIME(http.DetectContentType(data))
	}
	return SourceImage{Data: data, MIMEType: mime, Size: int64(len(data))}, nil
}

// Validate applies the upload allowlist and size limit.
func (s SourceImage) Validate() error {
	if !IsAccepted(s.MIMEType) {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, s.MIMEType)
	}
	size := s.Size
	if size == 0 {
		size = int64(len(s.Data))
	}
	if size > MaxUploadBytes {
		return ErrTooLarge
	}
	return nil
}

// Encode produces the Base64 payload (no URI prefix) and a data URL for
// display.
func Encode(src SourceImage) (EncodedPayload, error) {
	if len(src.Data) == 0 {
		return EncodedPayload{}, ErrEmpty
	}
	mime := NormalizeMIME(src.MIMEType)
	if mime == "" {
		mime = NormalizeMIME(http.DetectContentType(src.Data))
	}
	payload := base64.StdEncoding.EncodeToString(src.Data)
	return EncodedPayload{
		MIMEType: mime,
		Base64:   payload,
		DataURL:  DataURL(mime, payload),
	}, nil
}

// EncodeReader reads and encodes in one step.
func EncodeReader(r io.Reader, mime string) (EncodedPayload, error) {
	src, err := Read(r, mime)
	if err != nil {
		return EncodedPayload{}, err
	}
	return Encode(src)
}

// DataURL formats a base64 payload as a data URI.
func DataURL(mime, payload string) string {
	return "data:" + mime + ";base64," + payload
}

// ParseDataURL splits a base64 data URI into its MIME type and decoded
// bytes.
func ParseDataURL(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: not a data url", domain.ErrEncoding)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || payload == "" {
		return "", nil, ErrEmpty
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("%w: data url is not base64", domain.ErrEncoding)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: decode data url: %v", domain.ErrEncoding, err)
	}
	return NormalizeMIME(mime), data, nil
}

// IsAccepted reports whether mime is on the upload allowlist.
func IsAccepted(mime string) bool {
	return slices.Contains(AcceptedMIMETypes, NormalizeMIME(mime))
}

// NormalizeMIME lowercases a MIME type and drops parameters.
func NormalizeMIME(mime string) string {
	mime, _, _ = strings.Cut(mime, ";")
	mime = strings.ToLower(strings.TrimSpace(mime))
	if mime == "image/jpg" {
		return "image/jpeg"
	}
	return mime
}

// Sniff returns the detected MIME type of data.
func Sniff(data []byte) string {
	return NormalizeMIME(http.DetectContentType(data))
}

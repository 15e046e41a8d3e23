package photo

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"passportsheet/internal/domain"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func samplePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.NRGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestEncodeReader(t *testing.T) {
	data := samplePNG(t)
	payload, err := EncodeReader(bytes.NewReader(data), "image/png")
	if err != nil {
		t.Fatalf("EncodeReader error: %v", err)
	}
	if strings.HasPrefix(payload.Base64, "data:") {
		t.Fatalf("base64 payload must not carry a uri prefix: %q", payload.Base64[:16])
	}
	decoded, err := base64.StdEncoding.DecodeString(payload.Base64)
	if err != nil {
		t.Fatalf("payload not base64: %v", err)
	}
	if !bytes.Equal(decoded, data) {
		t.Fatal("decoded payload mismatch")
	}
	want := "data:image/png;base64," + payload.Base64
	if payload.DataURL != want {
		t.Fatalf("DataURL = %q, want %q", payload.DataURL, want)
	}
}

func TestEncodeReaderFailures(t *testing.T) {
	tests := []struct {
		name string
		read func() error
	}{
		{
			name: "zero bytes",
			read: func() error {
				_, err := EncodeReader(bytes.NewReader(nil), "image/png")
				return err
			},
		},
		{
			name: "unreadable",
			read: func() error {
				_, err := EncodeReader(failingReader{}, "image/png")
				return err
			},
		},
		{
			name: "nil reader",
			read: func() error {
				_, err := EncodeReader(nil, "image/png")
				return err
			},
		},
		{
			name: "empty source",
			read: func() error {
				_, err := Encode(SourceImage{MIMEType: "image/png"})
				return err
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.read()
			if !errors.Is(err, domain.ErrEncoding) {
				t.Fatalf("error = %v, want encoding error", err)
			}
		})
	}
}

func TestReadSniffsMissingMIME(t *testing.T) {
	src, err := Read(bytes.NewReader(samplePNG(t)), "")
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if src.MIMEType != "image/png" {
		t.Fatalf("MIMEType = %q, want image/png", src.MIMEType)
	}
	if src.Size != int64(len(src.Data)) {
		t.Fatalf("Size = %d, want %d", src.Size, len(src.Data))
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		src  SourceImage
		want error
	}{
		{name: "jpeg", src: SourceImage{Data: []byte{1}, MIMEType: "image/jpeg"}},
		{name: "jpg alias", src: SourceImage{Data: []byte{1}, MIMEType: "IMAGE/JPG"}},
		{name: "webp", src: SourceImage{Data: []byte{1}, MIMEType: "image/webp"}},
		{name: "png with params", src: SourceImage{Data: []byte{1}, MIMEType: "image/png; charset=binary"}},
		{name: "gif rejected", src: SourceImage{Data: []byte{1}, MIMEType: "image/gif"}, want: ErrUnsupportedType},
		{name: "empty type rejected", src: SourceImage{Data: []byte{1}}, want: ErrUnsupportedType},
		{name: "limit accepted", src: SourceImage{MIMEType: "image/png", Size: MaxUploadBytes}},
		{name: "too large", src: SourceImage{MIMEType: "image/png", Size: MaxUploadBytes + 1}, want: ErrTooLarge},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.src.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("Validate() = %v, want %v", err, tc.want)
			}
			if !errors.Is(err, domain.ErrPrecondition) {
				t.Fatalf("Validate() = %v, want precondition error", err)
			}
		})
	}
}

func TestReadStopsPastLimit(t *testing.T) {
	big := bytes.Repeat([]byte{0xff}, MaxUploadBytes+1024)
	src, err := Read(bytes.NewReader(big), "image/jpeg")
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if src.Size != MaxUploadBytes+1 {
		t.Fatalf("Size = %d, want %d", src.Size, MaxUploadBytes+1)
	}
	if !errors.Is(src.Validate(), ErrTooLarge) {
		t.Fatal("expected oversized upload to fail validation")
	}
}

func TestParseDataURL(t *testing.T) {
	data := samplePNG(t)
	payload, err := Encode(SourceImage{Data: data, MIMEType: "image/png"})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	mime, decoded, err := ParseDataURL(payload.DataURL)
	if err != nil {
		t.Fatalf("ParseDataURL error: %v", err)
	}
	if mime != "image/png" || !bytes.Equal(decoded, data) {
		t.Fatalf("ParseDataURL = %q, %d bytes", mime, len(decoded))
	}
	for _, bad := range []string{"", "image/png;base64,AAAA", "data:image/png;base64,", "data:text/plain,hello", "data:image/png;base64,!!!"} {
		if _, _, err := ParseDataURL(bad); !errors.Is(err, domain.ErrEncoding) {
			t.Fatalf("ParseDataURL(%q) error = %v, want encoding error", bad, err)
		}
	}
}

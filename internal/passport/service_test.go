package passport

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"passportsheet/internal/domain"
	"passportsheet/internal/photo"
	"passportsheet/internal/providers/genai"
)

type editorFunc func(ctx context.Context, req genai.EditRequest) (*genai.EditedImage, error)

func (f editorFunc) EditImage(ctx context.Context, req genai.EditRequest) (*genai.EditedImage, error) {
	return f(ctx, req)
}

type staticCredentials struct {
	key string
	err error
}

func (s staticCredentials) GeminiAPIKey(ctx context.Context) (string, error) {
	return s.key, s.err
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func sourceImage(t *testing.T) photo.SourceImage {
	data := pngBytes(t, 10, 12)
	return photo.SourceImage{Data: data, MIMEType: "image/png", Size: int64(len(data)), Filename: "me.png"}
}

func echoEditor(t *testing.T, calls *int) editorFunc {
	edited := base64.StdEncoding.EncodeToString(pngBytes(t, 30, 40))
	return func(ctx context.Context, req genai.EditRequest) (*genai.EditedImage, error) {
		*calls++
		return &genai.EditedImage{Base64: edited, MIMEType: req.MIMEType}, nil
	}
}

func TestSubmitComposesSheet(t *testing.T) {
	calls := 0
	var seen genai.EditRequest
	edit := echoEditor(t, &calls)
	svc := NewService(Options{
		Editor: editorFunc(func(ctx context.Context, req genai.EditRequest) (*genai.EditedImage, error) {
			seen = req
			return edit(ctx, req)
		}),
		FallbackAPIKey: "env-key",
	})

	src := sourceImage(t)
	out, err := svc.Submit(context.Background(), Submission{SessionID: "s1", Source: src, Count: 5})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if out.Status != StatusCompleted || out.Sheet == nil {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one remote call, got %d", calls)
	}
	if seen.APIKey != "env-key" || seen.MIMEType != "image/png" {
		t.Fatalf("unexpected edit request: %+v", seen)
	}
	if seen.ImageBase64 != base64.StdEncoding.EncodeToString(src.Data) {
		t.Fatal("expected the uploaded bytes to be sent base64 encoded")
	}
	l := out.Sheet.Layout
	if l.Columns != 4 || l.Rows != 2 || l.Width != 220 || l.Height != 140 {
		t.Fatalf("unexpected layout: %+v", l)
	}
	if got, err := svc.CurrentSheet("s1"); err != nil || got != out.Sheet {
		t.Fatalf("expected current sheet to be published, got %v %v", got, err)
	}
}

func TestSubmitNoImage(t *testing.T) {
	svc := NewService(Options{
		Editor: editorFunc(func(ctx context.Context, req genai.EditRequest) (*genai.EditedImage, error) {
			return nil, nil
		}),
		FallbackAPIKey: "k",
	})
	out, err := svc.Submit(context.Background(), Submission{SessionID: "s1", Source: sourceImage(t), Count: 2})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if out.Status != StatusNoImage || out.Sheet != nil {
		t.Fatalf("expected no_image outcome, got %+v", out)
	}
	if _, err := svc.CurrentSheet("s1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected no current sheet, got %v", err)
	}
}

func TestSubmitPreconditions(t *testing.T) {
	calls := 0
	svc := NewService(Options{Editor: echoEditor(t, &calls), FallbackAPIKey: "k"})
	good := sourceImage(t)
	gif := good
	gif.MIMEType = "image/gif"
	huge := good
	huge.Size = photo.MaxUploadBytes + 1

	cases := []struct {
		name string
		sub  Submission
		want error
	}{
		{"zero count", Submission{Source: good, Count: 0}, ErrInvalidCount},
		{"count above max", Submission{Source: good, Count: 17}, ErrInvalidCount},
		{"no photo", Submission{Count: 4}, ErrNoSource},
		{"unsupported type", Submission{Source: gif, Count: 4}, photo.ErrUnsupportedType},
		{"too large", Submission{Source: huge, Count: 4}, photo.ErrTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tc.sub)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !errors.Is(err, domain.ErrPrecondition) {
				t.Fatalf("expected precondition error, got %v", err)
			}
		})
	}
	if calls != 0 {
		t.Fatalf("expected no remote calls, got %d", calls)
	}
}

func TestSubmitMissingCredential(t *testing.T) {
	calls := 0
	svc := NewService(Options{Editor: echoEditor(t, &calls)})
	_, err := svc.Submit(context.Background(), Submission{Source: sourceImage(t), Count: 1})
	if !errors.Is(err, genai.ErrMissingCredential) {
		t.Fatalf("expected missing credential, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no remote calls, got %d", calls)
	}
}

func TestResolveAPIKeyOrder(t *testing.T) {
	ctx := context.Background()
	svc := NewService(Options{Credentials: staticCredentials{key: " stored "}, FallbackAPIKey: "env"})
	if key, _ := svc.ResolveAPIKey(ctx, "request"); key != "request" {
		t.Fatalf("expected request key, got %q", key)
	}
	if key, _ := svc.ResolveAPIKey(ctx, ""); key != "stored" {
		t.Fatalf("expected stored key, got %q", key)
	}
	svc = NewService(Options{Credentials: staticCredentials{}, FallbackAPIKey: "env"})
	if key, _ := svc.ResolveAPIKey(ctx, ""); key != "env" {
		t.Fatalf("expected env key, got %q", key)
	}
	boom := errors.New("db down")
	svc = NewService(Options{Credentials: staticCredentials{err: boom}})
	if _, err := svc.ResolveAPIKey(ctx, ""); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestSubmitPropagatesRemoteErrors(t *testing.T) {
	remote := &genai.RemoteServiceError{StatusCode: 500, Message: "internal"}
	invalid := &genai.InvalidCredentialError{StatusCode: 400, Message: "API key not valid"}
	for _, want := range []error{remote, invalid} {
		svc := NewService(Options{
			Editor: editorFunc(func(ctx context.Context, req genai.EditRequest) (*genai.EditedImage, error) {
				return nil, want
			}),
			FallbackAPIKey: "k",
		})
		_, err := svc.Submit(context.Background(), Submission{SessionID: "s", Source: sourceImage(t), Count: 3})
		if !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
	}
}

func TestSubmitUndecodableEditedImage(t *testing.T) {
	svc := NewService(Options{
		Editor: editorFunc(func(ctx context.Context, req genai.EditRequest) (*genai.EditedImage, error) {
			return &genai.EditedImage{Base64: base64.StdEncoding.EncodeToString([]byte("not an image")), MIMEType: "image/png"}, nil
		}),
		FallbackAPIKey: "k",
	})
	out, err := svc.Submit(context.Background(), Submission{SessionID: "s", Source: sourceImage(t), Count: 3})
	if !errors.Is(err, domain.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if out != nil {
		t.Fatalf("expected no outcome, got %+v", out)
	}
	if _, err := svc.CurrentSheet("s"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected no partial sheet, got %v", err)
	}
}

func TestSubmitSupersededByNewerSubmission(t *testing.T) {
	edited := base64.StdEncoding.EncodeToString(pngBytes(t, 8, 8))
	firstStarted := make(chan struct{})
	var once sync.Once

	svc := NewService(Options{
		Editor: editorFunc(func(ctx context.Context, req genai.EditRequest) (*genai.EditedImage, error) {
			if req.RequestID == "first" {
				once.Do(func() { close(firstStarted) })
				<-ctx.Done()
				return nil, &genai.RemoteServiceError{Message: "request failed", Err: ctx.Err()}
			}
			return &genai.EditedImage{Base64: edited, MIMEType: req.MIMEType}, nil
		}),
		FallbackAPIKey: "k",
	})

	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), Submission{SessionID: "s", RequestID: "first", Source: sourceImage(t), Count: 2})
		firstErr <- err
	}()
	<-firstStarted

	out, err := svc.Submit(context.Background(), Submission{SessionID: "s", RequestID: "second", Source: sourceImage(t), Count: 1})
	if err != nil {
		t.Fatalf("second Submit error: %v", err)
	}

	select {
	case err := <-firstErr:
		if !errors.Is(err, domain.ErrSuperseded) {
			t.Fatalf("expected first submission to be superseded, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first submission was not cancelled")
	}

	current, err := svc.CurrentSheet("s")
	if err != nil || current != out.Sheet {
		t.Fatalf("expected the newest sheet to stay current, got %v %v", current, err)
	}
	if current.Layout.Count != 1 {
		t.Fatalf("expected sheet of the second submission, got count %d", current.Layout.Count)
	}
}

func TestSheetLifetime(t *testing.T) {
	calls := 0
	svc := NewService(Options{Editor: echoEditor(t, &calls), FallbackAPIKey: "k"})
	ctx := context.Background()
	if _, err := svc.Submit(ctx, Submission{SessionID: "s", Source: sourceImage(t), Count: 1}); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if _, err := svc.TakeSheet("s"); err != nil {
		t.Fatalf("TakeSheet error: %v", err)
	}
	if _, err := svc.TakeSheet("s"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected downloaded sheet to be gone, got %v", err)
	}

	if _, err := svc.Submit(ctx, Submission{SessionID: "s", Source: sourceImage(t), Count: 1}); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if err := svc.DiscardSheet("s"); err != nil {
		t.Fatalf("DiscardSheet error: %v", err)
	}
	if err := svc.DiscardSheet("s"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPreview(t *testing.T) {
	svc := NewService(Options{})
	src := sourceImage(t)
	payload, err := svc.Preview(src)
	if err != nil {
		t.Fatalf("Preview error: %v", err)
	}
	want := "data:image/png;base64," + base64.StdEncoding.EncodeToString(src.Data)
	if payload.DataURL != want {
		t.Fatalf("unexpected data url prefix: %.40s", payload.DataURL)
	}
	if _, err := svc.Preview(photo.SourceImage{}); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}

func TestReleaseSheetKeepsNewerSheet(t *testing.T) {
	calls := 0
	svc := NewService(Options{Editor: echoEditor(t, &calls), FallbackAPIKey: "k"})
	ctx := context.Background()

	if _, err := svc.Submit(ctx, Submission{SessionID: "s", Source: sourceImage(t), Count: 1}); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	served, err := svc.CurrentSheet("s")
	if err != nil {
		t.Fatalf("CurrentSheet error: %v", err)
	}

	newer, err := svc.Submit(ctx, Submission{SessionID: "s", Source: sourceImage(t), Count: 16})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	if err := svc.ReleaseSheet("s", served); !errors.Is(err, domain.ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded for a stale download, got %v", err)
	}
	current, err := svc.CurrentSheet("s")
	if err != nil || current != newer.Sheet || current.Layout.Count != 16 {
		t.Fatalf("expected newer sheet to stay current, got %v %v", current, err)
	}

	if err := svc.ReleaseSheet("s", current); err != nil {
		t.Fatalf("ReleaseSheet error: %v", err)
	}
	if err := svc.ReleaseSheet("s", current); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after release, got %v", err)
	}
}

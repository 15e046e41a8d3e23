package passport

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"passportsheet/internal/domain"
	"passportsheet/internal/infra"
	"passportsheet/internal/photo"
	"passportsheet/internal/providers/genai"
	"passportsheet/internal/sheet"
)

const (
	MinCount     = 1
	MaxCount     = 16
	DefaultCount = 8
)

var (
	ErrInvalidCount = fmt.Errorf("%w: copy count must be between %d and %d", domain.ErrPrecondition, MinCount, MaxCount)
	ErrNoSource     = fmt.Errorf("%w: no photo uploaded", domain.ErrPrecondition)
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusNoImage   Status = "no_image"
)

// Editor performs the single remote edit of a portrait.
type Editor interface {
	EditImage(ctx context.Context, req genai.EditRequest) (*genai.EditedImage, error)
}

// CredentialSource yields a stored Gemini API key, empty when none is set.
type CredentialSource interface {
	GeminiAPIKey(ctx context.Context) (string, error)
}

type Options struct {
	Editor         Editor
	Credentials    CredentialSource
	FallbackAPIKey string
	Tracker        *Tracker
	Logger         *infra.Logger
}

type Service struct {
	editor      Editor
	credentials CredentialSource
	fallbackKey string
	tracker     *Tracker
	logger      zerolog.Logger
}

type Submission struct {
	SessionID string
	RequestID string
	Source    photo.SourceImage
	Count     int
	// APIKey overrides stored credentials when set.
	APIKey string
}

type Outcome struct {
	Status   Status
	Sheet    *sheet.Sheet
	Duration time.Duration
}

func NewService(opts Options) *Service {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "passport").Logger()
	}
	tracker := opts.Tracker
	if tracker == nil {
		tracker = NewTracker(time.Hour)
	}
	return &Service{
		editor:      opts.Editor,
		credentials: opts.Credentials,
		fallbackKey: strings.TrimSpace(opts.FallbackAPIKey),
		tracker:     tracker,
		logger:      logger,
	}
}

func (s *Service) Tracker() *Tracker {
	return s.tracker
}

// Preview encodes an uploaded photo for display.
func (s *Service) Preview(src photo.SourceImage) (photo.EncodedPayload, error) {
	if src.Size == 0 && len(src.Data) == 0 {
		return photo.EncodedPayload{}, ErrNoSource
	}
	if err := src.Validate(); err != nil {
		return photo.EncodedPayload{}, err
	}
	return photo.Encode(src)
}

// Submit runs one full edit: encode, invoke the model once and compose the
// returned portrait into a sheet of Count copies. A newer submission for the
// same session supersedes this one.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Outcome, error) {
	if sub.Count < MinCount || sub.Count > MaxCount {
		return nil, ErrInvalidCount
	}
	if sub.Source.Size == 0 && len(sub.Source.Data) == 0 {
		return nil, ErrNoSource
	}
	if err := sub.Source.Validate(); err != nil {
		return nil, err
	}
	apiKey, err := s.ResolveAPIKey(ctx, sub.APIKey)
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		return nil, genai.ErrMissingCredential
	}
	payload, err := photo.Encode(sub.Source)
	if err != nil {
		return nil, err
	}

	runCtx, ticket := s.tracker.Begin(ctx, sub.SessionID)
	defer s.tracker.Finish(ticket)

	log := s.logger.With().
		Str("session_id", sub.SessionID).
		Uint64("generation", ticket.Generation).
		Int("count", sub.Count).
		Logger()
	started := time.Now()

	edited, err := s.editor.EditImage(runCtx, genai.EditRequest{
		APIKey:      apiKey,
		ImageBase64: payload.Base64,
		MIMEType:    payload.MIMEType,
		RequestID:   sub.RequestID,
	})
	if !s.tracker.Current(ticket) {
		log.Info().Msg("submission superseded")
		return nil, domain.ErrSuperseded
	}
	if err != nil {
		log.Warn().Err(err).Msg("remote edit failed")
		return nil, err
	}
	if edited == nil {
		log.Info().Dur("duration", time.Since(started)).Msg("model returned no image")
		return &Outcome{Status: StatusNoImage, Duration: time.Since(started)}, nil
	}

	data, err := base64.StdEncoding.DecodeString(edited.Base64)
	if err != nil {
		return nil, fmt.Errorf("%w: edited image payload: %v", domain.ErrDecode, err)
	}
	composed, err := sheet.ComposeBytes(data, sub.Count)
	if err != nil {
		log.Error().Err(err).Msg("compose sheet")
		return nil, err
	}
	if err := s.tracker.Complete(ticket, composed); err != nil {
		log.Info().Msg("submission superseded")
		return nil, err
	}

	elapsed := time.Since(started)
	log.Info().
		Int("width", composed.Layout.Width).
		Int("height", composed.Layout.Height).
		Dur("duration", elapsed).
		Msg("sheet composed")
	return &Outcome{Status: StatusCompleted, Sheet: composed, Duration: elapsed}, nil
}

// ResolveAPIKey picks the per-request key, then the stored key, then the
// configured fallback.
func (s *Service) ResolveAPIKey(ctx context.Context, override string) (string, error) {
	if key := strings.TrimSpace(override); key != "" {
		return key, nil
	}
	if s.credentials != nil {
		key, err := s.credentials.GeminiAPIKey(ctx)
		if err != nil {
			return "", fmt.Errorf("load stored credential: %w", err)
		}
		if key = strings.TrimSpace(key); key != "" {
			return key, nil
		}
	}
	return s.fallbackKey, nil
}

func (s *Service) CurrentSheet(sessionID string) (*sheet.Sheet, error) {
	if sh, ok := s.tracker.Sheet(sessionID); ok {
		return sh, nil
	}
	return nil, domain.ErrNotFound
}

// TakeSheet hands out the current sheet for download and forgets it.
func (s *Service) TakeSheet(sessionID string) (*sheet.Sheet, error) {
	if sh, ok := s.tracker.Take(sessionID); ok {
		return sh, nil
	}
	return nil, domain.ErrNotFound
}

// ReleaseSheet ends the lifetime of a sheet that was served for download.
// A newer sheet published in the meantime is left in place and reported as
// ErrSuperseded.
func (s *Service) ReleaseSheet(sessionID string, served *sheet.Sheet) error {
	current, ok := s.tracker.TakeIf(sessionID, served)
	if ok {
		return nil
	}
	if current != nil {
		return domain.ErrSuperseded
	}
	return domain.ErrNotFound
}

func (s *Service) DiscardSheet(sessionID string) error {
	if !s.tracker.Discard(sessionID) {
		return domain.ErrNotFound
	}
	return nil
}

// RunJanitor prunes idle sessions until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if n := s.tracker.Prune(); n > 0 {
				s.logger.Debug().Int("sessions", n).Msg("pruned idle sessions")
			}
		}
	}
}

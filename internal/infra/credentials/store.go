package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"passportsheet/internal/infra"
	"passportsheet/internal/sqlinline"
)

const (
	ProviderGemini = "gemini"
)

// ErrEmptyKey is returned when storing a blank credential.
var ErrEmptyKey = errors.New("gemini api key is required")

// Status describes whether a credential is stored, without exposing it.
type Status struct {
	Configured bool
	UpdatedAt  time.Time
}

// Store persists provider credentials in the integration_tokens table.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// EnsureSchema creates the integration_tokens table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.sql.Exec(ctx, sqlinline.QCreateIntegrationTokens)
	return err
}

func (s *Store) GeminiAPIKey(ctx context.Context) (string, error) {
	token, _, err := s.token(ctx, ProviderGemini)
	return token, err
}

func (s *Store) SetGeminiAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	return s.upsert(ctx, ProviderGemini, key, map[string]any{"source": "api"})
}

func (s *Store) ClearGeminiAPIKey(ctx context.Context) error {
	_, err := s.sql.Exec(ctx, sqlinline.QDeleteIntegrationToken, ProviderGemini)
	return err
}

func (s *Store) GeminiStatus(ctx context.Context) (Status, error) {
	token, updatedAt, err := s.token(ctx, ProviderGemini)
	if err != nil {
		return Status{}, err
	}
	return Status{Configured: token != "", UpdatedAt: updatedAt}, nil
}

func (s *Store) token(ctx context.Context, provider string) (string, time.Time, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	var updatedAt time.Time
	if err := row.Scan(&token, &updatedAt); err != nil {
		if infra.IsNoRows(err) {
			return "", time.Time{}, nil
		}
		return "", time.Time{}, err
	}
	return strings.TrimSpace(token), updatedAt, nil
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}

// MemoryStore keeps the credential in process memory when no database is
// configured. It is lost on restart.
type MemoryStore struct {
	mu        sync.RWMutex
	key       string
	updatedAt time.Time
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) GeminiAPIKey(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.key, nil
}

func (m *MemoryStore) SetGeminiAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key = key
	m.updatedAt = m.now()
	return nil
}

func (m *MemoryStore) ClearGeminiAPIKey(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key = ""
	m.updatedAt = time.Time{}
	return nil
}

func (m *MemoryStore) GeminiStatus(ctx context.Context) (Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Status{Configured: m.key != "", UpdatedAt: m.updatedAt}, nil
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"ai-spm/internal/domain"
)

// SessionKey es la clave fija bajo la que se persiste el usuario de la sesion.
const SessionKey = "ai-spm-user"

var (
	ErrRecordNotFound = errors.New("session record not found")
	ErrRecordCorrupt  = errors.New("session record corrupt")
)

// SessionStore define el contrato de persistencia del registro de sesion.
// El SessionManager es el unico escritor.
type SessionStore interface {
	Load(ctx context.Context) (domain.User, error)
	Save(ctx context.Context, user domain.User) error
	Delete(ctx context.Context) error
}

func encodeUser(user domain.User) ([]byte, error) {
	raw, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("encode session record: %w", err)
	}
	return raw, nil
}

func decodeUser(raw []byte) (domain.User, error) {
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	if strings.TrimSpace(user.ID) == "" {
		return domain.User{}, fmt.Errorf("%w: missing id", ErrRecordCorrupt)
	}
	return user, nil
}

// MemorySessionStore guarda el registro en memoria; pensado para tests y ejecuciones efimeras.
type MemorySessionStore struct {
	mu  sync.Mutex
	raw []byte
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (s *MemorySessionStore) Load(_ context.Context) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raw == nil {
		return domain.User{}, ErrRecordNotFound
	}
	return decodeUser(s.raw)
}

func (s *MemorySessionStore) Save(_ context.Context, user domain.User) error {
	raw, err := encodeUser(user)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = raw
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = nil
	return nil
}

// Raw devuelve el valor tal como esta almacenado.
func (s *MemorySessionStore) Raw() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raw == nil {
		return nil, false
	}
	out := make([]byte, len(s.raw))
	copy(out, s.raw)
	return out, true
}

// SetRaw escribe un valor arbitrario, sin validar.
func (s *MemorySessionStore) SetRaw(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = raw
}

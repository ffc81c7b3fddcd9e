package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"ai-spm/internal/authapi"
	"ai-spm/internal/domain"
	"ai-spm/internal/notify"
	"ai-spm/internal/repository"
)

var (
	ErrInvalidCredentials = authapi.ErrInvalidCredentials
	ErrPersistenceRead    = errors.New("session persistence read failed")
	ErrPersistenceWrite   = errors.New("session persistence write failed")
	ErrInvalidRole        = errors.New("invalid role")
)

const restoreTimeout = 5 * time.Second

// Clearer es una cache de un colaborador que debe vaciarse al cerrar sesion.
type Clearer interface {
	Clear()
}

// ClearerFunc adapta una funcion a Clearer.
type ClearerFunc func()

func (f ClearerFunc) Clear() { f() }

// SessionManager es el dueño del estado de sesion del proceso: usuario actual,
// bandera de carga inicial y su espejo en el almacenamiento persistente.
//
// Las mutaciones se aplican cuando termina la llamada al transporte, asi que el
// estado final refleja la ultima operacion en completarse.
type SessionManager struct {
	logger    *zap.Logger
	store     repository.SessionStore
	transport authapi.Transport
	notifier  notify.Notifier

	mu      sync.RWMutex
	user    *domain.User
	loading bool
	ready   chan struct{}

	// writeMu serializa "persistir + aplicar" para que el registro y la memoria coincidan.
	writeMu sync.Mutex

	subMu   sync.Mutex
	nextSub int
	subs    map[int]chan domain.Snapshot

	clearMu  sync.Mutex
	clearers []Clearer

	inflight sync.WaitGroup
}

// NewSessionManager crea el manager e inicia la restauracion en segundo plano.
func NewSessionManager(logger *zap.Logger, store repository.SessionStore, transport authapi.Transport, notifier notify.Notifier) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.NewDisabledNotifier()
	}
	m := &SessionManager{
		logger:    logger,
		store:     store,
		transport: transport,
		notifier:  notifier,
		loading:   true,
		ready:     make(chan struct{}),
		subs:      make(map[int]chan domain.Snapshot),
	}
	go m.restore()
	return m
}

func (m *SessionManager) restore() {
	ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
	defer cancel()

	var restored *domain.User
	user, err := m.store.Load(ctx)
	switch {
	case err == nil:
		restored = &user
		m.logger.Info("session restored", zap.String("user_id", user.ID), zap.String("role", user.Role.String()))
	case errors.Is(err, repository.ErrRecordNotFound):
	default:
		m.logger.Warn("session check failed", zap.Error(fmt.Errorf("%w: %v", ErrPersistenceRead, err)))
	}

	m.mu.Lock()
	m.user = restored
	m.loading = false
	m.mu.Unlock()
	m.publish()
	close(m.ready)
}

// Ready se cierra cuando la restauracion inicial termino.
func (m *SessionManager) Ready() <-chan struct{} {
	return m.ready
}

// Snapshot devuelve {user, isLoading} de forma sincrona.
func (m *SessionManager) Snapshot() domain.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := domain.Snapshot{IsLoading: m.loading}
	if m.user != nil {
		u := *m.user
		snap.User = &u
	}
	return snap
}

// Subscribe entrega el snapshot actual y luego cada cambio. Un suscriptor lento
// solo ve el valor mas reciente.
func (m *SessionManager) Subscribe() (<-chan domain.Snapshot, func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	id := m.nextSub
	m.nextSub++
	ch := make(chan domain.Snapshot, 1)
	ch <- m.Snapshot()
	m.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.subMu.Lock()
			defer m.subMu.Unlock()
			delete(m.subs, id)
			close(ch)
		})
	}
}

func (m *SessionManager) publish() {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	snap := m.Snapshot()
	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// OnClear registra una cache que se vacia en cada logout.
func (m *SessionManager) OnClear(c Clearer) {
	if c == nil {
		return
	}
	m.clearMu.Lock()
	defer m.clearMu.Unlock()
	m.clearers = append(m.clearers, c)
}

func (m *SessionManager) clearCaches() {
	m.clearMu.Lock()
	clearers := append([]Clearer(nil), m.clearers...)
	m.clearMu.Unlock()
	for _, c := range clearers {
		c.Clear()
	}
	m.logger.Debug("all caches cleared", zap.Int("caches", len(clearers)))
}

// Login valida credenciales contra el transporte y, si son correctas, abre la sesion.
func (m *SessionManager) Login(ctx context.Context, email, password string) (domain.User, error) {
	return m.run(ctx, func(ctx context.Context) (domain.User, error) {
		user, err := m.transport.Login(ctx, email, password)
		if err != nil {
			m.notifier.Notify(ctx, domain.Notification{
				Title:       "Authentication failed",
				Description: err.Error(),
				Variant:     domain.VariantDestructive,
			})
			return domain.User{}, err
		}
		if err := m.commit(ctx, user); err != nil {
			return domain.User{}, err
		}
		m.logger.Info("user logged in", zap.String("user_id", user.ID))
		m.notifier.Notify(ctx, domain.Notification{
			Title:       "Welcome back!",
			Description: "Successfully logged into AI-SPM dashboard.",
			Variant:     domain.VariantNormal,
		})
		return user, nil
	})
}

// Register da de alta una cuenta y la deja como sesion actual.
func (m *SessionManager) Register(ctx context.Context, input authapi.RegisterInput) (domain.User, error) {
	if !input.Role.Valid() {
		err := fmt.Errorf("%w: %q", ErrInvalidRole, input.Role)
		m.notifier.Notify(ctx, domain.Notification{
			Title:       "Registration failed",
			Description: err.Error(),
			Variant:     domain.VariantDestructive,
		})
		return domain.User{}, err
	}
	return m.run(ctx, func(ctx context.Context) (domain.User, error) {
		user, err := m.transport.Register(ctx, input)
		if err != nil {
			m.notifier.Notify(ctx, domain.Notification{
				Title:       "Registration failed",
				Description: err.Error(),
				Variant:     domain.VariantDestructive,
			})
			return domain.User{}, err
		}
		if err := m.commit(ctx, user); err != nil {
			return domain.User{}, err
		}
		m.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", user.Role.String()))
		m.notifier.Notify(ctx, domain.Notification{
			Title:       "Account created!",
			Description: "Welcome to AI-SPM. Your account has been created successfully.",
			Variant:     domain.VariantNormal,
		})
		return user, nil
	})
}

// Logout cierra la sesion local aunque el backend falle.
func (m *SessionManager) Logout(ctx context.Context) error {
	_, err := m.run(ctx, func(ctx context.Context) (domain.User, error) {
		if err := m.transport.Logout(ctx); err != nil {
			m.logger.Warn("remote logout failed", zap.Error(err))
		}
		<-m.ready

		m.writeMu.Lock()
		delErr := m.store.Delete(ctx)
		m.mu.Lock()
		m.user = nil
		m.mu.Unlock()
		m.writeMu.Unlock()

		m.publish()
		m.clearCaches()
		m.logger.Info("user logged out")
		m.notifier.Notify(ctx, domain.Notification{
			Title:       "Logged out",
			Description: "You have been securely logged out.",
			Variant:     domain.VariantNormal,
		})
		if delErr != nil {
			m.logger.Error("delete session record failed", zap.Error(delErr))
			m.notifier.Notify(ctx, domain.Notification{
				Title:       "Logout incomplete",
				Description: "The saved session could not be removed from this device.",
				Variant:     domain.VariantDestructive,
			})
			return domain.User{}, fmt.Errorf("%w: %v", ErrPersistenceWrite, delErr)
		}
		return domain.User{}, nil
	})
	return err
}

// commit persiste el usuario y recien entonces lo publica en memoria.
func (m *SessionManager) commit(ctx context.Context, user domain.User) error {
	<-m.ready

	m.writeMu.Lock()
	if err := m.store.Save(ctx, user); err != nil {
		m.writeMu.Unlock()
		m.logger.Error("save session record failed", zap.Error(err), zap.String("user_id", user.ID))
		m.notifier.Notify(ctx, domain.Notification{
			Title:       "Session not saved",
			Description: "Your session could not be stored on this device. Please try again.",
			Variant:     domain.VariantDestructive,
		})
		return fmt.Errorf("%w: %v", ErrPersistenceWrite, err)
	}
	m.mu.Lock()
	m.user = &user
	m.mu.Unlock()
	m.writeMu.Unlock()

	m.publish()
	return nil
}

// Wait bloquea hasta que terminen las operaciones ya iniciadas, incluidas las
// que siguen corriendo despues de que su llamador dejo de esperar.
func (m *SessionManager) Wait() {
	m.inflight.Wait()
}

type opResult struct {
	user domain.User
	err  error
}

// run ejecuta op en su propia goroutine. Si el llamador cancela ctx deja de
// esperar, pero la operacion sigue y aplica su resultado al terminar.
func (m *SessionManager) run(ctx context.Context, op func(context.Context) (domain.User, error)) (domain.User, error) {
	done := make(chan opResult, 1)
	opCtx := context.WithoutCancel(ctx)
	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		user, err := op(opCtx)
		done <- opResult{user: user, err: err}
	}()

	select {
	case res := <-done:
		return res.user, res.err
	case <-ctx.Done():
		return domain.User{}, ctx.Err()
	}
}

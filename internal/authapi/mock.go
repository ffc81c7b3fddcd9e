package authapi

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ai-spm/internal/domain"
)

const (
	DemoEmail    = "admin@ai-spm.com"
	demoPassword = "admin123"

	DefaultLoginDelay    = 1000 * time.Millisecond
	DefaultLogoutDelay   = 500 * time.Millisecond
	DefaultRegisterDelay = 1500 * time.Millisecond
)

var (
	demoHashOnce sync.Once
	demoHash     []byte
	demoHashErr  error
)

func demoPasswordHash() ([]byte, error) {
	demoHashOnce.Do(func() {
		demoHash, demoHashErr = bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	})
	return demoHash, demoHashErr
}

// MockTransport simula el backend: latencia fija y un unico par de credenciales de demo.
type MockTransport struct {
	LoginDelay    time.Duration
	LogoutDelay   time.Duration
	RegisterDelay time.Duration

	newID func() string
}

func NewMockTransport(loginDelay, logoutDelay, registerDelay time.Duration) *MockTransport {
	return &MockTransport{
		LoginDelay:    loginDelay,
		LogoutDelay:   logoutDelay,
		RegisterDelay: registerDelay,
		newID:         uuid.NewString,
	}
}

// NewDefaultMockTransport usa las latencias del dashboard original.
func NewDefaultMockTransport() *MockTransport {
	return NewMockTransport(DefaultLoginDelay, DefaultLogoutDelay, DefaultRegisterDelay)
}

func (m *MockTransport) Login(ctx context.Context, email, password string) (domain.User, error) {
	if err := sleep(ctx, m.LoginDelay); err != nil {
		return domain.User{}, err
	}
	hash, err := demoPasswordHash()
	if err != nil {
		return domain.User{}, err
	}
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(DemoEmail)) == 1
	passOK := bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
	if !emailOK || !passOK {
		return domain.User{}, ErrInvalidCredentials
	}
	return domain.User{
		ID:     "1",
		Email:  email,
		Name:   "Security Administrator",
		Role:   domain.RoleCISO,
		Avatar: "/placeholder.svg",
	}, nil
}

func (m *MockTransport) Logout(ctx context.Context) error {
	return sleep(ctx, m.LogoutDelay)
}

func (m *MockTransport) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	if err := sleep(ctx, m.RegisterDelay); err != nil {
		return domain.User{}, err
	}
	newID := m.newID
	if newID == nil {
		newID = uuid.NewString
	}
	return domain.User{
		ID:    newID(),
		Email: input.Email,
		Name:  input.Name,
		Role:  input.Role,
	}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

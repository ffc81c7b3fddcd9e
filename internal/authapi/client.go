package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"ai-spm/internal/domain"
)

// HTTPClient implementa Transport contra un backend de autenticacion real.
//
// Espera la forma de API habitual: POST /auth/login -> {user, tokens},
// POST /users -> {user}, POST /auth/logout {refresh_token} -> 204.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger

	mu           sync.Mutex
	refreshToken string
	tokenExpiry  time.Time
}

// NewHTTPClient construye el transporte HTTP. Un httpClient nil usa un timeout de 15s.
func NewHTTPClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		logger:  logger,
	}
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type authResponse struct {
	User   domain.User `json:"user"`
	Tokens *tokenPair  `json:"tokens,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (domain.User, error) {
	var resp authResponse
	status, err := c.post(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return domain.User{}, err
	}
	if status == http.StatusUnauthorized {
		return domain.User{}, ErrInvalidCredentials
	}
	if status >= 400 {
		return domain.User{}, remoteError(status, resp.Error)
	}
	if resp.User.ID == "" {
		return domain.User{}, errors.New("auth backend returned no user")
	}
	c.rememberTokens(resp.Tokens)
	return resp.User, nil
}

func (c *HTTPClient) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	var resp authResponse
	status, err := c.post(ctx, "/users", input, &resp)
	if err != nil {
		return domain.User{}, err
	}
	if status >= 400 {
		return domain.User{}, remoteError(status, resp.Error)
	}
	if resp.User.ID == "" {
		return domain.User{}, errors.New("auth backend returned no user")
	}
	c.rememberTokens(resp.Tokens)
	return resp.User, nil
}

// Logout revoca el refresh token si lo hay; sin token no hay nada que revocar.
func (c *HTTPClient) Logout(ctx context.Context) error {
	c.mu.Lock()
	refresh := c.refreshToken
	c.refreshToken = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
	if refresh == "" {
		return nil
	}

	status, err := c.post(ctx, "/auth/logout", map[string]string{"refresh_token": refresh}, nil)
	if err != nil {
		return err
	}
	if status >= 400 {
		return remoteError(status, "")
	}
	return nil
}

// TokenExpiry devuelve el vencimiento del access token vigente, si se conoce.
func (c *HTTPClient) TokenExpiry() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokenExpiry
}

func (c *HTTPClient) rememberTokens(tokens *tokenPair) {
	if tokens == nil {
		return
	}
	// La firma la valida el backend; aqui solo se lee el vencimiento.
	var expiry time.Time
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokens.AccessToken, &claims); err != nil {
		c.logger.Warn("access token not parseable", zap.Error(err))
	} else if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}
	if expiry.IsZero() && tokens.ExpiresIn > 0 {
		expiry = time.Now().UTC().Add(time.Duration(tokens.ExpiresIn) * time.Second)
	}

	c.mu.Lock()
	c.refreshToken = tokens.RefreshToken
	c.tokenExpiry = expiry
	c.mu.Unlock()

	if !expiry.IsZero() {
		c.logger.Info("auth tokens issued", zap.Time("expires_at", expiry))
	}
}

func (c *HTTPClient) post(ctx context.Context, path string, body any, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if out != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			if resp.StatusCode >= 400 {
				return resp.StatusCode, nil
			}
			return resp.StatusCode, fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func remoteError(status int, msg string) error {
	if msg == "" {
		return fmt.Errorf("auth http error: status=%d", status)
	}
	return fmt.Errorf("auth http error: status=%d: %s", status, msg)
}

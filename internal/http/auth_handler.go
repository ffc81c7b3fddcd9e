package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ai-spm/internal/authapi"
	"ai-spm/internal/domain"
	"ai-spm/internal/service"
)

// AuthHandler expone las operaciones del SessionManager por HTTP.
type AuthHandler struct {
	logger   *zap.Logger
	sessions *service.SessionManager
}

// NewAuthHandler crea una instancia de AuthHandler con dependencias necesarias.
func NewAuthHandler(logger *zap.Logger, sessions *service.SessionManager) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		sessions: sessions,
	}
}

// Login maneja POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, "login", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Register maneja POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	// Un rol desconocido llega tal cual al manager, que lo rechaza y avisa.
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		role = domain.Role(req.Role)
	}

	user, err := h.sessions.Register(c.Request.Context(), authapi.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     role,
	})
	if err != nil {
		h.writeError(c, "register", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// Logout maneja POST /auth/logout. La sesion local se cierra aunque no se pueda
// borrar el registro persistido; en ese caso se informa como warning.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context()); err != nil {
		if errors.Is(err, service.ErrPersistenceWrite) {
			c.JSON(http.StatusOK, gin.H{"status": "logged_out", "warning": "saved session could not be removed"})
			return
		}
		h.writeError(c, "logout", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Session maneja GET /session.
func (h *AuthHandler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, h.sessions.Snapshot())
}

func (h *AuthHandler) writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, service.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
	case errors.Is(err, service.ErrPersistenceWrite):
		h.logger.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session could not be saved"})
	default:
		h.logger.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not " + op})
	}
}

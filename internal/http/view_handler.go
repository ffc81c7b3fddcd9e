package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ai-spm/internal/policy"
)

// ViewHandler sirve las vistas protegidas. El contenido de cada pagina lo
// renderiza el frontend; aqui solo se confirma el acceso y el usuario.
type ViewHandler struct {
	views *policy.Policy
}

func NewViewHandler(views *policy.Policy) *ViewHandler {
	return &ViewHandler{views: views}
}

// Show maneja GET de cualquier vista registrada en la politica.
func (h *ViewHandler) Show(c *gin.Context) {
	user, _ := GetSessionUser(c)
	view, ok := h.views.Lookup(c.FullPath())
	if !ok {
		h.NotFound(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"view": gin.H{"path": view.Path, "name": view.Name},
		"user": user,
	})
}

// Navigation maneja GET /nav: la barra lateral filtrada por rol.
func (h *ViewHandler) Navigation(c *gin.Context) {
	user, ok := GetSessionUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": h.views.Visible(user.Role)})
}

// AuthEntry maneja GET del punto de entrada de autenticacion.
func (h *ViewHandler) AuthEntry(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"view": gin.H{"path": c.FullPath(), "name": "Sign in"}})
}

func (h *ViewHandler) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ai-spm/internal/domain"
	"ai-spm/internal/policy"
)

const sessionUserKey = "session_user"

type sessionReader interface {
	Snapshot() domain.Snapshot
}

// RequireSession protege las vistas del dashboard segun el estado de sesion:
// cargando -> 503 con placeholder, sin usuario -> redirect a authPath,
// rol sin acceso a la vista -> 403.
func RequireSession(sessions sessionReader, views *policy.Policy, authPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := sessions.Snapshot()
		if snap.IsLoading {
			c.Header("Retry-After", "1")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
			c.Abort()
			return
		}
		if snap.User == nil {
			c.Redirect(http.StatusFound, authPath)
			c.Abort()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		if views != nil && !views.Allows(route, snap.User.Role) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			c.Abort()
			return
		}

		c.Set(sessionUserKey, *snap.User)
		c.Next()
	}
}

// GetSessionUser obtiene el usuario que dejo RequireSession en el contexto.
func GetSessionUser(c *gin.Context) (domain.User, bool) {
	val, ok := c.Get(sessionUserKey)
	if !ok {
		return domain.User{}, false
	}
	user, ok := val.(domain.User)
	return user, ok
}

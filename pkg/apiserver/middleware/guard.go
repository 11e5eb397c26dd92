package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/estagio/estagio/pkg/access"
	"github.com/estagio/estagio/pkg/model"
)

// Redirects holds where guarded pages send callers that are anonymous or
// lack the required profile.
type Redirects struct {
	LoginURL string
	HomeURL  string
}

// RequireLogin redirects anonymous callers to the login page.
func RequireLogin(r Redirects) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Identity(c).Authenticated() {
			redirectToLogin(c, r)
			return
		}
		c.Next()
	}
}

// RequireRole lets the request through only when the caller owns a profile
// of the given role. The check runs against the store on every request.
func RequireRole(guard *access.Guard, role model.Role, r Redirects, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision, err := guard.Check(c.Request.Context(), Identity(c), role)
		if err != nil {
			logger.Error("role check failed", zap.Error(err), zap.String("role", string(role)))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Erro interno."})
			return
		}
		switch decision.Outcome {
		case access.Allowed:
			c.Next()
		case access.LoginRequired:
			redirectToLogin(c, r)
		default:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":    decision.Message,
				"redirect": r.HomeURL,
			})
		}
	}
}

func redirectToLogin(c *gin.Context, r Redirects) {
	target := r.LoginURL + "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
	c.Redirect(http.StatusFound, target)
	c.Abort()
}

func RequireStudent(guard *access.Guard, r Redirects, logger *zap.Logger) gin.HandlerFunc {
	return RequireRole(guard, model.RoleStudent, r, logger)
}

func RequireSupervisor(guard *access.Guard, r Redirects, logger *zap.Logger) gin.HandlerFunc {
	return RequireRole(guard, model.RoleSupervisor, r, logger)
}

func RequireCoordinator(guard *access.Guard, r Redirects, logger *zap.Logger) gin.HandlerFunc {
	return RequireRole(guard, model.RoleCoordinator, r, logger)
}

func RequireAdmin(guard *access.Guard, r Redirects, logger *zap.Logger) gin.HandlerFunc {
	return RequireRole(guard, model.RoleAdmin, r, logger)
}

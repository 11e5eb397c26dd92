package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/estagio/estagio/pkg/access"
	"github.com/estagio/estagio/pkg/auth"
	"github.com/estagio/estagio/pkg/model"
)

const identityKey = "identity"

// Authenticate decodes a bearer token when present. Requests without a valid
// token continue anonymously; the route decides whether that is acceptable.
func Authenticate(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authorization := c.GetHeader("Authorization")
		parts := strings.SplitN(authorization, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			c.Next()
			return
		}
		claims, err := tokens.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			c.Next()
			return
		}
		accountID, err := uuid.Parse(claims.AccountID)
		if err != nil {
			c.Next()
			return
		}
		c.Set(identityKey, &access.Identity{
			AccountID: accountID,
			Email:     claims.Email,
			Role:      model.Role(claims.Role),
		})
		c.Next()
	}
}

// Identity returns the caller or nil when the request is anonymous.
func Identity(c *gin.Context) *access.Identity {
	value, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, _ := value.(*access.Identity)
	return id
}

// RequireAuth answers 403 for anonymous API requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Identity(c).Authenticated() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Credenciais de autenticação não foram fornecidas."})
			return
		}
		c.Next()
	}
}

package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const authSubjectKey = "auth_subject"

// TokenValidator resuelve el subject de un bearer token.
type TokenValidator interface {
	Validate(token string) (string, error)
}

// JWTAuthMiddleware valida el bearer token y guarda el subject en el contexto.
// No consulta isLoggedIn: el acceso depende solo del token y de que la cuenta siga activa.
func JWTAuthMiddleware(logger *zap.Logger, tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		subject, err := tokens.Validate(token)
		if err != nil {
			if logger != nil {
				logger.Debug("token rejected", zap.Error(err), zap.String("path", c.Request.URL.Path))
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(authSubjectKey, subject)
		c.Next()
	}
}

// GetAuthSubject obtiene el userId autenticado desde el contexto.
func GetAuthSubject(c *gin.Context) (string, bool) {
	val, ok := c.Get(authSubjectKey)
	if !ok {
		return "", false
	}
	subject, ok := val.(string)
	return subject, ok && subject != ""
}

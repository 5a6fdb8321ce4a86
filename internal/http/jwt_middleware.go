package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"papaya-users/internal/service"
)

const authClaimsKey = "auth_claims"

// TokenVerifier valida un access token y devuelve sus claims.
type TokenVerifier interface {
	Verify(token string) (service.Claims, error)
}

// JWTAuthMiddleware valida el bearer token (o la cookie de sesion) y guarda claims en el contexto.
func JWTAuthMiddleware(verifier TokenVerifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
			c.Abort()
			return
		}

		token := service.TokenFromRequest(c.Request, cookieName)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(authClaimsKey, claims)
		c.Next()
	}
}

// GetAuthClaims obtiene claims de JWT desde el contexto.
func GetAuthClaims(c *gin.Context) (service.Claims, bool) {
	val, ok := c.Get(authClaimsKey)
	if !ok {
		return service.Claims{}, false
	}
	claims, ok := val.(service.Claims)
	return claims, ok
}

package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PokemonFusion/Fusion2-sub001/cache"
	"github.com/PokemonFusion/Fusion2-sub001/config"
	"github.com/gin-gonic/gin"
)

const IdentityKey = "identity"

const sessionPrefix = "session:"

// IssueToken signs a token for identity and records its session in the
// cache so Auth accepts it until the TTL runs out or RevokeToken is called.
func IssueToken(ctx context.Context, sec config.SecurityConfig, c cache.Cache, identity string) (string, error) {
	ttl := sec.JWTTTLH
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	tok, err := GenerateToken(identity, sec.JWTSecret, ttl)
	if err != nil {
		return "", err
	}
	if err := c.Set(ctx, sessionPrefix+tok, identity, ttl); err != nil {
		return "", err
	}
	return tok, nil
}

// RevokeToken drops the cached session so the token stops authenticating.
func RevokeToken(ctx context.Context, c cache.Cache, tok string) error {
	return c.Del(ctx, sessionPrefix+tok)
}

// Auth validates the Bearer JWT token and checks the session cache.
// Browsers cannot set headers on a WebSocket upgrade, so a "token" query
// parameter is accepted too.
func Auth(sec config.SecurityConfig, c cache.Cache) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenStr := bearer(ctx)
		if tokenStr == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := ParseToken(tokenStr, sec.JWTSecret)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		cacheCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		exists, err := c.Exists(cacheCtx, sessionPrefix+tokenStr)
		if err != nil || !exists {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}

		ctx.Set(IdentityKey, claims.Identity)
		ctx.Next()
	}
}

func bearer(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}

// GetIdentity retrieves the authenticated trainer identity from the Gin context.
func GetIdentity(c *gin.Context) string {
	if v, exists := c.Get(IdentityKey); exists {
		return v.(string)
	}
	return ""
}

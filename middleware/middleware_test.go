package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PokemonFusion/Fusion2-sub001/cache"
	"github.com/PokemonFusion/Fusion2-sub001/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.NewCache(cache.CacheConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

var testSec = config.SecurityConfig{JWTSecret: "secret", JWTTTLH: time.Hour}

func newProtectedRouter(c cache.Cache, got *string) *gin.Engine {
	r := gin.New()
	r.Use(Auth(testSec, c))
	r.GET("/protected", func(ctx *gin.Context) {
		if got != nil {
			*got = GetIdentity(ctx)
		}
		ctx.Status(http.StatusOK)
	})
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_Rejections(t *testing.T) {
	c := setupTestCache(t)
	r := newProtectedRouter(c, nil)

	unstored, err := GenerateToken("ash", testSec.JWTSecret, time.Hour)
	require.NoError(t, err)

	cases := map[string]string{
		"missing":   "",
		"no bearer": "Token abc123",
		"invalid":   "Bearer notavalidtoken",
		"expired":   "Bearer " + unstored,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
		})
	}
}

func TestAuth_IssuedTokenSetsIdentity(t *testing.T) {
	c := setupTestCache(t)
	var got string
	r := newProtectedRouter(c, &got)

	tok, err := IssueToken(context.Background(), testSec, c, "ash")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
	assert.Equal(t, "ash", got)
}

func TestAuth_QueryToken(t *testing.T) {
	c := setupTestCache(t)
	var got string
	r := newProtectedRouter(c, &got)

	tok, err := IssueToken(context.Background(), testSec, c, "misty")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected?token="+tok, nil)
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
	assert.Equal(t, "misty", got)
}

func TestAuth_RevokedToken(t *testing.T) {
	c := setupTestCache(t)
	r := newProtectedRouter(c, nil)
	ctx := context.Background()

	tok, err := IssueToken(ctx, testSec, c, "ash")
	require.NoError(t, err)
	require.NoError(t, RevokeToken(ctx, c, tok))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
}

func TestGetIdentity_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, "", GetIdentity(c))
}

func TestAdminOnly(t *testing.T) {
	guard, err := AdminOnly([]string{"10.0.0.0/8", "192.168.1.7"})
	require.NoError(t, err)
	r := gin.New()
	r.Use(guard)
	r.GET("/admin", func(c *gin.Context) { c.Status(http.StatusOK) })

	for ip, want := range map[string]int{
		"10.3.2.1":    http.StatusOK,
		"192.168.1.7": http.StatusOK,
		"192.168.1.8": http.StatusForbidden,
		"8.8.8.8":     http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("X-Real-IP", ip)
		assert.Equal(t, want, serve(r, req).Code, ip)
	}
}

func TestAdminOnly_EmptyDeniesAll(t *testing.T) {
	guard, err := AdminOnly(nil)
	require.NoError(t, err)
	r := gin.New()
	r.Use(guard)
	r.GET("/admin", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("X-Real-IP", "127.0.0.1")
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)
}

func TestAdminOnly_BadCIDR(t *testing.T) {
	_, err := AdminOnly([]string{"10.0.0.0/99"})
	assert.Error(t, err)
}

func withIdentity(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(IdentityKey, id)
		c.Next()
	}
}

func TestRecovery_CatchesPanic(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(TraceID(), withIdentity("ash"), Recovery(zap.New(core)))
	r.GET("/battles/:id", func(c *gin.Context) {
		panic("test panic")
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/battles/b-1", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	trace := w.Header().Get(TraceIDHeader)
	assert.NotEmpty(t, trace)
	assert.Contains(t, w.Body.String(), trace)

	entries := logs.FilterMessage("panic recovered").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "ash", fields["identity"])
	assert.Equal(t, "b-1", fields["battle_id"])
	assert.Equal(t, trace, fields["trace_id"])
	assert.Equal(t, "/battles/:id", fields["path"])
}

func TestLogger_PassesStatusThrough(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(TraceID(), withIdentity("gary"), Logger(zap.New(core)))
	r.GET("/fail", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})
	r.POST("/battles/:id/move", func(c *gin.Context) {
		c.Status(http.StatusBadRequest)
	})
	r.GET("/ok", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusInternalServerError, serve(r, httptest.NewRequest(http.MethodGet, "/fail", nil)).Code)
	serve(r, httptest.NewRequest(http.MethodPost, "/battles/b-9/move", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/ok", nil))

	entries := logs.FilterMessage("http").All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "b-9", entries[1].ContextMap()["battle_id"])
	assert.Equal(t, "/battles/:id/move", entries[1].ContextMap()["route"])
	assert.Equal(t, zapcore.InfoLevel, entries[2].Level)
	assert.Equal(t, "gary", entries[2].ContextMap()["identity"])
	_, hasBattle := entries[2].ContextMap()["battle_id"]
	assert.False(t, hasBattle)
}

package jwt

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"matchmaking/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(expire time.Duration) *JWTService {
	return NewJWTService(config.JWTConfig{Secret: "test-secret", Issuer: "matchmaking", ExpireTime: expire})
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newTestService(time.Hour)

	token, err := svc.GenerateToken("42", map[string]interface{}{"role": "A"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "A", claims.Role())
}

func TestValidateRejectsExpiredAndForeignTokens(t *testing.T) {
	expired, err := newTestService(-time.Minute).GenerateToken("42", nil)
	require.NoError(t, err)
	_, err = newTestService(time.Hour).ValidateToken(expired)
	assert.Error(t, err)

	other := NewJWTService(config.JWTConfig{Secret: "other", Issuer: "matchmaking", ExpireTime: time.Hour})
	foreign, err := other.GenerateToken("42", nil)
	require.NoError(t, err)
	_, err = newTestService(time.Hour).ValidateToken(foreign)
	assert.Error(t, err)

	_, err = newTestService(time.Hour).GenerateToken("", nil)
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestService(time.Hour)

	r := gin.New()
	r.GET("/me", svc.AuthMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c))
	})
	r.GET("/admin", svc.AuthMiddleware(), RequireRole("A"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	cases := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing header", "/me", "", http.StatusUnauthorized},
		{"wrong scheme", "/me", "Token abc", http.StatusUnauthorized},
		{"short garbage token", "/me", "Bearer x", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}

	userToken, err := svc.GenerateToken("7", map[string]interface{}{"role": "U"})
	require.NoError(t, err)
	adminToken, err := svc.GenerateToken("1", map[string]interface{}{"role": "A"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

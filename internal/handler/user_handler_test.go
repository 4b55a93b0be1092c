package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"matchmaking/config"
	"matchmaking/internal/model"
	"matchmaking/internal/repository"
	"matchmaking/internal/service"
	"matchmaking/pkg/jwt"
	"matchmaking/pkg/otp"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type usersByEmail struct {
	mu    sync.Mutex
	users []*model.User
}

func (u *usersByEmail) Create(_ context.Context, user *model.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	user.ID = uint(len(u.users) + 1)
	cp := *user
	u.users = append(u.users, &cp)
	return nil
}

func (u *usersByEmail) GetByID(_ context.Context, id uint) (*model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if id == 0 || int(id) > len(u.users) {
		return nil, repository.ErrNotFound
	}
	cp := *u.users[id-1]
	return &cp, nil
}

func (u *usersByEmail) GetByEmail(_ context.Context, email string) (*model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (u *usersByEmail) UpdateLastLogin(_ context.Context, id uint, at time.Time) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.users[id-1].LastLogin = &at
	return nil
}

func (u *usersByEmail) UpdatePassword(_ context.Context, id uint, hash string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.users[id-1].PasswordHash = hash
	return nil
}

func newAuthRouter(t *testing.T) (*gin.Engine, *usersByEmail) {
	t.Helper()
	store := &usersByEmail{}
	tokens := jwt.NewJWTService(config.JWTConfig{Secret: "test-secret", Issuer: "matchmaking", ExpireTime: time.Hour})
	users := service.NewUserService(store, tokens, otp.NewMemoryStore(), otp.LogSender{}, config.OTPConfig{})
	h := NewUserHandler(users)

	r := gin.New()
	auth := r.Group("/api/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	me := r.Group("/api/users", tokens.AuthMiddleware())
	me.GET("/me", h.Me)
	return r, store
}

func TestRegisterAndLoginFlow(t *testing.T) {
	r, store := newAuthRouter(t)
	body := gin.H{"username": "asha", "email": "asha@example.com", "password": "Secret#123"}

	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/register", body)
	assert.Equal(t, http.StatusCreated, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/register", body)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/register", gin.H{"username": "x", "email": "x@example.com", "password": "weak"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{"email": "asha@example.com", "password": "Wrong#123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := doJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{"email": "asha@example.com", "password": "Secret#123"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		User        map[string]interface{} `json:"user"`
		AccessToken string                 `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.AccessToken)
	assert.Equal(t, "U", login.User["role"])

	req, _ := http.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)

	store.users[0].Status = model.UserStatusInactive
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{"email": "asha@example.com", "password": "Secret#123"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMeRequiresToken(t *testing.T) {
	r, _ := newAuthRouter(t)
	w, env := doJSON(t, r, http.MethodGet, "/api/users/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, http.StatusUnauthorized, env.Code)
}

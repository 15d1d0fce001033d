package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocomet/ride-booking/internal/auth"
	"github.com/gocomet/ride-booking/internal/config"
	"github.com/gocomet/ride-booking/internal/domain/user"
	"github.com/gocomet/ride-booking/internal/repository/memory"
	"github.com/gocomet/ride-booking/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T) (*gin.Engine, *auth.Verifier, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	verifier := auth.NewVerifier("secret", "", "")
	log := logger.NewNop()

	r := gin.New()
	api := r.Group("/api", Authenticate(verifier, log), LoadActor(store.Users(), log))
	api.GET("/me", func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": actor.UserID.String()})
	})
	api.GET("/admin", RequireRoles(user.RoleAdmin, user.RoleDeveloper), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r, verifier, store
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	r, verifier, store := newRouter(t)

	assert.Equal(t, http.StatusUnauthorized, do(r, "/api/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/api/me", "garbage").Code)

	token, err := verifier.Sign(auth.Identity{Subject: "uid-1"}, time.Hour)
	require.NoError(t, err)

	// valid token, unknown user
	w := do(r, "/api/me", token)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "User not found")

	_, err = store.Users().Upsert(context.Background(), &user.User{Subject: "uid-1", Roles: []user.Role{user.RoleCustomer}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, do(r, "/api/me", token).Code)
}

func TestRequireRoles(t *testing.T) {
	r, verifier, store := newRouter(t)
	ctx := context.Background()

	_, err := store.Users().Upsert(ctx, &user.User{Subject: "cust", Roles: []user.Role{user.RoleCustomer}})
	require.NoError(t, err)
	_, err = store.Users().Upsert(ctx, &user.User{Subject: "dev", Roles: []user.Role{user.RoleDeveloper}})
	require.NoError(t, err)

	custToken, err := verifier.Sign(auth.Identity{Subject: "cust"}, time.Hour)
	require.NoError(t, err)
	devToken, err := verifier.Sign(auth.Identity{Subject: "dev"}, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, do(r, "/api/admin", custToken).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/api/admin", devToken).Code)
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	r := gin.New()
	r.Use(CORS(config.CORSConfig{
		AllowedOrigins: []string{"https://app.example"},
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"Authorization"},
	}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

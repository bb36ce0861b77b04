package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager("unit-test-secret", "admin", "hunter2", time.Hour)
	require.NoError(t, err)
	return m
}

func TestNewManagerValidation(t *testing.T) {
	_, err := NewManager("", "admin", "pw", time.Hour)
	assert.Error(t, err)

	_, err = NewManager("secret", "", "pw", time.Hour)
	assert.Error(t, err)

	_, err = NewManager("secret", "admin", "", time.Hour)
	assert.Error(t, err)
}

func TestLoginAndVerify(t *testing.T) {
	m := newManager(t)

	token, expiresAt, err := m.Login("admin", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	m := newManager(t)

	_, _, err := m.Login("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = m.Login("root", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyRejectsGarbageToken(t *testing.T) {
	m := newManager(t)

	_, err := m.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m, err := NewManager("unit-test-secret", "admin", "hunter2", -time.Hour)
	require.NoError(t, err)

	token, _, err := m.Login("admin", "hunter2")
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	m := newManager(t)
	other, err := NewManager("another-secret", "admin", "hunter2", time.Hour)
	require.NoError(t, err)

	token, _, err := other.Login("admin", "hunter2")
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newManager(t)

	router := gin.New()
	router.GET("/protected", m.Middleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": c.GetString("username")})
	})

	t.Run("no header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/protected", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Basic abc123")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer bogus")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, _, err := m.Login("admin", "hunter2")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "admin")
	})
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anoixa/colab/internal/identity"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setupRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		userID, _ := GetUserID(c)
		c.String(http.StatusOK, userID)
	})
	router.Any("/test", handlers...)
	return router
}

func signToken(t *testing.T, sub string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestIdentity(t *testing.T) {
	verifier, err := identity.NewVerifier(testSecret, "")
	require.NoError(t, err)
	valid := signToken(t, "user-1")

	tests := []struct {
		name     string
		verifier TokenVerifier
		required bool
		url      string
		headers  map[string]string
		wantCode int
		wantBody string
	}{
		{"bearer token", verifier, false, "/test", map[string]string{"Authorization": "Bearer " + valid}, http.StatusOK, "user-1"},
		{"query token", verifier, false, "/test?token=" + valid, nil, http.StatusOK, "user-1"},
		{"bad header format", verifier, false, "/test", map[string]string{"Authorization": valid}, http.StatusBadRequest, ""},
		{"invalid token", verifier, false, "/test", map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized, ""},
		{"token without verifier", nil, false, "/test", map[string]string{"Authorization": "Bearer " + valid}, http.StatusUnauthorized, ""},
		{"header identity", verifier, false, "/test", map[string]string{HeaderUserID: "dev-user"}, http.StatusOK, "dev-user"},
		{"header identity ignored when token required", verifier, true, "/test", map[string]string{HeaderUserID: "dev-user"}, http.StatusOK, ""},
		{"anonymous", verifier, false, "/test", nil, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(Identity(tt.verifier, tt.required))
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestRequireUser(t *testing.T) {
	router := setupRouter(Identity(nil, false), RequireUser())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	req.Header.Set(HeaderUserID, "u1")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())
}

func TestUserRateLimiterOnlyCountsWrites(t *testing.T) {
	limiter := NewUserRateLimiter(0.001, 1)
	defer limiter.StopCleanup()
	router := setupRouter(Identity(nil, false), limiter.Middleware())

	do := func(method, user string) int {
		req := httptest.NewRequest(method, "/test", nil)
		req.Header.Set(HeaderUserID, user)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do(http.MethodPost, "a"))
	assert.Equal(t, http.StatusTooManyRequests, do(http.MethodPost, "a"))
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "a"))
	assert.Equal(t, http.StatusOK, do(http.MethodPost, "b"))
}

func TestIPRateLimiterIgnoresForwardedHeaders(t *testing.T) {
	limiter := NewIPRateLimiter(0.001, 1, time.Minute)
	defer limiter.StopCleanup()
	router := setupRouter(limiter.Middleware())
	require.NoError(t, router.SetTrustedProxies(nil))

	do := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0.7:5000"
		req.Header.Set("X-Forwarded-For", forwarded)
		req.Header.Set("X-Real-IP", forwarded)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("2.2.2.2"))
	assert.Equal(t, http.StatusTooManyRequests, do("3.3.3.3"))
}

func TestIPRateLimiterEvictsStaleClients(t *testing.T) {
	rl := NewIPRateLimiter(1, 1, time.Minute)
	defer rl.StopCleanup()

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))

	rl.evictStale(time.Now().Add(2 * time.Minute))
	assert.True(t, rl.Allow("1.2.3.4"))
}

func TestRequestID(t *testing.T) {
	router := setupRouter(RequestID())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Len(t, w.Header().Get(HeaderRequestID), 36)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(HeaderRequestID, "abc")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(HeaderRequestID))
}

func TestBodyLimit(t *testing.T) {
	router := setupRouter(BodyLimit(8))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("tiny")))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestConcurrencyLimiterRejectsWhenFull(t *testing.T) {
	cl := NewConcurrencyLimiter(1)
	require.True(t, cl.sem.TryAcquire(1))
	router := setupRouter(cl.Middleware())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	cl.sem.Release(1)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetrics(t *testing.T) {
	ResetMetrics()
	router := setupRouter(Metrics())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	}
	assert.Equal(t, int64(3), GetMetrics()["request_count"])
	assert.Equal(t, int64(0), GetMetrics()["error_count"])
}

package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func okRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	return r
}

func get(r http.Handler, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return "Bearer " + s
}

func TestJWTAuth(t *testing.T) {
	secret := []byte("s3cret")
	r := okRouter(JWTAuth(string(secret), "host"))

	assert.Equal(t, http.StatusUnauthorized, get(r, "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Authorization", "Bearer garbage").Code)

	wrongKey := sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "1", "roles": "host"})
	assert.Equal(t, http.StatusUnauthorized, get(r, "Authorization", wrongKey).Code)

	guest := sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"sub": "1", "roles": []string{"guest"}})
	assert.Equal(t, http.StatusForbidden, get(r, "Authorization", guest).Code)

	host := sign(t, jwt.SigningMethodHS512, secret, jwt.MapClaims{"sub": "1", "roles": []string{"guest", "host"}})
	assert.Equal(t, http.StatusOK, get(r, "Authorization", host).Code)

	expired := sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{
		"sub": "1", "roles": "host", "exp": time.Now().Add(-time.Minute).Unix(),
	})
	assert.Equal(t, http.StatusUnauthorized, get(r, "Authorization", expired).Code)
}

func TestJWTAuthWithoutRole(t *testing.T) {
	r := okRouter(JWTAuth("k", ""))
	tok := sign(t, jwt.SigningMethodHS256, []byte("k"), jwt.MapClaims{"sub": "9"})
	assert.Equal(t, http.StatusOK, get(r, "Authorization", tok).Code)
}

func TestRequestID(t *testing.T) {
	r := okRouter(RequestID())

	w := get(r, "", "")
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	w = get(r, RequestIDHeader, "abc-123")
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	r := okRouter(rl.Handler())

	assert.Equal(t, http.StatusOK, get(r, "", "").Code)
	assert.Equal(t, http.StatusOK, get(r, "", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "", "").Code)

	rl.Cleanup(0)
	assert.Equal(t, http.StatusOK, get(r, "", "").Code)
}

func TestLoggerRecordsRouteAndErrors(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	r := gin.New()
	r.Use(RequestID(), Logger(log))
	r.GET("/meals/:id", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/meals/3", nil))

	out := buf.String()
	assert.Contains(t, out, `"route":"/meals/:id"`)
	assert.Contains(t, out, `"status":500`)
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, assert.AnError.Error())
}

func TestCORS(t *testing.T) {
	r := okRouter(CORS([]string{"http://localhost:3000"}))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

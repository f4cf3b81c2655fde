package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menjil-org/menjil-backend/internal/logger"
	"github.com/menjil-org/menjil-backend/internal/requestdata"
	"github.com/menjil-org/menjil-backend/internal/services"
	"github.com/menjil-org/menjil-backend/internal/socket"
	"github.com/menjil-org/menjil-backend/internal/socketdata"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []socket.Message
}

func (p *recordingPublisher) BroadcastGlobal(ctx context.Context, msg socket.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, msg)
}

func TestAttachRequestContext_PublishesOnlyOnSuccess(t *testing.T) {
	pub := &recordingPublisher{}
	router := gin.New()
	router.Use(AttachRequestContext(pub))
	enqueue := func(status int) gin.HandlerFunc {
		return func(c *gin.Context) {
			socketdata.GetSocketData(c.Request.Context()).AppendMessage(socket.Message{Channel: "room:r1", Data: status})
			c.Status(status)
		}
	}
	router.POST("/ok", enqueue(http.StatusCreated))
	router.POST("/fail", enqueue(http.StatusBadGateway))

	for _, path := range []string{"/ok", "/fail"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
	}

	require.Len(t, pub.sent, 1)
	assert.Equal(t, http.StatusCreated, pub.sent[0].Data)
}

func newAuthRouter(secret string) *gin.Engine {
	am := NewAuthMiddleware(logger.NewNop(), services.NewAuthService(logger.NewNop(), secret))
	router := gin.New()
	router.Use(am.RequireAuth())
	router.GET("/who", func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		if rd == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		if err := RequireSelf(c, c.Query("as")); err != nil {
			c.Status(http.StatusForbidden)
			return
		}
		c.String(http.StatusOK, rd.Nickname)
	})
	return router
}

func TestRequireAuth(t *testing.T) {
	router := newAuthRouter("secret")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, services.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		Nickname:         "m1",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	cases := []struct {
		name   string
		target string
		header string
		status int
		body   string
	}{
		{"missing token", "/who", "", http.StatusUnauthorized, ""},
		{"bad token", "/who", "Bearer nope", http.StatusUnauthorized, ""},
		{"header token", "/who?as=m1", "Bearer " + token, http.StatusOK, "m1"},
		{"query token", "/who?as=m1&token=" + token, "", http.StatusOK, "m1"},
		{"acting as someone else", "/who?as=m2", "Bearer " + token, http.StatusForbidden, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, w.Body.String())
			}
		})
	}
}

func TestRequireAuth_DisabledWithoutSecret(t *testing.T) {
	w := httptest.NewRecorder()
	newAuthRouter("").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/who", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())
}

func TestRequestLogger_EchoesRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestLogger(logger.NewNop()), Metrics())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

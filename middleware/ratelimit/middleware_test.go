package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"contest-gateway/middleware/ratelimit/infra"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw gin.HandlerFunc, calls *int) *gin.Engine {
	r := gin.New()
	r.Use(mw)
	r.GET("/play", func(c *gin.Context) {
		if calls != nil {
			*calls++
		}
		c.String(http.StatusOK, "ok")
	})
	return r
}

func get(h http.Handler, target string, prepare func(*http.Request)) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	r.RemoteAddr = "10.0.0.1:1234"
	if prepare != nil {
		prepare(r)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestMiddleware_AllowsThenRejectsSameKey(t *testing.T) {
	calls := 0
	h := newRouter(Middleware(Options{
		Store:               infra.NewStore(0.02, 1),
		RetryAfter:          time.Second,
		AddRateLimitHeaders: true,
	}), &calls)

	w1 := get(h, "http://example/play", nil)
	if w1.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w1.Code)
	}
	if got := w1.Header().Get("X-RateLimit-Key"); got != "10.0.0.1" {
		t.Fatalf("expected X-RateLimit-Key=10.0.0.1, got %q", got)
	}
	if got := w1.Header().Get("X-RateLimit-RPS"); got != "0.02" {
		t.Fatalf("expected X-RateLimit-RPS=0.02, got %q", got)
	}
	if got := w1.Header().Get("X-RateLimit-Burst"); got != "1" {
		t.Fatalf("expected X-RateLimit-Burst=1, got %q", got)
	}

	w2 := get(h, "http://example/play", nil)
	if w2.Code != StatusEnhanceYourCalm {
		t.Fatalf("expected 420, got %d", w2.Code)
	}
	if got := w2.Header().Get("Retry-After"); got == "" {
		t.Fatalf("expected Retry-After header to be set")
	}
	if !strings.Contains(w2.Body.String(), "rate limit exceeded") {
		t.Fatalf("expected json error body, got %q", w2.Body.String())
	}

	if calls != 1 {
		t.Fatalf("expected next handler to be called once, got %d", calls)
	}
}

func TestMiddleware_KeyByUserQuery(t *testing.T) {
	h := newRouter(Middleware(Options{
		Store:    infra.NewStore(0.02, 1),
		KeyQuery: "user",
	}), nil)

	// mesmo IP, usuários diferentes => cada um tem seu bucket
	if w := get(h, "http://example/play?user=alice", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for alice, got %d", w.Code)
	}
	if w := get(h, "http://example/play?user=bob", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for bob, got %d", w.Code)
	}
	if w := get(h, "http://example/play?user=alice", nil); w.Code != StatusEnhanceYourCalm {
		t.Fatalf("expected alice to be limited, got %d", w.Code)
	}
}

func TestMiddleware_KeyByHeader(t *testing.T) {
	h := newRouter(Middleware(Options{
		Store:     infra.NewStore(0.02, 1),
		KeyHeader: "X-Api-Key",
	}), nil)

	for _, key := range []string{"k1", "k2"} {
		w := get(h, "http://example/play", func(r *http.Request) { r.Header.Set("X-Api-Key", key) })
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 for key %s, got %d", key, w.Code)
		}
	}
}

func TestMiddleware_RetryAfterRoundsUp(t *testing.T) {
	h := newRouter(Middleware(Options{
		Store:      infra.NewStore(0.02, 1),
		RetryAfter: 2500 * time.Millisecond,
	}), nil)

	_ = get(h, "http://example/play", nil)
	w := get(h, "http://example/play", nil)
	if w.Code != StatusEnhanceYourCalm {
		t.Fatalf("expected 420, got %d", w.Code)
	}
	// o próximo token demora ~50s com rps=0.02, então o atraso do bucket vence o piso
	secs := strings.TrimSpace(w.Header().Get("Retry-After"))
	if secs == "" || secs == "0" || secs == "1" || secs == "2" {
		t.Fatalf("expected Retry-After above the 2.5s floor, got %q", secs)
	}
}

func TestMiddleware_CustomRejectStatus(t *testing.T) {
	h := newRouter(Middleware(Options{
		Store:        infra.NewStore(0.02, 1),
		RejectStatus: http.StatusTooManyRequests,
	}), nil)

	_ = get(h, "http://example/play", nil)
	if w := get(h, "http://example/play", nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
}

func TestDefaultKeyFunc(t *testing.T) {
	cases := []struct {
		name     string
		fn       KeyFunc
		target   string
		headers  map[string]string
		expected string
	}{
		{
			name:     "query wins over everything",
			fn:       DefaultKeyFunc("user", "X-Client", true),
			target:   "/play?user=%20u1%20",
			headers:  map[string]string{"X-Client": "c1", "X-Forwarded-For": "1.2.3.4"},
			expected: "user:u1",
		},
		{
			name:     "header when query is empty",
			fn:       DefaultKeyFunc("user", "X-Client", false),
			target:   "/play",
			headers:  map[string]string{"X-Client": " client-123 "},
			expected: "client-123",
		},
		{
			name:     "first forwarded ip when trusted",
			fn:       DefaultKeyFunc("", "", true),
			target:   "/play",
			headers:  map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.7.8"},
			expected: "1.2.3.4",
		},
		{
			name:     "forwarded header ignored when not trusted",
			fn:       DefaultKeyFunc("", "", false),
			target:   "/play",
			headers:  map[string]string{"X-Forwarded-For": "1.2.3.4"},
			expected: "10.0.0.9",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "http://example"+tc.target, nil)
			c.Request.RemoteAddr = "10.0.0.9:5555"
			for k, v := range tc.headers {
				c.Request.Header.Set(k, v)
			}

			if got := tc.fn(c); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestKeyByIPAndJSONField(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth", strings.NewReader(`{"username":" Root@Example.com "}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.RemoteAddr = "1.2.3.4:5678"

	key := KeyByIPAndJSONField("username")(c)
	if key != "root@example.com|1.2.3.4" {
		t.Fatalf("key want root@example.com|1.2.3.4 got %s", key)
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		t.Fatalf("read body after key extraction failed: %v", err)
	}
	if !strings.Contains(string(body), "Root@Example.com") {
		t.Fatalf("request body should be restored after reading field")
	}
}

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("expected handler response body, got %s", w.Body.String())
	}
}

func TestToInt64(t *testing.T) {
	cases := []struct {
		name  string
		input interface{}
		want  int64
		ok    bool
	}{
		{name: "int64", input: int64(10), want: 10, ok: true},
		{name: "int", input: int(11), want: 11, ok: true},
		{name: "float64", input: float64(13.9), want: 13, ok: true},
		{name: "numeric string", input: " 42 ", want: 42, ok: true},
		{name: "string", input: "bad", want: 0, ok: false},
		{name: "bool", input: true, want: 0, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := toInt64(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok want %v got %v", tc.ok, ok)
			}
			if got != tc.want {
				t.Fatalf("value want %d got %d", tc.want, got)
			}
		})
	}
}

func TestResolveWaitSeconds(t *testing.T) {
	rule := RateLimitRule{WindowSeconds: 300, BlockSeconds: 900}
	if got := resolveWaitSeconds(42, rule); got != 42 {
		t.Fatalf("positive ttl should win, got %d", got)
	}
	if got := resolveWaitSeconds(-1, rule); got != 900 {
		t.Fatalf("missing ttl should fall back to block seconds, got %d", got)
	}
	if got := resolveWaitSeconds(0, RateLimitRule{WindowSeconds: 60}); got != 60 {
		t.Fatalf("missing ttl without block should use window, got %d", got)
	}
	if got := resolveWaitSeconds(0, RateLimitRule{}); got != 1 {
		t.Fatalf("wait seconds should be at least 1, got %d", got)
	}
}

func TestKeyByUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/affiliate/payouts/request", nil)
	c.Request.RemoteAddr = "5.6.7.8:1234"
	if got := KeyByUserID(c); got != "5.6.7.8" {
		t.Fatalf("anonymous key should be ip, got %s", got)
	}
	c.Set("user_id", uint(9))
	if got := KeyByUserID(c); got != "user:9" {
		t.Fatalf("user key want user:9 got %s", got)
	}
}

func TestParseRateLimitResult(t *testing.T) {
	rule := RateLimitRule{WindowSeconds: 60, MaxRequests: 3, BlockSeconds: 600}

	decision, err := parseRateLimitResult([]interface{}{int64(3), int64(40)}, rule)
	if err != nil || !decision.Allowed {
		t.Fatalf("count at limit should pass, got %+v err=%v", decision, err)
	}
	decision, err = parseRateLimitResult([]interface{}{int64(4), int64(600)}, rule)
	if err != nil || decision.Allowed || decision.WaitSeconds != 600 {
		t.Fatalf("count over limit should block 600s, got %+v err=%v", decision, err)
	}
	decision, err = parseRateLimitResult([]interface{}{int64(-1), int64(120)}, rule)
	if err != nil || decision.Allowed || decision.WaitSeconds != 120 {
		t.Fatalf("blocked key should report remaining ttl, got %+v err=%v", decision, err)
	}
	if _, err := parseRateLimitResult("OK", rule); err == nil {
		t.Fatalf("unexpected script result should error")
	}
}

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dhaqane/shop-backend/internal/config"
	"github.com/dhaqane/shop-backend/internal/logging"
	"github.com/dhaqane/shop-backend/internal/metrics"
	"github.com/dhaqane/shop-backend/internal/utils"
)

const secret = "mw-secret"

func token(t *testing.T, uid, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, uid, "x@example.com", role, time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	return tok.Token
}

func serve(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	if body["success"] != false {
		t.Errorf("success flag missing in %v", body)
	}
	s, _ := body["error"].(string)
	return s
}

func TestGuards(t *testing.T) {
	g := NewGuards(secret)
	e := echo.New()
	whoami := func(c echo.Context) error {
		id, ok := UserID(c)
		return c.JSON(http.StatusOK, echo.Map{"id": id.Hex(), "ok": ok, "admin": IsAdmin(c)})
	}
	e.GET("/me", whoami, g.Authenticated...)
	e.GET("/admin", whoami, g.Admin...)

	uid := primitive.NewObjectID().Hex()
	userTok := "Bearer " + token(t, uid, "user")
	adminTok := "Bearer " + token(t, uid, "admin")

	if rec := serve(e, http.MethodGet, "/me", ""); rec.Code != http.StatusUnauthorized || errorOf(t, rec) != "missing bearer token" {
		t.Errorf("no token: %d %s", rec.Code, rec.Body)
	}
	if rec := serve(e, http.MethodGet, "/me", "Bearer nope"); rec.Code != http.StatusUnauthorized || errorOf(t, rec) != "invalid token" {
		t.Errorf("bad token: %d %s", rec.Code, rec.Body)
	}
	rec := serve(e, http.MethodGet, "/me", userTok)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: %d %s", rec.Code, rec.Body)
	}
	var got map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got["id"] != uid || got["ok"] != true || got["admin"] != false {
		t.Errorf("identity not propagated: %v", got)
	}

	if rec := serve(e, http.MethodGet, "/admin", userTok); rec.Code != http.StatusForbidden {
		t.Errorf("user on admin route: %d", rec.Code)
	}
	if rec := serve(e, http.MethodGet, "/admin", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous on admin route: %d", rec.Code)
	}
	if rec := serve(e, http.MethodGet, "/admin", adminTok); rec.Code != http.StatusOK {
		t.Errorf("admin on admin route: %d", rec.Code)
	}
}

func TestUserIDWithoutIdentity(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if _, ok := UserID(c); ok {
		t.Error("anonymous context yielded a user id")
	}
	c.Set(ContextUserID, "not-hex")
	if _, ok := UserID(c); ok {
		t.Error("malformed subject accepted")
	}
	if identityKey(c) != "not-hex" {
		t.Errorf("identityKey = %q", identityKey(c))
	}
}

func TestRedisMiddlewareDisabledPassesThrough(t *testing.T) {
	e := echo.New()
	e.Use(NewRedisCache(config.CacheConfig{Enabled: true}, nil))
	e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil))
	e.POST("/x", func(c echo.Context) error { return c.NoContent(http.StatusCreated) },
		NewCacheInvalidator(config.CacheConfig{Enabled: true}, nil))
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	rec := serve(e, http.MethodGet, "/x", "")
	if rec.Code != http.StatusOK || rec.Header().Get("X-Cache") != "" {
		t.Errorf("cache without redis should be transparent: %d %v", rec.Code, rec.Header())
	}
	if rec := serve(e, http.MethodPost, "/x", ""); rec.Code != http.StatusCreated {
		t.Errorf("invalidator without redis: %d", rec.Code)
	}
}

func TestCacheKeyStrategies(t *testing.T) {
	e := echo.New()
	ctxFor := func(method, target string) echo.Context {
		c := e.NewContext(httptest.NewRequest(method, target, nil), httptest.NewRecorder())
		c.SetPath("/api/product/getAllProducts")
		return c
	}
	cfg := config.CacheConfig{Prefix: "shop:cache", KeyStrategy: "route_query"}

	a := cacheKeyFrom(cfg, ctxFor(http.MethodGet, "/api/product/getAllProducts?category=1"))
	b := cacheKeyFrom(cfg, ctxFor(http.MethodGet, "/api/product/getAllProducts?category=2"))
	if a == b {
		t.Error("route_query must distinguish query strings")
	}
	if a[:len("shop:cache:")] != "shop:cache:" {
		t.Errorf("prefix missing: %s", a)
	}

	cfg.KeyStrategy = "route"
	if cacheKeyFrom(cfg, ctxFor(http.MethodGet, "/x?a=1")) != cacheKeyFrom(cfg, ctxFor(http.MethodGet, "/x?a=2")) {
		t.Error("route strategy must ignore the query")
	}
	cfg.KeyStrategy = "method_route"
	if cacheKeyFrom(cfg, ctxFor(http.MethodGet, "/x")) == cacheKeyFrom(cfg, ctxFor(http.MethodHead, "/x")) {
		t.Error("method_route must distinguish methods")
	}
}

func TestCacheKeyIncludesPathParams(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "shop:cache", KeyStrategy: "route_query"}
	e := echo.New()
	keys := map[string]string{}
	e.GET("/api/product/getProduct/:id", func(c echo.Context) error {
		keys[c.Param("id")] = cacheKeyFrom(cfg, c)
		return c.NoContent(http.StatusOK)
	})
	for _, strategy := range []string{"route", "method_route", "method_route_query", "route_query"} {
		cfg.KeyStrategy = strategy
		serve(e, http.MethodGet, "/api/product/getProduct/64b000000000000000000001", "")
		serve(e, http.MethodGet, "/api/product/getProduct/64b000000000000000000002", "")
		a, b := keys["64b000000000000000000001"], keys["64b000000000000000000002"]
		if a == "" || a == b {
			t.Errorf("%s: products share cache key %q", strategy, a)
		}
	}
}

func TestCachePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`[1,2]`))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	status, got, body, ok := decodePayload(bs)
	if !ok || status != http.StatusOK || got.Get("Content-Type") != "application/json" || string(body) != "[1,2]" {
		t.Fatalf("decode: %v %d %v %q", ok, status, got, body)
	}
	if _, _, _, ok := decodePayload([]byte{0, 0}); ok {
		t.Error("short payload accepted")
	}
	if _, _, _, ok := decodePayload([]byte{0, 0, 0, 200, 0, 0, 1, 0}); ok {
		t.Error("header length beyond payload accepted")
	}
}

func TestCaptureWriterLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	_, _ = cw.Write([]byte("defg"))
	if cw.buf.String() != "abcd" || cw.size != 7 || rec.Body.String() != "abcdefg" {
		t.Fatalf("buf=%q size=%d client=%q", cw.buf.String(), cw.size, rec.Body.String())
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/order/createOrder", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/order/createOrder")

	cfg := config.RateLimitConfig{Prefix: "shop:rl", KeyStrategy: "ip_user_route"}
	if got := buildRateKey(cfg, c); got != "shop:rl:ip:10.0.0.7:user:anon:route:POST /api/order/createOrder" {
		t.Errorf("key = %q", got)
	}
	c.Set(ContextUserID, "u1")
	cfg.KeyStrategy = "user"
	if got := buildRateKey(cfg, c); got != "shop:rl:user:u1" {
		t.Errorf("key = %q", got)
	}
	if retryAfterSeconds(0) != 1 || retryAfterSeconds(1500) != 2 {
		t.Error("retry-after rounding")
	}
}

func TestRequestContextCarriesRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := echo.New()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(echo.HeaderXRequestID, "rid-1")
			return next(c)
		}
	})
	e.Use(RequestContext(zap.New(core)))
	e.GET("/", func(c echo.Context) error {
		logging.FromContext(c.Request().Context()).Info("inside")
		return c.NoContent(http.StatusNoContent)
	})
	serve(e, http.MethodGet, "/", "")

	entries := logs.FilterMessage("inside").All()
	if len(entries) != 1 || entries[0].ContextMap()["request_id"] != "rid-1" {
		t.Fatalf("request id not attached: %+v", entries)
	}
}

func TestHTTPMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	e := echo.New()
	e.Use(HTTPMetrics(m))
	e.GET("/api/title/getAllTitles", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	serve(e, http.MethodGet, "/api/title/getAllTitles", "")
	serve(e, http.MethodGet, "/api/title/getAllTitles", "")

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodGet, "/api/title/getAllTitles", "200")); got != 2 {
		t.Errorf("request counter = %v, want 2", got)
	}
}

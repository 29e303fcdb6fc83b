package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS_AllowOrigin(t *testing.T) {
	for _, tt := range []struct {
		name   string
		cfg    CORSConfig
		origin string
		want   string
	}{
		{name: "any", cfg: CORSConfig{}, origin: "https://shop.example", want: "*"},
		{name: "star", cfg: CORSConfig{AllowOrigins: []string{"*"}}, origin: "https://x.test", want: "*"},
		{
			name:   "any with credentials echoes",
			cfg:    CORSConfig{AllowOrigins: []string{"*"}, AllowCredentials: true},
			origin: "https://x.test",
			want:   "https://x.test",
		},
		{
			name:   "exact case insensitive",
			cfg:    CORSConfig{AllowOrigins: []string{"https://Admin.Beauty.test"}},
			origin: "https://admin.beauty.test",
			want:   "https://admin.beauty.test",
		},
		{
			name:   "exact rejected",
			cfg:    CORSConfig{AllowOrigins: []string{"https://admin.beauty.test"}},
			origin: "https://evil.test",
		},
		{
			name:   "subdomain pattern",
			cfg:    CORSConfig{AllowOrigins: []string{"https://*.beauty.test"}},
			origin: "https://preview-42.beauty.test",
			want:   "https://preview-42.beauty.test",
		},
		{
			name:   "pattern needs a subdomain",
			cfg:    CORSConfig{AllowOrigins: []string{"https://*.beauty.test"}},
			origin: "https://beauty.test",
		},
		{
			name:   "pattern scheme mismatch",
			cfg:    CORSConfig{AllowOrigins: []string{"https://*.beauty.test"}},
			origin: "http://a.beauty.test",
		},
		{
			name:   "pattern rejects paths",
			cfg:    CORSConfig{AllowOrigins: []string{"https://*.beauty.test"}},
			origin: "https://evil.test/x.beauty.test",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, newCORSPolicy(tt.cfg).allowOrigin(tt.origin))
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := CORS(CORSConfig{
		AllowOrigins: []string{"https://admin.beauty.test"},
		AllowHeaders: []string{"Content-Type", "api_key"},
		MaxAge:       600,
	})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
	req.Header.Set("Origin", "https://admin.beauty.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://admin.beauty.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, PUT, PATCH, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, api_key", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_PreflightRejectedOrigin(t *testing.T) {
	h := CORS(CORSConfig{AllowOrigins: []string{"https://admin.beauty.test"}})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
	req.Header.Set("Origin", "https://evil.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_ActualRequest(t *testing.T) {
	h := CORS(CORSConfig{
		AllowOrigins:     []string{"https://admin.beauty.test"},
		ExposeHeaders:    []string{RequestIDHeader},
		AllowCredentials: true,
	})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Origin", "https://admin.beauty.test")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://admin.beauty.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, RequestIDHeader, w.Header().Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))
}

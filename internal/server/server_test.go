package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/carbonsense/carbonsense/internal/service/analysis"
	"github.com/carbonsense/carbonsense/pkg/analyzer/carbon"
	"github.com/carbonsense/carbonsense/pkg/analyzer/website"
	"github.com/carbonsense/carbonsense/pkg/config"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *observer.ObservedLogs) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Server.Mode = gin.TestMode
	if mutate != nil {
		mutate(cfg)
	}
	core, logs := observer.New(zapcore.DebugLevel)
	svc := analysis.New(analysis.WithConfig(cfg))
	return New(svc, zap.New(core)), logs
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w := do(t, s, http.MethodGet, "/api/v1/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestAnalyze(t *testing.T) {
	s, logs := newTestServer(t, nil)
	w := do(t, s, http.MethodPost, "/api/v1/analyze", `{"code":"for (var i=0;i<10;i++) { console.log(i); }"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var result carbon.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Positive(t, result.OriginalEmission)
	assert.GreaterOrEqual(t, len(result.Suggestions), 3)
	assert.Equal(t, "for (let i=0;i<10;i++) { }", result.OptimizedCode)

	entries := logs.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
}

func TestAnalyze_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty code", `{"code":""}`, "No code provided"},
		{"blank code", `{"code":"   \n\t"}`, "No code provided"},
		{"missing code", `{}`, "No code provided"},
		{"malformed", `{"code":`, "Invalid request payload"},
		{"no body", ``, "Invalid request payload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, nil)
			w := do(t, s, http.MethodPost, "/api/v1/analyze", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.Error)
		})
	}
}

func TestAnalyze_BodyTooLarge(t *testing.T) {
	s, _ := newTestServer(t, func(cfg *config.Config) {
		cfg.Server.MaxBodyBytes = 32
	})
	body := `{"code":"` + strings.Repeat("x", 64) + `"}`
	w := do(t, s, http.MethodPost, "/api/v1/analyze", body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestWebsite(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w := do(t, s, http.MethodPost, "/api/v1/website", `{"url":"Example.com/page"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var e website.Estimate
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	assert.Equal(t, "https://example.com/page", e.URL)
	assert.Equal(t, website.RatingGood, e.Rating)
	assert.True(t, e.Mock)
	assert.Len(t, e.Opportunities, 3)
}

func TestWebsite_InvalidURL(t *testing.T) {
	for _, body := range []string{`{"url":""}`, `{"url":"ftp://example.com"}`, `{"url":"intranet"}`} {
		s, _ := newTestServer(t, nil)
		w := do(t, s, http.MethodPost, "/api/v1/website", body)

		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), "Invalid URL", body)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(RecoveryMiddleware(zap.New(core)))
	router.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
	require.Equal(t, 1, logs.FilterMessage("Panic recovered").Len())
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	s, _ := newTestServer(t, func(cfg *config.Config) {
		cfg.Server.Addr = addr
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/api/v1/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

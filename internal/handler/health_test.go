package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		deps Dependencies
		want map[string]string
	}{
		{
			name: "degraded",
			want: map[string]string{"cot_backend": "missing", "redis": "disabled", "postgres": "disabled"},
		},
		{
			name: "full stack",
			deps: Dependencies{CotBackend: "http://localhost:8000", Redis: true, Postgres: true},
			want: map[string]string{"cot_backend": "configured", "redis": "connected", "postgres": "connected"},
		},
		{
			name: "redis only",
			deps: Dependencies{CotBackend: "http://localhost:8000", Redis: true},
			want: map[string]string{"cot_backend": "configured", "redis": "connected", "postgres": "disabled"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			h := &Handler{tracer: trace.NewNoopTracerProvider().Tracer("test")}
			h.SetDependencies(tt.deps)
			r.GET("/health", h.Health)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/health", nil)
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", w.Code)
			}
			var body healthResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("parse error: %v", err)
			}
			if body.Status != "healthy" {
				t.Errorf("unexpected status %q", body.Status)
			}
			for k, v := range tt.want {
				if body.Dependencies[k] != v {
					t.Errorf("%s: expected %q, got %q", k, v, body.Dependencies[k])
				}
			}
		})
	}
}

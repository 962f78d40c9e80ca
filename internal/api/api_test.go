package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JaimeStill/ineed/internal/api"
	"github.com/JaimeStill/ineed/internal/config"
	"github.com/JaimeStill/ineed/internal/infrastructure"
	"github.com/JaimeStill/ineed/pkg/auth"
	"github.com/JaimeStill/ineed/pkg/database"
	"github.com/JaimeStill/ineed/pkg/openapi"
	"github.com/JaimeStill/ineed/pkg/pagination"
	"github.com/JaimeStill/ineed/pkg/ratelimit"
	"github.com/JaimeStill/ineed/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=ineedstore;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/ineedstore;"

func validConfig() *config.Config {
	return &config.Config{
		Database: database.Config{
			Host:            "127.0.0.1",
			Port:            1,
			Name:            "ineed",
			User:            "ineed",
			Password:        "ineed",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    1,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "1s",
		},
		Storage: storage.Config{
			Provider:         storage.ProviderAzure,
			ContainerName:    "listings",
			ConnectionString: azuriteConnString,
		},
		Redis: config.RedisConfig{Addr: "127.0.0.1:1", DialTimeout: "1s"},
		Auth:  auth.Config{Mode: auth.ModeHMAC, Secret: "0123456789abcdef"},
		GenAI: config.GenAIConfig{Model: "gemini-2.5-flash", RequestsPerMinute: 60, Burst: 1},
		Moderation: config.ModerationConfig{
			Timeout:        "1s",
			Workers:        1,
			ReconnectDelay: "1s",
		},
		Assist: config.AssistConfig{Timeout: "1s"},
		API: config.APIConfig{
			BasePath:      "/api",
			MaxUploadSize: "1MB",
			Pagination:    pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
			Feed:          pagination.Config{DefaultPageSize: 12, MaxPageSize: 20},
			RateLimit:     ratelimit.Config{Enabled: false, Requests: 10, Window: "1m", Prefix: "test"},
			OpenAPI:       openapi.Config{Title: "iNeed API"},
		},
		Version: "0.1.0",
	}
}

func newModule(t *testing.T) http.Handler {
	t.Helper()

	cfg := validConfig()
	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	t.Cleanup(func() {
		infra.Lifecycle.Shutdown(5 * time.Second)
		infra.Redis.Close()
	})

	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}
	if m.Prefix() != "/api" {
		t.Errorf("prefix = %q, want /api", m.Prefix())
	}
	return m
}

func TestOpenAPIDocument(t *testing.T) {
	m := newModule(t)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest("GET", "/api/openapi.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	var spec openapi.Spec
	if err := json.NewDecoder(rec.Body).Decode(&spec); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{
		"/categories",
		"/listings/feed",
		"/listings/{id}",
		"/conversations/{id}/proposals",
		"/reviews",
		"/users/{id}/reviews",
		"/assist/refine",
	} {
		if _, ok := spec.Paths[path]; !ok {
			t.Errorf("path %s not documented", path)
		}
	}

	for _, name := range []string{"Listing", "ListingFeed", "Message", "Review", "Recommendations"} {
		if _, ok := spec.Components.Schemas[name]; !ok {
			t.Errorf("schema %s missing", name)
		}
	}
}

func TestRoutesWithoutBackingServices(t *testing.T) {
	m := newModule(t)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"static categories", "GET", "/api/categories", http.StatusOK},
		{"feed page size over cap", "GET", "/api/listings/feed?pageSize=21", http.StatusBadRequest},
		{"feed malformed cursor", "GET", "/api/listings/feed?cursor=%25%25", http.StatusBadRequest},
		{"create requires token", "POST", "/api/listings", http.StatusUnauthorized},
		{"conversations require token", "GET", "/api/conversations", http.StatusUnauthorized},
		{"assist requires token", "POST", "/api/assist/refine", http.StatusUnauthorized},
		{"media outside listings", "GET", "/api/media/conversations/x.pdf", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			m.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

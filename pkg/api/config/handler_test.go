package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	coreConfig "company_research/pkg/core/config"

	"github.com/google/go-cmp/cmp"
)

func TestHandleConfig_HidesSecrets(t *testing.T) {
	cfg := coreConfig.Default()
	cfg.Search.Provider = coreConfig.ProviderGemini
	cfg.Search.GeminiAPIKey = "secret-key"
	cfg.Storage.DatabaseURL = "postgres://user:pw@localhost/research"

	rec := httptest.NewRecorder()
	NewHandler(cfg).HandleConfig(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "secret-key") || strings.Contains(body, "pw@") {
		t.Fatalf("response leaks secrets: %s", body)
	}

	var got Response
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	want := Response{
		DocStoreAPI:     coreConfig.DefaultAPIBase,
		SearchProvider:  coreConfig.ProviderGemini,
		SearchResults:   20,
		GeminiModel:     "gemini-2.0-flash",
		DownloadDir:     ".",
		CompaniesDir:    "companies",
		RunStore:        "postgres",
		QuestionsPath:   "resources/questions.yaml",
		QueryTimeout:    "2m0s",
		DownloadTimeout: "15s",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleConfig_FileStore(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(coreConfig.Default()).HandleConfig(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	var got Response
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.RunStore != "file" || got.GeminiModel != "" {
		t.Errorf("got run_store=%q gemini_model=%q", got.RunStore, got.GeminiModel)
	}
}

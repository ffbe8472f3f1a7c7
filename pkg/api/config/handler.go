package config

import (
	"encoding/json"
	"net/http"

	coreConfig "company_research/pkg/core/config"
)

// Response is the non-secret part of the running configuration.
type Response struct {
	DocStoreAPI     string `json:"docstore_api"`
	SearchProvider  string `json:"search_provider"`
	SearchResults   int    `json:"search_max_results"`
	GeminiModel     string `json:"gemini_model,omitempty"`
	DownloadDir     string `json:"download_dir"`
	CompaniesDir    string `json:"companies_dir"`
	RunStore        string `json:"run_store"`
	QuestionsPath   string `json:"questions_path"`
	QueryTimeout    string `json:"query_timeout"`
	DownloadTimeout string `json:"download_timeout"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	Config coreConfig.Config
}

// NewHandler creates a new config handler
func NewHandler(cfg coreConfig.Config) *Handler {
	return &Handler{
		Config: cfg,
	}
}

// HandleConfig handles GET /api/config
func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.Config
	resp := Response{
		DocStoreAPI:     cfg.DocStore.APIBase,
		SearchProvider:  cfg.Search.Provider,
		SearchResults:   cfg.Search.MaxResults,
		DownloadDir:     cfg.Storage.DownloadDir,
		CompaniesDir:    cfg.Storage.CompaniesDir,
		RunStore:        "file",
		QuestionsPath:   cfg.QuestionsPath,
		QueryTimeout:    cfg.DocStore.QueryTimeout.String(),
		DownloadTimeout: cfg.Search.DownloadTimeout.String(),
	}
	if cfg.Search.Provider == coreConfig.ProviderGemini {
		resp.GeminiModel = cfg.Search.GeminiModel
	}
	if cfg.Storage.DatabaseURL != "" {
		resp.RunStore = "postgres"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Package app wires configuration into the clients, pipeline and API shared by
// the command-line and server binaries.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	apiConfig "company_research/pkg/api/config"
	"company_research/pkg/api/research"
	"company_research/pkg/core/config"
	"company_research/pkg/core/docstore"
	"company_research/pkg/core/export"
	"company_research/pkg/core/hybrid"
	"company_research/pkg/core/ingest"
	"company_research/pkg/core/logging"
	"company_research/pkg/core/pipeline"
	"company_research/pkg/core/prompt"
	"company_research/pkg/core/search"
	"company_research/pkg/core/store"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App is the assembled application.
type App struct {
	Config       config.Config
	Catalog      *prompt.Catalog
	DocStore     *docstore.Client
	Engine       *hybrid.Engine
	Orchestrator *pipeline.Orchestrator
	Runner       *pipeline.Runner
	Runs         *store.RunStore
	Exporter     *export.Exporter
	Logger       *zap.Logger
}

// New builds every component from cfg. A Postgres run store is used when
// DatabaseURL is set and reachable, otherwise runs are kept as JSON files.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := logging.New("app")

	catalog, err := prompt.LoadCatalog(cfg.QuestionsPath)
	if err != nil {
		logger.Warn("question catalog not loaded, category analysis has no prompts",
			zap.String("path", cfg.QuestionsPath), zap.Error(err))
		catalog = prompt.NewCatalog(nil)
	}

	searcher, err := newSearcher(ctx, cfg.Search)
	if err != nil {
		return nil, err
	}

	docs := docstore.NewClient(cfg.DocStore)
	reports := ingest.NewReportFetcher(
		ingest.NewEDGARClient(cfg.SEC),
		ingest.NewChromeRenderer(),
		search.NewAnnualReportFinder(searcher, cfg.Search.MaxResults),
		ingest.NewDownloader(cfg.Storage.DownloadDir, cfg.Search.UserAgent, cfg.Search.DownloadTimeout),
		cfg.Storage.DownloadDir,
	)

	runs := store.NewRunStore(nil, cfg.Storage.RunCacheDir)
	if cfg.Storage.DatabaseURL != "" {
		if err := store.InitDB(ctx, cfg.Storage.DatabaseURL); err != nil {
			logger.Warn("database unavailable, using file run store", zap.Error(err))
		} else {
			runs = store.NewRunStore(store.GetPool(), "")
		}
	}

	engine := hybrid.NewEngine(cfg.DocStore)
	exporter := export.NewExporter(cfg.Storage.CompaniesDir)

	return &App{
		Config:       cfg,
		Catalog:      catalog,
		DocStore:     docs,
		Engine:       engine,
		Orchestrator: pipeline.NewOrchestrator(docs, reports),
		Runner:       pipeline.NewRunner(engine, catalog, exporter, runs),
		Runs:         runs,
		Exporter:     exporter,
		Logger:       logger,
	}, nil
}

func newSearcher(ctx context.Context, cfg config.SearchConfig) (search.WebSearcher, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		s, err := search.NewGroundedSearcher(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini searcher: %w", err)
		}
		return s, nil
	default:
		return search.NewGoogleSearcher(cfg.URL, cfg.UserAgent, cfg.DownloadTimeout), nil
	}
}

// WatchQuestions reloads the catalog when its file changes, until ctx is done.
func (a *App) WatchQuestions(ctx context.Context) {
	path := a.Catalog.Source()
	if path == "" {
		return
	}
	w, err := prompt.NewWatcher(a.Catalog, filepath.Clean(path))
	if err != nil {
		a.Logger.Warn("question hot reload disabled", zap.Error(err))
		return
	}
	go w.Run(ctx)
}

// Router returns the HTTP API.
func (a *App) Router() chi.Router {
	h := research.NewHandler(a.Orchestrator, a.Runner, a.Catalog, a.Runs, a.Exporter)
	cfgHandler := apiConfig.NewHandler(a.Config)
	return research.NewRouter(h, func(r chi.Router) {
		r.Get("/api/config", cfgHandler.HandleConfig)
	})
}

// Close releases the database pool, if any.
func (a *App) Close() {
	store.Close()
}

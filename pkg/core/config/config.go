// Package config holds the explicit configuration passed to every client at construction.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	DefaultAPIBase         = "http://localhost:8000"
	DefaultSECUserAgent    = "CompanyResearch/1.0 (contact@example.com)"
	DefaultBrowserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
	DefaultTickersURL      = "https://www.sec.gov/files/company_tickers.json"
	DefaultSubmissionsURL  = "https://data.sec.gov/submissions"
	DefaultArchiveBase     = "https://www.sec.gov/Archives/edgar/data"
	DefaultSearchURL       = "https://www.google.com/search"
	DefaultDownloadTimeout = 15 * time.Second
	DefaultQueryTimeout    = 2 * time.Minute
)

// Search providers.
const (
	ProviderGoogle = "google"
	ProviderGemini = "gemini"
)

// Config is loaded once at startup and handed to each client constructor.
type Config struct {
	DocStore DocStoreConfig `yaml:"docstore"`
	SEC      SECConfig      `yaml:"sec"`
	Search   SearchConfig   `yaml:"search"`
	Storage  StorageConfig  `yaml:"storage"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`

	QuestionsPath string `yaml:"questions_path"`
}

// DocStoreConfig points at the remote document-indexing service.
type DocStoreConfig struct {
	APIBase      string        `yaml:"api_base"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

// SECConfig holds the EDGAR endpoints and the identifying header SEC requires.
type SECConfig struct {
	UserAgent      string `yaml:"user_agent"`
	TickersURL     string `yaml:"tickers_url"`
	SubmissionsURL string `yaml:"submissions_url"`
	ArchiveBase    string `yaml:"archive_base"`
}

// SearchConfig selects the web searcher used to find annual report PDFs.
type SearchConfig struct {
	Provider        string        `yaml:"provider"` // "google" or "gemini"
	URL             string        `yaml:"url"`
	MaxResults      int           `yaml:"max_results"`
	UserAgent       string        `yaml:"user_agent"`
	GeminiModel     string        `yaml:"gemini_model"`
	GeminiAPIKey    string        `yaml:"-"`
	DownloadTimeout time.Duration `yaml:"download_timeout"`
}

// StorageConfig covers local artifacts and the optional Postgres run store.
type StorageConfig struct {
	DownloadDir  string `yaml:"download_dir"`
	CompaniesDir string `yaml:"companies_dir"`
	RunCacheDir  string `yaml:"run_cache_dir"`
	DatabaseURL  string `yaml:"-"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when neither a file nor env vars say otherwise.
func Default() Config {
	return Config{
		DocStore: DocStoreConfig{
			APIBase:      DefaultAPIBase,
			QueryTimeout: DefaultQueryTimeout,
		},
		SEC: SECConfig{
			UserAgent:      DefaultSECUserAgent,
			TickersURL:     DefaultTickersURL,
			SubmissionsURL: DefaultSubmissionsURL,
			ArchiveBase:    DefaultArchiveBase,
		},
		Search: SearchConfig{
			Provider:        ProviderGoogle,
			URL:             DefaultSearchURL,
			MaxResults:      20,
			UserAgent:       DefaultBrowserAgent,
			GeminiModel:     "gemini-2.0-flash",
			DownloadTimeout: DefaultDownloadTimeout,
		},
		Storage: StorageConfig{
			DownloadDir:  ".",
			CompaniesDir: "companies",
			RunCacheDir:  ".cache/runs",
		},
		Server:        ServerConfig{ListenAddr: ":8080"},
		Log:           LogConfig{Level: "info", Format: "console"},
		QuestionsPath: "resources/questions.yaml",
	}
}

// Load builds the configuration: defaults, then the optional YAML file at path,
// then .env, then environment variables. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	// .env is optional, real environment variables win
	_ = godotenv.Load()

	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) {
	setString(&cfg.DocStore.APIBase, "DOCSTORE_API_BASE")
	setDuration(&cfg.DocStore.QueryTimeout, "QUERY_TIMEOUT")
	setString(&cfg.SEC.UserAgent, "SEC_USER_AGENT")
	setString(&cfg.Search.Provider, "SEARCH_PROVIDER")
	setInt(&cfg.Search.MaxResults, "SEARCH_MAX_RESULTS")
	setString(&cfg.Search.GeminiModel, "GEMINI_MODEL")
	setString(&cfg.Search.GeminiAPIKey, "GEMINI_API_KEY")
	setDuration(&cfg.Search.DownloadTimeout, "DOWNLOAD_TIMEOUT")
	setString(&cfg.Storage.DownloadDir, "DOWNLOAD_DIR")
	setString(&cfg.Storage.CompaniesDir, "COMPANIES_DIR")
	setString(&cfg.Storage.RunCacheDir, "RUN_CACHE_DIR")
	setString(&cfg.Storage.DatabaseURL, "DATABASE_URL")
	setString(&cfg.Server.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.QuestionsPath, "QUESTIONS_PATH")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
}

// Validate rejects configurations no client could work with.
func (c Config) Validate() error {
	if c.DocStore.APIBase == "" {
		return fmt.Errorf("docstore api_base is required")
	}
	if c.SEC.UserAgent == "" {
		return fmt.Errorf("SEC requires an identifying User-Agent")
	}
	switch c.Search.Provider {
	case ProviderGoogle, ProviderGemini:
	default:
		return fmt.Errorf("unknown search provider %q", c.Search.Provider)
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search max_results must be positive, got %d", c.Search.MaxResults)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"company_research/pkg/core/logging"
	"company_research/pkg/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("analysis run not found")

// RunRepository persists analysis runs.
type RunRepository interface {
	Save(ctx context.Context, run *models.AnalysisRun) error
	Load(ctx context.Context, id string) (*models.AnalysisRun, error)
	ListByCompany(ctx context.Context, company string) ([]*models.AnalysisRun, error)
}

// RunStore keeps runs in Postgres when a pool is given, otherwise as JSON files in dir.
type RunStore struct {
	pool    *pgxpool.Pool
	fileDir string
	logger  *zap.Logger
}

// NewRunStore falls back to a file store under dir (default .cache/runs) when pool is nil.
func NewRunStore(pool *pgxpool.Pool, dir string) *RunStore {
	logger := logging.New("store")
	if pool == nil && dir == "" {
		dir = filepath.Join(".cache", "runs")
	}
	if pool == nil {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Warn("cannot create run cache dir", zap.String("dir", dir), zap.Error(err))
		}
	}
	return &RunStore{pool: pool, fileDir: dir, logger: logger}
}

// Save assigns an id when the run has none and upserts it.
func (s *RunStore) Save(ctx context.Context, run *models.AnalysisRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	} else if _, err := uuid.Parse(run.ID); err != nil {
		return fmt.Errorf("invalid run id %q: %w", run.ID, err)
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	start := time.Now()
	if s.pool != nil {
		query := `
			INSERT INTO analysis_runs (id, company, mode, run_json, started_at, finished_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id)
			DO UPDATE SET
				run_json = EXCLUDED.run_json,
				finished_at = EXCLUDED.finished_at;
		`
		_, err = s.pool.Exec(ctx, query, run.ID, run.Company, run.Mode, data, run.StartedAt, run.FinishedAt)
	} else {
		err = os.WriteFile(s.runPath(run.ID), data, 0644)
	}
	logging.Observe(s.logger, "store.save", start, err, zap.String("run_id", run.ID))
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// Load returns the run with id, or ErrRunNotFound.
func (s *RunStore) Load(ctx context.Context, id string) (*models.AnalysisRun, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrRunNotFound
	}

	var data []byte
	if s.pool != nil {
		err := s.pool.QueryRow(ctx, `SELECT run_json FROM analysis_runs WHERE id = $1`, id).Scan(&data)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrRunNotFound
			}
			return nil, fmt.Errorf("failed to load run: %w", err)
		}
	} else {
		var err error
		data, err = os.ReadFile(s.runPath(id))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, ErrRunNotFound
			}
			return nil, err
		}
	}

	var run models.AnalysisRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run %s: %w", id, err)
	}
	return &run, nil
}

// ListByCompany returns a company's runs, newest first. Company match is case-insensitive.
func (s *RunStore) ListByCompany(ctx context.Context, company string) ([]*models.AnalysisRun, error) {
	if s.pool != nil {
		return s.listDB(ctx, company)
	}
	return s.listFiles(company)
}

func (s *RunStore) listDB(ctx context.Context, company string) ([]*models.AnalysisRun, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT run_json FROM analysis_runs
		WHERE lower(company) = lower($1)
		ORDER BY started_at DESC
	`, company)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []*models.AnalysisRun
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var run models.AnalysisRun
		if err := json.Unmarshal(data, &run); err != nil {
			return nil, err
		}
		out = append(out, &run)
	}
	return out, rows.Err()
}

func (s *RunStore) listFiles(company string) ([]*models.AnalysisRun, error) {
	files, err := filepath.Glob(filepath.Join(s.fileDir, "*.json"))
	if err != nil {
		return nil, err
	}

	var out []*models.AnalysisRun
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var run models.AnalysisRun
		if err := json.Unmarshal(data, &run); err != nil {
			s.logger.Warn("skipping unreadable run file", zap.String("path", path), zap.Error(err))
			continue
		}
		if strings.EqualFold(run.Company, company) {
			out = append(out, &run)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func (s *RunStore) runPath(id string) string {
	return filepath.Join(s.fileDir, id+".json")
}

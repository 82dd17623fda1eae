package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"SwingLab/internal/domain/models"
	drepo "SwingLab/internal/domain/repository"
	applogger "SwingLab/pkg/logger"
)

// ErrRunNotFound is returned when no persisted run matches the id.
var ErrRunNotFound = errors.New("run not found")

var _ drepo.RunStore = (*FileRunStore)(nil)

// FileRunStore persists backtest runs as JSON files, one file per run.
type FileRunStore struct {
	dir string
	l   *applogger.Logger
}

func NewFileRunStore(dir string) *FileRunStore {
	return &FileRunStore{dir: dir}
}

// SetLogger injects a structured logger.
func (s *FileRunStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *FileRunStore) Save(ctx context.Context, result *models.RunResult) error {
	if result == nil || result.RunID == "" {
		return errors.New("run result requires a run id")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create runs dir: %w", err)
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	payload = append(payload, '\n')

	path := s.pathFor(result.RunID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}

	if s.l != nil {
		s.l.Info("run saved",
			applogger.String("run_id", result.RunID),
			applogger.String("path", path),
			applogger.Int("trades", len(result.Trades)),
		)
	}
	return nil
}

func (s *FileRunStore) List(ctx context.Context, limit int) ([]*models.RunResult, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read runs dir: %w", err)
	}

	out := make([]*models.RunResult, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		runID := strings.TrimSuffix(entry.Name(), ".json")
		result, err := s.Get(ctx, runID)
		if err != nil {
			if s.l != nil {
				s.l.Warn("skipping unreadable run file",
					applogger.String("file", entry.Name()),
					applogger.Error(err),
				)
			}
			continue
		}
		out = append(out, result)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].RunID < out[j].RunID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *FileRunStore) Get(ctx context.Context, runID string) (*models.RunResult, error) {
	if runID == "" || runID != filepath.Base(runID) {
		return nil, ErrRunNotFound
	}
	raw, err := os.ReadFile(s.pathFor(runID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("read run: %w", err)
	}
	var result models.RunResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode run: %w", err)
	}
	return &result, nil
}

func (s *FileRunStore) pathFor(runID string) string {
	return filepath.Join(s.dir, runID+".json")
}

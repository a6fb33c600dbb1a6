package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"chemviz/pkg/contracts/domain"
)

// MemoryStore keeps datasets in a map. When created with OpenFileStore every
// mutation is also written to a JSON file.
type MemoryStore struct {
	mu       sync.RWMutex
	datasets map[int64]domain.Dataset
	nextID   int64
	path     string
	logger   *slog.Logger
	now      func() time.Time
}

type fileSnapshot struct {
	NextID   int64             `json:"next_id"`
	Datasets []snapshotDataset `json:"datasets"`
}

// snapshotDataset mirrors domain.Dataset so the source reference is kept on disk.
type snapshotDataset struct {
	domain.Dataset
	SourceRef string `json:"source_ref"`
}

// NewMemoryStore creates a store that lives only as long as the process.
func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryStore{
		datasets: make(map[int64]domain.Dataset),
		nextID:   1,
		logger:   logger.With(slog.String("component", "memory_store")),
		now:      time.Now,
	}
}

// OpenFileStore loads path if it exists and persists every change back to it.
func OpenFileStore(path string, logger *slog.Logger) (*MemoryStore, error) {
	s := NewMemoryStore(logger)
	s.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Info("Starting empty dataset file", slog.String("path", path))
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dataset file: %w", err)
	}

	var snap fileSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode dataset file %s: %w", path, err)
	}
	for _, d := range snap.Datasets {
		ds := d.Dataset
		ds.SourceRef = d.SourceRef
		s.datasets[ds.ID] = ds
		if ds.ID >= s.nextID {
			s.nextID = ds.ID + 1
		}
	}
	if snap.NextID > s.nextID {
		s.nextID = snap.NextID
	}

	s.logger.Info("Loaded dataset file",
		slog.String("path", path),
		slog.Int("datasets", len(s.datasets)))
	return s, nil
}

// Create assigns the next id and stores a copy of ds.
func (s *MemoryStore) Create(ctx context.Context, ds *domain.Dataset) error {
	if ds == nil {
		return errors.New("dataset is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ds.UploadedAt.IsZero() {
		ds.UploadedAt = s.now().UTC()
	}
	ds.ID = s.nextID
	s.nextID++
	s.datasets[ds.ID] = cloneDataset(*ds)

	if err := s.persistLocked(); err != nil {
		delete(s.datasets, ds.ID)
		s.nextID--
		ds.ID = 0
		return err
	}
	return nil
}

// Get returns a copy of the dataset with the given id.
func (s *MemoryStore) Get(ctx context.Context, id int64) (domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.datasets[id]
	if !ok {
		return domain.Dataset{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return cloneDataset(ds), nil
}

// Recent returns up to limit datasets ordered by upload time, newest first.
func (s *MemoryStore) Recent(ctx context.Context, limit int) ([]domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Dataset, 0, len(s.datasets))
	for _, ds := range s.datasets {
		result = append(result, cloneDataset(ds))
	}
	sortRecent(result)

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) persistLocked() error {
	if s.path == "" {
		return nil
	}

	snap := fileSnapshot{NextID: s.nextID}
	ordered := make([]domain.Dataset, 0, len(s.datasets))
	for _, ds := range s.datasets {
		ordered = append(ordered, ds)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	for _, ds := range ordered {
		snap.Datasets = append(snap.Datasets, snapshotDataset{Dataset: ds, SourceRef: ds.SourceRef})
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode dataset file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create dataset directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write dataset file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace dataset file: %w", err)
	}
	return nil
}

func sortRecent(ds []domain.Dataset) {
	sort.SliceStable(ds, func(i, j int) bool {
		if !ds[i].UploadedAt.Equal(ds[j].UploadedAt) {
			return ds[i].UploadedAt.After(ds[j].UploadedAt)
		}
		return ds[i].ID > ds[j].ID
	})
}

func cloneDataset(ds domain.Dataset) domain.Dataset {
	out := ds
	if ds.TypeDistribution != nil {
		out.TypeDistribution = make(map[string]int, len(ds.TypeDistribution))
		for k, v := range ds.TypeDistribution {
			out.TypeDistribution[k] = v
		}
	}
	return out
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"chemviz/pkg/contracts/domain"
)

const schema = `CREATE TABLE IF NOT EXISTS datasets (
	id BIGSERIAL PRIMARY KEY,
	uploaded_at TIMESTAMPTZ NOT NULL,
	filename TEXT NOT NULL,
	source_ref TEXT NOT NULL,
	total_records INTEGER NOT NULL,
	avg_pressure DOUBLE PRECISION NOT NULL,
	avg_temp DOUBLE PRECISION NOT NULL,
	type_distribution JSONB NOT NULL DEFAULT '{}'
)`

const (
	insertDataset = `INSERT INTO datasets (uploaded_at, filename, source_ref, total_records, avg_pressure, avg_temp, type_distribution) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	selectDataset = `SELECT id, uploaded_at, filename, source_ref, total_records, avg_pressure, avg_temp, type_distribution FROM datasets WHERE id = $1`
	selectRecent  = `SELECT id, uploaded_at, filename, source_ref, total_records, avg_pressure, avg_temp, type_distribution FROM datasets ORDER BY uploaded_at DESC, id DESC LIMIT $1`
)

// PostgresStore keeps dataset records in a PostgreSQL table.
type PostgresStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

type datasetRow struct {
	ID               int64     `db:"id"`
	UploadedAt       time.Time `db:"uploaded_at"`
	Filename         string    `db:"filename"`
	SourceRef        string    `db:"source_ref"`
	TotalRecords     int       `db:"total_records"`
	AvgPressure      float64   `db:"avg_pressure"`
	AvgTemp          float64   `db:"avg_temp"`
	TypeDistribution []byte    `db:"type_distribution"`
}

// OpenPostgres connects to dsn, verifies the connection and creates the table.
func OpenPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := NewPostgresStore(db, logger)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sqlx.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{
		db:     db,
		logger: logger.With(slog.String("component", "postgres_store")),
		now:    time.Now,
	}
}

// Migrate creates the datasets table when it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create datasets table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, ds *domain.Dataset) error {
	if ds == nil {
		return errors.New("dataset is nil")
	}
	if ds.UploadedAt.IsZero() {
		ds.UploadedAt = s.now().UTC()
	}

	dist := ds.TypeDistribution
	if dist == nil {
		dist = map[string]int{}
	}
	encoded, err := json.Marshal(dist)
	if err != nil {
		return fmt.Errorf("encode type distribution: %w", err)
	}

	var id int64
	err = s.db.QueryRowxContext(ctx, insertDataset,
		ds.UploadedAt, ds.Filename, ds.SourceRef, ds.TotalRecords,
		ds.AvgPressure, ds.AvgTemp, encoded).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert dataset: %w", err)
	}
	ds.ID = id

	s.logger.DebugContext(ctx, "Dataset stored",
		slog.Int64("dataset_id", id),
		slog.String("filename", ds.Filename))
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (domain.Dataset, error) {
	var row datasetRow
	err := s.db.QueryRowxContext(ctx, selectDataset, id).StructScan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Dataset{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("select dataset %d: %w", id, err)
	}
	return row.toDomain()
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]domain.Dataset, error) {
	if limit <= 0 {
		limit = 5
	}

	var rows []datasetRow
	if err := s.db.SelectContext(ctx, &rows, selectRecent, limit); err != nil {
		return nil, fmt.Errorf("select recent datasets: %w", err)
	}

	result := make([]domain.Dataset, 0, len(rows))
	for _, row := range rows {
		ds, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		result = append(result, ds)
	}
	return result, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (r datasetRow) toDomain() (domain.Dataset, error) {
	dist := map[string]int{}
	if len(r.TypeDistribution) > 0 {
		if err := json.Unmarshal(r.TypeDistribution, &dist); err != nil {
			return domain.Dataset{}, fmt.Errorf("decode type distribution of dataset %d: %w", r.ID, err)
		}
	}
	return domain.Dataset{
		ID:               r.ID,
		UploadedAt:       r.UploadedAt,
		Filename:         r.Filename,
		SourceRef:        r.SourceRef,
		TotalRecords:     r.TotalRecords,
		AvgPressure:      r.AvgPressure,
		AvgTemp:          r.AvgTemp,
		TypeDistribution: dist,
	}, nil
}

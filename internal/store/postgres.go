package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/esg-engine/internal/db"
	"github.com/sells-group/esg-engine/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. The caller owns its lifetime.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS firms (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL DEFAULT '',
	sector        TEXT NOT NULL DEFAULT '',
	industry      TEXT NOT NULL DEFAULT '',
	business_size TEXT NOT NULL DEFAULT '',
	location      TEXT NOT NULL DEFAULT '',
	payload       JSONB NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS assessments (
	firm_id    TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	id         TEXT NOT NULL,
	year       INTEGER,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (firm_id, seq)
);

CREATE TABLE IF NOT EXISTS imports (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source      TEXT NOT NULL,
	firms       INTEGER NOT NULL DEFAULT 0,
	assessments INTEGER NOT NULL DEFAULT 0,
	rejected    INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS import_errors (
	import_id TEXT NOT NULL REFERENCES imports(id),
	row_num   INTEGER NOT NULL,
	firm_id   TEXT NOT NULL DEFAULT '',
	reason    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_firms_sector ON firms(sector);
CREATE INDEX IF NOT EXISTS idx_assessments_year ON assessments(year);
CREATE INDEX IF NOT EXISTS idx_import_errors_import ON import_errors(import_id);
`

var (
	firmColumns       = []string{"id", "name", "sector", "industry", "business_size", "location", "payload", "updated_at"}
	assessmentColumns = []string{"firm_id", "seq", "id", "year", "payload"}
	importErrColumns  = []string{"import_id", "row_num", "firm_id", "reason"}
)

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertFirms(ctx context.Context, firms []model.Firm) (int, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(firms))
	for _, f := range firms {
		r, err := toFirmRow(f)
		if err != nil {
			return 0, err
		}
		rows = append(rows, []any{r.id, r.name, r.sector, r.industry, r.size, r.location, r.payload, now})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "firms",
		Columns:      firmColumns,
		ConflictKeys: []string{"id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert firms")
	}
	return int(n), nil
}

func (s *PostgresStore) ListFirms(ctx context.Context) ([]model.Firm, error) {
	rows, err := s.pool.Query(ctx, `SELECT payload FROM firms ORDER BY name, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list firms")
	}
	defer rows.Close()

	var firms []model.Firm
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan firm")
		}
		f, err := decodeFirm(payload)
		if err != nil {
			return nil, err
		}
		firms = append(firms, f)
	}
	return firms, eris.Wrap(rows.Err(), "postgres: list firms iterate")
}

func (s *PostgresStore) GetFirm(ctx context.Context, id string) (*model.Firm, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM firms WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get firm %s", id)
	}
	f, err := decodeFirm(payload)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *PostgresStore) SaveAssessments(ctx context.Context, firmID string, assessments []model.RawAssessment) (int, error) {
	rows, err := toAssessmentRows(firmID, assessments)
	if err != nil {
		return 0, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin save assessments")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM assessments WHERE firm_id = $1`, firmID); err != nil {
		return 0, eris.Wrapf(err, "postgres: clear assessments for %s", firmID)
	}

	copyRows := make([][]any, len(rows))
	for i, r := range rows {
		copyRows[i] = []any{r.firmID, r.seq, r.id, r.year, r.payload}
	}
	if _, err := db.CopyFrom(ctx, tx, "assessments", assessmentColumns, copyRows); err != nil {
		return 0, eris.Wrapf(err, "postgres: copy assessments for %s", firmID)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit save assessments")
	}
	return len(rows), nil
}

func (s *PostgresStore) ListAssessments(ctx context.Context, filter AssessmentFilter) (map[string][]model.RawAssessment, error) {
	query := `SELECT firm_id, payload FROM assessments WHERE true`
	args := []any{}
	argIdx := 1

	if filter.FirmID != "" {
		query += fmt.Sprintf(` AND firm_id = $%d`, argIdx)
		args = append(args, filter.FirmID)
		argIdx++
	}
	if filter.YearFrom > 0 {
		query += fmt.Sprintf(` AND year >= $%d`, argIdx)
		args = append(args, filter.YearFrom)
		argIdx++
	}
	if filter.YearTo > 0 {
		query += fmt.Sprintf(` AND year <= $%d`, argIdx)
		args = append(args, filter.YearTo)
	}
	query += ` ORDER BY firm_id, seq`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list assessments")
	}
	defer rows.Close()

	out := make(map[string][]model.RawAssessment)
	for rows.Next() {
		var firmID string
		var payload []byte
		if err := rows.Scan(&firmID, &payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan assessment")
		}
		a, err := decodeAssessment(payload)
		if err != nil {
			return nil, err
		}
		out[firmID] = append(out[firmID], a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list assessments iterate")
}

func (s *PostgresStore) CreateImport(ctx context.Context, imp Import) (*Import, error) {
	imp.ID = uuid.New().String()
	imp.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO imports (id, source, firms, assessments, rejected, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		imp.ID, imp.Source, imp.Firms, imp.Assessments, imp.Rejected, imp.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert import")
	}
	return &imp, nil
}

func (s *PostgresStore) RecordImportErrors(ctx context.Context, importID string, errs []ImportError) error {
	rows := make([][]any, len(errs))
	for i, e := range errs {
		rows[i] = []any{importID, e.Row, e.FirmID, e.Reason}
	}
	_, err := db.CopyFrom(ctx, s.pool, "import_errors", importErrColumns, rows)
	return eris.Wrapf(err, "postgres: record import errors for %s", importID)
}

func (s *PostgresStore) ListImports(ctx context.Context, limit int) ([]Import, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, source, firms, assessments, rejected, created_at FROM imports ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list imports")
	}
	defer rows.Close()

	var out []Import
	for rows.Next() {
		var imp Import
		if err := rows.Scan(&imp.ID, &imp.Source, &imp.Firms, &imp.Assessments, &imp.Rejected, &imp.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan import")
		}
		out = append(out, imp)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list imports iterate")
}

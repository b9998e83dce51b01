package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/esg-engine/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS firms (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL DEFAULT '',
	sector        TEXT NOT NULL DEFAULT '',
	industry      TEXT NOT NULL DEFAULT '',
	business_size TEXT NOT NULL DEFAULT '',
	location      TEXT NOT NULL DEFAULT '',
	payload       TEXT NOT NULL,
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS assessments (
	firm_id    TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	id         TEXT NOT NULL,
	year       INTEGER,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (firm_id, seq)
);

CREATE TABLE IF NOT EXISTS imports (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	firms       INTEGER NOT NULL DEFAULT 0,
	assessments INTEGER NOT NULL DEFAULT 0,
	rejected    INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
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

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertFirms(ctx context.Context, firms []model.Firm) (int, error) {
	if len(firms) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert firms")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO firms (id, name, sector, industry, business_size, location, payload, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			sector = excluded.sector,
			industry = excluded.industry,
			business_size = excluded.business_size,
			location = excluded.location,
			payload = excluded.payload,
			updated_at = excluded.updated_at`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert firm")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	for _, f := range firms {
		row, err := toFirmRow(f)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, row.id, row.name, row.sector, row.industry, row.size, row.location, string(row.payload), now); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert firm %s", row.id)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert firms")
	}
	return len(firms), nil
}

func (s *SQLiteStore) ListFirms(ctx context.Context) ([]model.Firm, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM firms ORDER BY name, id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list firms")
	}
	defer rows.Close() //nolint:errcheck

	var firms []model.Firm
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan firm")
		}
		f, err := decodeFirm([]byte(payload))
		if err != nil {
			return nil, err
		}
		firms = append(firms, f)
	}
	return firms, eris.Wrap(rows.Err(), "sqlite: list firms iterate")
}

func (s *SQLiteStore) GetFirm(ctx context.Context, id string) (*model.Firm, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM firms WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get firm %s", id)
	}
	f, err := decodeFirm([]byte(payload))
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *SQLiteStore) SaveAssessments(ctx context.Context, firmID string, assessments []model.RawAssessment) (int, error) {
	rows, err := toAssessmentRows(firmID, assessments)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin save assessments")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM assessments WHERE firm_id = ?`, firmID); err != nil {
		return 0, eris.Wrapf(err, "sqlite: clear assessments for %s", firmID)
	}
	for _, r := range rows {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO assessments (firm_id, seq, id, year, payload) VALUES (?, ?, ?, ?, ?)`,
			r.firmID, r.seq, r.id, r.year, string(r.payload),
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert assessment %s", r.id)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit save assessments")
	}
	return len(rows), nil
}

func (s *SQLiteStore) ListAssessments(ctx context.Context, filter AssessmentFilter) (map[string][]model.RawAssessment, error) {
	query := `SELECT firm_id, payload FROM assessments WHERE 1=1`
	var args []any

	if filter.FirmID != "" {
		query += ` AND firm_id = ?`
		args = append(args, filter.FirmID)
	}
	if filter.YearFrom > 0 {
		query += ` AND year >= ?`
		args = append(args, filter.YearFrom)
	}
	if filter.YearTo > 0 {
		query += ` AND year <= ?`
		args = append(args, filter.YearTo)
	}
	query += ` ORDER BY firm_id, seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list assessments")
	}
	defer rows.Close() //nolint:errcheck

	out := make(map[string][]model.RawAssessment)
	for rows.Next() {
		var firmID, payload string
		if err := rows.Scan(&firmID, &payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan assessment")
		}
		a, err := decodeAssessment([]byte(payload))
		if err != nil {
			return nil, err
		}
		out[firmID] = append(out[firmID], a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list assessments iterate")
}

func (s *SQLiteStore) CreateImport(ctx context.Context, imp Import) (*Import, error) {
	imp.ID = uuid.New().String()
	imp.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO imports (id, source, firms, assessments, rejected, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		imp.ID, imp.Source, imp.Firms, imp.Assessments, imp.Rejected, imp.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert import")
	}
	return &imp, nil
}

func (s *SQLiteStore) RecordImportErrors(ctx context.Context, importID string, errs []ImportError) error {
	if len(errs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin import errors")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, e := range errs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO import_errors (import_id, row_num, firm_id, reason) VALUES (?, ?, ?, ?)`,
			importID, e.Row, e.FirmID, e.Reason,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert import error for %s", importID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit import errors")
}

func (s *SQLiteStore) ListImports(ctx context.Context, limit int) ([]Import, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, firms, assessments, rejected, created_at FROM imports ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list imports")
	}
	defer rows.Close() //nolint:errcheck

	var out []Import
	for rows.Next() {
		var imp Import
		if err := rows.Scan(&imp.ID, &imp.Source, &imp.Firms, &imp.Assessments, &imp.Rejected, &imp.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan import")
		}
		out = append(out, imp)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list imports iterate")
}

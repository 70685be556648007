// Package store keeps exported metric weights in a SQL database, keyed by
// name. The default driver is SQLite (modernc.org/sqlite, no cgo).
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/YuminosukeSato/scigo-dml/core/model"
	"github.com/YuminosukeSato/scigo-dml/pkg/errors"
	"github.com/YuminosukeSato/scigo-dml/pkg/log"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// ErrNotFound is returned when no weights are stored under a name.
var ErrNotFound = errors.New("weights not found")

const schema = `
CREATE TABLE IF NOT EXISTS metric_weights (
	name       TEXT PRIMARY KEY,
	model_type TEXT NOT NULL,
	version    TEXT NOT NULL,
	payload    TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

const upsert = `
INSERT INTO metric_weights (name, model_type, version, payload, updated_at)
VALUES (:name, :model_type, :version, :payload, :updated_at)
ON CONFLICT(name) DO UPDATE SET
	model_type = excluded.model_type,
	version    = excluded.version,
	payload    = excluded.payload,
	updated_at = excluded.updated_at`

type record struct {
	Name      string `db:"name"`
	ModelType string `db:"model_type"`
	Version   string `db:"version"`
	Payload   string `db:"payload"`
	UpdatedAt int64  `db:"updated_at"`
}

// Entry describes one stored model without its payload.
type Entry struct {
	Name      string
	ModelType string
	Version   string
	UpdatedAt time.Time
}

// Store persists MetricWeights. It is safe for concurrent use.
type Store struct {
	db     *sqlx.DB
	logger log.Logger
}

// Open connects to a SQLite database at dsn (":memory:" for an in-memory
// store) and creates the table if needed.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, DriverName, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "connect to %s", dsn)
	}
	// メモリDBは接続ごとに別物になるため1本に絞る
	db.SetMaxOpenConns(1)

	s, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection and creates the table if needed.
func New(ctx context.Context, db *sqlx.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, errors.Wrap(err, "create metric_weights table")
	}
	return &Store{db: db, logger: log.GetLoggerWithName("store")}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put validates w and stores it under name, replacing any previous entry.
func (s *Store) Put(ctx context.Context, name string, w *model.MetricWeights) error {
	if name == "" {
		return errors.NewValidationError("name", "must not be empty", name)
	}
	if w == nil {
		return errors.NewValidationError("weights", "is nil", nil)
	}
	if err := w.Validate(); err != nil {
		return err
	}
	payload, err := w.ToJSON()
	if err != nil {
		return errors.Wrap(err, "encode weights")
	}

	rec := record{
		Name:      name,
		ModelType: w.ModelType,
		Version:   w.Version,
		Payload:   string(payload),
		UpdatedAt: time.Now().UnixNano(),
	}
	if _, err := s.db.NamedExecContext(ctx, upsert, rec); err != nil {
		return errors.Wrapf(err, "store weights %q", name)
	}
	s.logger.Debug("weights stored", "name", name, log.ModelNameKey, w.ModelType)
	return nil
}

// Get returns the weights stored under name, or ErrNotFound.
func (s *Store) Get(ctx context.Context, name string) (*model.MetricWeights, error) {
	var rec record
	err := s.db.GetContext(ctx, &rec, `SELECT * FROM metric_weights WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "%q", name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read weights %q", name)
	}

	var w model.MetricWeights
	if err := w.FromJSON([]byte(rec.Payload)); err != nil {
		return nil, err
	}
	return &w, nil
}

// Save exports a fitted model and stores its weights under name.
func (s *Store) Save(ctx context.Context, name string, exporter model.WeightExporter) error {
	w, err := exporter.ExportWeights()
	if err != nil {
		return err
	}
	return s.Put(ctx, name, w)
}

// Load restores the weights stored under name into importer.
func (s *Store) Load(ctx context.Context, name string, importer model.WeightExporter) error {
	w, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	if err := w.Validate(); err != nil {
		return err
	}
	return importer.ImportWeights(w)
}

// Delete removes the entry stored under name, or returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM metric_weights WHERE name = ?`, name)
	if err != nil {
		return errors.Wrapf(err, "delete weights %q", name)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return errors.Wrapf(ErrNotFound, "%q", name)
	}
	return nil
}

// List returns every stored entry ordered by name.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	var recs []record
	err := s.db.SelectContext(ctx, &recs,
		`SELECT name, model_type, version, updated_at FROM metric_weights ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "list weights")
	}

	entries := make([]Entry, len(recs))
	for i, r := range recs {
		entries[i] = Entry{
			Name:      r.Name,
			ModelType: r.ModelType,
			Version:   r.Version,
			UpdatedAt: time.Unix(0, r.UpdatedAt),
		}
	}
	return entries, nil
}

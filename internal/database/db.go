package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"

	_ "github.com/marcboeker/go-duckdb"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite = "sqlite3"
	DriverDuckDB = "duckdb"
)

// Record is one extracted image.
type Record struct {
	Path           string         `db:"file_path"`
	SourceField    string         `db:"source_field"`
	Prompt         string         `db:"prompt"`
	NegativePrompt sql.NullString `db:"negative_prompt"`
	// Parameters holds a JSON object in parameter order.
	Parameters string `db:"parameters"`
	Workflow   string `db:"workflow"`
	Error      string `db:"extract_error"`
}

const schema = `
CREATE TABLE IF NOT EXISTS images (
	file_path       TEXT PRIMARY KEY,
	source_field    TEXT,
	prompt          TEXT,
	negative_prompt TEXT,
	parameters      TEXT,
	workflow        TEXT,
	extract_error   TEXT
)`

// Store persists records in sqlite or duckdb.
type Store struct {
	db     *sqlx.DB
	driver string
}

// DriverFor picks the driver from the database file extension. Anything but
// .duckdb is sqlite.
func DriverFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".duckdb") {
		return DriverDuckDB
	}
	return DriverSQLite
}

// Open creates or opens the database at path and makes sure the schema exists.
func Open(path string) (*Store, error) {
	driver := DriverFor(path)
	dsn := path
	if driver == DriverSQLite {
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000&_fk=1", path)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &Store{db: db, driver: driver}, nil
}

// WithDB opens the store at path, runs fn and closes the store.
func WithDB(path string, fn func(s *Store) error) error {
	s, err := Open(path)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func (s *Store) Driver() string {
	return s.driver
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ExistingPaths returns the set of file paths already stored.
func (s *Store) ExistingPaths(ctx context.Context) (map[string]struct{}, error) {
	var paths []string
	if err := s.db.SelectContext(ctx, &paths, "SELECT file_path FROM images"); err != nil {
		return nil, fmt.Errorf("select paths: %w", err)
	}
	existing := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		existing[p] = struct{}{}
	}
	return existing, nil
}

var recordColumns = []string{
	"file_path", "source_field", "prompt", "negative_prompt", "parameters", "workflow", "extract_error",
}

func buildUpsertStatement(num int) string {
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(recordColumns)), ", ") + ")"
	valueStrings := make([]string, 0, num)
	for range num {
		valueStrings = append(valueStrings, placeholder)
	}

	updates := make([]string, 0, len(recordColumns)-1)
	for _, col := range recordColumns[1:] {
		updates = append(updates, fmt.Sprintf("%s=excluded.%s", col, col))
	}
	return fmt.Sprintf(
		"INSERT INTO images (%s) VALUES %s ON CONFLICT(file_path) DO UPDATE SET %s",
		strings.Join(recordColumns, ", "),
		strings.Join(valueStrings, ","),
		strings.Join(updates, ", "),
	)
}

// InsertBatch upserts records keyed by file path.
func (s *Store) InsertBatch(ctx context.Context, batch []Record) error {
	if len(batch) == 0 {
		return nil
	}
	args := make([]any, 0, len(batch)*len(recordColumns))
	for _, r := range batch {
		args = append(args, r.Path, r.SourceField, r.Prompt, r.NegativePrompt, r.Parameters, r.Workflow, r.Error)
	}
	if _, err := s.db.ExecContext(ctx, buildUpsertStatement(len(batch)), args...); err != nil {
		return fmt.Errorf("insert %d records: %w", len(batch), err)
	}
	return nil
}

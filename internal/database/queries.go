package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
)

const defaultLimit = 10

type FindOptions struct {
	// Fields restricts results to records parsed from one of these fields.
	Fields []string
	// Sampler matches the exact value of the Sampler parameter.
	Sampler string
	// PromptContains is a substring of the positive prompt.
	PromptContains string
	Limit          int
}

// Find lists stored records matching opts, ordered by path.
func (s *Store) Find(ctx context.Context, opts FindOptions) ([]Record, error) {
	var (
		conds []string
		args  []any
	)
	if len(opts.Fields) > 0 {
		conds = append(conds, "source_field IN (?)")
		args = append(args, opts.Fields)
	}
	if opts.Sampler != "" {
		needle, err := json.Marshal(opts.Sampler)
		if err != nil {
			return nil, fmt.Errorf("encode sampler: %w", err)
		}
		conds = append(conds, "instr(parameters, ?) > 0")
		args = append(args, `"Sampler":`+string(needle))
	}
	if opts.PromptContains != "" {
		conds = append(conds, "instr(prompt, ?) > 0")
		args = append(args, opts.PromptContains)
	}

	limit := defaultLimit
	if opts.Limit > 0 {
		limit = opts.Limit
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(recordColumns, ", "))
	b.WriteString(" FROM images")
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY file_path LIMIT ?")
	args = append(args, limit)

	query, args, err := sqlx.In(b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("expand query: %w", err)
	}
	query = s.db.Rebind(query)
	slog.Debug("find records", "query", query, "args", args)

	var records []Record
	if err := s.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("find records %+v: %w", opts, err)
	}
	return records, nil
}

// Column describes one column of the images table.
type Column struct {
	ColumnID   int            `db:"cid"`
	Name       string         `db:"name"`
	Type       string         `db:"type"`
	NotNull    bool           `db:"notnull"`
	Default    sql.NullString `db:"dflt_value"`
	PrimaryKey bool           `db:"pk"`
}

func (s *Store) TableInfo(ctx context.Context) ([]Column, error) {
	var cols []Column
	if err := s.db.SelectContext(ctx, &cols, "PRAGMA table_info('images')"); err != nil {
		return nil, fmt.Errorf("get table info: %w", err)
	}
	return cols, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM images"); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

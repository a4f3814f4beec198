package source

import (
	"context"
	"database/sql"
	"fmt"
)

// Postgres runs one query and turns each row into a map keyed by column name.
type Postgres struct {
	DB    *sql.DB
	Query string
	Args  []interface{}
}

// NewPostgres builds a source from a SelectBuilder.
func NewPostgres(db *sql.DB, b *SelectBuilder) (*Postgres, error) {
	query, args, err := b.Build()
	if err != nil {
		return nil, err
	}
	return &Postgres{DB: db, Query: query, Args: args}, nil
}

func (p *Postgres) Fetch(ctx context.Context) ([]interface{}, error) {
	if p.DB == nil {
		return nil, fmt.Errorf("postgres source: database is nil")
	}
	rows, err := p.DB.QueryContext(ctx, p.Query, p.Args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// rowScanner is the part of *sql.Rows that scanRecords needs.
type rowScanner interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanRecords(rows rowScanner) ([]interface{}, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []interface{}
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		rec := make(map[string]interface{}, len(cols))
		for i, c := range cols {
			rec[c] = sqlValue(vals[i])
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// sqlValue converts driver values; lib/pq returns text and numeric columns as []byte.
func sqlValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

package source

import (
	"fmt"
	"strings"
)

// SelectBuilder composes a single-table SELECT with postgres placeholders.
// Conditions use "?" markers that Build rewrites to $1, $2, ...
type SelectBuilder struct {
	table   string
	columns []string
	where   []string
	args    []interface{}
	orderBy []string
	limit   int
}

func NewSelectBuilder(table string, cols ...string) *SelectBuilder {
	return &SelectBuilder{table: table, columns: cols}
}

// Where adds a condition. Conditions are combined with AND.
func (b *SelectBuilder) Where(condition string, args ...interface{}) *SelectBuilder {
	b.where = append(b.where, condition)
	b.args = append(b.args, args...)
	return b
}

func (b *SelectBuilder) OrderBy(order ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, order...)
	return b
}

func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = n
	return b
}

// Build returns the statement and its arguments. It fails when the number of
// "?" markers differs from the number of arguments.
func (b *SelectBuilder) Build() (string, []interface{}, error) {
	if b.table == "" {
		return "", nil, fmt.Errorf("select: table is empty")
	}
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if len(b.columns) == 0 {
		sb.WriteString("*")
	} else {
		sb.WriteString(strings.Join(b.columns, ", "))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(b.table)

	n := 0
	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		parts := strings.Split(strings.Join(b.where, " AND "), "?")
		for i, part := range parts {
			sb.WriteString(part)
			if i < len(parts)-1 {
				n++
				fmt.Fprintf(&sb, "$%d", n)
			}
		}
	}
	if n != len(b.args) {
		return "", nil, fmt.Errorf("placeholder count (%d) does not match argument count (%d)", n, len(b.args))
	}
	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", b.limit)
	}
	return sb.String(), b.args, nil
}

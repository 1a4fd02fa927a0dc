// Package querybuilder renders the small set of Postgres statements the
// repositories need, numbering $n placeholders in argument order.
package querybuilder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// args collects bind values and hands out the matching $n placeholders.
type args struct {
	values []any
}

func (a *args) bind(v any) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(len(a.values))
}

// expand replaces each ? in expr with the next bound value.
func (a *args) expand(expr string, values []any) (string, error) {
	if strings.Count(expr, "?") != len(values) {
		return "", fmt.Errorf("expression %q expects %d values, got %d", expr, strings.Count(expr, "?"), len(values))
	}

	var out strings.Builder
	rest := expr
	for _, v := range values {
		before, after, _ := strings.Cut(rest, "?")
		out.WriteString(before)
		out.WriteString(a.bind(v))
		rest = after
	}
	out.WriteString(rest)
	return out.String(), nil
}

// Condition is one predicate of a WHERE clause.
type Condition interface {
	render(a *args) (string, error)
}

type conditionFunc func(a *args) (string, error)

func (f conditionFunc) render(a *args) (string, error) { return f(a) }

func compare(column, op string, value any) Condition {
	return conditionFunc(func(a *args) (string, error) {
		return column + " " + op + " " + a.bind(value), nil
	})
}

func Eq(column string, value any) Condition  { return compare(column, "=", value) }
func Gte(column string, value any) Condition { return compare(column, ">=", value) }
func Lte(column string, value any) Condition { return compare(column, "<=", value) }

// Any renders "column = ANY($n)"; array should be driver-ready, e.g. pq.Array(ids).
func Any(column string, array any) Condition {
	return conditionFunc(func(a *args) (string, error) {
		return column + " = ANY(" + a.bind(array) + ")", nil
	})
}

// Expr is a raw predicate with ? placeholders.
func Expr(expr string, values ...any) Condition {
	return conditionFunc(func(a *args) (string, error) {
		return a.expand(expr, values)
	})
}

// When returns cond if ok, otherwise a nil Condition that renders nothing.
func When(ok bool, cond Condition) Condition {
	if !ok {
		return nil
	}
	return cond
}

func where(conditions []Condition, a *args) (string, error) {
	parts := make([]string, 0, len(conditions))
	for _, c := range conditions {
		if c == nil {
			continue
		}
		sql, err := c.render(a)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}
	if len(parts) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(parts, " AND "), nil
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	orderBy []string
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: columns}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(terms ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, terms...)
	return b
}

// Limit of zero or less means no limit.
func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	switch {
	case len(b.columns) == 0:
		return "", nil, errors.New("select: no columns")
	case strings.TrimSpace(b.table) == "":
		return "", nil, errors.New("select: no table")
	}

	a := &args{}
	filter, err := where(b.where, a)
	if err != nil {
		return "", nil, fmt.Errorf("select from %s: %w", b.table, err)
	}

	sql := "SELECT " + strings.Join(b.columns, ", ") + " FROM " + b.table + filter
	if len(b.orderBy) > 0 {
		sql += " ORDER BY " + strings.Join(b.orderBy, ", ")
	}
	if b.limit > 0 {
		sql += " LIMIT " + strconv.Itoa(b.limit)
	}
	return sql, a.values, nil
}

type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	suffix  string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = columns
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, values)
	return b
}

// Suffix is appended verbatim, e.g. an ON CONFLICT or RETURNING clause.
func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	switch {
	case strings.TrimSpace(b.table) == "":
		return "", nil, errors.New("insert: no table")
	case len(b.columns) == 0:
		return "", nil, fmt.Errorf("insert into %s: no columns", b.table)
	case len(b.rows) == 0:
		return "", nil, fmt.Errorf("insert into %s: no rows", b.table)
	}

	a := &args{}
	tuples := make([]string, len(b.rows))
	for i, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert into %s: row %d has %d values for %d columns", b.table, i, len(row), len(b.columns))
		}
		marks := make([]string, len(row))
		for j, v := range row {
			marks[j] = a.bind(v)
		}
		tuples[i] = "(" + strings.Join(marks, ", ") + ")"
	}

	sql := "INSERT INTO " + b.table + " (" + strings.Join(b.columns, ", ") + ") VALUES " + strings.Join(tuples, ", ")
	if b.suffix != "" {
		sql += " " + b.suffix
	}
	return sql, a.values, nil
}

type assignment struct {
	column string
	value  any
}

type UpdateBuilder struct {
	table string
	sets  []assignment
	where []Condition
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.sets = append(b.sets, assignment{column: column, value: value})
	return b
}

func (b *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	switch {
	case strings.TrimSpace(b.table) == "":
		return "", nil, errors.New("update: no table")
	case len(b.sets) == 0:
		return "", nil, fmt.Errorf("update %s: no columns to set", b.table)
	}

	a := &args{}
	sets := make([]string, len(b.sets))
	for i, s := range b.sets {
		sets[i] = s.column + " = " + a.bind(s.value)
	}

	filter, err := where(b.where, a)
	if err != nil {
		return "", nil, fmt.Errorf("update %s: %w", b.table, err)
	}
	return "UPDATE " + b.table + " SET " + strings.Join(sets, ", ") + filter, a.values, nil
}

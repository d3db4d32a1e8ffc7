package db

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var sequencePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*(\.[a-z_][a-z0-9_]*)?$`)

// Table is a query result as ordered rows of ordered column values rendered
// as text.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Session issues parameterized statements against the database. Statements
// run inside the transaction carried by the context when there is one.
type Session struct {
	db Querier
}

func NewSession(db Querier) *Session {
	return &Session{db: db}
}

// ExecUpdate runs an INSERT, UPDATE, DELETE or DDL statement and returns the
// number of rows it affected.
func (s *Session) ExecUpdate(ctx context.Context, sql string, args ...interface{}) (int64, error) {
	tag, err := Conn(ctx, s.db).Exec(ctx, sql, args...)
	if err != nil {
		return 0, Wrap("execute update", err)
	}
	return tag.RowsAffected(), nil
}

// Query runs a SELECT and returns every row.
func (s *Session) Query(ctx context.Context, sql string, args ...interface{}) (*Table, error) {
	rows, err := Conn(ctx, s.db).Query(ctx, sql, args...)
	if err != nil {
		return nil, Wrap("execute query", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	table := &Table{Columns: make([]string, len(fields)), Rows: [][]string{}}
	for i, fd := range fields {
		table.Columns[i] = fd.Name
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, Wrap("scan row", err)
		}
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = FormatValue(v)
		}
		table.Rows = append(table.Rows, record)
	}
	if err := rows.Err(); err != nil {
		return nil, Wrap("iterate rows", err)
	}
	return table, nil
}

// NextSequenceValue advances the sequence and returns the new value.
func (s *Session) NextSequenceValue(ctx context.Context, name string) (int64, error) {
	if !sequencePattern.MatchString(name) {
		return 0, fmt.Errorf("invalid sequence name: %q", name)
	}
	var v int64
	err := Conn(ctx, s.db).QueryRow(ctx, "SELECT nextval($1::regclass)", name).Scan(&v)
	if err != nil {
		return 0, Wrap("nextval "+name, err)
	}
	return v, nil
}

// FormatValue renders a decoded column value the way it would print in psql.
func FormatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format(time.RFC3339)
	case [16]byte:
		return uuid.UUID(t).String()
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int16:
		return strconv.FormatInt(int64(t), 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

var _ Querier = (pgx.Tx)(nil)

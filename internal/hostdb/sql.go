package hostdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const executeSQLFunction = "execute_sql"

// SQLClient reaches the same tables over a direct database connection.
type SQLClient struct {
	db *gorm.DB
}

func NewSQLClient(db *gorm.DB) *SQLClient {
	return &SQLClient{db: db}
}

func (c *SQLClient) Configured() bool {
	return c.db != nil
}

func (c *SQLClient) Select(ctx context.Context, table string, columns string, limit int) ([]map[string]any, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	var rows []map[string]any
	q := c.db.WithContext(ctx).Table(table).Select(strings.Split(columns, ","))
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, translateSQLError(err)
	}
	return rows, nil
}

func (c *SQLClient) Insert(ctx context.Context, table string, row map[string]any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	values := make(map[string]any, len(row))
	for k, v := range row {
		values[k] = v
	}
	if err := c.db.WithContext(ctx).Table(table).Create(values).Error; err != nil {
		return translateSQLError(err)
	}
	return nil
}

func (c *SQLClient) DeleteWhere(ctx context.Context, table string, column string, value any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	err := c.db.WithContext(ctx).
		Exec("DELETE FROM ? WHERE ? = ?", clause.Table{Name: table}, clause.Column{Name: column}, value).
		Error
	return translateSQLError(err)
}

// RPC only understands execute_sql, which runs the "sql_query" argument verbatim.
func (c *SQLClient) RPC(ctx context.Context, fn string, args map[string]any) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if fn != executeSQLFunction {
		return nil, &Error{Code: CodeSchemaCacheMissingFunc, Message: fmt.Sprintf("function %s is not available over SQL", fn)}
	}

	stmt, _ := args["sql_query"].(string)
	if strings.TrimSpace(stmt) == "" {
		return nil, &Error{Message: "execute_sql requires a non-empty sql_query argument"}
	}
	if err := c.db.WithContext(ctx).Exec(stmt).Error; err != nil {
		return nil, translateSQLError(err)
	}
	return json.RawMessage("null"), nil
}

func translateSQLError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &Error{Code: pgErr.Code, Message: pgErr.Message, Details: pgErr.Detail, Hint: pgErr.Hint, Err: err}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such table"):
		return &Error{Code: CodeUndefinedTable, Message: msg, Err: err}
	case strings.Contains(msg, "UNIQUE constraint failed"), errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Code: CodeUniqueViolation, Message: msg, Err: err}
	default:
		return &Error{Message: msg, Err: err}
	}
}

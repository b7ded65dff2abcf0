package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Column is a name and SQL type for CreateTable.
type Column struct {
	Name string
	Type string
}

// CreateTable issues CREATE TABLE IF NOT EXISTS with the given columns and
// an optional primary key.
func CreateTable(ctx context.Context, pool Pool, table string, columns []Column, primaryKey []string) error {
	if len(columns) == 0 {
		return eris.New("db: create table: no columns specified")
	}
	defs := make([]string, 0, len(columns)+1)
	for _, c := range columns {
		defs = append(defs, fmt.Sprintf("%s %s", quoteAndJoin([]string{c.Name}), c.Type))
	}
	if len(primaryKey) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", quoteAndJoin(primaryKey)))
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", sanitizeTable(table), strings.Join(defs, ", "))
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return eris.Wrapf(err, "db: create table %s", table)
	}
	return nil
}

// ReplaceAll empties table and copies rows into it in one transaction, so
// readers see either the old contents or the new ones.
func ReplaceAll(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) (int64, error) {
	return inTx(ctx, pool, "replace", func(tx pgx.Tx) (int64, error) {
		if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+sanitizeTable(table)); err != nil {
			return 0, eris.Wrapf(err, "db: replace: truncate %s", table)
		}
		n, err := CopyFrom(ctx, tx, table, columns, rows)
		if err != nil {
			return 0, eris.Wrap(err, "db: replace")
		}
		return n, nil
	})
}

// inTx runs fn in a transaction and commits only when fn succeeds.
func inTx(ctx context.Context, pool Pool, op string, fn func(pgx.Tx) (int64, error)) (int64, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrapf(err, "db: %s: begin tx", op)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	n, err := fn(tx)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "db: %s: commit tx", op)
	}
	return n, nil
}

package db

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// UpsertConfig describes a merge of rows into Table keyed on ConflictKeys.
type UpsertConfig struct {
	Table        string
	Columns      []string
	ConflictKeys []string
	// UpdateCols defaults to every column outside ConflictKeys.
	UpdateCols []string
}

func (c UpsertConfig) validate() error {
	switch {
	case len(c.Columns) == 0:
		return eris.New("db: upsert: no columns specified")
	case len(c.ConflictKeys) == 0:
		return eris.New("db: upsert: no conflict keys specified")
	}
	return nil
}

func (c UpsertConfig) updateColumns() []string {
	if c.UpdateCols != nil {
		return c.UpdateCols
	}
	var out []string
	for _, col := range c.Columns {
		if !slices.Contains(c.ConflictKeys, col) {
			out = append(out, col)
		}
	}
	return out
}

func (c UpsertConfig) stagingTable() string {
	return "_tmp_upsert_" + strings.ReplaceAll(c.Table, ".", "_")
}

// conflictAction renders the ON CONFLICT tail. A config whose columns are
// all keys has nothing to update.
func (c UpsertConfig) conflictAction() string {
	cols := c.updateColumns()
	if len(cols) == 0 {
		return "DO NOTHING"
	}
	sets := make([]string, 0, len(cols))
	for _, col := range cols {
		q := pgx.Identifier{col}.Sanitize()
		sets = append(sets, q+" = EXCLUDED."+q)
	}
	return "DO UPDATE SET " + strings.Join(sets, ", ")
}

func (c UpsertConfig) mergeSQL() string {
	cols := quoteAndJoin(c.Columns)
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) %s",
		sanitizeTable(c.Table), cols, cols,
		pgx.Identifier{c.stagingTable()}.Sanitize(),
		quoteAndJoin(c.ConflictKeys), c.conflictAction())
}

// BulkUpsert copies rows into a transaction-scoped staging table and merges
// them into the target with INSERT ... ON CONFLICT.
func BulkUpsert(ctx context.Context, pool Pool, cfg UpsertConfig, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := cfg.validate(); err != nil {
		return 0, err
	}

	staging := cfg.stagingTable()
	return inTx(ctx, pool, "upsert", func(tx pgx.Tx) (int64, error) {
		ddl := fmt.Sprintf("CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
			pgx.Identifier{staging}.Sanitize(), sanitizeTable(cfg.Table))
		if _, err := tx.Exec(ctx, ddl); err != nil {
			return 0, eris.Wrapf(err, "db: upsert: stage %s", cfg.Table)
		}
		if _, err := CopyFrom(ctx, tx, staging, cfg.Columns, rows); err != nil {
			return 0, eris.Wrapf(err, "db: upsert: copy %s", cfg.Table)
		}
		tag, err := tx.Exec(ctx, cfg.mergeSQL())
		if err != nil {
			return 0, eris.Wrapf(err, "db: upsert: merge %s", cfg.Table)
		}
		return tag.RowsAffected(), nil
	})
}

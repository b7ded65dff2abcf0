// Package load writes the merged record set to its destinations: a
// relational table, an S3-compatible bucket and a local CSV file.
package load

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/artist-etl/internal/db"
	"github.com/sells-group/artist-etl/internal/model"
	"github.com/sells-group/artist-etl/internal/staging"
)

// DefaultTable is the destination table of the merged records.
const DefaultTable = "data_pipeline"

// Policy selects how Write treats rows already in the table.
type Policy string

const (
	PolicyReplace Policy = "replace"
	PolicyAppend  Policy = "append"
	PolicyUpsert  Policy = "upsert"
)

// ParsePolicy validates a configured policy name. Empty means replace.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyReplace, nil
	case PolicyReplace, PolicyAppend, PolicyUpsert:
		return p, nil
	default:
		return "", eris.Errorf("load: unknown write policy %q", s)
	}
}

// recordKey identifies one (track, artist) row.
var recordKey = []string{"track_id", "artist"}

// recordSchema is the table layout for model.RecordColumns.
var recordSchema = func() []db.Column {
	types := map[string]string{
		"explicit":    "BOOLEAN",
		"is_loud":     "BOOLEAN",
		"is_live":     "BOOLEAN",
		"nominated":   "BOOLEAN",
		"won_grammy":  "BOOLEAN",
		"year":        "INTEGER",
		"decade":      "INTEGER",
		"award_count": "INTEGER",
	}
	cols := make([]db.Column, 0, len(model.RecordColumns))
	for _, name := range model.RecordColumns {
		typ, ok := types[name]
		if !ok {
			typ = "TEXT"
		}
		cols = append(cols, db.Column{Name: name, Type: typ + " NOT NULL"})
	}
	return cols
}()

// PostgresSink writes records into a Postgres table.
type PostgresSink struct {
	pool db.Pool
	log  *zap.Logger
}

// NewPostgresSink creates a sink on pool.
func NewPostgresSink(pool db.Pool) *PostgresSink {
	return &PostgresSink{
		pool: pool,
		log:  zap.L().With(zap.String("component", "load")),
	}
}

// Write creates table when missing and stores records under policy. It
// returns the number of rows written.
func (s *PostgresSink) Write(ctx context.Context, table string, policy Policy, records []model.UnifiedRecord) (int64, error) {
	if table == "" {
		table = DefaultTable
	}
	if err := db.CreateTable(ctx, s.pool, table, recordSchema, recordKey); err != nil {
		return 0, eris.Wrap(err, "load: ensure table")
	}

	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = r.Values()
	}

	var (
		n   int64
		err error
	)
	switch policy {
	case PolicyReplace, "":
		n, err = db.ReplaceAll(ctx, s.pool, table, model.RecordColumns, rows)
	case PolicyAppend:
		n, err = db.CopyFrom(ctx, s.pool, table, model.RecordColumns, rows)
	case PolicyUpsert:
		n, err = db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
			Table:        table,
			Columns:      model.RecordColumns,
			ConflictKeys: recordKey,
		}, rows)
	default:
		return 0, eris.Errorf("load: unknown write policy %q", policy)
	}
	if err != nil {
		return 0, eris.Wrapf(err, "load: write %s", table)
	}

	s.log.Info("load: records written",
		zap.String("table", table),
		zap.String("policy", string(policy)),
		zap.Int64("rows", n),
	)
	return n, nil
}

// WriteCSV writes the merged output file.
func WriteCSV(path string, records []model.UnifiedRecord) error {
	return eris.Wrap(staging.WriteFile(path, records), "load: write csv")
}

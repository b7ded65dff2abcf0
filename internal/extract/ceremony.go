package extract

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/artist-etl/internal/db"
	"github.com/sells-group/artist-etl/internal/model"
	"github.com/sells-group/artist-etl/internal/staging"
)

// DefaultCeremonyTable is the raw ceremony table name.
const DefaultCeremonyTable = "grammys_raw_data"

// Querier runs a row-returning query. *pgxpool.Pool and pgxmock pools
// satisfy it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Ceremony reads the raw nomination table.
type Ceremony struct {
	DB    Querier
	Table string
}

func (c *Ceremony) query() string {
	table := c.Table
	if table == "" {
		table = DefaultCeremonyTable
	}
	return fmt.Sprintf(`SELECT year, COALESCE(title, ''), COALESCE(category, ''),
	COALESCE(nominee, ''), COALESCE(artist, ''), COALESCE(workers, ''), winner
FROM %s`, db.Identifier(table).Sanitize())
}

// Fetch returns every nomination row. NULL text columns come back empty;
// a NULL year or winner sets Missing.
func (c *Ceremony) Fetch(ctx context.Context) ([]model.RawNomination, error) {
	if c.DB == nil {
		return nil, eris.New("extract: ceremony database not configured")
	}
	rows, err := c.DB.Query(ctx, c.query())
	if err != nil {
		return nil, eris.Wrap(err, "extract: query ceremony")
	}
	defer rows.Close()

	var out []model.RawNomination
	for rows.Next() {
		var (
			n      model.RawNomination
			year   pgtype.Int8
			winner pgtype.Bool
		)
		if err := rows.Scan(&year, &n.Title, &n.Category, &n.Nominee, &n.Artist, &n.Workers, &winner); err != nil {
			return nil, eris.Wrap(err, "extract: scan ceremony row")
		}
		n.Year, n.Winner = int(year.Int64), winner.Bool
		n.Missing = !year.Valid || !winner.Valid
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "extract: iterate ceremony rows")
	}
	return out, nil
}

// Extract stages the ceremony table at dest and returns its row count.
func (c *Ceremony) Extract(ctx context.Context, dest string) (int, error) {
	rows, err := c.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, emptyDataset("ceremony")
	}
	if err := staging.WriteFile(dest, rows); err != nil {
		return 0, eris.Wrap(err, "extract: stage ceremony")
	}
	zap.L().Info("extract: ceremony staged",
		zap.String("path", dest),
		zap.Int("rows", len(rows)),
	)
	return len(rows), nil
}

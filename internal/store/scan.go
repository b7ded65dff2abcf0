package store

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/artist-etl/internal/model"
)

const (
	runSelectCols   = "id, status, result, created_at, updated_at"
	phaseSelectCols = "id, run_id, name, status, result, started_at"
)

// row is satisfied by both *sql.Row and pgx.Row, and by their multi-row
// counterparts.
type row interface {
	Scan(dest ...any) error
}

func newRun() *model.Run {
	now := time.Now().UTC()
	return &model.Run{
		ID:        uuid.NewString(),
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newPhase(runID, name string) *model.RunPhase {
	return &model.RunPhase{
		ID:        uuid.NewString(),
		RunID:     runID,
		Name:      name,
		Status:    model.PhaseStatusRunning,
		StartedAt: time.Now().UTC(),
	}
}

// encodeJSON marshals v, returning nil for a nil pointer so the column is
// written as NULL.
func encodeJSON[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	return b, eris.Wrap(err, "store: marshal result")
}

func decodeJSON[T any](data []byte) (*T, error) {
	if len(data) == 0 {
		return nil, nil
	}
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal result")
	}
	return v, nil
}

func scanRun(r row) (*model.Run, error) {
	var (
		run    model.Run
		status string
		raw    []byte
	)
	if err := r.Scan(&run.ID, &status, &raw, &run.CreatedAt, &run.UpdatedAt); err != nil {
		return nil, err
	}
	run.Status = model.RunStatus(status)
	res, err := decodeJSON[model.RunResult](raw)
	if err != nil {
		return nil, err
	}
	run.Result = res
	return &run, nil
}

func scanPhase(r row) (*model.RunPhase, error) {
	var (
		p      model.RunPhase
		status string
		raw    []byte
	)
	if err := r.Scan(&p.ID, &p.RunID, &p.Name, &status, &raw, &p.StartedAt); err != nil {
		return nil, err
	}
	p.Status = model.PhaseStatus(status)
	res, err := decodeJSON[model.PhaseResult](raw)
	if err != nil {
		return nil, err
	}
	p.Result = res
	return &p, nil
}

// listRunsQuery renders the ListRuns statement with bind producing the n-th
// placeholder for the driver.
func listRunsQuery(filter RunFilter, bind func(n int) string) (string, []any) {
	var (
		b    strings.Builder
		args []any
	)
	next := func(v any) string {
		args = append(args, v)
		return bind(len(args))
	}

	b.WriteString("SELECT " + runSelectCols + " FROM runs WHERE true")
	if filter.Status != "" {
		b.WriteString(" AND status = " + next(string(filter.Status)))
	}
	b.WriteString(" ORDER BY created_at DESC LIMIT " + next(listLimit(filter.Limit)))
	if filter.Offset > 0 {
		b.WriteString(" OFFSET " + next(filter.Offset))
	}
	return b.String(), args
}

func dollarBind(n int) string { return "$" + strconv.Itoa(n) }

func questionBind(int) string { return "?" }

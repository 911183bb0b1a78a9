package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/idmgr/internal/ir"
)

// RecordFilter selects mint records within one plan. Nil and empty fields
// match everything. Register descriptors are stored with NoMachine and
// NoThread, so a Machine or Thread filter never selects them.
type RecordFilter struct {
	Kind    ir.MintKind
	Machine *ir.MachineID
	Thread  *ir.ThreadID
}

// compileRecordQuery builds the SELECT for filter.
// Every query is ordered by seq and every value is a ? parameter.
func compileRecordQuery(token string, filter RecordFilter) (string, []any) {
	preds := []string{"plan_token = ?"}
	params := []any{token}

	if filter.Kind != "" {
		preds = append(preds, "kind = ?")
		params = append(params, string(filter.Kind))
	}
	if filter.Machine != nil {
		preds = append(preds, "machine_id = ?")
		params = append(params, int64(*filter.Machine))
	}
	if filter.Thread != nil {
		preds = append(preds, "thread_id = ?")
		params = append(params, int64(*filter.Thread))
	}

	query := "SELECT seq, kind, id, machine_id, thread_id, task_seq FROM mint_records WHERE " +
		strings.Join(preds, " AND ") +
		" ORDER BY seq ASC"
	return query, params
}

// QueryRecords returns the records of one plan matching filter, ordered by
// seq. Returns ErrPlanNotFound for an unknown token.
func (s *Store) QueryRecords(ctx context.Context, token string, filter RecordFilter) ([]ir.MintRecord, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM plans WHERE plan_token = ?`, token).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("query records %s: %w", token, ErrPlanNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query records %s: %w", token, err)
	}

	query, params := compileRecordQuery(token, filter)
	return s.queryRecords(ctx, query, params...)
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/idmgr/internal/ir"
)

// ErrPlanNotFound means no plan is stored under the requested token.
var ErrPlanNotFound = errors.New("plan not found")

// PlanSummary is one row of ListPlans.
type PlanSummary struct {
	PlanToken      string `json:"plan_token"`
	ManagerVersion string `json:"manager_version"`
	Hash           string `json:"hash"`
	Records        int    `json:"records"`
}

// ReadManifest loads the manifest stored under token.
// Records are ordered by seq. The stored hash is verified against the
// loaded content.
func (s *Store) ReadManifest(ctx context.Context, token string) (*ir.PlanManifest, error) {
	var (
		m           ir.PlanManifest
		clusterJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT plan_token, manifest_version, manager_version, cluster, hash
		FROM plans
		WHERE plan_token = ?
	`, token).Scan(&m.PlanToken, &m.ManifestVersion, &m.ManagerVersion, &clusterJSON, &m.Hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read manifest %s: %w", token, ErrPlanNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	m.Cluster, err = unmarshalCluster(clusterJSON)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	query, params := compileRecordQuery(token, RecordFilter{})
	m.Records, err = s.queryRecords(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	hash, err := ir.PlanHash(&m)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if hash != m.Hash {
		return nil, fmt.Errorf("read manifest %s: %w", token, ErrHashMismatch)
	}

	return &m, nil
}

// ListPlans returns every stored plan ordered by token.
// Returns an empty slice (not nil) for an empty ledger.
func (s *Store) ListPlans(ctx context.Context) ([]PlanSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT plan_token, manager_version, hash, record_count
		FROM plans
		ORDER BY plan_token COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	plans := []PlanSummary{}
	for rows.Next() {
		var p PlanSummary
		if err := rows.Scan(&p.PlanToken, &p.ManagerVersion, &p.Hash, &p.Records); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	return plans, nil
}

// ActorsOnMachine returns the task records a plan minted on one machine,
// ordered by seq. Returns ErrPlanNotFound for an unknown token.
func (s *Store) ActorsOnMachine(ctx context.Context, token string, machine ir.MachineID) ([]ir.MintRecord, error) {
	records, err := s.QueryRecords(ctx, token, RecordFilter{Kind: ir.MintTask, Machine: &machine})
	if err != nil {
		return nil, fmt.Errorf("actors on machine %d: %w", machine, err)
	}
	return records, nil
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]ir.MintRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []ir.MintRecord{}
	for rows.Next() {
		var (
			r                 ir.MintRecord
			kind              string
			machineID, thread int64
		)
		if err := rows.Scan(&r.Seq, &kind, &r.ID, &machineID, &thread, &r.TaskSeq); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Kind = ir.MintKind(kind)
		r.MachineID = ir.MachineID(machineID)
		r.ThreadID = ir.ThreadID(thread)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

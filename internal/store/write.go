package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/idmgr/internal/ir"
)

// ErrHashMismatch means a manifest's Hash does not match its content.
var ErrHashMismatch = errors.New("manifest hash does not match content")

// ErrPlanConflict means a different manifest is already stored under the
// same plan token.
var ErrPlanConflict = errors.New("plan token already stored with a different hash")

// WriteManifest stores a frozen manifest and all of its mint records in one
// transaction.
//
// Writing the same manifest twice is a no-op. The manifest hash is
// recomputed first, so an edited manifest is rejected with ErrHashMismatch.
func (s *Store) WriteManifest(ctx context.Context, m *ir.PlanManifest) error {
	if m == nil {
		return fmt.Errorf("write manifest: nil manifest")
	}
	if m.PlanToken == "" {
		return fmt.Errorf("write manifest: empty plan token")
	}

	hash, err := ir.PlanHash(m)
	if err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if hash != m.Hash {
		return fmt.Errorf("write manifest %s: %w", m.PlanToken, ErrHashMismatch)
	}

	clusterJSON, err := marshalCluster(m.Cluster)
	if err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write manifest: begin: %w", err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT hash FROM plans WHERE plan_token = ?`, m.PlanToken).Scan(&existing)
	switch {
	case err == nil:
		if existing != m.Hash {
			return fmt.Errorf("write manifest %s: %w", m.PlanToken, ErrPlanConflict)
		}
		return nil
	case errors.Is(err, sql.ErrNoRows):
	default:
		return fmt.Errorf("write manifest: lookup: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO plans
		(plan_token, manifest_version, manager_version, cluster, hash, record_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		m.PlanToken,
		m.ManifestVersion,
		m.ManagerVersion,
		clusterJSON,
		m.Hash,
		len(m.Records),
	)
	if err != nil {
		return fmt.Errorf("write manifest: insert plan: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO mint_records
		(plan_token, seq, kind, id, machine_id, thread_id, task_seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write manifest: prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range m.Records {
		if !ir.ValidMintKinds[r.Kind] {
			return fmt.Errorf("write manifest: record %d has unknown kind %q", r.Seq, r.Kind)
		}
		_, err := stmt.ExecContext(ctx,
			m.PlanToken,
			r.Seq,
			string(r.Kind),
			r.ID,
			int64(r.MachineID),
			int64(r.ThreadID),
			r.TaskSeq,
		)
		if err != nil {
			return fmt.Errorf("write manifest: insert record %d: %w", r.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write manifest: commit: %w", err)
	}
	return nil
}

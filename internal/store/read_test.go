package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/roach88/idmgr/internal/ir"
)

func TestReadManifest_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	want := createTestManifest(t, "plan-a")

	if err := s.WriteManifest(ctx, want); err != nil {
		t.Fatalf("WriteManifest() failed: %v", err)
	}

	got, err := s.ReadManifest(ctx, "plan-a")
	if err != nil {
		t.Fatalf("ReadManifest() failed: %v", err)
	}

	if got.Hash != want.Hash {
		t.Errorf("Hash = %s, want %s", got.Hash, want.Hash)
	}
	if !reflect.DeepEqual(got.Records, want.Records) {
		t.Errorf("Records = %+v, want %+v", got.Records, want.Records)
	}
	if !reflect.DeepEqual(got.Cluster, want.Cluster) {
		t.Errorf("Cluster = %+v, want %+v", got.Cluster, want.Cluster)
	}
}

func TestReadManifest_RecordsOrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	if err := s.WriteManifest(ctx, createTestManifest(t, "plan-a")); err != nil {
		t.Fatalf("WriteManifest() failed: %v", err)
	}

	got, err := s.ReadManifest(ctx, "plan-a")
	if err != nil {
		t.Fatalf("ReadManifest() failed: %v", err)
	}
	for i := 1; i < len(got.Records); i++ {
		if got.Records[i-1].Seq >= got.Records[i].Seq {
			t.Errorf("records out of order at %d: %d then %d", i, got.Records[i-1].Seq, got.Records[i].Seq)
		}
	}
}

func TestReadManifest_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadManifest(context.Background(), "missing")
	if !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("ReadManifest() error = %v, want ErrPlanNotFound", err)
	}
}

func TestReadManifest_DetectsEditedLedger(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	if err := s.WriteManifest(ctx, createTestManifest(t, "plan-a")); err != nil {
		t.Fatalf("WriteManifest() failed: %v", err)
	}

	if _, err := s.db.Exec(`UPDATE mint_records SET id = id + 1 WHERE seq = 1`); err != nil {
		t.Fatalf("update: %v", err)
	}

	_, err := s.ReadManifest(ctx, "plan-a")
	if !errors.Is(err, ErrHashMismatch) {
		t.Fatalf("ReadManifest() error = %v, want ErrHashMismatch", err)
	}
}

func TestListPlans(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	plans, err := s.ListPlans(ctx)
	if err != nil {
		t.Fatalf("ListPlans() failed: %v", err)
	}
	if plans == nil || len(plans) != 0 {
		t.Fatalf("ListPlans() on empty ledger = %v, want empty slice", plans)
	}

	for _, token := range []string{"plan-b", "plan-a"} {
		if err := s.WriteManifest(ctx, createTestManifest(t, token)); err != nil {
			t.Fatalf("WriteManifest(%s) failed: %v", token, err)
		}
	}

	plans, err = s.ListPlans(ctx)
	if err != nil {
		t.Fatalf("ListPlans() failed: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("ListPlans() = %d plans, want 2", len(plans))
	}
	if plans[0].PlanToken != "plan-a" || plans[1].PlanToken != "plan-b" {
		t.Errorf("ListPlans() order = %s, %s", plans[0].PlanToken, plans[1].PlanToken)
	}
	if plans[0].Records != 6 {
		t.Errorf("Records = %d, want 6", plans[0].Records)
	}
	if plans[0].ManagerVersion != ir.ManagerVersion {
		t.Errorf("ManagerVersion = %s, want %s", plans[0].ManagerVersion, ir.ManagerVersion)
	}
}

func TestActorsOnMachine(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	if err := s.WriteManifest(ctx, createTestManifest(t, "plan-a")); err != nil {
		t.Fatalf("WriteManifest() failed: %v", err)
	}

	m0, err := s.ActorsOnMachine(ctx, "plan-a", 0)
	if err != nil {
		t.Fatalf("ActorsOnMachine(0) failed: %v", err)
	}
	if len(m0) != 2 {
		t.Fatalf("ActorsOnMachine(0) = %d records, want 2", len(m0))
	}
	if m0[0].ThreadID != 0 || m0[1].ThreadID != 4 {
		t.Errorf("threads = %d, %d; want 0, 4", m0[0].ThreadID, m0[1].ThreadID)
	}
	for _, r := range m0 {
		if r.Kind != ir.MintTask {
			t.Errorf("kind = %s, want task", r.Kind)
		}
	}

	m1, err := s.ActorsOnMachine(ctx, "plan-a", 1)
	if err != nil {
		t.Fatalf("ActorsOnMachine(1) failed: %v", err)
	}
	if len(m1) != 1 || m1[0].ThreadID != 6 {
		t.Errorf("ActorsOnMachine(1) = %+v, want one task on thread 6", m1)
	}

	empty, err := s.ActorsOnMachine(ctx, "plan-a", 7)
	if err != nil {
		t.Fatalf("ActorsOnMachine(7) failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("ActorsOnMachine(7) = %+v, want none", empty)
	}
}

func TestActorsOnMachine_UnknownPlan(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ActorsOnMachine(context.Background(), "missing", 0)
	if !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("ActorsOnMachine() error = %v, want ErrPlanNotFound", err)
	}
}

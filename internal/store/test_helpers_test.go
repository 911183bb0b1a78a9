package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/idmgr/internal/idmgr"
	"github.com/roach88/idmgr/internal/ir"
	"github.com/roach88/idmgr/internal/testutil"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestManifest compiles a small plan on the two-machine cluster:
// one persistence thread and two tasks on m0, one boxing task on m1 and
// one register descriptor.
func createTestManifest(t *testing.T, token string) *ir.PlanManifest {
	t.Helper()
	m, err := idmgr.New(testutil.TwoMachineCluster(),
		idmgr.WithLogger(testutil.DiscardLogger()),
		idmgr.WithTokenGenerator(testutil.NewFixedTokenGenerator(token)),
	)
	if err != nil {
		t.Fatalf("idmgr.New() failed: %v", err)
	}

	pt, err := m.AllocatePersistenceThreadID(0)
	if err != nil {
		t.Fatalf("AllocatePersistenceThreadID() failed: %v", err)
	}
	if _, err := m.NewTaskID(0, 0); err != nil {
		t.Fatalf("NewTaskID() failed: %v", err)
	}
	if _, err := m.NewTaskID(0, pt); err != nil {
		t.Fatalf("NewTaskID() failed: %v", err)
	}
	bt, err := m.AllocateBoxingThreadID(1)
	if err != nil {
		t.Fatalf("AllocateBoxingThreadID() failed: %v", err)
	}
	if _, err := m.NewTaskID(1, bt); err != nil {
		t.Fatalf("NewTaskID() failed: %v", err)
	}
	if _, err := m.NewRegstDescID(); err != nil {
		t.Fatalf("NewRegstDescID() failed: %v", err)
	}

	manifest, err := m.Freeze()
	if err != nil {
		t.Fatalf("Freeze() failed: %v", err)
	}
	return manifest
}

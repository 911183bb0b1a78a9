package idmgr

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/idmgr/internal/ir"
	"github.com/roach88/idmgr/internal/machine"
	"github.com/roach88/idmgr/internal/metrics"
	"github.com/roach88/idmgr/internal/sequencer"
	"github.com/roach88/idmgr/internal/thread"
)

// Manager owns all compile-phase identifier state of one plan.
type Manager struct {
	mu           sync.Mutex
	synchronized bool

	cluster  ir.ClusterSpec
	registry *machine.Registry
	layout   *thread.Layout
	threads  *thread.Allocator
	tasks    *sequencer.TaskSequencer
	regsts   sequencer.RegstDescAllocator

	clock     *Clock
	records   []ir.MintRecord
	planToken string
	frozen    bool

	tokens  TokenGenerator
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New builds the machine registry and thread layout from spec.
// Any inconsistency in spec is a CONFIG_ERROR.
func New(spec ir.ClusterSpec, opts ...Option) (*Manager, error) {
	m := &Manager{
		cluster: spec,
		clock:   NewClock(),
		tokens:  UUIDv7Generator{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	registry, err := machine.NewRegistry(spec.Machines)
	if err != nil {
		m.metrics.Failed(err)
		return nil, fmt.Errorf("machine registry: %w", err)
	}
	layout, err := thread.NewLayout(spec.DeviceCount, spec.PersistencePoolSize, spec.BoxingPoolSize, spec.DeviceTypes)
	if err != nil {
		m.metrics.Failed(err)
		return nil, fmt.Errorf("thread layout: %w", err)
	}

	m.registry = registry
	m.layout = layout
	m.threads = thread.NewAllocator(registry.Len(), layout)
	m.tasks = sequencer.NewTaskSequencer(registry.Len(), layout)
	m.planToken = m.tokens.Generate()
	m.metrics.SetMachines(registry.Len())

	m.logger.Info("id manager initialized",
		"plan", m.planToken,
		"machines", registry.Len(),
		"layout", layout.String(),
	)

	return m, nil
}

// lock takes the mutex when the manager is synchronized.
func (m *Manager) lock() func() {
	if !m.synchronized {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

// PlanToken identifies the plan this manager compiles.
func (m *Manager) PlanToken() string {
	return m.planToken
}

// Layout returns the per-machine thread layout.
func (m *Manager) Layout() *thread.Layout {
	return m.layout
}

// Machines lists the registered machines ordered by id.
func (m *Manager) Machines() []machine.Machine {
	return m.registry.Machines()
}

// MachineID resolves a machine name.
func (m *Manager) MachineID(name string) (ir.MachineID, error) {
	id, err := m.registry.MachineID(name)
	m.metrics.Failed(err)
	return id, err
}

// MachineName resolves a machine id.
func (m *Manager) MachineName(id ir.MachineID) (string, error) {
	name, err := m.registry.MachineName(id)
	m.metrics.Failed(err)
	return name, err
}

// CommNetThreadID returns the comm-net slot shared by every machine.
func (m *Manager) CommNetThreadID() ir.ThreadID {
	return m.threads.CommNetThreadID()
}

// AllocatePersistenceThreadID picks the next persistence thread of machine mid.
func (m *Manager) AllocatePersistenceThreadID(mid ir.MachineID) (ir.ThreadID, error) {
	defer m.lock()()
	return m.allocate("AllocatePersistenceThreadID", mid, ir.MintPersistenceThread, "persistence", m.threads.AllocatePersistenceThreadID)
}

// AllocateBoxingThreadID picks the next boxing thread of machine mid.
func (m *Manager) AllocateBoxingThreadID(mid ir.MachineID) (ir.ThreadID, error) {
	defer m.lock()()
	return m.allocate("AllocateBoxingThreadID", mid, ir.MintBoxingThread, "boxing", m.threads.AllocateBoxingThreadID)
}

func (m *Manager) allocate(op string, mid ir.MachineID, kind ir.MintKind, pool string, alloc func(ir.MachineID) (ir.ThreadID, error)) (ir.ThreadID, error) {
	if m.frozen {
		return 0, m.fail(ir.NewFrozenError(op))
	}
	tid, err := alloc(mid)
	if err != nil {
		return 0, m.fail(err)
	}

	m.record(ir.MintRecord{Kind: kind, ID: int64(tid), MachineID: mid, ThreadID: tid, TaskSeq: -1})
	m.metrics.ThreadAllocated(pool)
	m.logger.Debug("thread allocated", "plan", m.planToken, "pool", pool, "machine", mid, "thread", tid)
	return tid, nil
}

// NewTaskID mints a new actor id for work placed on thread tid of machine mid.
func (m *Manager) NewTaskID(mid ir.MachineID, tid ir.ThreadID) (ir.TaskID, error) {
	defer m.lock()()
	if m.frozen {
		return 0, m.fail(ir.NewFrozenError("NewTaskID"))
	}

	seq := m.tasks.Peek(mid, tid)
	id, err := m.tasks.NewTaskID(mid, tid)
	if err != nil {
		if ir.IsFatal(err) {
			m.logger.Error("task id capacity exceeded", "plan", m.planToken, "machine", mid, "thread", tid, "error", err)
		}
		return 0, m.fail(err)
	}

	m.record(ir.MintRecord{Kind: ir.MintTask, ID: int64(id), MachineID: mid, ThreadID: tid, TaskSeq: seq})
	if d, err := m.layout.DeviceTypeFromThreadID(tid); err == nil {
		m.metrics.TaskMinted(d)
	}
	m.logger.Debug("task id minted", "plan", m.planToken, "machine", mid, "thread", tid, "seq", seq, "id", int64(id))
	return id, nil
}

// NewRegstDescID mints the next register descriptor id.
func (m *Manager) NewRegstDescID() (ir.RegstDescID, error) {
	defer m.lock()()
	if m.frozen {
		return 0, m.fail(ir.NewFrozenError("NewRegstDescID"))
	}

	id := m.regsts.NewRegstDescID()
	m.record(ir.MintRecord{Kind: ir.MintRegstDesc, ID: int64(id), MachineID: ir.NoMachine, ThreadID: ir.NoThread, TaskSeq: -1})
	m.metrics.RegstDescMinted()
	return id, nil
}

// Freeze ends the compile phase and returns the manifest of every id minted.
// Calling Freeze twice is a FROZEN error.
func (m *Manager) Freeze() (*ir.PlanManifest, error) {
	defer m.lock()()
	if m.frozen {
		return nil, m.fail(ir.NewFrozenError("Freeze"))
	}
	m.frozen = true

	manifest := &ir.PlanManifest{
		PlanToken:       m.planToken,
		ManifestVersion: ir.ManifestVersion,
		ManagerVersion:  ir.ManagerVersion,
		Cluster:         m.cluster,
		Records:         append([]ir.MintRecord(nil), m.records...),
	}
	hash, err := ir.PlanHash(manifest)
	if err != nil {
		return nil, fmt.Errorf("freeze: %w", err)
	}
	manifest.Hash = hash

	m.logger.Info("plan frozen",
		"plan", m.planToken,
		"records", len(manifest.Records),
		"task_threads", m.tasks.Threads(),
		"regst_descs", m.regsts.Count(),
		"hash", hash,
	)
	return manifest, nil
}

// Frozen reports whether Freeze has been called.
func (m *Manager) Frozen() bool {
	defer m.lock()()
	return m.frozen
}

// Decoder returns the runtime view of this plan's ids. It shares only the
// immutable registry and layout, so it is valid before and after Freeze.
func (m *Manager) Decoder() *Decoder {
	return &Decoder{registry: m.registry, layout: m.layout}
}

func (m *Manager) record(r ir.MintRecord) {
	r.Seq = m.clock.Next()
	m.records = append(m.records, r)
}

func (m *Manager) fail(err error) error {
	m.metrics.Failed(err)
	return err
}

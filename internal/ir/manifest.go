package ir

// MintKind says what a MintRecord allocated.
type MintKind string

const (
	MintTask              MintKind = "task"
	MintRegstDesc         MintKind = "regst_desc"
	MintPersistenceThread MintKind = "persistence_thread"
	MintBoxingThread      MintKind = "boxing_thread"
)

// ValidMintKinds defines allowed record kinds.
var ValidMintKinds = map[MintKind]bool{
	MintTask:              true,
	MintRegstDesc:         true,
	MintPersistenceThread: true,
	MintBoxingThread:      true,
}

// MintRecord is one allocation made while compiling a plan.
//
// ID holds the actor id for MintTask, the register descriptor id for
// MintRegstDesc, and the thread id for the pool kinds. MachineID and
// ThreadID are NoMachine/NoThread for MintRegstDesc; TaskSeq is -1 for
// everything except MintTask.
type MintRecord struct {
	Seq       int64     `json:"seq"`
	Kind      MintKind  `json:"kind"`
	ID        int64     `json:"id"`
	MachineID MachineID `json:"machine_id"`
	ThreadID  ThreadID  `json:"thread_id"`
	TaskSeq   int64     `json:"task_seq"`
}

// PlanManifest is the frozen record of every id a plan compilation minted.
// It is an export for inspection; it is never used to resume allocation.
type PlanManifest struct {
	PlanToken       string       `json:"plan_token"`
	ManifestVersion string       `json:"manifest_version"`
	ManagerVersion  string       `json:"manager_version"`
	Cluster         ClusterSpec  `json:"cluster"`
	Records         []MintRecord `json:"records"`
	Hash            string       `json:"hash"`
}

// CanonicalMap converts the manifest, minus Hash, into plain values that
// MarshalCanonical accepts.
func (m *PlanManifest) CanonicalMap() map[string]any {
	records := make([]any, len(m.Records))
	for i, r := range m.Records {
		rec := map[string]any{
			"seq":  r.Seq,
			"kind": string(r.Kind),
			"id":   r.ID,
		}
		if r.Kind != MintRegstDesc {
			rec["machine_id"] = int64(r.MachineID)
			rec["thread_id"] = int64(r.ThreadID)
		}
		if r.Kind == MintTask {
			rec["task_seq"] = r.TaskSeq
		}
		records[i] = rec
	}

	return map[string]any{
		"plan_token":       m.PlanToken,
		"manifest_version": m.ManifestVersion,
		"manager_version":  m.ManagerVersion,
		"cluster":          m.Cluster.canonicalMap(),
		"records":          records,
	}
}

func (c ClusterSpec) canonicalMap() map[string]any {
	machines := make([]any, len(c.Machines))
	for i, e := range c.Machines {
		entry := map[string]any{"name": e.Name}
		if e.Rank != nil {
			entry["rank"] = *e.Rank
		}
		machines[i] = entry
	}
	types := make([]any, len(c.DeviceTypes))
	for i, d := range c.DeviceTypes {
		types[i] = d.String()
	}
	return map[string]any{
		"machines":              machines,
		"device_count":          c.DeviceCount,
		"device_types":          types,
		"persistence_pool_size": c.PersistencePoolSize,
		"boxing_pool_size":      c.BoxingPoolSize,
	}
}

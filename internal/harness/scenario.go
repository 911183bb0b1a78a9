package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/idmgr/internal/ir"
)

// Scenario defines a plan compilation scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Cluster is an inline cluster descriptor.
	Cluster *ir.ClusterSpec `yaml:"cluster,omitempty"`

	// ClusterSpec is a path to a CUE cluster descriptor, relative to the
	// scenario file. Exactly one of Cluster and ClusterSpec is set.
	ClusterSpec string `yaml:"cluster_spec,omitempty"`

	// PlanToken is a fixed plan token for deterministic manifests.
	// If empty, defaults to "test-plan-default".
	PlanToken string `yaml:"plan_token,omitempty"`

	// ExpectInitError is the error code Manager construction must fail
	// with. Scenarios that set it have no steps.
	ExpectInitError string `yaml:"expect_init_error,omitempty"`

	// Steps run in order against one Manager.
	Steps []Step `yaml:"steps"`

	// Assertions validate the frozen manifest.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one call into the Manager or its Decoder.
type Step struct {
	// Op selects the operation; see the Op constants.
	Op string `yaml:"op"`

	// Name is the machine name (machine_id).
	Name string `yaml:"name,omitempty"`

	// Machine is the machine id argument.
	Machine *int64 `yaml:"machine,omitempty"`

	// Thread is the thread id argument.
	Thread *int64 `yaml:"thread,omitempty"`

	// ID is the actor id argument (decode).
	ID *int64 `yaml:"id,omitempty"`

	// Expect checks the outcome. If nil, the step must simply succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies a step's expected outcome.
type Expect struct {
	// Value is compared with the step's primary result.
	Value any `yaml:"value,omitempty"`

	// Fields is a subset match against the step's decoded fields.
	Fields map[string]any `yaml:"fields,omitempty"`

	// Error is the expected error code, e.g. NOT_FOUND.
	Error string `yaml:"error,omitempty"`
}

// Step operations.
const (
	OpMachineID           = "machine_id"
	OpMachineName         = "machine_name"
	OpAllocatePersistence = "allocate_persistence"
	OpAllocateBoxing      = "allocate_boxing"
	OpCommNet             = "comm_net"
	OpNewTask             = "new_task"
	OpNewRegstDesc        = "new_regst_desc"
	OpDeviceTypeOfThread  = "device_type_of_thread"
	OpDecode              = "decode"
	OpFreeze              = "freeze"
)

// Assertion validates the frozen manifest.
type Assertion struct {
	// Type specifies the assertion type:
	// - "record_count": Count records of Kind (optionally on Machine)
	// - "record_order": Check record kinds appear in this order
	// - "unique_ids": Every task id in the manifest is distinct
	// - "ledger_actors": Write the manifest to a ledger and count the
	//   task records stored for Machine
	Type string `yaml:"type"`

	// Kind is the mint kind (record_count).
	Kind string `yaml:"kind,omitempty"`

	// Machine restricts record_count and selects the machine for
	// ledger_actors.
	Machine *int64 `yaml:"machine,omitempty"`

	// Count is the expected number of records.
	Count int `yaml:"count,omitempty"`

	// Kinds is the expected kind order (record_order).
	Kinds []string `yaml:"kinds,omitempty"`
}

// Assertion type constants.
const (
	AssertRecordCount  = "record_count"
	AssertRecordOrder  = "record_order"
	AssertUniqueIDs    = "unique_ids"
	AssertLedgerActors = "ledger_actors"
)

var validOps = map[string]bool{
	OpMachineID:           true,
	OpMachineName:         true,
	OpAllocatePersistence: true,
	OpAllocateBoxing:      true,
	OpCommNet:             true,
	OpNewTask:             true,
	OpNewRegstDesc:        true,
	OpDeviceTypeOfThread:  true,
	OpDecode:              true,
	OpFreeze:              true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A relative cluster_spec path is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Reject unknown fields (catches typos like "step:" vs "steps:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.ClusterSpec != "" && !filepath.IsAbs(scenario.ClusterSpec) {
		scenario.ClusterSpec = filepath.Join(filepath.Dir(path), scenario.ClusterSpec)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if (s.Cluster == nil) == (s.ClusterSpec == "") {
		return fmt.Errorf("exactly one of cluster and cluster_spec is required")
	}

	if s.ClusterSpec != "" {
		if _, err := os.Stat(s.ClusterSpec); os.IsNotExist(err) {
			return fmt.Errorf("cluster spec not found: %s", s.ClusterSpec)
		}
	}

	if s.ExpectInitError != "" {
		if len(s.Steps) > 0 || len(s.Assertions) > 0 {
			return fmt.Errorf("expect_init_error scenarios cannot have steps or assertions")
		}
		return nil
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep checks that a step names a known op and carries its arguments.
func validateStep(index int, s *Step) error {
	if s.Op == "" {
		return fmt.Errorf("steps[%d]: op is required", index)
	}
	if !validOps[s.Op] {
		return fmt.Errorf("steps[%d]: unknown op %q", index, s.Op)
	}

	switch s.Op {
	case OpMachineID:
		if s.Name == "" {
			return fmt.Errorf("steps[%d]: name is required for %s", index, s.Op)
		}
	case OpMachineName, OpAllocatePersistence, OpAllocateBoxing:
		if s.Machine == nil {
			return fmt.Errorf("steps[%d]: machine is required for %s", index, s.Op)
		}
	case OpNewTask:
		if s.Machine == nil || s.Thread == nil {
			return fmt.Errorf("steps[%d]: machine and thread are required for %s", index, s.Op)
		}
	case OpDeviceTypeOfThread:
		if s.Thread == nil {
			return fmt.Errorf("steps[%d]: thread is required for %s", index, s.Op)
		}
	case OpDecode:
		if s.ID == nil {
			return fmt.Errorf("steps[%d]: id is required for %s", index, s.Op)
		}
	}

	if s.Expect != nil && s.Expect.Error != "" && (s.Expect.Value != nil || len(s.Expect.Fields) > 0) {
		return fmt.Errorf("steps[%d].expect: error cannot be combined with value or fields", index)
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertRecordCount:
		if !ir.ValidMintKinds[ir.MintKind(a.Kind)] {
			return fmt.Errorf("assertions[%d]: unknown kind %q for record_count", index, a.Kind)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for record_count", index)
		}
	case AssertRecordOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for record_order", index)
		}
	case AssertUniqueIDs:
	case AssertLedgerActors:
		if a.Machine == nil {
			return fmt.Errorf("assertions[%d]: machine is required for ledger_actors", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

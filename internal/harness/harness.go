package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/idmgr/internal/compiler"
	"github.com/roach88/idmgr/internal/idcodec"
	"github.com/roach88/idmgr/internal/idmgr"
	"github.com/roach88/idmgr/internal/ir"
	"github.com/roach88/idmgr/internal/testutil"
)

// Harness drives one scenario against one Manager.
type Harness struct {
	manager  *idmgr.Manager
	decoder  *idmgr.Decoder
	manifest *ir.PlanManifest
}

// Run executes a scenario and returns the result.
//
// Each scenario gets its own Manager with a fixed plan token, so runs are
// isolated and reproducible. Execution flow:
//  1. Resolve the cluster (inline or CUE descriptor)
//  2. Construct the Manager (or check the expected init error)
//  3. Execute steps, checking expect clauses
//  4. Freeze the plan if no step did
//  5. Evaluate assertions against the manifest
//
// A returned error means the scenario could not run at all; mismatches are
// reported through Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunWith(scenario)
}

// RunWith is Run with extra Manager options, applied after the harness
// defaults (discarded logs, the scenario's fixed plan token).
func RunWith(scenario *Scenario, opts ...idmgr.Option) (*Result, error) {
	spec, err := resolveCluster(scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult(scenario.Name)

	all := append([]idmgr.Option{
		idmgr.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		idmgr.WithTokenGenerator(testutil.NewFixedTokenGenerator(scenario.PlanToken)),
	}, opts...)
	m, err := idmgr.New(*spec, all...)
	if scenario.ExpectInitError != "" {
		got := string(ir.CodeOf(err))
		if got != scenario.ExpectInitError {
			result.AddError(fmt.Sprintf("init: expected error %s, got %s (%v)", scenario.ExpectInitError, describeCode(got), err))
		}
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create manager: %w", err)
	}

	h := &Harness{
		manager: m,
		decoder: m.Decoder(),
	}

	for i, step := range scenario.Steps {
		h.executeStep(i, step, result)
	}

	if h.manifest == nil {
		manifest, err := m.Freeze()
		if err != nil {
			return nil, fmt.Errorf("failed to freeze plan: %w", err)
		}
		h.manifest = manifest
	}
	result.Manifest = h.manifest

	for _, errMsg := range EvaluateAssertions(result.Manifest, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// RunAll runs independent scenarios concurrently, one Manager each.
// Results are returned in input order. The first scenario that cannot run
// cancels the rest.
func RunAll(ctx context.Context, scenarios []*Scenario) ([]*Result, error) {
	results := make([]*Result, len(scenarios))
	g, ctx := errgroup.WithContext(ctx)

	for i, s := range scenarios {
		i, s := i, s
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := Run(s)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", s.Name, err)
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func resolveCluster(scenario *Scenario) (*ir.ClusterSpec, error) {
	if scenario.Cluster != nil {
		return scenario.Cluster, nil
	}
	spec, err := compiler.LoadCluster(scenario.ClusterSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load cluster spec: %w", err)
	}
	return spec, nil
}

// executeStep runs one step and records its event and any mismatch.
func (h *Harness) executeStep(index int, step Step, result *Result) {
	event := StepEvent{Index: index, Op: step.Op}

	value, fields, err := h.call(step)
	if err != nil {
		event.Error = string(ir.CodeOf(err))
	} else {
		event.Value = value
		event.Fields = fields
	}
	result.Trace = append(result.Trace, event)

	for _, msg := range checkExpect(step, value, fields, err) {
		result.AddError(fmt.Sprintf("steps[%d] %s: %s", index, step.Op, msg))
	}
}

// call dispatches a step to the Manager or Decoder.
func (h *Harness) call(step Step) (any, map[string]any, error) {
	switch step.Op {
	case OpMachineID:
		id, err := h.manager.MachineID(step.Name)
		return int64(id), nil, err

	case OpMachineName:
		name, err := h.manager.MachineName(ir.MachineID(*step.Machine))
		return name, nil, err

	case OpAllocatePersistence:
		tid, err := h.manager.AllocatePersistenceThreadID(ir.MachineID(*step.Machine))
		return int64(tid), nil, err

	case OpAllocateBoxing:
		tid, err := h.manager.AllocateBoxingThreadID(ir.MachineID(*step.Machine))
		return int64(tid), nil, err

	case OpCommNet:
		return int64(h.manager.CommNetThreadID()), nil, nil

	case OpNewTask:
		id, err := h.manager.NewTaskID(ir.MachineID(*step.Machine), ir.ThreadID(*step.Thread))
		if err != nil {
			return nil, nil, err
		}
		f := idcodec.Decode(id)
		return int64(id), map[string]any{
			"machine_id": int64(f.MachineID),
			"thread_id":  f.Slot,
			"task_seq":   f.TaskSeq,
		}, nil

	case OpNewRegstDesc:
		id, err := h.manager.NewRegstDescID()
		return int64(id), nil, err

	case OpDeviceTypeOfThread:
		d, err := h.decoder.DeviceTypeFromThreadID(ir.ThreadID(*step.Thread))
		return d.String(), nil, err

	case OpDecode:
		info, err := h.decoder.Describe(ir.ActorID(*step.ID))
		if err != nil {
			return nil, nil, err
		}
		return idcodec.Format(info.ID), map[string]any{
			"machine_id":   int64(info.MachineID),
			"machine_name": info.MachineName,
			"thread_id":    int64(info.ThreadID),
			"category":     info.Category,
			"device_type":  info.DeviceType.String(),
			"task_seq":     info.TaskSeq,
		}, nil

	case OpFreeze:
		manifest, err := h.manager.Freeze()
		if err != nil {
			return nil, nil, err
		}
		h.manifest = manifest
		return int64(len(manifest.Records)), nil, nil
	}

	return nil, nil, fmt.Errorf("unknown op %q", step.Op)
}

// checkExpect compares a step outcome with its expect clause.
// Values are compared by their printed form so YAML ints match int64s.
func checkExpect(step Step, value any, fields map[string]any, err error) []string {
	exp := step.Expect
	if exp == nil || exp.Error == "" {
		if err != nil {
			return []string{fmt.Sprintf("unexpected error: %v", err)}
		}
	}
	if exp == nil {
		return nil
	}

	if exp.Error != "" {
		got := string(ir.CodeOf(err))
		if got != exp.Error {
			return []string{fmt.Sprintf("expected error %s, got %s", exp.Error, describeCode(got))}
		}
		return nil
	}

	var msgs []string
	if exp.Value != nil && fmt.Sprint(exp.Value) != fmt.Sprint(value) {
		msgs = append(msgs, fmt.Sprintf("value: expected %v, got %v", exp.Value, value))
	}

	keys := make([]string, 0, len(exp.Fields))
	for k := range exp.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		got, ok := fields[k]
		if !ok {
			msgs = append(msgs, fmt.Sprintf("field %s: not produced by %s", k, step.Op))
			continue
		}
		if fmt.Sprint(exp.Fields[k]) != fmt.Sprint(got) {
			msgs = append(msgs, fmt.Sprintf("field %s: expected %v, got %v", k, exp.Fields[k], got))
		}
	}
	return msgs
}

func describeCode(code string) string {
	if code == "" {
		return "no error"
	}
	return code
}

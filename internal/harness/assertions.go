package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/idmgr/internal/ir"
	"github.com/roach88/idmgr/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string          // Assertion type for categorization
	Expected string          // Human-readable expected outcome
	Actual   string          // Human-readable actual outcome
	Records  []ir.MintRecord // Manifest records for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Records) > 0 {
		fmt.Fprintf(&buf, "\nRecords:\n")
		for _, r := range e.Records {
			fmt.Fprintf(&buf, "  [%d] %s id=%d machine=%d thread=%d\n", r.Seq, r.Kind, r.ID, r.MachineID, r.ThreadID)
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure messages.
func EvaluateAssertions(m *ir.PlanManifest, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(m, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(m *ir.PlanManifest, a Assertion) error {
	switch a.Type {
	case AssertRecordCount:
		return assertRecordCount(m.Records, a)
	case AssertRecordOrder:
		return assertRecordOrder(m.Records, a)
	case AssertUniqueIDs:
		return assertUniqueIDs(m.Records)
	case AssertLedgerActors:
		return assertLedgerActors(m, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertRecordCount checks the number of records of one kind, optionally
// restricted to one machine.
func assertRecordCount(records []ir.MintRecord, a Assertion) error {
	count := 0
	for _, r := range records {
		if string(r.Kind) != a.Kind {
			continue
		}
		if a.Machine != nil && int64(r.MachineID) != *a.Machine {
			continue
		}
		count++
	}

	if count != a.Count {
		expected := fmt.Sprintf("%d %s records", a.Count, a.Kind)
		if a.Machine != nil {
			expected += fmt.Sprintf(" on machine %d", *a.Machine)
		}
		return &AssertionError{
			Type:     AssertRecordCount,
			Expected: expected,
			Actual:   fmt.Sprintf("%d", count),
			Records:  records,
		}
	}
	return nil
}

// assertRecordOrder checks that the kinds appear in order. Other records
// may appear in between.
func assertRecordOrder(records []ir.MintRecord, a Assertion) error {
	next := 0
	for _, r := range records {
		if next < len(a.Kinds) && string(r.Kind) == a.Kinds[next] {
			next++
		}
	}

	if next != len(a.Kinds) {
		return &AssertionError{
			Type:     AssertRecordOrder,
			Expected: strings.Join(a.Kinds, " -> "),
			Actual:   fmt.Sprintf("matched %d of %d kinds", next, len(a.Kinds)),
			Records:  records,
		}
	}
	return nil
}

// assertUniqueIDs checks that no two task records carry the same actor id.
func assertUniqueIDs(records []ir.MintRecord) error {
	seen := make(map[int64]int64)
	for _, r := range records {
		if r.Kind != ir.MintTask {
			continue
		}
		if prev, ok := seen[r.ID]; ok {
			return &AssertionError{
				Type:     AssertUniqueIDs,
				Expected: "distinct task ids",
				Actual:   fmt.Sprintf("id %d minted at seq %d and %d", r.ID, prev, r.Seq),
				Records:  records,
			}
		}
		seen[r.ID] = r.Seq
	}
	return nil
}

// assertLedgerActors exports the manifest to an in-memory ledger and counts
// the task records stored for one machine.
func assertLedgerActors(m *ir.PlanManifest, a Assertion) error {
	st, err := store.Open(":memory:")
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.WriteManifest(ctx, m); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}

	actors, err := st.ActorsOnMachine(ctx, m.PlanToken, ir.MachineID(*a.Machine))
	if err != nil {
		return fmt.Errorf("query ledger: %w", err)
	}

	if len(actors) != a.Count {
		return &AssertionError{
			Type:     AssertLedgerActors,
			Expected: fmt.Sprintf("%d actors on machine %d", a.Count, *a.Machine),
			Actual:   fmt.Sprintf("%d", len(actors)),
			Records:  actors,
		}
	}
	return nil
}

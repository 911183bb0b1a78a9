package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/idmgr/internal/ir"
)

// ManifestSnapshot is the canonical JSON of a scenario's frozen manifest,
// hash excluded. The hash is derived from the same bytes, so snapshotting
// it adds nothing.
func ManifestSnapshot(scenarioName string, m *ir.PlanManifest) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("scenario %s produced no manifest", scenarioName)
	}
	return ir.MarshalCanonical(map[string]any{
		"scenario_name": scenarioName,
		"manifest":      m.CanonicalMap(),
	})
}

// RunWithGolden executes a scenario and compares its manifest against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the manifest doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's manifest against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot, err := ManifestSnapshot(scenarioName, result.Manifest)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, snapshot)

	return nil
}

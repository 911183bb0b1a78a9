package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/idmgr/internal/harness"
	"github.com/roach88/idmgr/internal/idmgr"
	"github.com/roach88/idmgr/internal/metrics"
	"github.com/roach88/idmgr/internal/store"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	DB          string // ledger path; empty skips the export
	MetricsFile string // Prometheus textfile path; empty skips it
}

// PlanResult summarizes a compiled plan.
type PlanResult struct {
	Scenario  string   `json:"scenario"`
	PlanToken string   `json:"plan_token"`
	Hash      string   `json:"hash"`
	Records   int      `json:"records"`
	Pass      bool     `json:"pass"`
	Errors    []string `json:"errors,omitempty"`
	Ledger    string   `json:"ledger,omitempty"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan <scenario.yaml>",
		Short: "Compile a plan scenario into a manifest",
		Long: `Run a plan scenario through the id manager and freeze the result.

The frozen manifest can be exported to a SQLite ledger for later
inspection, and the mint counters written as a Prometheus textfile.

Examples:
  idmgr plan ./scenarios/two_machines.yaml
  idmgr plan ./scenarios/two_machines.yaml --db plans.db
  idmgr plan ./scenarios/two_machines.yaml --metrics-file idmgr.prom`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "export the manifest to this SQLite ledger")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write mint metrics to this Prometheus textfile")

	return cmd
}

func runPlan(opts *PlanOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLoadFailed, err)
	}

	mt := metrics.New()
	result, err := harness.RunWith(scenario,
		idmgr.WithLogger(newLogger(opts.RootOptions, cmd)),
		idmgr.WithMetrics(mt),
	)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, err)
	}

	out := PlanResult{
		Scenario: scenario.Name,
		Pass:     result.Pass,
		Errors:   result.Errors,
	}
	if m := result.Manifest; m != nil {
		out.PlanToken = m.PlanToken
		out.Hash = m.Hash
		out.Records = len(m.Records)
	}

	if opts.DB != "" && result.Manifest != nil {
		if err := exportManifest(cmd.Context(), opts.DB, result); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeLedger, err)
		}
		out.Ledger = opts.DB
		formatter.VerboseLog("Wrote plan %s to %s", out.PlanToken, opts.DB)
	}

	if opts.MetricsFile != "" {
		if err := mt.WriteTextfile(opts.MetricsFile); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err)
		}
		formatter.VerboseLog("Wrote metrics to %s", opts.MetricsFile)
	}

	if formatter.JSON() {
		if err := formatter.Success(out); err != nil {
			return err
		}
	} else {
		outputPlanText(formatter, out)
	}

	if !out.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("plan %s failed %d expectation(s)", out.Scenario, len(out.Errors)))
	}
	return nil
}

func exportManifest(ctx context.Context, path string, result *harness.Result) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.WriteManifest(ctx, result.Manifest)
}

func outputPlanText(formatter *Formatter, r PlanResult) {
	w := formatter.Out
	mark := "✓"
	if !r.Pass {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s\n", mark, r.Scenario)
	if r.PlanToken != "" {
		fmt.Fprintf(w, "  plan:    %s\n", r.PlanToken)
		fmt.Fprintf(w, "  records: %d\n", r.Records)
		fmt.Fprintf(w, "  hash:    %s\n", r.Hash)
	}
	if r.Ledger != "" {
		fmt.Fprintf(w, "  ledger:  %s\n", r.Ledger)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

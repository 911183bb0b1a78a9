package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/idmgr/internal/idcodec"
	"github.com/roach88/idmgr/internal/ir"
	"github.com/roach88/idmgr/internal/store"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	DB      string
	Machine int64 // -1 means any machine
	Thread  int64 // -1 means any thread
	Kind    string
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect --db <ledger> [plan-token]",
		Short: "Inspect plans stored in a ledger",
		Long: `List the plans in a SQLite ledger, or show one plan's mint records.

Records can be narrowed by --kind, --machine and --thread. Register
descriptors have no placement and are dropped by --machine and --thread.

Examples:
  idmgr inspect --db plans.db
  idmgr inspect --db plans.db 0190c3c2-...
  idmgr inspect --db plans.db 0190c3c2-... --kind task --machine 1`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			token := ""
			if len(args) == 1 {
				token = args[0]
			}
			return runInspect(opts, token, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "path to the SQLite ledger (required)")
	cmd.Flags().Int64Var(&opts.Machine, "machine", -1, "only show records on this machine id")
	cmd.Flags().Int64Var(&opts.Thread, "thread", -1, "only show records on this thread slot")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only show records of this kind (task|regst_desc|persistence_thread|boxing_thread)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runInspect(opts *InspectOptions, token string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	filter, err := opts.recordFilter()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}

	// Opening would create an empty ledger; a typo should fail instead.
	if _, err := os.Stat(opts.DB); os.IsNotExist(err) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Errorf("ledger not found: %s", opts.DB))
	}

	st, err := store.Open(opts.DB)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLedger, err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if token == "" {
		plans, err := st.ListPlans(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeLedger, err)
		}
		return outputPlanList(formatter, plans)
	}

	// An unfiltered read also verifies the stored hash.
	var records []ir.MintRecord
	if filter == (store.RecordFilter{}) {
		var m *ir.PlanManifest
		if m, err = st.ReadManifest(ctx, token); m != nil {
			records = m.Records
		}
	} else {
		records, err = st.QueryRecords(ctx, token, filter)
	}
	if errors.Is(err, store.ErrPlanNotFound) {
		return formatter.Fail(ExitFailure, ErrCodeNotFound, err)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLedger, err)
	}

	if formatter.JSON() {
		return formatter.Success(records)
	}
	return outputRecords(formatter, records)
}

// recordFilter turns the flags into a ledger filter.
func (o *InspectOptions) recordFilter() (store.RecordFilter, error) {
	var f store.RecordFilter
	if o.Kind != "" {
		kind := ir.MintKind(o.Kind)
		if !ir.ValidMintKinds[kind] {
			return f, fmt.Errorf("unknown record kind %q", o.Kind)
		}
		f.Kind = kind
	}
	if o.Machine >= 0 {
		m := ir.MachineID(o.Machine)
		f.Machine = &m
	}
	if o.Thread >= 0 {
		t := ir.ThreadID(o.Thread)
		f.Thread = &t
	}
	return f, nil
}

func outputPlanList(formatter *Formatter, plans []store.PlanSummary) error {
	if formatter.JSON() {
		return formatter.Success(plans)
	}
	if len(plans) == 0 {
		fmt.Fprintln(formatter.Out, "No plans in ledger.")
		return nil
	}

	tw := tabwriter.NewWriter(formatter.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAN\tRECORDS\tVERSION\tHASH")
	for _, p := range plans {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", p.PlanToken, p.Records, p.ManagerVersion, p.Hash)
	}
	return tw.Flush()
}

func outputRecords(formatter *Formatter, records []ir.MintRecord) error {
	tw := tabwriter.NewWriter(formatter.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tKIND\tID\tMACHINE\tTHREAD")
	for _, r := range records {
		id := fmt.Sprintf("%d", r.ID)
		if r.Kind == ir.MintTask {
			id = fmt.Sprintf("%d (%s)", r.ID, idcodec.Format(ir.ActorID(r.ID)))
		}
		machine, thread := "-", "-"
		if r.Kind != ir.MintRegstDesc {
			machine = fmt.Sprintf("%d", r.MachineID)
			thread = fmt.Sprintf("%d", r.ThreadID)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.Seq, r.Kind, id, machine, thread)
	}
	return tw.Flush()
}

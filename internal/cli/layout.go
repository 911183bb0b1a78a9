package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/idmgr/internal/idcodec"
	"github.com/roach88/idmgr/internal/idmgr"
	"github.com/roach88/idmgr/internal/machine"
	"github.com/roach88/idmgr/internal/thread"
)

// LayoutResult is the JSON form of the layout command.
type LayoutResult struct {
	Layout   string            `json:"layout"`
	Machines []machine.Machine `json:"machines"`
	Slots    []thread.Slot     `json:"slots"`
	Capacity Capacity          `json:"capacity"`
}

// Capacity reports how much of each id field a cluster uses.
type Capacity struct {
	Machines       int   `json:"machines"`
	MaxMachines    int   `json:"max_machines"`
	Slots          int   `json:"slots"`
	MaxSlots       int   `json:"max_slots"`
	TasksPerThread int64 `json:"tasks_per_thread"`
}

// NewLayoutCommand creates the layout command.
func NewLayoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "layout <cluster.cue|dir>",
		Short: "Show the per-machine thread slot layout",
		Long: `Show the thread slot layout every machine shares: compute slots,
the persistence and boxing pools, the comm-net slot, and how much of the
actor id capacity the cluster uses.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayout(rootOpts, args[0], cmd)
		},
	}
}

func runLayout(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	spec, err := loadValidCluster(formatter, path)
	if err != nil {
		return err
	}
	dec, err := idmgr.NewDecoder(*spec)
	if err != nil {
		return WrapExitError(ExitFailure, "invalid cluster", err)
	}

	l := dec.Layout()
	result := LayoutResult{
		Layout:   l.String(),
		Machines: dec.Machines(),
		Slots:    l.Slots(),
		Capacity: Capacity{
			Machines:       len(dec.Machines()),
			MaxMachines:    machine.MaxMachines,
			Slots:          l.SlotCount(),
			MaxSlots:       thread.MaxSlots,
			TasksPerThread: idcodec.MaxTaskSeq + 1,
		},
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	return outputLayoutText(formatter, result)
}

func outputLayoutText(formatter *Formatter, r LayoutResult) error {
	w := formatter.Out
	fmt.Fprintf(w, "Layout: %s\n\n", r.Layout)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOT\tCATEGORY\tDEVICE")
	for _, s := range r.Slots {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", s.ThreadID, s.Category, s.DeviceType)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Machines:")
	for _, m := range r.Machines {
		fmt.Fprintf(w, "  %d  %s\n", m.ID, m.Name)
	}

	c := r.Capacity
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Capacity:")
	fmt.Fprintf(w, "  machines          %s of %s\n", humanize.Comma(int64(c.Machines)), humanize.Comma(int64(c.MaxMachines)))
	fmt.Fprintf(w, "  thread slots      %s of %s\n", humanize.Comma(int64(c.Slots)), humanize.Comma(int64(c.MaxSlots)))
	fmt.Fprintf(w, "  task ids/thread   %s\n", humanize.Comma(c.TasksPerThread))
	return nil
}

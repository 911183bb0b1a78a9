package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/idmgr/internal/idmgr"
	"github.com/roach88/idmgr/internal/ir"
)

// DecodeResult is one decoded id. Error is set instead of Actor when the
// id does not resolve against the cluster.
type DecodeResult struct {
	Input string           `json:"input"`
	Actor *idmgr.ActorInfo `json:"actor,omitempty"`
	Error *CLIError        `json:"error,omitempty"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <cluster.cue|dir> <actor-id>...",
		Short: "Decode actor ids against a cluster",
		Long: `Decode 64-bit actor ids into machine, thread slot and task sequence,
and resolve the machine name and device type through the cluster.

Exit codes:
  0 - Every id decoded
  1 - One or more ids did not resolve
  2 - Command error (invalid paths, unparsable ids)`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(rootOpts, args[0], args[1:], cmd)
		},
	}
}

func runDecode(opts *RootOptions, path string, ids []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	spec, err := loadValidCluster(formatter, path)
	if err != nil {
		return err
	}
	dec, err := idmgr.NewDecoder(*spec)
	if err != nil {
		return WrapExitError(ExitFailure, "invalid cluster", err)
	}

	results := make([]DecodeResult, 0, len(ids))
	failed := 0
	for _, raw := range ids {
		n, err := strconv.ParseInt(raw, 0, 64)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Errorf("invalid actor id %q", raw))
		}

		info, err := dec.Describe(ir.ActorID(n))
		if err != nil {
			failed++
			results = append(results, DecodeResult{
				Input: raw,
				Error: &CLIError{Code: string(ir.CodeOf(err)), Message: err.Error()},
			})
			continue
		}
		results = append(results, DecodeResult{Input: raw, Actor: &info})
	}

	if formatter.JSON() {
		if err := formatter.Success(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Error != nil {
				fmt.Fprintf(formatter.Out, "✗ %s: %s\n", r.Input, r.Error.Message)
				continue
			}
			a := r.Actor
			fmt.Fprintf(formatter.Out, "%s  machine=%d(%s) thread=%d(%s, %s) task_seq=%d\n",
				r.Input, a.MachineID, a.MachineName, a.ThreadID, a.Category, a.DeviceType, a.TaskSeq)
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d id(s) did not resolve", failed))
	}
	return nil
}

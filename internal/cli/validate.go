package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/idmgr/internal/compiler"
	"github.com/roach88/idmgr/internal/ir"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Machines int                        `json:"machines,omitempty"`
	Slots    int                        `json:"slots,omitempty"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <cluster.cue|dir>",
		Short: "Validate a cluster descriptor",
		Long: `Validate a CUE cluster descriptor.

Reports every problem at once: machine names and ranks, pool sizes,
the device type table and whether the thread layout fits the 8-bit
device slot of an actor id.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	spec, err := LoadCluster(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, loadErrorCode(err), err)
	}

	formatter.VerboseLog("Loaded cluster with %d machine(s) from %s", len(spec.Machines), path)

	if errs := compiler.Validate(spec); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	return outputValidateSuccess(formatter, spec)
}

func slotCount(spec *ir.ClusterSpec) int {
	return spec.DeviceCount + spec.PersistencePoolSize + spec.BoxingPoolSize + 1
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *Formatter, spec *ir.ClusterSpec) error {
	if formatter.JSON() {
		return formatter.Success(ValidationResult{
			Valid:    true,
			Machines: len(spec.Machines),
			Slots:    slotCount(spec),
		})
	}

	fmt.Fprintf(formatter.Out, "✓ Cluster valid: %d machine(s), %d thread slot(s)\n", len(spec.Machines), slotCount(spec))
	return nil
}

// outputValidationErrors lists every validation error and fails with
// ExitFailure.
func outputValidationErrors(formatter *Formatter, errs []compiler.ValidationError) error {
	failed := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.JSON() {
		if err := formatter.Respond(Response{
			Status: statusError,
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error:  &CLIError{Code: errs[0].Code, Message: errs[0].Message},
		}); err != nil {
			return err
		}
		return failed
	}

	fmt.Fprintln(formatter.Out, "✗ Validation failed")
	fmt.Fprintln(formatter.Out)
	for _, e := range errs {
		fmt.Fprintf(formatter.Out, "  %s: %s: %s\n", e.Code, e.Field, e.Message)
	}
	return failed
}

// loadValidCluster loads a descriptor and fails on any validation error.
// Shared by commands that need a usable cluster.
func loadValidCluster(formatter *Formatter, path string) (*ir.ClusterSpec, error) {
	spec, err := LoadCluster(path)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, loadErrorCode(err), err)
	}
	if errs := compiler.Validate(spec); len(errs) > 0 {
		return nil, outputValidationErrors(formatter, errs)
	}
	return spec, nil
}

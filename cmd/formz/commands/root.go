package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zoobzio/capitan"

	"github.com/zoobzio/formz"
)

var (
	formPath   string
	scriptPath string
	verbose    bool
)

// Execute runs the formz command line.
func Execute() error {
	root := &cobra.Command{
		Use:          "formz",
		Short:        "Replay form commands and print the derived states",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				hookSignals(cmd.ErrOrStderr())
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			capitan.Shutdown()
		},
	}

	root.PersistentFlags().StringVarP(&formPath, "form", "f", "", "form definition (YAML or JSON)")
	root.PersistentFlags().StringVarP(&scriptPath, "script", "s", "", "command script (YAML or JSON)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log store signals to stderr")

	root.AddCommand(replayCmd(), watchCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return root.ExecuteContext(ctx)
}

func hookSignals(w io.Writer) {
	capitan.Hook(formz.ValidationStarted, func(_ context.Context, e *capitan.Event) {
		element, _ := formz.KeyElement.From(e)
		fmt.Fprintf(w, "[VALIDATING] %s\n", element)
	})
	capitan.Hook(formz.ValidationSettled, func(_ context.Context, e *capitan.Event) {
		element, _ := formz.KeyElement.From(e)
		verdict, _ := formz.KeyVerdict.From(e)
		took, _ := formz.KeyDuration.From(e)
		fmt.Fprintf(w, "[SETTLED] %s %s in %s\n", element, verdict, took)
	})
	capitan.Hook(formz.ValidationCancelled, func(_ context.Context, e *capitan.Event) {
		element, _ := formz.KeyElement.From(e)
		fmt.Fprintf(w, "[CANCELLED] %s\n", element)
	})
	capitan.Hook(formz.ValidationPanicked, func(_ context.Context, e *capitan.Event) {
		element, _ := formz.KeyElement.From(e)
		errMsg, _ := formz.KeyError.From(e)
		fmt.Fprintf(w, "[PANIC] %s: %s\n", element, errMsg)
	})
	capitan.Hook(formz.StoreStopped, func(_ context.Context, e *capitan.Event) {
		element, _ := formz.KeyElement.From(e)
		kind, _ := formz.KeyKind.From(e)
		fmt.Fprintf(w, "[STOPPED] %s %s\n", kind, element)
	})
}

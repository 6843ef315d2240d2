package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zoobzio/formz"
)

var errMissingInput = errors.New("--form and --script are required")

func replayCmd() *cobra.Command {
	var (
		final bool
		quiet time.Duration
	)
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a script against a form and print published root states as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			def, script, err := load(formPath, scriptPath)
			if err != nil {
				return err
			}
			r := newRunner(cmd.OutOrStdout())
			r.final = final
			r.quiet = quiet
			return r.run(cmd.Context(), def, script)
		},
	}
	cmd.Flags().BoolVar(&final, "final", false, "print only the settled final root state")
	cmd.Flags().DurationVar(&quiet, "quiet", 100*time.Millisecond, "quiet window before the root counts as settled")
	return cmd
}

// load reads and decodes the form definition and the script.
func load(formFile, scriptFile string) (formz.Definition, Script, error) {
	if formFile == "" || scriptFile == "" {
		return formz.Definition{}, Script{}, errMissingInput
	}

	formData, err := os.ReadFile(formFile)
	if err != nil {
		return formz.Definition{}, Script{}, fmt.Errorf("read form: %w", err)
	}
	def, err := formz.DecodeDefinition(formData, nil)
	if err != nil {
		return formz.Definition{}, Script{}, err
	}

	scriptData, err := os.ReadFile(scriptFile)
	if err != nil {
		return formz.Definition{}, Script{}, fmt.Errorf("read script: %w", err)
	}
	script, err := DecodeScript(scriptData)
	if err != nil {
		return formz.Definition{}, Script{}, err
	}
	return def, script, nil
}

package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	var quiet time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Replay the script with --final whenever the form or script changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if formPath == "" || scriptPath == "" {
				return errMissingInput
			}
			return watch(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), quiet)
		},
	}
	cmd.Flags().DurationVar(&quiet, "quiet", 100*time.Millisecond, "quiet window before the root counts as settled")
	return cmd
}

// watch replays once, then again after every write to the form or script,
// until ctx is done. Replay errors are reported and watching continues.
// The parent directories are watched so editors that save by renaming a
// temporary file over the original keep triggering replays.
func watch(ctx context.Context, out, errOut io.Writer, quiet time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	watched := map[string]bool{
		filepath.Clean(formPath):   true,
		filepath.Clean(scriptPath): true,
	}
	dirs := map[string]bool{}
	for path := range watched {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("failed to watch file %s: %w", path, err)
		}
		dir := filepath.Dir(path)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	replayOnce := func() {
		def, script, err := load(formPath, scriptPath)
		if err == nil {
			r := newRunner(out)
			r.final = true
			r.quiet = quiet
			err = r.run(ctx, def, script)
		}
		if err != nil && ctx.Err() == nil {
			fmt.Fprintf(errOut, "[ERROR] %v\n", err)
		}
	}

	replayOnce()
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(event.Name)] {
				continue
			}
			// Only replay on write or create events
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			replayOnce()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(errOut, "[WATCH] %v\n", err)
		}
	}
}

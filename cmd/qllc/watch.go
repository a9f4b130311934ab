package main

import (
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"qllc/internal/project"
)

var watchCmd = &cobra.Command{
	Use:   "watch [flags] [units...]",
	Short: "Rebuild whenever an input changes",
	RunE:  watchExecution,
}

const watchDebounce = 150 * time.Millisecond

func init() {
	addBuildFlags(watchCmd)
}

func watchExecution(cmd *cobra.Command, args []string) error {
	s, cleanup, err := newSession(cmd, args, true)
	if err != nil {
		return err
	}
	defer cleanup()
	// прогресс-бар мешает непрерывному выводу
	s.set.ui = uiModeOff

	ctx := cmd.Context()
	stderr := cmd.ErrOrStderr()
	if _, err := s.compile(ctx); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	// editors replace files, so the directories are watched
	watched := make(map[string]bool)
	for _, in := range s.set.inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return err
		}
		watched[abs] = true
	}
	var dirs []string
	for path := range watched {
		if dir := filepath.Dir(path); !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	last, _ := project.HashFiles(s.set.inputs)
	fmt.Fprintf(stderr, "watching %d units, press Ctrl+C to stop\n", len(watched))

	debounce := time.NewTimer(watchDebounce)
	debounce.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !watched[abs] {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				debounce.Reset(watchDebounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(stderr, "watch: %v\n", err)
		case <-debounce.C:
			digest, err := project.HashFiles(s.set.inputs)
			if err == nil && digest == last {
				continue
			}
			last = digest
			fmt.Fprintf(stderr, "\n%s rebuilding\n", time.Now().Format("15:04:05"))
			if _, err := s.compile(ctx); err != nil {
				return err
			}
		}
	}
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package commander

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the create+rename event bursts an atomic record
// install produces into a single reload.
const reloadDebounce = 250 * time.Millisecond

// WatchCalibrationFile reloads the Commander's threshold whenever the
// calibration record file changes on disk.
//
// Description:
//
//	Watches the record's parent directory rather than the file itself,
//	because the store installs records by rename and a watch on the old
//	inode would go stale after the first update. Blocks until ctx is
//	cancelled.
//
// Inputs:
//   - ctx: Cancels the watch.
//   - c: The Commander to reload. Must not be nil.
//   - path: The calibration record file path.
//   - logger: Receives watch events. Nil means slog.Default.
//
// Outputs:
//   - error: Non-nil when the watcher cannot be established. Reload
//     failures after a change are logged, not returned.
func WatchCalibrationFile(ctx context.Context, c *Commander, path string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create calibration watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch calibration dir %s: %w", dir, err)
	}
	target := filepath.Clean(path)

	logger.Info("watching calibration record", "path", target)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	// Reloads run on the debounce timer's goroutine. Commander.Reload is
	// safe for concurrent use so no further synchronization is needed.
	scheduleReload := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(reloadDebounce, func() {
			if err := c.Reload(); err != nil {
				logger.Warn("threshold reload failed after record change", "error", err)
				return
			}
			logger.Info("threshold reloaded after record change", "threshold", c.Threshold())
		})
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("calibration watcher closed")
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("calibration watcher closed")
			}
			logger.Warn("calibration watcher error", "error", err)
		}
	}
}

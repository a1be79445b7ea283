// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package runctx sets up the per-run identity and working
// directories: a UUID-tagged temp directory for worker scratch files
// and a matching log directory, created up front so every later
// stage can assume they exist.
package runctx

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Context holds the directories and identity of one run.
type Context struct {
	RunID   string
	TempDir string
	LogDir  string
}

// New allocates a run ID and creates its temp and log directories
// under tempBase and logBase (each defaulting to "seqmatch_tmp" and
// "seqmatch_logs" respectively when empty).
func New(tempBase, logBase string) (*Context, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("runctx: generate run id: %w", err)
	}
	runID := id.String()

	if tempBase == "" {
		tempBase = "seqmatch_tmp"
	}
	if logBase == "" {
		logBase = "seqmatch_logs"
	}

	ctx := &Context{
		RunID:   runID,
		TempDir: filepath.Join(tempBase, runID),
		LogDir:  filepath.Join(logBase, runID),
	}

	if err := os.MkdirAll(ctx.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("runctx: create temp dir %s: %w", ctx.TempDir, err)
	}
	if err := os.MkdirAll(ctx.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("runctx: create log dir %s: %w", ctx.LogDir, err)
	}

	return ctx, nil
}

// WorkerTemp returns the path for worker w's scratch file named name
// (e.g. "R1.thread3.fastq.sz").
func (c *Context) WorkerTemp(w int, name string) string {
	return filepath.Join(c.TempDir, fmt.Sprintf("w%d.%s", w, name))
}

// Cleanup removes the temp directory. Callers that want to preserve
// scratch files for debugging should simply not call Cleanup.
func (c *Context) Cleanup() error {
	if err := os.RemoveAll(c.TempDir); err != nil {
		return fmt.Errorf("runctx: cleanup %s: %w", c.TempDir, err)
	}
	return nil
}

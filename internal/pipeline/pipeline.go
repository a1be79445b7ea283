// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package pipeline assembles the per-worker temp files produced by
// workerpool into the run's final output, using a scipipe workflow to
// express the decompress-then-concatenate-in-order step as a small
// shell DAG, then removes the worker temp files and any output that
// ended up empty.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/scipipe/scipipe"
)

// Merge decompresses parts (the snappy-compressed per-worker temp
// files produced by workerpool, listed in the thread-index order they
// must appear in the output) and concatenates them, in order, into
// outPath. If parts is empty, outPath is not created. Worker temp
// files are never touched by Merge; callers remove them separately
// via CleanupTemps once Merge has succeeded.
func Merge(parts []string, outPath string) error {
	if len(parts) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("pipeline: create output dir: %w", err)
	}

	wf := scipipe.NewWorkflow("merge", len(parts)+1)

	decompress := make([]*scipipe.SciProcess, len(parts))
	for i, p := range parts {
		port := fmt.Sprintf("dx%d", i)
		proc := wf.NewProc(fmt.Sprintf("dc%d", i), fmt.Sprintf("sztool -d %s > {os:%s}", p, port))
		proc.SetPathStatic(port, filepath.Join(filepath.Dir(outPath), fmt.Sprintf("merge_%s_%d", wf.Name, i)))
		decompress[i] = proc
	}

	cmd := "cat"
	for i := range parts {
		cmd += fmt.Sprintf(" {i:in%d}", i)
	}
	cmd += " > {o:out}"

	cat := wf.NewProc("cat", cmd)
	cat.SetPathStatic("out", outPath)
	for i, proc := range decompress {
		port := fmt.Sprintf("dx%d", i)
		cat.In(fmt.Sprintf("in%d", i)).Connect(proc.Out(port))
	}

	procs := make([]*scipipe.SciProcess, 0, len(decompress)+1)
	procs = append(procs, decompress...)
	procs = append(procs, cat)
	wf.AddProcs(procs...)
	wf.SetDriver(cat)
	wf.Run()

	if _, err := os.Stat(outPath); err != nil {
		return fmt.Errorf("pipeline: merge did not produce %s: %w", outPath, err)
	}
	return nil
}

// RemoveIfEmpty deletes path if it exists and is zero-length, the
// convention used throughout for optional BED/BEDPE/FASTQ outputs
// that ended up with nothing to report.
func RemoveIfEmpty(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("pipeline: stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("pipeline: remove empty %s: %w", path, err)
		}
	}
	return nil
}

// CleanupTemps removes every path in paths, ignoring already-missing
// files (a worker may have removed its own empty output already).
func CleanupTemps(paths []string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("pipeline: remove temp %s: %w", p, err)
		}
	}
	return nil
}

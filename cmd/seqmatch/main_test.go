package main

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"

	"github.com/kshedden/seqmatch/internal/index"
	"github.com/kshedden/seqmatch/internal/pairing"
	"github.com/kshedden/seqmatch/internal/pipeline"
	"github.com/kshedden/seqmatch/internal/reference"
	"github.com/kshedden/seqmatch/internal/runctx"
	"github.com/kshedden/seqmatch/internal/workerpool"
)

// TestEndToEndSingleEnd exercises the full single-end path (reference
// load, index build, worker pool, BED merge) exactly as main's run()
// wires them together, without going through flag parsing.
func TestEndToEndSingleEnd(t *testing.T) {
	dir := t.TempDir()

	refPath := filepath.Join(dir, "ref.fasta")
	if err := os.WriteFile(refPath, []byte(">chr1\nACGTACGTACGTACGTACGTACGTACGTACGT\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r1Path := filepath.Join(dir, "reads.fastq")
	fastq := "@read1\nACGTACGTACGTACGT\n+\nIIIIIIIIIIIIIIII\n@read2\nTTTTTTTTTTTTTTTT\n+\nIIIIIIIIIIIIIIII\n"
	if err := os.WriteFile(r1Path, []byte(fastq), 0o644); err != nil {
		t.Fatal(err)
	}

	refs, err := reference.Load(refPath, false, 0)
	if err != nil {
		t.Fatal(err)
	}
	tbl := index.Build(refs, 11)
	resolver := &pairing.Resolver{Table: tbl, Refs: refs.Sequences, Step: 1}

	ctx, err := runctx.New(filepath.Join(dir, "tmp"), filepath.Join(dir, "logs"))
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Cleanup()

	results, err := workerpool.Run(workerpool.Options{
		Ctx:      ctx,
		Resolver: resolver,
		Refs:     refs,
		R1File:   r1Path,
		Mode:     pairing.SF,
		Threads:  2,
		WriteBED: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	var seen, mapped int
	var bedParts []string
	for _, r := range results {
		seen += r.ReadsSeen
		mapped += r.ReadsMapped
		if r.BEDPath != "" {
			bedParts = append(bedParts, r.BEDPath)
		}
	}
	if seen != 2 {
		t.Errorf("seen = %d, want 2", seen)
	}
	if mapped != 1 {
		t.Errorf("mapped = %d, want 1", mapped)
	}

	outPath := filepath.Join(dir, "out.bed")
	if err := pipeline.Merge(bedParts, outPath); err != nil {
		t.Fatal(err)
	}
	if err := pipeline.CleanupTemps(bedParts); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if len(lines) != 1 {
		t.Fatalf("expected exactly one BED line, got %d: %v", len(lines), lines)
	}
	if lines[0] != "chr1\t0\t16\tread1" {
		t.Errorf("unexpected BED line: %q", lines[0])
	}
}

// TestParseArgsDefaults checks that omitting -k, -s, -m, and -t fills in
// the documented defaults rather than leaving them at their Go
// zero values.
func TestParseArgsDefaults(t *testing.T) {
	savedArgs := os.Args
	defer func() { os.Args = savedArgs }()
	os.Args = []string{"seqmatch"}

	cfg, warnings, err := parseArgs()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.K != 11 {
		t.Errorf("K = %d, want 11", cfg.K)
	}
	if cfg.Step != 17 {
		t.Errorf("Step = %d, want 17", cfg.Step)
	}
	if cfg.MismatchPercent != 15 {
		t.Errorf("MismatchPercent = %d, want 15", cfg.MismatchPercent)
	}
	if cfg.Threads != 1 {
		t.Errorf("Threads = %d, want 1", cfg.Threads)
	}
	if len(warnings) != 4 {
		t.Errorf("expected 4 default-fill warnings, got %d: %v", len(warnings), warnings)
	}
}

// Copyright 2017, Kerby Shedden and the Muscato contributors.
//
// seqmatch is an ungapped seed-and-extend short-read mapper. It
// indexes a FASTA reference collection by k-mer, seeds each read (or
// read pair) against the index, and extends candidate seeds within a
// configurable mismatch budget, honoring one of nine library
// orientation models and two disjoin policies for paired-end data.
//
// A typical invocation:
//
//	seqmatch -i genes.fasta -R1 reads_R1.fastq -R2 reads_R2.fastq \
//	    -o out -lib ISF -k 13 -m 5 -t 8
//
// Parameters can also be supplied via a TOML config file with -config,
// with command-line flags taking precedence over the file's values.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/profile"

	"github.com/kshedden/seqmatch/internal/config"
	"github.com/kshedden/seqmatch/internal/index"
	"github.com/kshedden/seqmatch/internal/pairing"
	"github.com/kshedden/seqmatch/internal/pipeline"
	"github.com/kshedden/seqmatch/internal/reference"
	"github.com/kshedden/seqmatch/internal/runctx"
	"github.com/kshedden/seqmatch/internal/runlock"
	"github.com/kshedden/seqmatch/internal/screen"
	"github.com/kshedden/seqmatch/internal/workerpool"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, logWarnings, err := parseArgs()
	if err != nil {
		return err
	}

	for _, w := range logWarnings {
		fmt.Fprintf(os.Stderr, "[Warning] %s\n", w)
	}
	for _, c := range cfg.Resolve() {
		fmt.Fprintf(os.Stderr, "[Warning] %s\n", c)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if os.Getenv("SEQMATCH_PROFILE") != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	lock, err := runlock.Acquire(cfg.OutBase)
	if err != nil {
		return fmt.Errorf("seqmatch: %w", err)
	}
	defer lock.Release()

	ctx, err := runctx.New(cfg.TempDir, cfg.LogDir)
	if err != nil {
		return err
	}
	defer ctx.Cleanup()

	if !cfg.Quiet {
		fmt.Fprintf(os.Stderr, "run %s: loading reference %s\n", ctx.RunID, cfg.RefFile)
	}
	minLen := cfg.MinReadLength
	if minLen < cfg.K {
		minLen = cfg.K
	}
	refs, err := reference.Load(cfg.RefFile, cfg.MaskLower, minLen)
	if err != nil {
		return fmt.Errorf("seqmatch: loading reference: %w", err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(os.Stderr, "run %s: building %d-mer index over %d sequences\n", ctx.RunID, cfg.K, len(refs.Sequences))
	}
	tbl := index.Build(refs, cfg.K)

	var sketch *screen.Sketch
	if cfg.Screen {
		numBits := cfg.ScreenBits
		if numBits == 0 {
			numBits = uint64(refs.TotalBases()) * 8
		}
		numHash := cfg.ScreenHashes
		if numHash == 0 {
			numHash = 4
		}
		if !cfg.Quiet {
			fmt.Fprintf(os.Stderr, "run %s: building pre-screen sketch (%d bits, %d hashes)\n", ctx.RunID, numBits, numHash)
		}
		sketch = screen.NewSketch(refs, cfg.K, numBits, numHash, 1)
	}

	resolver := &pairing.Resolver{
		Table:           tbl,
		Refs:            refs.Sequences,
		Step:            cfg.Step,
		MismatchPercent: cfg.MismatchPercent,
		IgnoreN:         cfg.IgnoreN,
		NoDisjoin:       !cfg.Disjoin,
		Evals:           cfg.Evals,
	}

	mode := pairing.Mode(cfg.Lib)

	r1File, r2File := cfg.R1File, cfg.R2File
	if !mode.Paired() && r1File == "" {
		r1File, r2File = r2File, ""
	}

	var dedupEstimate uint
	var dedupFPRate float64
	if cfg.Dedup {
		dedupEstimate = cfg.DedupEstimate
		if dedupEstimate == 0 {
			dedupEstimate = 1_000_000
		}
		dedupFPRate = cfg.DedupFalsePositiveRate
		if dedupFPRate == 0 {
			dedupFPRate = 0.001
		}
	}

	results, err := workerpool.Run(workerpool.Options{
		Ctx:                    ctx,
		Resolver:               resolver,
		Refs:                   refs,
		Sketch:                 sketch,
		R1File:                 r1File,
		R2File:                 r2File,
		Mode:                   mode,
		Threads:                cfg.Threads,
		WriteBED:               !cfg.NoBED && !cfg.Diff,
		WriteFASTQ:             !cfg.NoFASTQ,
		Diff:                   cfg.Diff,
		DedupFalsePositiveRate: dedupFPRate,
		DedupEstimate:          dedupEstimate,
	})
	if err != nil {
		return fmt.Errorf("seqmatch: %w", err)
	}

	if err := finalize(cfg, mode, results); err != nil {
		return fmt.Errorf("seqmatch: %w", err)
	}

	if !cfg.Quiet {
		var seen, mapped int
		for _, r := range results {
			seen += r.ReadsSeen
			mapped += r.ReadsMapped
		}
		fmt.Fprintf(os.Stderr, "run %s: %d reads processed, %d mapped\n", ctx.RunID, seen, mapped)
	}

	return nil
}

// finalize concatenates the per-worker outputs, in thread-index
// order, into the run's final BED/BEDPE and/or FASTQ files, then
// removes the worker temp files.
func finalize(cfg *config.Config, mode pairing.Mode, results []workerpool.WorkerResult) error {
	var bedParts, fastqParts, temps []string
	for _, r := range results {
		if r.BEDPath != "" {
			bedParts = append(bedParts, r.BEDPath)
			temps = append(temps, r.BEDPath)
		}
		if r.FASTQPath != "" {
			fastqParts = append(fastqParts, r.FASTQPath)
			temps = append(temps, r.FASTQPath)
		}
	}

	if len(bedParts) > 0 {
		ext := ".bed"
		if mode.Paired() {
			ext = ".bedpe"
		}
		out := cfg.OutBase + ext
		if err := pipeline.Merge(bedParts, out); err != nil {
			return err
		}
		if err := pipeline.RemoveIfEmpty(out); err != nil {
			return err
		}
	}

	if len(fastqParts) > 0 {
		out := cfg.OutBase + ".fastq"
		if err := pipeline.Merge(fastqParts, out); err != nil {
			return err
		}
		if err := pipeline.RemoveIfEmpty(out); err != nil {
			return err
		}
	}

	return pipeline.CleanupTemps(temps)
}

// parseArgs builds a Config from an optional TOML file layered with
// command-line flags, flags taking precedence. It returns any
// informational messages about flag handling alongside the config
// (not config.Conflict values, which come from cfg.Resolve once
// validation is underway).
func parseArgs() (*config.Config, []string, error) {
	configPath := flag.String("config", "", "Path to a TOML configuration file")
	refFile := flag.String("i", "", "FASTA reference sequence collection")
	r1File := flag.String("R1", "", "FASTQ file for read 1 (single-end modes take one of -R1, -R2)")
	r2File := flag.String("R2", "", "FASTQ file for read 2")
	outBase := flag.String("o", "", "Output basename")
	lib := flag.String("lib", "", "Library mode: ISF, ISR, IU, OSF, OSR, OU, SF, SR, U")
	k := flag.Int("k", 0, "K-mer seed width")
	m := flag.Int("m", -1, "Percent mismatches tolerated during extension (0-99)")
	s := flag.Int("s", 0, "Seed search step size")
	t := flag.Int("t", 0, "Number of worker goroutines")
	e := flag.Int("e", -1, "Number of same-sequence candidates to evaluate (0 disables)")
	diff := flag.Bool("diff", false, "Write unmapped instead of mapped reads to FASTQ; disables BED/BEDPE output")
	disjoin := flag.Bool("disjoin", false, "Allow cross-sequence and ordering-free pairing fallbacks")
	ignoreN := flag.Bool("ignore_N", false, "Never count an 'N' base in a read as a mismatch")
	maskLower := flag.Bool("mask-lower", false, "Keep lowercase reference bases as-is so they cannot seed")
	noBED := flag.Bool("no-bed", false, "Suppress BED/BEDPE output")
	noFASTQ := flag.Bool("no-fastq", false, "Suppress FASTQ output")
	quiet := flag.Bool("quiet", false, "Suppress progress messages")
	minReadLength := flag.Int("l", 0, "Reject the reference if a sequence is shorter than this length (never less than k)")
	tempDir := flag.String("temp-dir", "", "Workspace for temporary files")
	logDir := flag.String("log-dir", "", "Directory for log files")
	screenFlag := flag.Bool("screen", false, "Enable a Bloom-filter pre-screen over the reference k-mers")
	dedupFlag := flag.Bool("dedup", false, "Enable per-worker duplicate-read suppression")

	flag.Parse()

	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	} else {
		cfg = new(config.Config)
	}

	var warnings []string

	if *refFile != "" {
		cfg.RefFile = *refFile
	}
	if *r1File != "" {
		cfg.R1File = *r1File
	}
	if *r2File != "" {
		cfg.R2File = *r2File
	}
	if *outBase != "" {
		cfg.OutBase = *outBase
	}
	if *lib != "" {
		cfg.Lib = *lib
	}
	if *k != 0 {
		cfg.K = *k
	}
	if *m >= 0 {
		cfg.MismatchPercent = *m
	}
	if *s != 0 {
		cfg.Step = *s
	}
	if *t != 0 {
		cfg.Threads = *t
	}
	if *e >= 0 {
		cfg.Evals = *e
	}
	if *diff {
		cfg.Diff = true
	}
	if *disjoin {
		cfg.Disjoin = true
	}
	if *ignoreN {
		cfg.IgnoreN = true
	}
	if *maskLower {
		cfg.MaskLower = true
	}
	if *noBED {
		cfg.NoBED = true
	}
	if *noFASTQ {
		cfg.NoFASTQ = true
	}
	if *quiet {
		cfg.Quiet = true
	}
	if *minReadLength != 0 {
		cfg.MinReadLength = *minReadLength
	}
	if *tempDir != "" {
		cfg.TempDir = *tempDir
	}
	if *logDir != "" {
		cfg.LogDir = *logDir
	}
	if *screenFlag {
		cfg.Screen = true
	}
	if *dedupFlag {
		cfg.Dedup = true
	}

	if cfg.Step == 0 {
		cfg.Step = 17
		warnings = append(warnings, "step (-s) not provided, defaulting to 17")
	}
	if cfg.Threads == 0 {
		cfg.Threads = 1
		warnings = append(warnings, "threads (-t) not provided, defaulting to 1")
	}
	if cfg.K == 0 {
		cfg.K = 11
		warnings = append(warnings, "k (-k) not provided, defaulting to 11")
	}
	if cfg.MismatchPercent == 0 && *m < 0 {
		cfg.MismatchPercent = 15
		warnings = append(warnings, "mismatch_percent (-m) not provided, defaulting to 15")
	}

	return cfg, warnings, nil
}

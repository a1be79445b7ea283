// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package workerpool runs the mapping pass across goroutines, one
// per partitioned byte range of the input, writing each worker's
// output to its own snappy-compressed temp file. Workers share the
// read-only reference set, k-mer index, and (optional) Bloom sketch
// without any locking; all synchronization is limited to waiting for
// completion and collecting per-worker error/count results.
package workerpool

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/golang/snappy"

	"github.com/kshedden/seqmatch/internal/bedio"
	"github.com/kshedden/seqmatch/internal/dedup"
	"github.com/kshedden/seqmatch/internal/fastqio"
	"github.com/kshedden/seqmatch/internal/kmer"
	"github.com/kshedden/seqmatch/internal/pairing"
	"github.com/kshedden/seqmatch/internal/partition"
	"github.com/kshedden/seqmatch/internal/reference"
	"github.com/kshedden/seqmatch/internal/runctx"
	"github.com/kshedden/seqmatch/internal/screen"
)

// Options configures one run of the pool.
type Options struct {
	Ctx      *runctx.Context
	Resolver *pairing.Resolver
	Refs     *reference.Set
	Sketch   *screen.Sketch // nil disables the pre-screen

	R1File, R2File string // R2File empty for single-end modes
	Mode           pairing.Mode

	Threads int

	// WriteBED/WriteFASTQ select the output format(s); at least one
	// must be true.
	WriteBED   bool
	WriteFASTQ bool

	// Diff selects which reads FASTQ output echoes: false (the
	// default) writes mapped reads, true writes unmapped reads, so a
	// pair of runs with Diff false/true partitions the input between
	// them. Reads dropped by the duplicate-read cache are written by
	// neither run.
	Diff bool

	// DedupFalsePositiveRate, if non-zero, enables per-worker
	// duplicate-read suppression.
	DedupFalsePositiveRate float64
	DedupEstimate          uint
}

// WorkerResult is one worker's outcome.
type WorkerResult struct {
	Index       int
	ReadsSeen   int
	ReadsMapped int
	BEDPath     string // "" if no BED/BEDPE records were written
	FASTQPath   string // "" if no FASTQ records were written
	Err         error
}

// Run partitions the input across opts.Threads workers and runs them
// concurrently, returning one WorkerResult per worker in thread-index
// order (not completion order), so callers can concatenate outputs
// deterministically.
func Run(opts Options) ([]WorkerResult, error) {
	var ranges1, ranges2 []partition.Range
	var err error

	if opts.R2File != "" {
		ranges1, ranges2, err = partition.SplitPaired(opts.R1File, opts.R2File, opts.Threads)
	} else {
		ranges1, err = partition.Split(opts.R1File, opts.Threads)
	}
	if err != nil {
		return nil, fmt.Errorf("workerpool: partition input: %w", err)
	}

	n := len(ranges1)
	results := make([]WorkerResult, n)

	var wg sync.WaitGroup
	for w := 0; w < n; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			var r2 partition.Range
			if ranges2 != nil {
				r2 = ranges2[w]
			}
			results[w] = runWorker(opts, w, ranges1[w], r2)
		}(w)
	}
	wg.Wait()

	for _, r := range results {
		if r.Err != nil {
			return results, fmt.Errorf("workerpool: worker %d: %w", r.Index, r.Err)
		}
	}
	return results, nil
}

func runWorker(opts Options, w int, r1Range, r2Range partition.Range) WorkerResult {
	res := WorkerResult{Index: w}

	r1, err := openRange(opts.R1File, r1Range)
	if err != nil {
		res.Err = err
		return res
	}
	defer r1.Close()

	var r2 io.ReadCloser
	if opts.R2File != "" {
		r2, err = openRange(opts.R2File, r2Range)
		if err != nil {
			res.Err = err
			return res
		}
		defer r2.Close()
	}

	rdr1 := fastqio.NewStreamReader(r1)
	var rdr2 *fastqio.Reader
	if r2 != nil {
		rdr2 = fastqio.NewStreamReader(r2)
	}

	var bedWriter *bedio.Writer
	var bedFile *os.File
	var bedBuf *bufio.Writer
	if opts.WriteBED {
		bedFile, err = os.Create(opts.Ctx.WorkerTemp(w, "bed.sz"))
		if err != nil {
			res.Err = fmt.Errorf("workerpool: create bed temp: %w", err)
			return res
		}
		defer bedFile.Close()
		sz := snappy.NewBufferedWriter(bedFile)
		defer sz.Close()
		bedBuf = bufio.NewWriter(sz)
		bedWriter = bedio.NewWriter(bedBuf)
		res.BEDPath = bedFile.Name()
	}

	var fqWriter *fastqio.Writer
	var fqFile *os.File
	var fqSZ *snappy.Writer
	if opts.WriteFASTQ {
		fqFile, err = os.Create(opts.Ctx.WorkerTemp(w, "fastq.sz"))
		if err != nil {
			res.Err = fmt.Errorf("workerpool: create fastq temp: %w", err)
			return res
		}
		defer fqFile.Close()
		fqSZ = snappy.NewBufferedWriter(fqFile)
		defer fqSZ.Close()
		fqWriter = fastqio.NewWriter(fqSZ)
		res.FASTQPath = fqFile.Name()
	}

	var dc *dedup.Cache
	if opts.DedupFalsePositiveRate > 0 {
		dc = dedup.NewCache(opts.DedupEstimate, opts.DedupFalsePositiveRate)
	}

	for {
		rec1, ok1 := rdr1.Next()
		if !ok1 {
			break
		}
		res.ReadsSeen++

		var rec2 fastqio.Record
		if opts.Mode.Paired() {
			var ok2 bool
			rec2, ok2 = rdr2.Next()
			if !ok2 {
				res.Err = fmt.Errorf("workerpool: mate file exhausted before primary at read %q", rec1.Name())
				return res
			}
		}

		if dc != nil && dc.Seen([]byte(rec1.Seq)) {
			continue
		}

		// A read with no window on either strand in the sketch cannot
		// seed; it is handled as unmapped without consulting the index.
		screened := opts.Sketch != nil && !opts.Sketch.AnyWindow([]byte(rec1.Seq)) &&
			!opts.Sketch.AnyWindow(kmer.ReverseComplement([]byte(rec1.Seq)))

		mapped := false
		if !screened && opts.Mode.Paired() {
			hit, ok := opts.Resolver.ResolvePair(opts.Mode, []byte(rec1.Seq), []byte(rec2.Seq))
			if ok {
				mapped = true
				if bedWriter != nil {
					bedWriter.WriteBEDPE(
						opts.Refs.Sequences[hit.Seq1].Name, hit.Start1, hit.End1,
						opts.Refs.Sequences[hit.Seq2].Name, hit.Start2, hit.End2,
						rec1.Name(), hit.Score, hit.Strand1, hit.Strand2)
				}
			}
		} else if !screened {
			hit, ok := opts.Resolver.ResolveSingle(opts.Mode, []byte(rec1.Seq))
			if ok {
				mapped = true
				if bedWriter != nil {
					bedWriter.WriteBED(opts.Refs.Sequences[hit.Seq].Name, hit.Start, hit.End, rec1.Name())
				}
			}
		}
		if mapped {
			res.ReadsMapped++
		}

		// diff=false echoes mapped reads back out as FASTQ; diff=true
		// echoes unmapped reads instead, so the two runs partition
		// the input between them.
		if fqWriter != nil && mapped != opts.Diff {
			fqWriter.Write(rec1)
			if opts.Mode.Paired() {
				fqWriter.Write(rec2)
			}
		}
	}

	if bedWriter != nil {
		bedBuf.Flush()
		if bedWriter.Lines() == 0 {
			bedFile.Close()
			os.Remove(res.BEDPath)
			res.BEDPath = ""
		}
	}
	if fqWriter != nil {
		fqWriter.Flush()
		if fqWriter.Records() == 0 {
			fqFile.Close()
			os.Remove(res.FASTQPath)
			res.FASTQPath = ""
		}
	}

	return res
}

func openRange(path string, r partition.Range) (io.ReadCloser, error) {
	rc, err := partition.OpenDecompressedRange(path, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("workerpool: open range of %s: %w", path, err)
	}
	return rc, nil
}

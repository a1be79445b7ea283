// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package partition computes record-aligned byte-offset splits of
// FASTQ input so a worker pool can process disjoint ranges of a
// (possibly gzip-compressed) file in parallel without any worker
// needing to see another's data.
//
// The approach mirrors the original driver's splitting pass: decode
// the stream once to learn its total size, then decode it a second
// time, cutting a boundary every time roughly 1/numWorkers of the
// total has been consumed AND the cut lands on a FASTQ record
// boundary (every 4th line). When two mated files are split together,
// the second file's boundaries are placed at the same *line* counts
// as the first's, not at the same byte offsets, since compression and
// read-length variation make the two files' byte offsets diverge.
package partition

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// Range is one worker's share of a file, expressed as byte offsets
// into the decompressed stream: [Start, End).
type Range struct {
	Start, End int64
}

// Split partitions path into n roughly-equal, FASTQ-record-aligned
// ranges over the decompressed byte stream.
func Split(path string, n int) ([]Range, error) {
	total, lineCounts, err := scanBoundaries(path, n, nil)
	if err != nil {
		return nil, err
	}
	return rangesFromEnds(total, lineCounts.ends), nil
}

// SplitPaired partitions a mated pair of files together: r1's
// boundaries are computed by total size as in Split, and r2's
// boundaries are placed at the same line counts as r1's, so each
// worker's R1 and R2 ranges stay in mate-step.
func SplitPaired(path1, path2 string, n int) (r1, r2 []Range, err error) {
	total1, b, err := scanBoundaries(path1, n, nil)
	if err != nil {
		return nil, nil, err
	}
	total2, b2, err := scanBoundaries(path2, n, b.lineAtEnd)
	if err != nil {
		return nil, nil, err
	}
	return rangesFromEnds(total1, b.ends), rangesFromEnds(total2, b2.ends), nil
}

type boundaries struct {
	ends      []int64 // byte offset where each split ends
	lineAtEnd *boundaries
}

// scanBoundaries decodes path twice: once to learn the total
// decompressed size, once to record a cut point roughly every
// total/n bytes, always on a 4-line (FASTQ record) boundary. If
// targetLines is non-nil, its recorded line counts are used as the
// cut targets instead of byte-size fractions (the paired R2 case).
func scanBoundaries(path string, n int, targetLines *boundaries) (int64, *boundaries, error) {
	total, err := decompressedSize(path)
	if err != nil {
		return 0, nil, err
	}

	r, err := openDecompressed(path)
	if err != nil {
		return 0, nil, err
	}
	defer r.Close()

	out := &boundaries{lineAtEnd: &boundaries{}}

	if targetLines != nil {
		err = scanByLineTargets(r, targetLines.ends, out)
	} else {
		err = scanBySizeTargets(r, total, n, out)
	}
	if err != nil {
		return 0, nil, err
	}
	return total, out, nil
}

func scanBySizeTargets(r io.Reader, total int64, n int, out *boundaries) error {
	if n < 1 {
		n = 1
	}
	approx := total / int64(n)
	if approx < 1 {
		approx = total
	}
	target := approx

	br := bufio.NewReaderSize(r, 1<<20)
	var offset int64
	var lineNo int64
	for {
		line, err := br.ReadBytes('\n')
		offset += int64(len(line))
		if len(line) > 0 {
			lineNo++
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("partition: scan: %w", err)
		}
		if offset >= target && lineNo%4 == 0 {
			out.ends = append(out.ends, offset)
			out.lineAtEnd.ends = append(out.lineAtEnd.ends, lineNo)
			target += approx
		}
	}
	return nil
}

func scanByLineTargets(r io.Reader, lineTargets []int64, out *boundaries) error {
	br := bufio.NewReaderSize(r, 1<<20)
	var offset int64
	var lineNo int64
	ti := 0
	for ti < len(lineTargets) {
		line, err := br.ReadBytes('\n')
		offset += int64(len(line))
		if len(line) > 0 {
			lineNo++
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("partition: scan: %w", err)
		}
		if lineNo == lineTargets[ti] {
			out.ends = append(out.ends, offset)
			out.lineAtEnd.ends = append(out.lineAtEnd.ends, lineNo)
			ti++
		}
	}
	return nil
}

func rangesFromEnds(total int64, ends []int64) []Range {
	ranges := make([]Range, 0, len(ends)+1)
	var start int64
	for _, end := range ends {
		ranges = append(ranges, Range{Start: start, End: end})
		start = end
	}
	if start < total {
		ranges = append(ranges, Range{Start: start, End: total})
	}
	return ranges
}

func decompressedSize(path string) (int64, error) {
	r, err := openDecompressed(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	n, err := io.Copy(io.Discard, bufio.NewReaderSize(r, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("partition: size scan: %w", err)
	}
	return n, nil
}

type decompressedReader struct {
	io.Reader
	closers []io.Closer
}

func (d decompressedReader) Close() error {
	var err error
	for _, c := range d.closers {
		if e := c.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// OpenDecompressedRange opens path, decompressing if needed, and
// returns a reader limited to the decompressed byte range [start,
// end). Reaching start requires decompressing and discarding
// everything before it, since gzip streams have no general random
// access; this mirrors paying the decode cost once per worker that
// the original double-pass splitting design already accepts.
func OpenDecompressedRange(path string, start, end int64) (io.ReadCloser, error) {
	rc, err := openDecompressed(path)
	if err != nil {
		return nil, err
	}
	if start > 0 {
		if _, err := io.CopyN(io.Discard, rc, start); err != nil {
			rc.Close()
			return nil, fmt.Errorf("partition: seek to %d in %s: %w", start, path, err)
		}
	}
	return rangeReader{Reader: io.LimitReader(rc, end-start), Closer: rc}, nil
}

type rangeReader struct {
	io.Reader
	io.Closer
}

func openDecompressed(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("partition: open %s: %w", path, err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("partition: gzip %s: %w", path, err)
	}
	return decompressedReader{Reader: gz, closers: []io.Closer{gz, f}}, nil
}

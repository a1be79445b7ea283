// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package bedio writes alignment hits in the zero-based, half-open
// BED and BEDPE interval formats.
package bedio

import (
	"bufio"
	"fmt"
	"io"
)

// Writer emits BED (single-end) or BEDPE (paired-end) records. It is
// not safe for concurrent use; each worker owns its own Writer over
// its own temp file.
type Writer struct {
	w     *bufio.Writer
	lines int
}

// NewWriter wraps w for buffered BED/BEDPE output.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteBED emits a single-end interval: chrom, start, end, read name.
func (bw *Writer) WriteBED(chrom string, start, end int, name string) error {
	_, err := fmt.Fprintf(bw.w, "%s\t%d\t%d\t%s\n", chrom, start, end, name)
	if err == nil {
		bw.lines++
	}
	return err
}

// WriteBEDPE emits a paired-end interval pair: the two mates'
// (chrom, start, end, strand), the pair name, and the disjoin score
// (0 same-sequence, 1 cross-sequence).
func (bw *Writer) WriteBEDPE(chrom1 string, start1, end1 int, chrom2 string, start2, end2 int, name string, score int, strand1, strand2 byte) error {
	_, err := fmt.Fprintf(bw.w, "%s\t%d\t%d\t%s\t%d\t%d\t%s\t%d\t%c\t%c\n",
		chrom1, start1, end1, chrom2, start2, end2, name, score, strand1, strand2)
	if err == nil {
		bw.lines++
	}
	return err
}

// Lines reports how many records have been written, used by callers
// to decide whether an empty output file should be removed.
func (bw *Writer) Lines() int {
	return bw.lines
}

// Flush flushes buffered output.
func (bw *Writer) Flush() error {
	return bw.w.Flush()
}

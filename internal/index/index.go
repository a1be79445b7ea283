// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package index builds and queries the k-mer hash table: despite the
// name, it is a code-sorted array searched by binary lookup, not a
// hash table in the usual sense (see DESIGN.md).
package index

import (
	"sort"

	"github.com/kshedden/seqmatch/internal/kmer"
	"github.com/kshedden/seqmatch/internal/reference"
)

// Posting is one occurrence of a k-mer in the reference: sequence
// index and zero-based start offset.
type Posting struct {
	SeqIdx uint32
	Pos    uint32
}

type entry struct {
	code     uint32
	postings []Posting
}

// Table is the code-sorted array of (code, posting list) entries.
type Table struct {
	entries []entry
	K       int
}

// Build enumerates every valid k-mer window in every sequence of set,
// sorts by code (stable on (sequence, offset), a consequence of the
// enumeration order), and groups same-code postings into a single
// entry.
func Build(set *reference.Set, k int) *Table {
	type triple struct {
		code   uint32
		seqIdx int
		pos    int
	}

	var triples []triple
	for si, seq := range set.Sequences {
		bases := seq.Bases
		last := len(bases) - k
		for n := 0; n <= last; n++ {
			code := kmer.Encode(bases[n:n+k], k)
			if code == kmer.Invalid {
				continue
			}
			triples = append(triples, triple{code: code, seqIdx: si, pos: n})
		}
	}

	sort.SliceStable(triples, func(i, j int) bool {
		return triples[i].code < triples[j].code
	})

	t := &Table{K: k}
	for _, tr := range triples {
		n := len(t.entries)
		if n == 0 || t.entries[n-1].code != tr.code {
			t.entries = append(t.entries, entry{code: tr.code})
			n++
		}
		t.entries[n-1].postings = append(t.entries[n-1].postings, Posting{
			SeqIdx: uint32(tr.seqIdx),
			Pos:    uint32(tr.pos),
		})
	}

	return t
}

// Lookup performs a binary search for code, returning its posting
// list and true, or nil and false if code never occurred in the
// reference.
func (t *Table) Lookup(code uint32) ([]Posting, bool) {
	i := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].code >= code
	})
	if i < len(t.entries) && t.entries[i].code == code {
		return t.entries[i].postings, true
	}
	return nil, false
}

// Len returns the number of distinct k-mer codes present in the
// index.
func (t *Table) Len() int {
	return len(t.entries)
}

// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package seed slides a configured step along a read, looking up each
// window in the k-mer index.
package seed

import (
	"github.com/kshedden/seqmatch/internal/index"
	"github.com/kshedden/seqmatch/internal/kmer"
)

// Find advances *at (externally owned by the caller, so a resolver
// can resume seeding past the last hit) until it finds a window of r
// present in tbl, or runs off the end of the read. On a hit, *at is
// left at the hit position and the posting list is returned; the
// caller is responsible for advancing *at by step before calling
// Find again. On no hit, *at ends up > len(r)-k.
func Find(tbl *index.Table, r []byte, step int, at *int) ([]index.Posting, bool) {
	k := tbl.K
	last := len(r) - k
	for *at <= last {
		code := kmer.Encode(r[*at:*at+k], k)
		if code != kmer.Invalid {
			if postings, ok := tbl.Lookup(code); ok {
				return postings, true
			}
		}
		*at += step
	}
	return nil, false
}

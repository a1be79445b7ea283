// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package kmer implements the fixed-length DNA k-mer encoding used to
// seed the index and the reads against it.
package kmer

import "math"

// Invalid is returned by Encode when the window contains a byte
// outside {A,C,G,T}.
const Invalid uint32 = math.MaxUint32

// MaxK is the largest k for which a code is guaranteed to fit in 32
// bits (4^15 = 2^30).
const MaxK = 15

var base = [256]int8{}

func init() {
	for i := range base {
		base[i] = -1
	}
	base['A'] = 0
	base['C'] = 1
	base['G'] = 2
	base['T'] = 3
}

// Encode maps window[0:k] to its 2-bit-packed code, position 0 being
// the most significant pair. Any byte outside {A,C,G,T} yields
// Invalid. Callers must ensure len(window) >= k.
func Encode(window []byte, k int) uint32 {
	var code uint32
	for i := 0; i < k; i++ {
		b := base[window[i]]
		if b < 0 {
			return Invalid
		}
		code = code<<2 | uint32(b)
	}
	return code
}

var comp = [256]byte{}

func init() {
	for i := range comp {
		comp[i] = byte(i)
	}
	comp['A'] = 'T'
	comp['T'] = 'A'
	comp['C'] = 'G'
	comp['G'] = 'C'
}

// ReverseComplement returns the reverse complement of seq. Bases
// outside {A,C,G,T} are preserved, only reversed in position.
func ReverseComplement(seq []byte) []byte {
	n := len(seq)
	out := make([]byte, n)
	for i, b := range seq {
		out[n-1-i] = comp[b]
	}
	return out
}

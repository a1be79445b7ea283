package screen

import (
	"testing"

	"github.com/kshedden/seqmatch/internal/reference"
)

func TestSketchFindsPresentWindow(t *testing.T) {
	set := &reference.Set{Sequences: []reference.Sequence{
		{Name: "chr1", Bases: []byte("ACGTACGTACGTACGTACGT")},
	}}
	s := NewSketch(set, 11, 1<<16, 4, 1)

	if !s.MayContain([]byte("ACGTACGTACG")) {
		t.Error("expected a present window to be found")
	}
}

func TestSketchRejectsAbsentWindow(t *testing.T) {
	set := &reference.Set{Sequences: []reference.Sequence{
		{Name: "chr1", Bases: []byte("AAAAAAAAAAAAAAAAAAAA")},
	}}
	s := NewSketch(set, 11, 1<<16, 4, 1)

	if s.MayContain([]byte("TTTTTTTTTTT")) {
		t.Error("expected an absent window to be rejected (modulo false positive)")
	}
}

func TestAnyWindowShortRead(t *testing.T) {
	set := &reference.Set{Sequences: []reference.Sequence{
		{Name: "chr1", Bases: []byte("ACGTACGTACGTACGTACGT")},
	}}
	s := NewSketch(set, 11, 1<<16, 4, 1)

	if s.AnyWindow([]byte("ACGT")) {
		t.Error("a read shorter than k can never seed")
	}
}

func TestAnyWindowFindsMatch(t *testing.T) {
	set := &reference.Set{Sequences: []reference.Sequence{
		{Name: "chr1", Bases: []byte("ACGTACGTACGTACGTACGT")},
	}}
	s := NewSketch(set, 11, 1<<16, 4, 1)

	if !s.AnyWindow([]byte("TTTTACGTACGTACGTTTTT")) {
		t.Error("expected the embedded reference window to be found")
	}
}

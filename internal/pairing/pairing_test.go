package pairing

import (
	"testing"

	"github.com/kshedden/seqmatch/internal/index"
	"github.com/kshedden/seqmatch/internal/kmer"
	"github.com/kshedden/seqmatch/internal/reference"
)

// chr1 is the 24bp worked reference used throughout the examples.
const chr1 = "ACGTACGTACGTACGTACGTACGT"

func newResolver(k int, refs ...string) *Resolver {
	set := &reference.Set{}
	for i, s := range refs {
		set.Sequences = append(set.Sequences, reference.Sequence{
			Name: "chr" + string(rune('1'+i)), Bases: []byte(s),
		})
	}
	return &Resolver{
		Table:           index.Build(set, k),
		Refs:            set.Sequences,
		Step:            1,
		MismatchPercent: 0,
		Evals:           0,
	}
}

func TestResolveSingleSF(t *testing.T) {
	r := newResolver(11, chr1)
	hit, ok := r.ResolveSingle(SF, []byte("ACGTACGTACGTACGT"))
	if !ok {
		t.Fatal("expected a hit")
	}
	if hit.Seq != 0 || hit.Start != 0 {
		t.Errorf("hit = %+v, want Seq=0 Start=0", hit)
	}
}

func TestResolveSingleSR(t *testing.T) {
	r := newResolver(11, chr1)
	read := kmer.ReverseComplement([]byte("ACGTACGTACGTACGT"))
	hit, ok := r.ResolveSingle(SR, read)
	if !ok {
		t.Fatal("expected a hit")
	}
	if hit.Seq != 0 || hit.Start != 0 {
		t.Errorf("hit = %+v, want Seq=0 Start=0", hit)
	}
}

func TestResolveSingleUTriesBothStrands(t *testing.T) {
	r := newResolver(11, chr1)
	fwd := []byte("ACGTACGTACGTACGT")
	rc := kmer.ReverseComplement(fwd)

	if _, ok := r.ResolveSingle(U, fwd); !ok {
		t.Error("expected forward-strand hit under U")
	}
	if _, ok := r.ResolveSingle(U, rc); !ok {
		t.Error("expected reverse-complement hit under U")
	}
}

func TestResolvePairISF(t *testing.T) {
	r := newResolver(11, chr1)
	// R1 forward at the start; R2 is the reverse complement of a
	// downstream window, giving the canonical FR (innie) layout.
	r1 := []byte("ACGTACGTACG")
	r2 := kmer.ReverseComplement([]byte("TACGTACGTACGT"))

	hit, ok := r.ResolvePair(ISF, r1, r2)
	if !ok {
		t.Fatal("expected ISF pair to resolve")
	}
	if hit.Seq1 != 0 || hit.Seq2 != 0 {
		t.Errorf("hit = %+v, want both mates on seq 0", hit)
	}
	if hit.Start1 > hit.Start2 {
		t.Errorf("hit = %+v, want R1 upstream of R2 in inward orientation", hit)
	}
}

func TestResolvePairNoHitReturnsFalse(t *testing.T) {
	r := newResolver(11, chr1)
	r1 := []byte("TTTTTTTTTTTTTTTT")
	r2 := []byte("TTTTTTTTTTTTTTTT")
	if _, ok := r.ResolvePair(ISF, r1, r2); ok {
		t.Error("expected no hit for reads absent from the reference")
	}
}

func TestResolvePairDisjointCrossSequence(t *testing.T) {
	r := newResolver(11, chr1, "CCCCCGGGGGAAAAATTTTT")
	r.NoDisjoin = false

	// R1 occurs only in sequence 0 and the reverse complement of R2
	// occurs only in sequence 1, so the pair can only be resolved by
	// the cross-sequence fallback, which scores it 1.
	r1r := []byte("ACGTACGTACG")
	r2r := kmer.ReverseComplement([]byte("CCCCCGGGGGAA"))

	hit, ok := r.ResolvePair(ISF, r1r, r2r)
	if !ok {
		t.Fatal("expected a disjoin resolution")
	}
	if hit.Seq1 != 0 || hit.Seq2 != 1 || hit.Score != 1 {
		t.Errorf("hit = %+v, want Seq1=0 Seq2=1 Score=1", hit)
	}
}

func TestResolvePairEvalsPicksLowestMismatch(t *testing.T) {
	// R1 occurs at 0 and 45. The mate window after the first copy (at
	// 13) has one mismatch in its last base; the one after the second
	// copy (at 58) is exact. Both candidates pass a budget of 1, and
	// the exact one must win.
	const mateMis = "CCGTTAGCAAGA"
	const mateExact = "CCGTTAGCAAGT"
	ref := "GATTACAGATC" + "TT" + mateMis + "AAAAAAAAAAAAAAAAAAAA" + "GATTACAGATC" + "TT" + mateExact
	r := newResolver(11, ref)
	r.MismatchPercent = 10
	r.Evals = 4

	r1 := []byte("GATTACAGATC")
	r2 := kmer.ReverseComplement([]byte(mateExact))

	hit, ok := r.ResolvePair(ISF, r1, r2)
	if !ok {
		t.Fatal("expected evals mode to find the exact-match candidate")
	}
	if hit.Seq1 != 0 || hit.Seq2 != 0 {
		t.Errorf("hit = %+v, want both mates on seq 0", hit)
	}
	if hit.Start1 != 45 || hit.Start2 != 58 {
		t.Errorf("hit = %+v, want Start1=45 Start2=58 (the zero-mismatch candidate)", hit)
	}
}

func TestOrderedInwardOutward(t *testing.T) {
	if ordered(false, 5, 2, 2) {
		t.Error("inward: start1 downstream of start2+L2 should not be ordered")
	}
	if !ordered(false, 1, 2, 2) {
		t.Error("inward: start1 upstream of start2+L2 should be ordered")
	}
	if ordered(true, 1, 2, 2) {
		t.Error("outward: start1 upstream of start2+L2 should not be ordered")
	}
}

func TestCrossSkip(t *testing.T) {
	if crossSkip(false, 5, 3) {
		t.Error("inward cross-sequence: i2>=i1 should be kept")
	}
	if !crossSkip(false, 1, 3) {
		t.Error("inward cross-sequence: i2<i1 should be skipped")
	}
	if crossSkip(true, 1, 3) {
		t.Error("outward cross-sequence: i2<=i1 should be kept")
	}
	if !crossSkip(true, 5, 3) {
		t.Error("outward cross-sequence: i2>i1 should be skipped")
	}
}

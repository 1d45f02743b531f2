// elBLAST: a seed-and-extend local alignment tool for nucleotide sequences.
// Copyright (c) 2017-2020 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elprep/blob/master/LICENSE.txt>.

package seeds

import (
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/exascience/elblast/dna"
	"github.com/google/go-cmp/cmp"
)

func randomSequence(r *rand.Rand, n int) []byte {
	seq := make([]byte, n)
	for i := range seq {
		seq[i] = dna.Alphabet[r.Intn(4)]
	}
	return seq
}

func mustIndex(t testing.TB, seq string, k int) *Index {
	index, err := NewIndex([]byte(seq), k)
	if err != nil {
		t.Fatal(err)
	}
	return index
}

func TestIndexWindows(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for _, n := range []int{11, 12, 50, 1000, 5000} {
		seq := randomSequence(r, n)
		index := mustIndex(t, string(seq), DefaultSeedLength)
		if got := index.Windows(); got != n-DefaultSeedLength+1 {
			t.Errorf("length %v: got %v windows, want %v", n, got, n-DefaultSeedLength+1)
		}
		for _, entry := range index.Entries() {
			for i, pos := range entry.Positions {
				if string(seq[pos:int(pos)+DefaultSeedLength]) != entry.Kmer {
					t.Fatalf("k-mer %v does not occur at %v", entry.Kmer, pos)
				}
				if i > 0 && entry.Positions[i-1] >= pos {
					t.Fatalf("positions of %v are not ascending: %v", entry.Kmer, entry.Positions)
				}
			}
		}
	}
}

func TestIndexRepeats(t *testing.T) {
	index := mustIndex(t, strings.Repeat("A", 20), 11)
	if index.Kmers() != 1 {
		t.Errorf("expected 1 distinct k-mer, got %v", index.Kmers())
	}
	want := []int32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	if diff := cmp.Diff(want, index.Positions(strings.Repeat("A", 11))); diff != "" {
		t.Errorf("unexpected positions (-want +got):\n%s", diff)
	}
	if best := index.MostRepeated(); len(best.Positions) != 10 {
		t.Errorf("MostRepeated returned %v", best)
	}
}

func TestIndexShortSequence(t *testing.T) {
	index := mustIndex(t, "ACGTACGTAC", 11)
	if index.Windows() != 0 || index.Kmers() != 0 {
		t.Error("a sequence shorter than k must yield an empty index")
	}
	index = mustIndex(t, "", 11)
	if index.Windows() != 0 {
		t.Error("an empty sequence must yield an empty index")
	}
}

func TestIndexCaseInsensitive(t *testing.T) {
	lower := mustIndex(t, "acgtACGTacgtTTGCAgg", 5)
	upper := mustIndex(t, "ACGTACGTACGTTTGCAGG", 5)
	if diff := cmp.Diff(upper.Entries(), lower.Entries()); diff != "" {
		t.Errorf("case changes the index (-upper +lower):\n%s", diff)
	}
}

func TestIndexErrors(t *testing.T) {
	_, err := NewIndex([]byte("ACGTNACGTACGT"), 3)
	var symErr *dna.InvalidSymbolError
	if !errors.As(err, &symErr) || symErr.Position != 4 {
		t.Errorf("expected an InvalidSymbolError at position 4, got %v", err)
	}
	if _, err := NewIndex([]byte("ACGT"), 0); !errors.Is(err, ErrInvalidSeedLength) {
		t.Errorf("expected ErrInvalidSeedLength, got %v", err)
	}
}

func TestSequenceLengthLimit(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("sequences cannot exceed the limit on 32-bit platforms")
	}
	n := MaxSequenceLength
	if err := checkSequenceLength(n); err != nil {
		t.Errorf("length %v: unexpected error %v", n, err)
	}
	if err := checkSequenceLength(n + 1); !errors.Is(err, ErrSequenceTooLong) {
		t.Errorf("length %v: expected ErrSequenceTooLong, got %v", n+1, err)
	}
	if err := checkSequenceLength(0); err != nil {
		t.Errorf("length 0: unexpected error %v", err)
	}
}

func TestMatch(t *testing.T) {
	query := mustIndex(t, "ACGTACGTACGTTTTT", 11)
	reference := mustIndex(t, "GGGACGTACGTACGTCCACGTACGTACG", 11)
	hits, err := Match(query, reference)
	if err != nil {
		t.Fatal(err)
	}
	want := []Hit{
		{Kmer: "ACGTACGTACG", Query: []int32{0}, Reference: []int32{3, 17}, Length: 11},
		{Kmer: "CGTACGTACGT", Query: []int32{1}, Reference: []int32{4}, Length: 11},
	}
	if diff := cmp.Diff(want, hits); diff != "" {
		t.Errorf("unexpected hits (-want +got):\n%s", diff)
	}
	for _, hit := range hits {
		if query.Positions(hit.Kmer) == nil || reference.Positions(hit.Kmer) == nil {
			t.Errorf("hit %v is not present in both indexes", hit.Kmer)
		}
	}
}

func TestMatchNone(t *testing.T) {
	hits, err := Match(mustIndex(t, strings.Repeat("A", 11), 11), mustIndex(t, strings.Repeat("C", 40), 11))
	if err != nil || len(hits) != 0 {
		t.Errorf("expected no hits, got %v, %v", hits, err)
	}
	if _, err := Match(mustIndex(t, "ACGT", 3), mustIndex(t, "ACGT", 4)); !errors.Is(err, ErrSeedLengthMismatch) {
		t.Errorf("expected ErrSeedLengthMismatch, got %v", err)
	}
}

func TestExpand(t *testing.T) {
	hits := []Hit{{Kmer: "x", Query: []int32{1, 5}, Reference: []int32{2, 7, 9}, Length: 11}}
	if n := len(Expand(hits)); n != 6 {
		t.Errorf("expected 6 occurrences, got %v", n)
	}
	if Expand(nil) != nil {
		t.Error("Expand of no hits must be empty")
	}
}

func TestMergeTransitive(t *testing.T) {
	occurrences := []MergedSeed{
		{QueryStart: 14, ReferenceStart: 114, Length: 11},
		{QueryStart: 0, ReferenceStart: 100, Length: 11},
		{QueryStart: 5, ReferenceStart: 105, Length: 11},
	}
	want := []MergedSeed{{QueryStart: 0, ReferenceStart: 100, Length: 25}}
	if diff := cmp.Diff(want, MergeSeeds(occurrences)); diff != "" {
		t.Errorf("unexpected merge (-want +got):\n%s", diff)
	}
}

func TestMergeKeepsScanning(t *testing.T) {
	occurrences := []MergedSeed{
		{QueryStart: 0, ReferenceStart: 10, Length: 11},
		// different diagonal in between
		{QueryStart: 3, ReferenceStart: 50, Length: 11},
		{QueryStart: 8, ReferenceStart: 18, Length: 11},
		// same diagonal, too far away
		{QueryStart: 30, ReferenceStart: 40, Length: 11},
		// adjacent to the previous one
		{QueryStart: 41, ReferenceStart: 51, Length: 11},
	}
	want := []MergedSeed{
		{QueryStart: 0, ReferenceStart: 10, Length: 19},
		{QueryStart: 3, ReferenceStart: 50, Length: 11},
		{QueryStart: 30, ReferenceStart: 40, Length: 22},
	}
	if diff := cmp.Diff(want, MergeSeeds(occurrences)); diff != "" {
		t.Errorf("unexpected merge (-want +got):\n%s", diff)
	}
}

func TestMergeEmpty(t *testing.T) {
	if len(Merge(nil)) != 0 {
		t.Error("merging no hits must yield no seeds")
	}
	if len(MergeSeeds([]MergedSeed{})) != 0 {
		t.Error("merging no occurrences must yield no seeds")
	}
}

func mergeable(a, b MergedSeed) bool {
	if a.QueryStart > b.QueryStart {
		a, b = b, a
	}
	return a.Diagonal() == b.Diagonal() && b.QueryStart-a.QueryStart <= a.Length
}

func TestMergeRandom(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	query := randomSequence(r, 300)
	reference := append(randomSequence(r, 100), query[20:200]...)
	reference = append(reference, randomSequence(r, 50)...)
	reference = append(reference, query[150:280]...)
	qi := mustIndex(t, string(query), 11)
	ri := mustIndex(t, string(reference), 11)
	hits, err := Match(qi, ri)
	if err != nil {
		t.Fatal(err)
	}
	merged := Merge(hits)
	for i := range merged {
		for j := i + 1; j < len(merged); j++ {
			if mergeable(merged[i], merged[j]) {
				t.Fatalf("seeds %v and %v can still be merged", merged[i], merged[j])
			}
		}
		if merged[i].Length < 11 {
			t.Errorf("seed %v is shorter than k", merged[i])
		}
	}
	found := false
	for _, seed := range merged {
		if seed.Diagonal() == -80 && seed.QueryStart <= 20 && seed.QueryEnd() >= 200 {
			found = true
		}
	}
	if !found {
		t.Errorf("the copied block was not merged into one seed: %v", merged)
	}
	again := MergeSeeds(append([]MergedSeed(nil), merged...))
	if diff := cmp.Diff(merged, again); diff != "" {
		t.Errorf("merging is not idempotent (-first +second):\n%s", diff)
	}
}

func BenchmarkNewIndex(b *testing.B) {
	seq := randomSequence(rand.New(rand.NewSource(1)), 1<<20)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := NewIndex(seq, DefaultSeedLength); err != nil {
			b.Fatal(err)
		}
	}
}

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
	"fmt"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/exascience/elblast/dna"
	"github.com/exascience/pargo/parallel"
)

// DefaultSeedLength is the default k-mer length.
const DefaultSeedLength = 11

// ErrInvalidSeedLength is returned for seed lengths smaller than 1.
var ErrInvalidSeedLength = errors.New("invalid seed length")

// ErrSequenceTooLong is returned for sequences whose positions do not
// fit in an int32.
var ErrSequenceTooLong = errors.New("sequence too long")

// MaxSequenceLength is the length of the longest sequence that can be
// indexed.
const MaxSequenceLength = math.MaxInt32

func checkSequenceLength(n int) error {
	if n > MaxSequenceLength {
		return fmt.Errorf("%w: %v bases, at most %v allowed", ErrSequenceTooLong, n, MaxSequenceLength)
	}
	return nil
}

// The number of shards is fixed so that two indexes always agree on
// the shard of a k-mer.
const indexShards = 64

// Index maps every k-mer of a sequence onto its start positions in
// ascending order. An Index is read-only once built and can be shared
// between goroutines.
type Index struct {
	k      int
	length int
	shards [indexShards]map[string][]int32
}

func shardOf(kmer []byte) int {
	return int(xxhash.Sum64(kmer) % indexShards)
}

// NewIndex slides a window of width k over seq and records the start
// position of every window.
//
// seq is validated and normalized first, so lower and upper case
// sequences yield the same index, and an invalid symbol fails with a
// *dna.InvalidSymbolError before anything is indexed. A sequence
// shorter than k yields a valid empty index. A sequence longer than
// MaxSequenceLength fails with ErrSequenceTooLong.
func NewIndex(seq []byte, k int) (*Index, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeedLength, k)
	}
	if err := checkSequenceLength(len(seq)); err != nil {
		return nil, err
	}
	seq, err := dna.Normalize(seq)
	if err != nil {
		return nil, err
	}
	index := &Index{k: k, length: len(seq)}
	for i := range index.shards {
		index.shards[i] = make(map[string][]int32)
	}
	windows := len(seq) - k + 1
	if windows <= 0 {
		return index, nil
	}
	hashes := make([]uint8, windows)
	parallel.Range(0, windows, 0, func(low, high int) {
		for i := low; i < high; i++ {
			hashes[i] = uint8(shardOf(seq[i : i+k]))
		}
	})
	// Each shard is filled by exactly one goroutine, scanning the
	// windows left to right, so position lists come out sorted.
	parallel.Range(0, indexShards, 0, func(low, high int) {
		for i := 0; i < windows; i++ {
			shard := int(hashes[i])
			if shard < low || shard >= high {
				continue
			}
			kmer := string(seq[i : i+k])
			m := index.shards[shard]
			m[kmer] = append(m[kmer], int32(i))
		}
	})
	return index, nil
}

// K returns the seed length of the index.
func (index *Index) K() int {
	return index.k
}

// SequenceLength returns the length of the indexed sequence.
func (index *Index) SequenceLength() int {
	return index.length
}

// Positions returns the ascending start positions of kmer, or nil.
// kmer must be upper case.
func (index *Index) Positions(kmer string) []int32 {
	if len(kmer) != index.k {
		return nil
	}
	return index.shards[shardOf([]byte(kmer))][kmer]
}

// Kmers returns the number of distinct k-mers in the index.
func (index *Index) Kmers() (n int) {
	for _, m := range index.shards {
		n += len(m)
	}
	return n
}

// Windows returns the number of indexed windows, counting repeated
// k-mers once per position.
func (index *Index) Windows() (n int) {
	for _, m := range index.shards {
		for _, positions := range m {
			n += len(positions)
		}
	}
	return n
}

// Entry is a k-mer with its positions.
type Entry struct {
	Kmer      string
	Positions []int32
}

// Entries returns all k-mers of the index, ordered by their first
// position.
func (index *Index) Entries() []Entry {
	entries := make([]Entry, 0, index.Kmers())
	for _, m := range index.shards {
		for kmer, positions := range m {
			entries = append(entries, Entry{Kmer: kmer, Positions: positions})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Positions[0] < entries[j].Positions[0]
	})
	return entries
}

// MostRepeated returns the entry with the most positions, ties broken
// by first position, or the zero Entry for an empty index.
func (index *Index) MostRepeated() (best Entry) {
	for _, entry := range index.Entries() {
		if len(entry.Positions) > len(best.Positions) {
			best = entry
		}
	}
	return best
}

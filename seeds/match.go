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
	"sort"

	"github.com/exascience/pargo/parallel"
)

// ErrSeedLengthMismatch is returned when matching indexes that were
// built with different seed lengths.
var ErrSeedLengthMismatch = errors.New("seed length mismatch")

// A Hit is a k-mer shared by the query and the reference, with all
// of its positions on both sides. It stands for every pair in the
// cartesian product of the two position lists.
type Hit struct {
	Kmer      string
	Query     []int32
	Reference []int32
	Length    int32
}

// Occurrences returns the number of raw seed occurrences of the hit.
func (hit Hit) Occurrences() int {
	return len(hit.Query) * len(hit.Reference)
}

// Match emits one Hit for every k-mer present in both indexes. Hits
// are sorted by their first query position, which is unique per
// k-mer.
func Match(query, reference *Index) ([]Hit, error) {
	if query.k != reference.k {
		return nil, fmt.Errorf("%w: query index uses %v, reference index uses %v", ErrSeedLengthMismatch, query.k, reference.k)
	}
	var shardHits [indexShards][]Hit
	parallel.Range(0, indexShards, 0, func(low, high int) {
		for shard := low; shard < high; shard++ {
			qm, rm := query.shards[shard], reference.shards[shard]
			if len(rm) < len(qm) {
				qm, rm = rm, qm
				for kmer, positions := range qm {
					if other, ok := rm[kmer]; ok {
						shardHits[shard] = append(shardHits[shard], Hit{Kmer: kmer, Query: other, Reference: positions, Length: int32(query.k)})
					}
				}
				continue
			}
			for kmer, positions := range qm {
				if other, ok := rm[kmer]; ok {
					shardHits[shard] = append(shardHits[shard], Hit{Kmer: kmer, Query: positions, Reference: other, Length: int32(query.k)})
				}
			}
		}
	})
	var hits []Hit
	for _, h := range shardHits {
		hits = append(hits, h...)
	}
	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Query[0] < hits[j].Query[0]
	})
	return hits, nil
}

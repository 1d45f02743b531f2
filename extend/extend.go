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

/*
Package extend grows merged seeds into aligned spans.

The only extension implemented is ungapped: both sides of a seed are
grown base by base along its diagonal, scored with the hamming scorer.
Gapped extension can be added as another Extender.
*/
package extend

import (
	"github.com/exascience/elblast/scoring"
	"github.com/exascience/elblast/seeds"
	"github.com/exascience/pargo/parallel"
)

// AlignedSpan is a region of similarity between query and reference.
// Starts are inclusive, ends are exclusive.
type AlignedSpan struct {
	QueryStart     int32
	QueryEnd       int32
	ReferenceStart int32
	ReferenceEnd   int32
	Score          int32
}

// QueryLen returns the length of the span on the query.
func (span AlignedSpan) QueryLen() int32 {
	return span.QueryEnd - span.QueryStart
}

// ReferenceLen returns the length of the span on the reference.
func (span AlignedSpan) ReferenceLen() int32 {
	return span.ReferenceEnd - span.ReferenceStart
}

// An Extender grows a merged seed into a span. Both sequences must be
// normalized and at most seeds.MaxSequenceLength bases long, and the
// seed must lie within them.
type Extender interface {
	Extend(query, reference []byte, seed seeds.MergedSeed) AlignedSpan
}

// Ungapped extends seeds along their diagonal only.
type Ungapped struct {
	Scorer *scoring.Scorer
}

// NewUngapped returns an ungapped Extender using the given scorer.
func NewUngapped(scorer *scoring.Scorer) Ungapped {
	return Ungapped{Scorer: scorer}
}

// Extend grows seed outwards one base at a time on both sides.
//
// The running score starts at HammingMatch times the seed length.
// Each step adds the hamming score of the next base pair on the left
// and on the right. A side freezes when it reaches the start of
// either sequence (left), or the end of the query or of the reference
// (right). Extension stops altogether before a step that would bring
// the score to zero or below, so the returned span always has a
// positive score.
func (u Ungapped) Extend(query, reference []byte, seed seeds.MergedSeed) AlignedSpan {
	qs, rs := int(seed.QueryStart), int(seed.ReferenceStart)
	qe, re := qs+int(seed.Length), rs+int(seed.Length)
	score := u.Scorer.HammingMatch() * seed.Length
	left, right := true, true
	for left || right {
		step := int32(0)
		if left && (qs == 0 || rs == 0) {
			left = false
		}
		if right && (qe == len(query) || re == len(reference)) {
			right = false
		}
		if left {
			step += u.Scorer.Hamming(query[qs-1], reference[rs-1])
		}
		if right {
			step += u.Scorer.Hamming(query[qe], reference[re])
		}
		if !left && !right {
			break
		}
		if score+step <= 0 {
			break
		}
		score += step
		if left {
			qs--
			rs--
		}
		if right {
			qe++
			re++
		}
	}
	return AlignedSpan{
		QueryStart:     int32(qs),
		QueryEnd:       int32(qe),
		ReferenceStart: int32(rs),
		ReferenceEnd:   int32(re),
		Score:          score,
	}
}

// ExtendAll extends every seed in parallel. Seeds are independent,
// and every goroutine writes its own result slots.
func ExtendAll(extender Extender, query, reference []byte, merged []seeds.MergedSeed) []AlignedSpan {
	spans := make([]AlignedSpan, len(merged))
	parallel.Range(0, len(merged), 0, func(low, high int) {
		for i := low; i < high; i++ {
			spans[i] = extender.Extend(query, reference, merged[i])
		}
	})
	return spans
}

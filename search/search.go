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

package search

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/exascience/elblast/dna"
	"github.com/exascience/elblast/extend"
	"github.com/exascience/elblast/fasta"
	"github.com/exascience/elblast/intervals"
	"github.com/exascience/elblast/seeds"
	"github.com/exascience/pargo/parallel"
)

// Strand is the query strand of a Hit.
type Strand byte

// Query strands.
const (
	Forward Strand = '+'
	Reverse Strand = '-'
)

func (s Strand) String() string {
	return string(s)
}

// A Hit is an aligned span between a named query and a named
// reference contig. The span is always given in coordinates of the
// forward query, also for hits on the reverse strand.
type Hit struct {
	QueryName     string
	ReferenceName string
	Strand        Strand
	Span          extend.AlignedSpan
	// MatrixScore is the substitution matrix score of the span.
	MatrixScore int32
}

// Result is the outcome of a search.
type Result struct {
	// Hits are ordered by reference contig, as given in the input,
	// then by reference start, query start and strand.
	Hits []Hit
	// Coverage marks, per query, the positions covered by a hit.
	Coverage map[string]*bitset.BitSet
	Stats    *Stats
}

// CoveredFraction returns the fraction of the named query covered by
// at least one hit.
func (result *Result) CoveredFraction(queryName string) float64 {
	coverage, ok := result.Coverage[queryName]
	if !ok || coverage.Len() == 0 {
		return 0
	}
	return float64(coverage.Count()) / float64(coverage.Len())
}

// A Searcher aligns every query against every reference contig.
type Searcher struct {
	Parameters Parameters
	// Targets, when not nil, restricts hits to reference regions.
	Targets map[string][]intervals.Interval
	// Stats is created by Search when nil.
	Stats *Stats
	// Progress, when not nil, is called after each alignment.
	Progress func()
}

// NewSearcher returns a Searcher for valid parameters.
func NewSearcher(params Parameters) (*Searcher, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Searcher{Parameters: params}, nil
}

func (s *Searcher) strands() int {
	if s.Parameters.BothStrands {
		return 2
	}
	return 1
}

// Alignments returns how many times Search calls Progress for the
// given inputs.
func (s *Searcher) Alignments(queries, references []fasta.Record) int {
	return len(queries) * len(references) * s.strands()
}

type strandQuery struct {
	name   string
	strand Strand
	seq    []byte
	index  *seeds.Index
}

func (a *aligner) prepare(record fasta.Record, slots []strandQuery) error {
	if err := a.checkQuery(record.Seq); err != nil {
		return fmt.Errorf("query %v: %w", record.Name, err)
	}
	seq, err := dna.Normalize(record.Seq)
	if err != nil {
		return fmt.Errorf("query %v: %w", record.Name, err)
	}
	index, err := a.index(seq)
	if err != nil {
		return fmt.Errorf("query %v: %w", record.Name, err)
	}
	slots[0] = strandQuery{name: record.Name, strand: Forward, seq: seq, index: index}
	if len(slots) > 1 {
		rc, err := dna.ReverseComplement(seq)
		if err != nil {
			return fmt.Errorf("query %v: %w", record.Name, err)
		}
		rcIndex, err := a.index(rc)
		if err != nil {
			return fmt.Errorf("query %v: %w", record.Name, err)
		}
		slots[1] = strandQuery{name: record.Name, strand: Reverse, seq: rc, index: rcIndex}
	}
	return nil
}

func (s *Searcher) toHit(a *aligner, query strandQuery, referenceName string, reference []byte, span extend.AlignedSpan) (Hit, bool, error) {
	if s.Targets != nil && !intervals.Overlap(s.Targets[referenceName], span.ReferenceStart, span.ReferenceEnd) {
		return Hit{}, false, nil
	}
	score, err := a.scorer.ScoreSeq(query.seq[span.QueryStart:span.QueryEnd], reference[span.ReferenceStart:span.ReferenceEnd])
	if err != nil {
		return Hit{}, false, err
	}
	if query.strand == Reverse {
		n := int32(len(query.seq))
		span.QueryStart, span.QueryEnd = n-span.QueryEnd, n-span.QueryStart
	}
	return Hit{
		QueryName:     query.name,
		ReferenceName: referenceName,
		Strand:        query.strand,
		Span:          span,
		MatrixScore:   score,
	}, true, nil
}

/*
Search aligns every query against every reference contig, and
against the reverse complement of every query if BothStrands is set.

Queries are indexed once, in parallel. Reference contigs are indexed
one at a time, and each index is discarded once all queries are
aligned against it.
*/
func (s *Searcher) Search(queries, references []fasta.Record) (*Result, error) {
	a := newAligner(s.Parameters, s.Stats)
	s.Stats = a.stats

	strands := s.strands()
	prepared := make([]strandQuery, len(queries)*strands)
	errs := make([]error, len(queries))
	parallel.Range(0, len(queries), 0, func(low, high int) {
		for i := low; i < high; i++ {
			errs[i] = a.prepare(queries[i], prepared[i*strands:(i+1)*strands])
		}
	})
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	result := &Result{
		Coverage: make(map[string]*bitset.BitSet, len(queries)),
		Stats:    a.stats,
	}
	for _, query := range queries {
		result.Coverage[query.Name] = bitset.New(uint(len(query.Seq)))
	}

	for _, ref := range references {
		seq, err := dna.Normalize(ref.Seq)
		if err != nil {
			return nil, fmt.Errorf("reference %v: %w", ref.Name, err)
		}
		index, err := a.index(seq)
		if err != nil {
			return nil, fmt.Errorf("reference %v: %w", ref.Name, err)
		}
		start := len(result.Hits)
		for _, query := range prepared {
			spans, err := a.align(query.seq, seq, query.index, index)
			if err != nil {
				return nil, err
			}
			for _, span := range spans {
				hit, ok, err := s.toHit(a, query, ref.Name, seq, span)
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
				coverage := result.Coverage[hit.QueryName]
				for i := hit.Span.QueryStart; i < hit.Span.QueryEnd; i++ {
					coverage.Set(uint(i))
				}
				result.Hits = append(result.Hits, hit)
			}
			if s.Progress != nil {
				s.Progress()
			}
		}
		contigHits := result.Hits[start:]
		sort.SliceStable(contigHits, func(i, j int) bool {
			hi, hj := contigHits[i], contigHits[j]
			switch {
			case hi.Span.ReferenceStart != hj.Span.ReferenceStart:
				return hi.Span.ReferenceStart < hj.Span.ReferenceStart
			case hi.Span.QueryStart != hj.Span.QueryStart:
				return hi.Span.QueryStart < hj.Span.QueryStart
			default:
				return hi.Strand < hj.Strand
			}
		})
	}
	a.stats.reported.Add(len(result.Hits))
	return result, nil
}

// Inputs are the sequences and targets of a search, loaded from
// files.
type Inputs struct {
	Queries    []fasta.Record
	References []fasta.Record
	Targets    map[string][]intervals.Interval
	mapped     *fasta.MappedFasta
}

// IsElfasta reports whether filename names an .elfasta file.
func IsElfasta(filename string) bool {
	return filepath.Ext(filename) == ".elfasta"
}

// Load reads the files of a validated configuration concurrently.
// References in .elfasta format stay mapped until Close.
func Load(cfg *Config) (*Inputs, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	inputs := new(Inputs)
	var queryErr, referenceErr, targetsErr error
	parallel.Do(
		func() {
			inputs.Queries, queryErr = fasta.ParseFasta(cfg.QueryPath)
		},
		func() {
			if IsElfasta(cfg.ReferencePath) {
				inputs.mapped = fasta.OpenElfasta(cfg.ReferencePath)
				inputs.References, referenceErr = inputs.mapped.Records()
			} else {
				inputs.References, referenceErr = fasta.ParseFasta(cfg.ReferencePath)
			}
		},
		func() {
			if cfg.TargetsPath != "" {
				inputs.Targets, targetsErr = intervals.FromBedFile(cfg.TargetsPath)
			}
		},
	)
	for _, err := range []error{queryErr, referenceErr, targetsErr} {
		if err != nil {
			_ = inputs.Close()
			return nil, err
		}
	}
	return inputs, nil
}

// Close releases a mapped reference.
func (inputs *Inputs) Close() error {
	if inputs.mapped == nil {
		return nil
	}
	err := inputs.mapped.Close()
	inputs.mapped = nil
	inputs.References = nil
	return err
}

// Search loads the inputs of cfg and searches them.
func Search(cfg *Config) (result *Result, err error) {
	inputs, err := Load(cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := inputs.Close(); err == nil {
			err = nerr
		}
	}()
	searcher, err := NewSearcher(cfg.Parameters)
	if err != nil {
		return nil, err
	}
	searcher.Targets = inputs.Targets
	return searcher.Search(inputs.Queries, inputs.References)
}

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

// Package scoring implements the substitution model used to compare
// nucleotides: a symmetric 4x4 matrix that distinguishes transitions
// from transversions, and a binary hamming scorer used during
// extension.
package scoring

import (
	"errors"
	"fmt"

	"github.com/exascience/elblast/dna"
)

// ErrInvalidScheme is returned for schemes that cannot drive an
// extension, that is schemes whose match scores are not positive.
var ErrInvalidScheme = errors.New("invalid scoring scheme")

// Scheme holds the tunable scoring constants.
type Scheme struct {
	// Match is the matrix score for identical bases.
	Match int32 `yaml:"match"`
	// Transition is the matrix score for A<->G and C<->T mismatches.
	Transition int32 `yaml:"transition"`
	// Transversion is the matrix score for all other mismatches.
	Transversion int32 `yaml:"transversion"`
	// HammingMatch and HammingMismatch drive the extension phase.
	HammingMatch    int32 `yaml:"hamming-match"`
	HammingMismatch int32 `yaml:"hamming-mismatch"`
}

// DefaultScheme returns the default constants: +4/-5/-7 for the
// matrix and +2/-1 for the hamming scorer.
func DefaultScheme() Scheme {
	return Scheme{
		Match:           4,
		Transition:      -5,
		Transversion:    -7,
		HammingMatch:    2,
		HammingMismatch: -1,
	}
}

// Validate checks that the scheme rewards matches.
func (s Scheme) Validate() error {
	if s.Match <= 0 {
		return fmt.Errorf("%w: match score %v must be positive", ErrInvalidScheme, s.Match)
	}
	if s.HammingMatch <= 0 {
		return fmt.Errorf("%w: hamming match score %v must be positive", ErrInvalidScheme, s.HammingMatch)
	}
	return nil
}

// Matrix is a substitution matrix indexed by dna alphabet codes.
type Matrix [dna.AlphabetSize][dna.AlphabetSize]int32

func isTransition(a, b int) bool {
	// A=0, C=1, G=2, T=3: purines and pyrimidines differ by 2.
	return a^b == 2
}

// NewMatrix builds the substitution matrix of a scheme.
func NewMatrix(s Scheme) (m Matrix) {
	for a := 0; a < dna.AlphabetSize; a++ {
		for b := 0; b < dna.AlphabetSize; b++ {
			switch {
			case a == b:
				m[a][b] = s.Match
			case isTransition(a, b):
				m[a][b] = s.Transition
			default:
				m[a][b] = s.Transversion
			}
		}
	}
	return m
}

// Scorer scores pairs of bases under a scheme. The zero value is not
// usable; use NewScorer.
type Scorer struct {
	matrix          Matrix
	hammingMatch    int32
	hammingMismatch int32
}

// NewScorer returns a Scorer for the given scheme.
func NewScorer(s Scheme) *Scorer {
	return &Scorer{
		matrix:          NewMatrix(s),
		hammingMatch:    s.HammingMatch,
		hammingMismatch: s.HammingMismatch,
	}
}

// Default is the Scorer for DefaultScheme.
var Default = NewScorer(DefaultScheme())

// Matrix returns the substitution matrix.
func (s *Scorer) Matrix() Matrix {
	return s.matrix
}

// Score returns the matrix score for two bases.
func (s *Scorer) Score(a, b byte) (int32, error) {
	ca, err := dna.Encode(a)
	if err != nil {
		return 0, err
	}
	cb, err := dna.Encode(b)
	if err != nil {
		return 0, err
	}
	return s.matrix[ca][cb], nil
}

// Hamming returns the binary score for two bases: HammingMatch if
// they are equal, HammingMismatch otherwise. Bases must be normalized.
func (s *Scorer) Hamming(a, b byte) int32 {
	if a == b {
		return s.hammingMatch
	}
	return s.hammingMismatch
}

// HammingMatch returns the per-base score of an identical pair.
func (s *Scorer) HammingMatch() int32 {
	return s.hammingMatch
}

// ScoreSeq sums the matrix scores of two sequences of equal length.
func (s *Scorer) ScoreSeq(a, b []byte) (score int32, err error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("cannot score sequences of different lengths %v and %v", len(a), len(b))
	}
	for i, c := range a {
		ca := dna.Code(c)
		cb := dna.Code(b[i])
		if !dna.Valid(c) {
			return 0, &dna.InvalidSymbolError{Symbol: c, Position: i}
		}
		if !dna.Valid(b[i]) {
			return 0, &dna.InvalidSymbolError{Symbol: b[i], Position: i}
		}
		score += s.matrix[ca][cb]
	}
	return score, nil
}

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
	"errors"
	"fmt"
	"os"

	"github.com/exascience/elblast/scoring"
	"github.com/exascience/elblast/seeds"
	"gopkg.in/yaml.v2"
)

// ErrMissingPath is returned by Config.Validate when the query or the
// reference path is not set.
var ErrMissingPath = errors.New("missing path")

// ErrQueryTooLong is returned for queries that exceed
// Parameters.MaxQueryLength.
var ErrQueryTooLong = errors.New("query too long")

// Parameters are the tunable settings of a search.
type Parameters struct {
	// SeedLength is the k-mer length used for indexing.
	SeedLength int `yaml:"seed-length"`
	// Scheme holds the scoring constants.
	Scheme scoring.Scheme `yaml:"scoring"`
	// MinScore drops spans with a lower extension score.
	MinScore int32 `yaml:"min-score"`
	// MaxQueryLength bounds the length of a query; 0 means unlimited.
	MaxQueryLength int `yaml:"max-query-length"`
	// BothStrands also searches the reverse complement of each query.
	BothStrands bool `yaml:"both-strands"`
	// Unique reports identical spans only once.
	Unique bool `yaml:"unique"`
}

// DefaultParameters returns k=11, the default scoring scheme, and no
// filtering.
func DefaultParameters() Parameters {
	return Parameters{
		SeedLength: seeds.DefaultSeedLength,
		Scheme:     scoring.DefaultScheme(),
	}
}

// Validate checks that the parameters can drive a search.
func (p Parameters) Validate() error {
	if p.SeedLength < 1 {
		return fmt.Errorf("%w: %v", seeds.ErrInvalidSeedLength, p.SeedLength)
	}
	if p.MaxQueryLength < 0 {
		return fmt.Errorf("invalid maximum query length %v", p.MaxQueryLength)
	}
	return p.Scheme.Validate()
}

// ParseParameters decodes YAML parameters on top of the defaults.
// Unknown keys are rejected.
func ParseParameters(data []byte) (Parameters, error) {
	params := DefaultParameters()
	if err := yaml.UnmarshalStrict(data, &params); err != nil {
		return Parameters{}, fmt.Errorf("cannot parse parameters: %w", err)
	}
	if err := params.Validate(); err != nil {
		return Parameters{}, err
	}
	return params, nil
}

// LoadParameters reads YAML parameters from a file.
func LoadParameters(filename string) (Parameters, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Parameters{}, err
	}
	params, err := ParseParameters(data)
	if err != nil {
		return Parameters{}, fmt.Errorf("%v: %w", filename, err)
	}
	return params, nil
}

// Config describes one search run.
type Config struct {
	// QueryPath is a FASTA file with one or more queries.
	QueryPath string
	// ReferencePath is a FASTA or .elfasta file with the reference
	// contigs.
	ReferencePath string
	// TargetsPath is an optional BED file. When set, only hits that
	// overlap one of its regions are reported.
	TargetsPath string
	Parameters  Parameters
}

// NewConfig returns a Config with default parameters.
func NewConfig(queryPath, referencePath string) *Config {
	return &Config{
		QueryPath:     queryPath,
		ReferencePath: referencePath,
		Parameters:    DefaultParameters(),
	}
}

// Validate checks the required fields and the parameters.
func (cfg *Config) Validate() error {
	if cfg.QueryPath == "" {
		return fmt.Errorf("%w: no query file given", ErrMissingPath)
	}
	if cfg.ReferencePath == "" {
		return fmt.Errorf("%w: no reference file given", ErrMissingPath)
	}
	return cfg.Parameters.Validate()
}

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

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"

	"github.com/exascience/elblast/bed"
	"github.com/exascience/elblast/internal"
	"github.com/exascience/elblast/search"
	"github.com/exascience/elblast/utils"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

const (
	flagQuery          = "query"
	flagReference      = "reference"
	flagOutput         = "output"
	flagParams         = "params"
	flagMinScore       = "min-score"
	flagBothStrands    = "both-strands"
	flagUnique         = "unique"
	flagTargets        = "targets"
	flagMaxQueryLength = "max-query-length"
	flagMetricsFile    = "metrics-file"
)

var (
	commonFlags = []cli.Flag{
		&cli.IntFlag{
			Name:  flagNrOfThreads,
			Usage: "Number of worker threads. 0 uses all available cores",
		},
		&cli.BoolFlag{
			Name:  flagTimed,
			Usage: "Log the elapsed time of each phase",
		},
		&cli.StringFlag{
			Name:  flagProfile,
			Usage: "Write a CPU profile per phase to files with this prefix",
		},
		&cli.StringFlag{
			Name:  flagLogPath,
			Usage: "Directory for log files. Defaults to $HOME",
		},
	}

	searchFlags = []cli.Flag{
		&cli.StringFlag{
			Name:     flagQuery,
			Aliases:  []string{"q"},
			Usage:    "FASTA file with one or more queries, plain or gzipped",
			Required: true,
		},
		&cli.StringFlag{
			Name:     flagReference,
			Aliases:  []string{"r"},
			Usage:    "Reference genome as FASTA, plain or gzipped, or .elfasta",
			Required: true,
		},
		&cli.StringFlag{
			Name:    flagOutput,
			Aliases: []string{"o"},
			Usage:   "BED file for the hits. Defaults to stdout",
		},
		&cli.StringFlag{
			Name:  flagParams,
			Usage: "YAML file with search parameters. Command line flags take precedence",
		},
		&cli.IntFlag{
			Name:  flagSeedLength,
			Value: search.DefaultParameters().SeedLength,
			Usage: "Length of the k-mers used as seeds",
		},
		&cli.IntFlag{
			Name:  flagMinScore,
			Usage: "Drop hits with a lower extension score",
		},
		&cli.BoolFlag{
			Name:  flagBothStrands,
			Usage: "Also search the reverse complement of each query",
		},
		&cli.BoolFlag{
			Name:  flagUnique,
			Usage: "Report identical hits only once",
		},
		&cli.StringFlag{
			Name:  flagTargets,
			Usage: "BED file; only hits overlapping one of its regions are reported",
		},
		&cli.IntFlag{
			Name:  flagMaxQueryLength,
			Usage: "Reject queries longer than this. 0 means unlimited",
		},
		&cli.StringFlag{
			Name:  flagMetricsFile,
			Usage: "Write pipeline counters in Prometheus text format to this file",
		},
		&cli.BoolFlag{
			Name:  flagQuiet,
			Usage: "Do not show a progress bar",
		},
	}
)

func mergeFlags(flags ...[]cli.Flag) []cli.Flag {
	var result []cli.Flag
	for _, f := range flags {
		result = append(result, f...)
	}
	return result
}

// searchParameters reads the parameters file, if any, and applies the
// flags that are explicitly set on top of it.
func searchParameters(c *cli.Context, command *strings.Builder) (params search.Parameters, err error) {
	params = search.DefaultParameters()
	if file := c.String(flagParams); file != "" {
		if params, err = search.LoadParameters(file); err != nil {
			return params, err
		}
		fmt.Fprint(command, " --", flagParams, " ", file)
	}
	if c.IsSet(flagSeedLength) {
		params.SeedLength = c.Int(flagSeedLength)
	}
	if c.IsSet(flagMinScore) {
		params.MinScore = int32(c.Int(flagMinScore))
	}
	if c.IsSet(flagMaxQueryLength) {
		params.MaxQueryLength = c.Int(flagMaxQueryLength)
	}
	if c.IsSet(flagBothStrands) {
		params.BothStrands = c.Bool(flagBothStrands)
	}
	if c.IsSet(flagUnique) {
		params.Unique = c.Bool(flagUnique)
	}
	fmt.Fprint(command, " --", flagSeedLength, " ", params.SeedLength)
	if params.MinScore != 0 {
		fmt.Fprint(command, " --", flagMinScore, " ", params.MinScore)
	}
	if params.MaxQueryLength != 0 {
		fmt.Fprint(command, " --", flagMaxQueryLength, " ", params.MaxQueryLength)
	}
	if params.BothStrands {
		fmt.Fprint(command, " --", flagBothStrands)
	}
	if params.Unique {
		fmt.Fprint(command, " --", flagUnique)
	}
	return params, params.Validate()
}

// commonOptions handles the flags shared by all commands.
func commonOptions(c *cli.Context, command *strings.Builder, runID uuid.UUID) (timed bool, profile string, err error) {
	if n := c.Int(flagNrOfThreads); n < 0 {
		return false, "", fmt.Errorf("invalid %v: %v", flagNrOfThreads, n)
	} else if n > 0 {
		runtime.GOMAXPROCS(n)
		fmt.Fprint(command, " --", flagNrOfThreads, " ", n)
	}
	timed = c.Bool(flagTimed)
	if timed {
		fmt.Fprint(command, " --", flagTimed)
	}
	profile = c.String(flagProfile)
	if profile != "" {
		fmt.Fprint(command, " --", flagProfile, " ", profile)
	}
	if logPath := c.String(flagLogPath); logPath != "" {
		if err := setLogOutput(logPath, runID); err != nil {
			return false, "", err
		}
		fmt.Fprint(command, " --", flagLogPath, " ", logPath)
	}
	return timed, profile, nil
}

func writeHits(hits []search.Hit, output string, fields ...bed.TrackField) (err error) {
	b, err := search.ToBed(hits, fields...)
	if err != nil {
		return err
	}
	if output == "" || output == "-" {
		out := bufio.NewWriter(os.Stdout)
		if err := b.Write(out); err != nil {
			return err
		}
		return out.Flush()
	}
	return bed.WriteBed(b, output)
}

func writeMetrics(stats *search.Stats, filename string) (err error) {
	file, err := internal.FileCreate(filename)
	if err != nil {
		return err
	}
	defer internal.Close(file, &err)
	out := bufio.NewWriter(file)
	stats.WritePrometheus(out)
	return out.Flush()
}

// SearchCommand aligns queries against a reference and writes the
// hits as BED.
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Find local alignments of queries in a reference genome",
		UsageText: utils.ProgramName + " search --query file.fa --reference ref.fa [options]",
		Flags:     mergeFlags(searchFlags, commonFlags),
		Action:    runSearch,
	}
}

func runSearch(c *cli.Context) error {
	runID := uuid.New()
	var command strings.Builder
	fmt.Fprint(&command, utils.ProgramName, " search")

	timed, profile, err := commonOptions(c, &command, runID)
	if err != nil {
		return err
	}
	params, err := searchParameters(c, &command)
	if err != nil {
		return err
	}
	cfg := search.NewConfig(c.String(flagQuery), c.String(flagReference))
	cfg.Parameters = params
	cfg.TargetsPath = c.String(flagTargets)
	if err := cfg.Validate(); err != nil {
		return err
	}
	fmt.Fprint(&command, " --", flagQuery, " ", cfg.QueryPath, " --", flagReference, " ", cfg.ReferencePath)
	if cfg.TargetsPath != "" {
		fmt.Fprint(&command, " --", flagTargets, " ", cfg.TargetsPath)
	}
	output := c.String(flagOutput)
	if output != "" {
		fmt.Fprint(&command, " --", flagOutput, " ", output)
	}
	metricsFile := c.String(flagMetricsFile)
	if metricsFile != "" {
		fmt.Fprint(&command, " --", flagMetricsFile, " ", metricsFile)
	}

	log.Println("Executing command:\n", command.String())

	var inputs *search.Inputs
	if err := timedRun(timed, profile, "Loading query and reference.", 1, func() (err error) {
		inputs, err = search.Load(cfg)
		return err
	}); err != nil {
		return err
	}
	defer func() {
		if err := inputs.Close(); err != nil {
			log.Println("Warning:", err)
		}
	}()
	log.Printf("Loaded %v queries and %v reference contigs.\n", len(inputs.Queries), len(inputs.References))

	searcher, err := search.NewSearcher(cfg.Parameters)
	if err != nil {
		return err
	}
	searcher.Targets = inputs.Targets
	bar := newProgressBar(searcher.Alignments(inputs.Queries, inputs.References), c.Bool(flagQuiet))
	if bar != nil {
		searcher.Progress = func() { bar.Increment() }
	}

	var result *search.Result
	err = timedRun(timed, profile, "Aligning.", 2, func() (err error) {
		result, err = searcher.Search(inputs.Queries, inputs.References)
		return err
	})
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	for _, query := range inputs.Queries {
		log.Printf("Query %v: %.1f%% covered.\n", query.Name, 100*result.CoveredFraction(query.Name))
	}
	log.Printf("Found %v hits in %v merged seeds.\n", len(result.Hits), result.Stats.MergedSeeds())

	if err := timedRun(timed, profile, "Writing hits.", 3, func() error {
		return writeHits(result.Hits,
			output,
			bed.TrackField{Key: "name", Value: utils.ProgramName},
			bed.TrackField{Key: "description", Value: fmt.Sprintf("%v hits of %v in %v, run %v", utils.ProgramName, cfg.QueryPath, cfg.ReferencePath, runID)},
		)
	}); err != nil {
		return err
	}

	if metricsFile != "" {
		if err := writeMetrics(result.Stats, metricsFile); err != nil {
			return fmt.Errorf("cannot write metrics: %w", err)
		}
	}
	return nil
}

// ErrMissingArguments is returned by commands called with too few
// arguments.
var ErrMissingArguments = errors.New("missing arguments")

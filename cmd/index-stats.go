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
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/exascience/elblast/fasta"
	"github.com/exascience/elblast/search"
	"github.com/exascience/elblast/seeds"
	"github.com/exascience/elblast/utils"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

const flagInput = "input"

// IndexStatsCommand prints seed index statistics for each record of a
// FASTA or .elfasta file: its length, the number of windows, the
// number of distinct k-mers and the most repeated k-mer.
func IndexStatsCommand() *cli.Command {
	return &cli.Command{
		Name:      "index-stats",
		Usage:     "Print seed index statistics per sequence",
		UsageText: utils.ProgramName + " index-stats --input file.fa [--seed-length k]",
		Flags: mergeFlags([]cli.Flag{
			&cli.StringFlag{
				Name:     flagInput,
				Aliases:  []string{"i"},
				Usage:    "FASTA file, plain or gzipped, or .elfasta",
				Required: true,
			},
			&cli.IntFlag{
				Name:  flagSeedLength,
				Value: seeds.DefaultSeedLength,
				Usage: "Length of the k-mers used as seeds",
			},
		}, commonFlags),
		Action: runIndexStats,
	}
}

func readRecords(filename string) (records []fasta.Record, closeFn func() error, err error) {
	if search.IsElfasta(filename) {
		mapped := fasta.OpenElfasta(filename)
		records, err = mapped.Records()
		if err != nil {
			_ = mapped.Close()
			return nil, nil, err
		}
		return records, mapped.Close, nil
	}
	records, err = fasta.ParseFasta(filename)
	return records, func() error { return nil }, err
}

func runIndexStats(c *cli.Context) (err error) {
	var command strings.Builder
	fmt.Fprint(&command, utils.ProgramName, " index-stats")
	timed, profile, err := commonOptions(c, &command, uuid.New())
	if err != nil {
		return err
	}
	input, k := c.String(flagInput), c.Int(flagSeedLength)
	fmt.Fprint(&command, " --", flagInput, " ", input, " --", flagSeedLength, " ", k)
	log.Println("Executing command:\n", command.String())

	records, closeFn, err := readRecords(input)
	if err != nil {
		return err
	}
	defer func() {
		if nerr := closeFn(); err == nil {
			err = nerr
		}
	}()

	out := bufio.NewWriter(os.Stdout)
	fmt.Fprintln(out, "name\tlength\twindows\tkmers\tmost-repeated\tcount")
	for i, record := range records {
		if err := timedRun(timed, profile, "Indexing "+record.Name+".", int64(i+1), func() error {
			index, err := seeds.NewIndex(record.Seq, k)
			if err != nil {
				return fmt.Errorf("%v: %w", record.Name, err)
			}
			best := index.MostRepeated()
			fmt.Fprintf(out, "%v\t%v\t%v\t%v\t%v\t%v\n", record.Name, index.SequenceLength(), index.Windows(), index.Kmers(), best.Kmer, len(best.Positions))
			return nil
		}); err != nil {
			return err
		}
	}
	return out.Flush()
}

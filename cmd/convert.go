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
	"fmt"
	"log"
	"strings"

	"github.com/exascience/elblast/fasta"
	"github.com/exascience/elblast/search"
	"github.com/exascience/elblast/utils"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

// FastaToElfastaCommand converts a FASTA reference into the mmappable
// .elfasta format accepted by the search command.
func FastaToElfastaCommand() *cli.Command {
	return &cli.Command{
		Name:      "fasta-to-elfasta",
		Usage:     "Convert a FASTA reference to .elfasta",
		UsageText: utils.ProgramName + " fasta-to-elfasta fasta-file elfasta-file [--log-path path]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagLogPath,
				Usage: "Directory for log files. Defaults to $HOME",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("%w: fasta-to-elfasta needs an input and an output file", ErrMissingArguments)
			}
			input, output := c.Args().Get(0), c.Args().Get(1)
			if !search.IsElfasta(output) {
				log.Printf("Warning: %v does not have the .elfasta extension and will not be recognized as such by the search command.\n", output)
			}
			if logPath := c.String(flagLogPath); logPath != "" {
				if err := setLogOutput(logPath, uuid.New()); err != nil {
					return err
				}
			}
			log.Println("Executing command:\n", strings.Join([]string{utils.ProgramName, "fasta-to-elfasta", input, output}, " "))
			records, err := fasta.ParseFasta(input)
			if err != nil {
				return err
			}
			return fasta.ToElfasta(records, output)
		},
	}
}

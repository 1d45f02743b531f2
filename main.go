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

// elBLAST finds local alignments of nucleotide queries in a reference
// genome with a seed-and-extend strategy: shared k-mers are merged
// along their diagonals and extended without gaps.
//
// See the search package for the pipeline, and below for the
// commands.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/exascience/elblast/cmd"
	"github.com/exascience/elblast/utils"
	"github.com/urfave/cli/v2"
)

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	app := &cli.App{
		Name:    utils.ProgramName,
		Usage:   "seed-and-extend local alignment of nucleotide sequences",
		Version: utils.ProgramVersion,
		Commands: []*cli.Command{
			cmd.SearchCommand(),
			cmd.IndexStatsCommand(),
			cmd.FastaToElfastaCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

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

package bed

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/exascience/elblast/internal"
	"github.com/exascience/elblast/utils"
	"github.com/exascience/pargo/pipeline"
)

type bedLine struct {
	track  *Track
	region *Region
}

func parseTrackLine(line string) *Track {
	track := NewTrack()
	rest := strings.TrimSpace(strings.TrimPrefix(line, "track"))
	for rest != "" {
		eq := strings.IndexByte(rest, '=')
		if eq < 0 {
			break
		}
		key := strings.TrimSpace(rest[:eq])
		rest = rest[eq+1:]
		var value string
		if strings.HasPrefix(rest, "\"") {
			end := strings.IndexByte(rest[1:], '"')
			if end < 0 {
				value, rest = rest[1:], ""
			} else {
				value, rest = rest[1:end+1], rest[end+2:]
			}
		} else if sp := strings.IndexAny(rest, " \t"); sp >= 0 {
			value, rest = rest[:sp], rest[sp:]
		} else {
			value, rest = rest, ""
		}
		track.Fields = append(track.Fields, TrackField{Key: key, Value: value})
		rest = strings.TrimSpace(rest)
	}
	return track
}

func parseRegionLine(line string) (*Region, error) {
	data := strings.Split(line, "\t")
	if len(data) < 3 {
		return nil, fmt.Errorf("invalid BED line %q: fewer than 3 columns", line)
	}
	start, err := strconv.ParseInt(data[1], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid BED start in line %q: %w", line, err)
	}
	end, err := strconv.ParseInt(data[2], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid BED end in line %q: %w", line, err)
	}
	return NewRegion(utils.Intern(data[0]), int32(start), int32(end), data[3:])
}

// Parse parses BED content. Lines are parsed in parallel, and
// regions are added in the order of the input. See
// https://genome.ucsc.edu/FAQ/FAQformat.html#format1
func Parse(reader io.Reader) (*Bed, error) {
	bed := NewBed()
	var p pipeline.Pipeline
	p.Source(pipeline.NewScanner(reader))
	p.Add(
		pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
			strs := data.([]string)
			lines := make([]bedLine, 0, len(strs))
			for _, str := range strs {
				switch {
				case str == "",
					strings.HasPrefix(str, "#"),
					strings.HasPrefix(str, "browser"):
					continue
				case strings.HasPrefix(str, "track"):
					lines = append(lines, bedLine{track: parseTrackLine(str)})
				default:
					region, err := parseRegionLine(str)
					if err != nil {
						p.SetErr(err)
						return lines
					}
					lines = append(lines, bedLine{region: region})
				}
			}
			return lines
		})),
		pipeline.Ord(pipeline.Receive(func(_ int, data interface{}) interface{} {
			for _, line := range data.([]bedLine) {
				if line.track != nil {
					bed.AddTrack(line.track)
				} else {
					bed.AddRegion(line.region)
				}
			}
			return data
		})),
	)
	if err := internal.RunPipeline(&p); err != nil {
		return nil, err
	}
	bed.SortRegions()
	return bed, nil
}

// ParseBed parses a plain or gzipped BED file.
func ParseBed(filename string) (result *Bed, err error) {
	file, err := internal.FileOpen(filename)
	if err != nil {
		return nil, err
	}
	defer internal.Close(file, &err)

	reader, err := utils.HandleGzip(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("%v: %w", filename, err)
	}
	result, err = Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", filename, err)
	}
	return result, nil
}

func appendRegion(buf []byte, region *Region) []byte {
	buf = append(buf, *region.Chrom...)
	buf = append(buf, '\t')
	buf = strconv.AppendInt(buf, int64(region.Start), 10)
	buf = append(buf, '\t')
	buf = strconv.AppendInt(buf, int64(region.End), 10)
	if region.NFields > 3 {
		buf = append(buf, '\t')
		buf = append(buf, region.Name...)
	}
	if region.NFields > 4 {
		buf = append(buf, '\t')
		buf = strconv.AppendInt(buf, int64(region.Score), 10)
	}
	if region.NFields > 5 {
		buf = append(buf, '\t')
		strand := region.Strand
		if strand == nil {
			strand = SU
		}
		buf = append(buf, *strand...)
	}
	return append(buf, '\n')
}

func appendTrack(buf []byte, track *Track) []byte {
	buf = append(buf, "track"...)
	for _, field := range track.Fields {
		buf = append(buf, ' ')
		buf = append(buf, field.Key...)
		buf = append(buf, '=')
		if strings.ContainsAny(field.Value, " \t") {
			buf = append(buf, '"')
			buf = append(buf, field.Value...)
			buf = append(buf, '"')
		} else {
			buf = append(buf, field.Value...)
		}
	}
	return append(buf, '\n')
}

// Write writes the bed in BED format: regions that precede the first
// track, then each track line followed by its regions.
func (bed *Bed) Write(w io.Writer) error {
	pooled := internal.ReserveByteBuffer()
	defer internal.ReleaseByteBuffer(pooled)
	buf := *pooled
	for _, region := range bed.untracked {
		buf = appendRegion(buf, region)
	}
	for _, track := range bed.Tracks {
		buf = appendTrack(buf, track)
		for _, region := range track.Regions {
			buf = appendRegion(buf, region)
		}
	}
	*pooled = buf
	_, err := w.Write(buf)
	return err
}

// WriteBed writes the bed to a file.
func WriteBed(bed *Bed, filename string) (err error) {
	file, err := internal.FileCreate(filename)
	if err != nil {
		return err
	}
	defer internal.Close(file, &err)
	output := bufio.NewWriter(file)
	if err = bed.Write(output); err != nil {
		return err
	}
	return output.Flush()
}

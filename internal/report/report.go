// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package report renders measurement results as console tables and CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/hashset/internal/stats"
)

const (
	nameWidth = 20
	cellWidth = 5
)

// Series is the sweep of one table configuration over the load factors.
type Series struct {
	Name    string
	Results []stats.Result
}

func percent(lf float64) string {
	return fmt.Sprintf("%.0f%%", lf*100)
}

// center pads s with spaces to width, putting the extra space on the right.
func center(s string, width int) string {
	pad := width - len(s)
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad/2) + s + strings.Repeat(" ", pad-pad/2)
}

func row(w io.Writer, label string, cells []string) error {
	for i := range cells {
		cells[i] = center(cells[i], cellWidth)
	}
	_, err := fmt.Fprintf(w, "%-*s%s\n", nameWidth, label, strings.Join(cells, "|"))
	return err
}

func check(s Series, loadFactors []float64) error {
	if len(s.Results) != len(loadFactors) {
		return fmt.Errorf("report: %s has %d results for %d load factors",
			s.Name, len(s.Results), len(loadFactors))
	}
	return nil
}

// Console writes a table of s with one column per load factor and one row
// per statistic: collisions and time for lookups that found their key (+)
// and for those that did not (-).
func Console(w io.Writer, s Series, loadFactors []float64) error {
	if err := check(s, loadFactors); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	header := make([]string, len(loadFactors))
	for i, lf := range loadFactors {
		header[i] = percent(lf)
	}
	if err := row(w, s.Name, header); err != nil {
		return err
	}
	for _, stat := range []struct {
		label string
		value func(stats.Result) float64
	}{
		{"+ collisions", func(r stats.Result) float64 { return r.SuccessCollisions }},
		{"+ time[ns]", func(r stats.Result) float64 { return r.SuccessTime }},
		{"- collisions", func(r stats.Result) float64 { return r.FailureCollisions }},
		{"- time[ns]", func(r stats.Result) float64 { return r.FailureTime }},
	} {
		cells := make([]string, len(s.Results))
		for i, r := range s.Results {
			cells[i] = strconv.FormatFloat(stat.value(r), 'f', 2, 64)
		}
		if err := row(w, stat.label, cells); err != nil {
			return err
		}
	}
	return nil
}

// CSV writes every series as one record with four columns per load factor,
// preceded by a header record.
func CSV(w io.Writer, series []Series, loadFactors []float64) error {
	writer := csv.NewWriter(w)

	header := []string{"Name"}
	for _, lf := range loadFactors {
		p := percent(lf)
		header = append(header,
			"Success Collisions("+p+")",
			"Success Time("+p+")[ns]",
			"Failures Collisions("+p+")",
			"Failures Time("+p+")[ns]",
		)
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("error writing CSV header: %w", err)
	}

	format := func(v float64) string {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	for _, s := range series {
		if err := check(s, loadFactors); err != nil {
			return err
		}
		record := []string{s.Name}
		for _, r := range s.Results {
			record = append(record,
				format(r.SuccessCollisions),
				format(r.SuccessTime),
				format(r.FailureCollisions),
				format(r.FailureTime),
			)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("error writing CSV record for %s: %w", s.Name, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

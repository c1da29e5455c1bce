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

// Command hashstats measures collisions and lookup times of hash table
// configurations over a range of load factors. Results are printed as one
// table per configuration and written to a CSV file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/cockroachdb/hashset"
	"github.com/cockroachdb/hashset/internal/report"
	"github.com/cockroachdb/hashset/internal/stats"
)

func main() {
	configFile := flag.String("config", "", "config file (yaml, json or toml)")
	flag.Parse()

	cfg, err := loadConfig(viper.New(), *configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, err := newLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, logger, os.Stdout); err != nil {
		logger.Fatal().Err(err).Msg("hashstats failed")
	}
}

func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("config: %w", err)
	}
	out := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "02-01-2006 15:04:05.000",
		FormatLevel: func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("%-6s", i))
		},
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// run measures every configured table, at most cfg.Workers at a time, and
// reports the results in configuration order.
func run(ctx context.Context, cfg Config, logger zerolog.Logger, out io.Writer) error {
	configs, err := cfg.tableConfigs()
	if err != nil {
		return err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	logger.Info().Int("configs", len(configs)).Int("load_factors", len(cfg.LoadFactors)).
		Uint64("seed", seed).Msg("starting")

	series := make([]report.Series, len(configs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, c := range configs {
		g.Go(func() error {
			name := c.String()
			tableLogger := logger.With().Str("config", name).Logger()
			builder, err := hashset.NewBuilder(c,
				hashset.WithCapacity(cfg.Capacity), hashset.WithLogger(tableLogger))
			if err != nil {
				return err
			}
			r := &stats.Runner{
				Builder:     builder,
				Capacity:    cfg.Capacity,
				Resize:      cfg.Resize,
				BudgetBytes: cfg.BudgetBytes,
				Samples:     cfg.Samples,
				Iterations:  cfg.Iterations,
				Rand:        rand.New(rand.NewPCG(seed, uint64(i))),
				Logger:      tableLogger,
			}
			start := time.Now()
			results, err := r.Sweep(ctx, cfg.LoadFactors)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			series[i] = report.Series{Name: name, Results: results}
			tableLogger.Info().Dur("elapsed", time.Since(start)).Msg("measured")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, s := range series {
		if err := report.Console(out, s, cfg.LoadFactors); err != nil {
			return err
		}
	}
	if cfg.CSV == "" {
		return nil
	}
	f, err := os.Create(cfg.CSV)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer f.Close()
	if err := report.CSV(f, series, cfg.LoadFactors); err != nil {
		return err
	}
	logger.Info().Str("path", cfg.CSV).Msg("wrote CSV")
	return f.Close()
}

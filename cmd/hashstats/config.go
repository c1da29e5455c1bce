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

package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/cockroachdb/hashset"
)

// Config is the configuration of a hashstats run. Every key can be set in
// a config file or through a HASHSTATS_ prefixed environment variable.
type Config struct {
	// Configs names the table configurations to measure, e.g.
	// "Quadratic Mul" or "Coalesced XOR". Empty means all standard ones.
	Configs     []string  `mapstructure:"configs"`
	LoadFactors []float64 `mapstructure:"load_factors"`
	Iterations  int       `mapstructure:"iterations"`
	Samples     int       `mapstructure:"samples"`
	Capacity    int       `mapstructure:"capacity"`
	// BudgetBytes defaults to eight bytes per element of Capacity.
	BudgetBytes int    `mapstructure:"budget_bytes"`
	Resize      bool   `mapstructure:"resize"`
	Workers     int    `mapstructure:"workers"`
	Seed        uint64 `mapstructure:"seed"`
	CSV         string `mapstructure:"csv"`
	LogLevel    string `mapstructure:"log_level"`
}

func defaultLoadFactors() []float64 {
	lfs := make([]float64, 32)
	for i := range lfs {
		lfs[i] = float64(i+1) / 100
	}
	return lfs
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("configs", []string{})
	v.SetDefault("load_factors", defaultLoadFactors())
	v.SetDefault("iterations", 50)
	v.SetDefault("samples", 1<<16)
	v.SetDefault("capacity", hashset.DefaultCapacity)
	v.SetDefault("budget_bytes", 0)
	v.SetDefault("resize", true)
	v.SetDefault("workers", runtime.GOMAXPROCS(0))
	v.SetDefault("seed", 0)
	v.SetDefault("csv", "hashset_data.csv")
	v.SetDefault("log_level", "INFO")
}

// loadConfig reads the configuration from the environment and, if path is
// not empty, from a config file. Environment variables take precedence.
func loadConfig(v *viper.Viper, path string) (Config, error) {
	setDefaults(v)
	v.SetEnvPrefix("HASHSTATS")
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.BudgetBytes == 0 {
		cfg.BudgetBytes = cfg.Capacity << 3
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch {
	case len(c.LoadFactors) == 0:
		return fmt.Errorf("config: no load factors")
	case c.Iterations < 1:
		return fmt.Errorf("config: iterations %d < 1", c.Iterations)
	case c.Samples < 1:
		return fmt.Errorf("config: samples %d < 1", c.Samples)
	case c.Capacity < 1:
		return fmt.Errorf("config: capacity %d < 1", c.Capacity)
	case c.BudgetBytes < 0:
		return fmt.Errorf("config: negative budget %d", c.BudgetBytes)
	case c.Workers < 1:
		return fmt.Errorf("config: workers %d < 1", c.Workers)
	}
	for _, lf := range c.LoadFactors {
		if lf < 0 {
			return fmt.Errorf("config: negative load factor %v", lf)
		}
	}
	_, err := c.tableConfigs()
	return err
}

// tableConfigs parses Configs, falling back to the standard configurations.
func (c *Config) tableConfigs() ([]hashset.Config, error) {
	var configs []hashset.Config
	for _, name := range c.Configs {
		if strings.TrimSpace(name) == "" {
			continue
		}
		tc, err := hashset.ParseConfig(name)
		if err != nil {
			return nil, err
		}
		configs = append(configs, tc)
	}
	if len(configs) == 0 {
		return hashset.StandardConfigs(), nil
	}
	return configs, nil
}

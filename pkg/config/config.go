// Copyright 2024 The mlfqstride Authors.
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

// Package config loads and validates the tunables cmd/schedctl exposes
// over pkg/kernel's defaults: the process table size, tick size, boost
// interval, and the MLFQ admission floor.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the on-disk shape of a scheduler.toml file.
type Config struct {
	NPROC         int   `toml:"nproc"`
	TickSize      int64 `toml:"tick_size"`
	BoostInterval int64 `toml:"boost_interval"`
	MinMLFQShare  int   `toml:"min_mlfq_share"`
	NumCPU        int   `toml:"num_cpu"`
}

// Default returns the scheduler's built-in defaults.
func Default() Config {
	return Config{
		NPROC:         64,
		TickSize:      1000,
		BoostInterval: 100,
		MinMLFQShare:  20,
		NumCPU:        1,
	}
}

// Load reads and validates a TOML config file, starting from Default()
// so a file that only overrides a couple of fields still produces a
// complete, valid Config.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports whether cfg's fields are in range. An invalid
// tunable is a configuration error, reported before Kernel
// construction, not a kernel bug.
func (c Config) Validate() error {
	if c.NPROC <= 0 {
		return fmt.Errorf("config: nproc must be positive, got %d", c.NPROC)
	}
	if c.TickSize <= 0 {
		return fmt.Errorf("config: tick_size must be positive, got %d", c.TickSize)
	}
	if c.BoostInterval <= 0 {
		return fmt.Errorf("config: boost_interval must be positive, got %d", c.BoostInterval)
	}
	if c.MinMLFQShare < 1 || c.MinMLFQShare > 99 {
		return fmt.Errorf("config: min_mlfq_share must be in [1,99], got %d", c.MinMLFQShare)
	}
	if c.NumCPU <= 0 {
		return fmt.Errorf("config: num_cpu must be positive, got %d", c.NumCPU)
	}
	return nil
}

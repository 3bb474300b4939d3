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

package config

import "testing"

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() invalid: %v", err)
	}
}

func TestLoadTestdata(t *testing.T) {
	cfg, err := Load("../../testdata/scheduler.toml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NumCPU != 2 {
		t.Errorf("NumCPU = %d, want 2", cfg.NumCPU)
	}
	if cfg.NPROC != 64 {
		t.Errorf("NPROC = %d, want 64", cfg.NPROC)
	}
}

func TestValidateRejectsOutOfRangeShare(t *testing.T) {
	cfg := Default()
	cfg.MinMLFQShare = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for min_mlfq_share = 0")
	}
	cfg.MinMLFQShare = 100
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for min_mlfq_share = 100")
	}
}

func TestValidateRejectsNonPositiveFields(t *testing.T) {
	for _, cfg := range []Config{
		{NPROC: 0, TickSize: 1, BoostInterval: 1, MinMLFQShare: 20, NumCPU: 1},
		{NPROC: 1, TickSize: 0, BoostInterval: 1, MinMLFQShare: 20, NumCPU: 1},
		{NPROC: 1, TickSize: 1, BoostInterval: 0, MinMLFQShare: 20, NumCPU: 1},
		{NPROC: 1, TickSize: 1, BoostInterval: 1, MinMLFQShare: 20, NumCPU: 0},
	} {
		if err := cfg.Validate(); err == nil {
			t.Errorf("Validate(%+v) = nil, want error", cfg)
		}
	}
}

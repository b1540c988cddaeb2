// Copyright 2024 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	sb := new(strings.Builder)
	logger := New(sb, slog.LevelInfo)
	logger.Debug("hidden")
	logger.Error("Format failed", "path", "README.md", "error", errors.New("boom"))
	got := sb.String()
	if strings.Contains(got, "hidden") {
		t.Errorf("debug message logged at info level:\n%s", got)
	}
	if !strings.Contains(got, "path=README.md err=boom") {
		t.Errorf("log output = %q; want it to contain %q", got, "path=README.md err=boom")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		s    string
		want slog.Level
		err  bool
	}{
		{s: "debug", want: slog.LevelDebug},
		{s: "INFO", want: slog.LevelInfo},
		{s: " warn ", want: slog.LevelWarn},
		{s: "error", want: slog.LevelError},
		{s: "loud", err: true},
	}
	for _, test := range tests {
		got, err := ParseLevel(test.s)
		if test.err {
			if err == nil {
				t.Errorf("ParseLevel(%q) = %v, <nil>; want error", test.s, got)
			}
			continue
		}
		if err != nil || got != test.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, <nil>", test.s, got, err, test.want)
		}
	}
}

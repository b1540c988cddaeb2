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

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"zombiezen.com/go/mdformat/format"
	"zombiezen.com/go/mdformat/plugin"
)

func TestParse(t *testing.T) {
	const path = "test/.mdformat.toml"
	tests := []struct {
		name string
		data string
		want *Config
	}{
		{
			name: "Empty",
			data: "",
			want: &Config{
				Path:      path,
				Wrap:      format.WrapKeep,
				EndOfLine: format.LF,
				Validate:  true,
			},
		},
		{
			name: "Full",
			data: `wrap = "keep"
number = true
end_of_line = "crlf"
validate = false
exclude = ["vendor/**", "CHANGELOG.md"]
plugin = { "key1" = "value1", "key2" = "value2" }
extensions = ["table", "footnote"]
codeformatters = []
`,
			want: &Config{
				Path:           path,
				Wrap:           format.WrapKeep,
				Number:         true,
				EndOfLine:      format.CRLF,
				Exclude:        []string{"vendor/**", "CHANGELOG.md"},
				Plugin:         map[string]string{"key1": "value1", "key2": "value2"},
				Extensions:     []string{"table", "footnote"},
				CodeFormatters: []string{},
			},
		},
		{
			name: "WrapWidth",
			data: "wrap = 80\nend_of_line = \"keep\"\n",
			want: &Config{
				Path:      path,
				Wrap:      80,
				EndOfLine: format.KeepEOL,
				Validate:  true,
			},
		},
		{
			name: "WrapNo",
			data: "wrap = \"no\"\n",
			want: &Config{
				Path:      path,
				Wrap:      format.WrapNo,
				EndOfLine: format.LF,
				Validate:  true,
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Parse(path, []byte(test.data))
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("Parse(...) (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		key     string
		message string
	}{
		{
			name:    "InvalidKey",
			data:    "invalid_key = \"value\"\n",
			key:     "invalid_key",
			message: "Invalid key 'invalid_key' found in",
		},
		{
			name:    "InvalidWrap",
			data:    "wrap = \"invalid\"\n",
			key:     "wrap",
			message: "Invalid 'wrap' value in",
		},
		{
			name:    "WrapTooSmall",
			data:    "wrap = 1\n",
			key:     "wrap",
			message: "Invalid 'wrap' value in",
		},
		{
			name:    "WrapBool",
			data:    "wrap = true\n",
			key:     "wrap",
			message: "Invalid 'wrap' value in",
		},
		{
			name:    "InvalidEndOfLine",
			data:    "end_of_line = \"invalid\"\n",
			key:     "end_of_line",
			message: "Invalid 'end_of_line' value in",
		},
		{
			name:    "InvalidValidate",
			data:    "validate = \"yes\"\n",
			key:     "validate",
			message: "Invalid 'validate' value in",
		},
		{
			name:    "InvalidNumber",
			data:    "number = 1\n",
			key:     "number",
			message: "Invalid 'number' value in",
		},
		{
			name:    "InvalidExclude",
			data:    "exclude = [123, \"file2.md\"]\n",
			key:     "exclude",
			message: "All items in 'exclude' must be strings",
		},
		{
			name:    "ExcludeNotArray",
			data:    "exclude = \"file.md\"\n",
			key:     "exclude",
			message: "The 'exclude' field must be an array",
		},
		{
			name:    "InvalidPlugin",
			data:    "plugin = \"not_a_map\"\n",
			key:     "plugin",
			message: "The 'plugin' field must be a map",
		},
		{
			name:    "PluginNotCommand",
			data:    "plugin = { go = 1 }\n",
			key:     "plugin",
			message: "The 'plugin' entry for \"go\" must be a command string",
		},
		{
			name:    "InvalidExtensions",
			data:    "extensions = [\"md\", 123]\n",
			key:     "extensions",
			message: "All items in 'extensions' must be strings",
		},
		{
			name:    "InvalidCodeFormatters",
			data:    "codeformatters = [\"rustfmt\", 123]\n",
			key:     "codeformatters",
			message: "All items in 'codeformatters' must be strings",
		},
		{
			name:    "NotTOML",
			data:    "wrap = \n",
			message: "is not valid TOML table.",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Parse("test_config.toml", []byte(test.data))
			if err == nil {
				t.Fatalf("Parse(...) = %+v, <nil>; want error", got)
			}
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("Parse(...) error = %v (%T); want *Error", err, err)
			}
			if e.Path != "test_config.toml" || e.Key != test.key {
				t.Errorf("error path, key = %q, %q; want %q, %q", e.Path, e.Key, "test_config.toml", test.key)
			}
			if !strings.Contains(err.Error(), test.message) {
				t.Errorf("error = %q; want it to contain %q", err, test.message)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	got, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Default(), got); diff != "" {
		t.Errorf("Load(empty dir) (-want +got):\n%s", diff)
	}

	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte("wrap = 40\n"), 0o666); err != nil {
		t.Fatal(err)
	}
	got, err = Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got.Path != path || got.Wrap != 40 {
		t.Errorf("Load(dir) = {Path: %q, Wrap: %d}; want {Path: %q, Wrap: 40}", got.Path, got.Wrap, path)
	}
}

func TestOptions(t *testing.T) {
	c := Default()
	c.Wrap = 60
	c.Number = true
	c.Extensions = []string{"table"}
	c.CodeFormatters = []string{"json"}
	c.Plugin = map[string]string{"css": "prettier --parser css"}
	opts, err := c.Options(plugin.Default())
	if err != nil {
		t.Fatal(err)
	}
	if opts.Wrap != 60 || !opts.ConsecutiveNumbering || !opts.Parse.FrontMatter {
		t.Errorf("opts = {Wrap: %d, ConsecutiveNumbering: %t, FrontMatter: %t}; want {60, true, true}",
			opts.Wrap, opts.ConsecutiveNumbering, opts.Parse.FrontMatter)
	}
	if len(opts.Parse.Extensions) != 1 || opts.Parse.Extensions[0].Name() != "table" {
		t.Errorf("parse extensions = %v; want [table]", opts.Parse.Extensions)
	}
	wantCmd := &plugin.Command{Name: "prettier", Args: []string{"--parser", "css"}}
	if diff := cmp.Diff(wantCmd, opts.CodeFormatters["css"]); diff != "" {
		t.Errorf("css formatter (-want +got):\n%s", diff)
	}
	if opts.CodeFormatters["json"] == nil {
		t.Error("json formatter not enabled")
	}
	if opts.CodeFormatters["go"] != nil {
		t.Error("go formatter enabled")
	}

	c.Extensions = []string{"wikilinks"}
	if _, err := c.Options(plugin.Default()); err == nil {
		t.Error("Options with unknown extension did not return an error")
	}
}

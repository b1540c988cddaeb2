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

// Package config loads the formatter's configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
	"zombiezen.com/go/mdformat"
	"zombiezen.com/go/mdformat/format"
	"zombiezen.com/go/mdformat/plugin"
)

// FileName is the name of the configuration file
// looked up in a directory.
const FileName = ".mdformat.toml"

var validKeys = []string{
	"wrap",
	"number",
	"end_of_line",
	"validate",
	"exclude",
	"plugin",
	"extensions",
	"codeformatters",
}

// Config is the content of a configuration file.
type Config struct {
	// Path is the file the configuration was read from,
	// or empty for the defaults.
	Path string

	// Wrap is [format.WrapKeep], [format.WrapNo], or a line width.
	Wrap int
	// Number enables consecutive numbering of ordered lists.
	Number    bool
	EndOfLine format.EndOfLine
	// Validate enables checking that formatting preserved
	// the document's meaning.
	Validate bool
	// Exclude is a list of doublestar patterns
	// of paths to skip, relative to the configuration's directory.
	Exclude []string
	// Plugin maps code block languages to external formatter commands.
	Plugin map[string]string
	// Extensions and CodeFormatters name the registry entries to enable.
	// Nil means all of them.
	Extensions     []string
	CodeFormatters []string
}

// Default returns the configuration used when there is no file.
func Default() *Config {
	return &Config{
		Wrap:      format.WrapKeep,
		EndOfLine: format.LF,
		Validate:  true,
	}
}

// Error is returned for a configuration file that cannot be used.
type Error struct {
	Path string
	// Key is the offending key, if any.
	Key string
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Load reads the configuration file in dir.
// If dir has no configuration file, Load returns [Default].
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || err == nil && !info.Mode().IsRegular() {
		return Default(), nil
	}
	if err != nil {
		return nil, &Error{Path: path, Msg: "read config", Err: err}
	}
	return LoadFile(path)
}

// LoadFile reads the configuration file at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Msg: "read config", Err: err}
	}
	return Parse(path, data)
}

// Parse decodes and validates the content of a configuration file.
// path is used in error messages.
func Parse(path string, data []byte) (*Config, error) {
	var m map[string]any
	if _, err := toml.Decode(string(data), &m); err != nil {
		return nil, &Error{
			Path: path,
			Msg:  fmt.Sprintf("Config at %q is not valid TOML table.", path),
			Err:  err,
		}
	}
	if err := validate(path, m); err != nil {
		return nil, err
	}

	var raw struct {
		Wrap           any               `mapstructure:"wrap"`
		Number         bool              `mapstructure:"number"`
		EndOfLine      string            `mapstructure:"end_of_line"`
		Validate       *bool             `mapstructure:"validate"`
		Exclude        []string          `mapstructure:"exclude"`
		Plugin         map[string]string `mapstructure:"plugin"`
		Extensions     []string          `mapstructure:"extensions"`
		CodeFormatters []string          `mapstructure:"codeformatters"`
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &raw,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, &Error{Path: path, Msg: "decode config", Err: err}
	}
	if err := dec.Decode(m); err != nil {
		return nil, &Error{Path: path, Msg: fmt.Sprintf("Config at %q is not valid", path), Err: err}
	}

	c := Default()
	c.Path = path
	switch w := raw.Wrap.(type) {
	case int64:
		c.Wrap = int(w)
	case string:
		if w == "no" {
			c.Wrap = format.WrapNo
		}
	}
	c.Number = raw.Number
	if raw.EndOfLine != "" {
		// Already validated.
		c.EndOfLine, _ = format.ParseEndOfLine(raw.EndOfLine)
	}
	if raw.Validate != nil {
		c.Validate = *raw.Validate
	}
	c.Exclude = raw.Exclude
	c.Plugin = raw.Plugin
	c.Extensions = presentList(m, "extensions", raw.Extensions)
	c.CodeFormatters = presentList(m, "codeformatters", raw.CodeFormatters)
	return c, nil
}

// presentList returns list, or an empty list if key is set to an empty array.
func presentList(m map[string]any, key string, list []string) []string {
	if _, ok := m[key]; ok && list == nil {
		return []string{}
	}
	return list
}

func validate(path string, m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if !slices.Contains(validKeys, k) {
			return &Error{
				Path: path,
				Key:  k,
				Msg:  fmt.Sprintf("Invalid key '%s' found in %q. Valid keys are %q", k, path, validKeys),
			}
		}
	}

	if v, ok := m["wrap"]; ok {
		switch v := v.(type) {
		case int64:
			if v <= 1 {
				return invalidValue(path, "wrap")
			}
		case string:
			if v != "keep" && v != "no" {
				return invalidValue(path, "wrap")
			}
		default:
			return invalidValue(path, "wrap")
		}
	}
	if v, ok := m["end_of_line"]; ok {
		s, _ := v.(string)
		if s != "lf" && s != "crlf" && s != "keep" {
			return invalidValue(path, "end_of_line")
		}
	}
	for _, k := range []string{"validate", "number"} {
		if v, ok := m[k]; ok {
			if _, isBool := v.(bool); !isBool {
				return invalidValue(path, k)
			}
		}
	}
	for _, k := range []string{"exclude", "extensions", "codeformatters"} {
		if err := validateStrings(path, m, k); err != nil {
			return err
		}
	}
	if v, ok := m["plugin"]; ok {
		plugins, isMap := v.(map[string]any)
		if !isMap {
			return &Error{Path: path, Key: "plugin", Msg: fmt.Sprintf("The 'plugin' field must be a map in %q", path)}
		}
		for lang, cmd := range plugins {
			if _, isString := cmd.(string); !isString {
				return &Error{Path: path, Key: "plugin", Msg: fmt.Sprintf("The 'plugin' entry for %q must be a command string in %q", lang, path)}
			}
		}
	}
	return nil
}

func validateStrings(path string, m map[string]any, key string) error {
	v, ok := m[key]
	if !ok {
		return nil
	}
	items, isArray := v.([]any)
	if !isArray {
		return &Error{Path: path, Key: key, Msg: fmt.Sprintf("The '%s' field must be an array in %q", key, path)}
	}
	for _, item := range items {
		if _, isString := item.(string); !isString {
			return &Error{Path: path, Key: key, Msg: fmt.Sprintf("All items in '%s' must be strings in %q", key, path)}
		}
	}
	return nil
}

func invalidValue(path, key string) error {
	return &Error{Path: path, Key: key, Msg: fmt.Sprintf("Invalid '%s' value in %q", key, path)}
}

// Options returns the formatting options for the configuration,
// with extensions and code formatters resolved from reg.
// Plugin commands take precedence over registered formatters.
func (c *Config) Options(reg *plugin.Registry) (*format.Options, error) {
	opts := format.DefaultOptions()
	opts.Wrap = c.Wrap
	opts.EndOfLine = c.EndOfLine
	opts.ConsecutiveNumbering = c.Number
	opts.Parse = &mdformat.ParseOptions{FrontMatter: true}
	if err := reg.Apply(opts, c.Extensions, c.CodeFormatters); err != nil {
		return nil, &Error{Path: c.Path, Msg: "resolve plugins", Err: err}
	}
	for lang, line := range c.Plugin {
		cmd, err := plugin.ParseCommand(line)
		if err != nil {
			return nil, &Error{Path: c.Path, Key: "plugin", Msg: "resolve plugins", Err: err}
		}
		opts.CodeFormatters[lang] = cmd
	}
	return opts, nil
}

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

package plugin

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	gofmt "go/format"
	"io"
	"os/exec"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
	"zombiezen.com/go/mdformat/format"
)

// Built-in code formatters.
var (
	// GoFormatter formats Go source like gofmt.
	GoFormatter format.CodeFormatter = format.CodeFormatterFunc(formatGo)
	// JSONFormatter indents JSON with two spaces.
	JSONFormatter format.CodeFormatter = format.CodeFormatterFunc(formatJSON)
	// YAMLFormatter re-encodes YAML documents with two space indentation.
	// Comments are kept.
	YAMLFormatter format.CodeFormatter = format.CodeFormatterFunc(formatYAML)
	// TOMLFormatter re-encodes TOML documents.
	// It refuses documents that contain comments,
	// since they would be lost.
	TOMLFormatter format.CodeFormatter = format.CodeFormatterFunc(formatTOML)
)

func formatGo(lang, code string) (string, error) {
	out, err := gofmt.Source([]byte(code))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func formatJSON(lang, code string) (string, error) {
	buf := new(bytes.Buffer)
	if err := json.Indent(buf, bytes.TrimSpace([]byte(code)), "", "  "); err != nil {
		return "", err
	}
	buf.WriteString("\n")
	return buf.String(), nil
}

func formatYAML(lang, code string) (string, error) {
	dec := yaml.NewDecoder(strings.NewReader(code))
	buf := new(strings.Builder)
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	n := 0
	for ; ; n++ {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if err := enc.Encode(&doc); err != nil {
			return "", err
		}
	}
	if n == 0 {
		return code, nil
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var errTOMLComments = errors.New("document has comments")

func formatTOML(lang, code string) (string, error) {
	if strings.Contains(code, "#") {
		return "", errTOMLComments
	}
	var doc map[string]any
	if _, err := toml.Decode(code, &doc); err != nil {
		return "", err
	}
	buf := new(strings.Builder)
	if err := toml.NewEncoder(buf).Encode(doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Command is a code formatter that runs an external program.
// The code is written to the program's standard input
// and the program's standard output replaces it.
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits a command line on whitespace.
func ParseCommand(line string) (*Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("parse command %q: empty", line)
	}
	return &Command{Name: fields[0], Args: fields[1:]}, nil
}

// FormatCode runs the command on code.
func (c *Command) FormatCode(lang, code string) (string, error) {
	cmd := exec.Command(c.Name, c.Args...)
	cmd.Stdin = strings.NewReader(code)
	stderr := new(bytes.Buffer)
	cmd.Stderr = stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", c.Name, err, msg)
		}
		return "", fmt.Errorf("%s: %w", c.Name, err)
	}
	return string(out), nil
}

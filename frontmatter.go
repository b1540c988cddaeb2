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

package mdformat

import (
	"bytes"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FrontMatterFormat identifies the syntax of a front matter block.
type FrontMatterFormat uint8

const (
	NoFrontMatter FrontMatterFormat = iota
	// YAMLFrontMatter is delimited by "---" lines.
	YAMLFrontMatter
	// TOMLFrontMatter is delimited by "+++" lines.
	TOMLFrontMatter
)

// splitFrontMatter separates a leading metadata block from the Markdown body.
// source must use LF line endings.
// The block is only recognized if its content decodes as a non-empty mapping
// in the syntax its delimiter announces.
func splitFrontMatter(source []byte) (front []byte, format FrontMatterFormat, body []byte) {
	firstLine, rest, ok := bytes.Cut(source, []byte("\n"))
	if !ok {
		return nil, NoFrontMatter, source
	}
	var delim []byte
	switch string(bytes.TrimRight(firstLine, " \t")) {
	case "---":
		delim, format = []byte("---"), YAMLFrontMatter
	case "+++":
		delim, format = []byte("+++"), TOMLFrontMatter
	default:
		return nil, NoFrontMatter, source
	}

	for pos := 0; pos < len(rest); {
		line, _, _ := bytes.Cut(rest[pos:], []byte("\n"))
		next := min(pos+len(line)+1, len(rest))
		trimmed := bytes.TrimRight(line, " \t")
		if bytes.Equal(trimmed, delim) || format == YAMLFrontMatter && bytes.Equal(trimmed, []byte("...")) {
			if !metadataValid(rest[:pos], format) {
				return nil, NoFrontMatter, source
			}
			end := len(firstLine) + 1 + next
			return source[:end], format, source[end:]
		}
		pos = next
	}
	return nil, NoFrontMatter, source
}

func metadataValid(content []byte, format FrontMatterFormat) bool {
	if len(bytes.TrimSpace(content)) == 0 {
		return false
	}
	var m map[string]any
	switch format {
	case YAMLFrontMatter:
		if err := yaml.Unmarshal(content, &m); err != nil {
			return false
		}
	case TOMLFrontMatter:
		if err := toml.Unmarshal(content, &m); err != nil {
			return false
		}
	default:
		return false
	}
	return len(m) > 0
}

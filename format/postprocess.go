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

package format

import (
	"regexp"
	"strings"
)

var (
	containerPrefixRE = regexp.MustCompile(`^(?:[ \t]|>|[-+*][ \t]|[0-9]{1,9}[.)][ \t]|\[\^[^\]]*\]:[ \t])*`)
	fenceRE           = regexp.MustCompile("^(?:`{3,}|~{3,})")
	anyThematicRE     = regexp.MustCompile(`^ {0,3}(?:(?:-[ \t]*){3,}|(?:\*[ \t]*){3,}|(?:_[ \t]*){3,})$`)
)

// fenceTracker follows fenced code blocks line by line.
type fenceTracker struct {
	fence string
}

// inFence reports whether line is part of a fenced code block,
// including its opening and closing fences.
func (ft *fenceTracker) inFence(line string) bool {
	rest := line[len(containerPrefixRE.FindString(line)):]
	if ft.fence != "" {
		if strings.HasPrefix(rest, ft.fence) && strings.Trim(rest, ft.fence[:1]+" \t") == "" {
			ft.fence = ""
		}
		return true
	}
	f := fenceRE.FindString(rest)
	if f == "" || f[0] == '`' && strings.Contains(rest[len(f):], "`") {
		return false
	}
	ft.fence = f
	return true
}

// Normalize cleans up whitespace in formatted Markdown text.
// Outside of fenced code blocks, it removes trailing whitespace
// (except the two spaces of a hard line break when opts.HardBreak is [SpacesBreak])
// and collapses runs of blank lines.
// If opts.StandardizeThematicBreaks is true,
// thematic breaks that stand between blank lines are rewritten as a line of underscores.
// The result has no leading blank lines and ends in exactly one line terminator
// chosen by opts.EndOfLine.
// sourceEOL is the source document's line terminator for [KeepEOL].
func Normalize(text string, opts *Options, sourceEOL string) string {
	if opts == nil {
		opts = DefaultOptions()
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	var fences fenceTracker
	out := make([]string, 0, len(lines))
	code := make([]bool, 0, len(lines))
	for _, l := range lines {
		if fences.inFence(l) {
			out = append(out, l)
			code = append(code, true)
			continue
		}
		l = trimTrailingSpace(l, opts.HardBreak == SpacesBreak)
		if l == "" && len(out) > 0 && out[len(out)-1] == "" && !code[len(code)-1] {
			continue
		}
		out = append(out, l)
		code = append(code, false)
	}

	if opts.StandardizeThematicBreaks {
		for i, l := range out {
			if code[i] || !anyThematicRE.MatchString(l) {
				continue
			}
			blankBefore := i == 0 || out[i-1] == "" && !code[i-1]
			blankAfter := i == len(out)-1 || out[i+1] == "" && !code[i+1]
			if blankBefore && blankAfter {
				out[i] = standardThematicBreak
			}
		}
	}

	start := 0
	for start < len(out) && out[start] == "" && !code[start] {
		start++
	}
	end := len(out)
	for end > start && out[end-1] == "" && !code[end-1] {
		end--
	}
	if start == end {
		return ""
	}
	eol := opts.EndOfLine.terminator(sourceEOL)
	return strings.Join(out[start:end], eol) + eol
}

// trimTrailingSpace removes trailing spaces and tabs from line.
// If keepBreak is true, two or more trailing spaces after content are kept
// as a hard line break.
func trimTrailingSpace(line string, keepBreak bool) string {
	trimmed := strings.TrimRight(line, " \t")
	if keepBreak && trimmed != "" && strings.HasSuffix(line, "  ") {
		if strings.TrimRight(line, " ") == trimmed {
			return trimmed + "  "
		}
	}
	return trimmed
}

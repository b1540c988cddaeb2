// Copyright 2023 Ross Light
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
	"sort"
	"strings"

	"github.com/yuin/goldmark/parser"
	"golang.org/x/text/cases"
)

// A type that implements ReferenceMatcher
// can be checked for the presence of link reference definitions.
type ReferenceMatcher interface {
	MatchReference(normalizedLabel string) bool
}

// LinkDefinition is the data of a [link reference definition].
// Label, Destination, and Title are in source form.
//
// [link reference definition]: https://spec.commonmark.org/0.30/#link-reference-definition
type LinkDefinition struct {
	Label        string
	Destination  string
	Title        string
	TitlePresent bool
}

// ReferenceMap is a mapping of [normalized labels] to link definitions.
//
// [normalized labels]: https://spec.commonmark.org/0.30/#matches
type ReferenceMap map[string]LinkDefinition

// MatchReference reports whether the normalized label appears in the map.
func (m ReferenceMap) MatchReference(normalizedLabel string) bool {
	_, ok := m[normalizedLabel]
	return ok
}

// Labels returns the normalized labels in the map in output order:
// labels made only of ASCII digits sort numerically
// among the other labels, which sort by code point.
func (m ReferenceMap) Labels() []string {
	labels := make([]string, 0, len(m))
	for label := range m {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		return labelLess(labels[i], labels[j])
	})
	return labels
}

// extract adds the given parser references to the map.
// In case of conflicts,
// extract will not replace any existing definitions in the map
// and will use the first definition it sees.
func (m ReferenceMap) extract(refs []parser.Reference) {
	for _, ref := range refs {
		label := NormalizeLabel(string(ref.Label()))
		if _, exists := m[label]; label == "" || exists {
			continue
		}
		m[label] = LinkDefinition{
			Label:        string(ref.Label()),
			Destination:  string(ref.Destination()),
			Title:        string(ref.Title()),
			TitlePresent: ref.Title() != nil,
		}
	}
}

// NormalizeLabel returns the [normalized form] of a link label:
// surrounding whitespace is removed,
// internal whitespace runs are collapsed to a single space,
// and the result is Unicode case folded.
//
// [normalized form]: https://spec.commonmark.org/0.30/#matches
func NormalizeLabel(label string) string {
	return cases.Fold().String(strings.Join(strings.FieldsFunc(label, isLabelSpace), " "))
}

func isLabelSpace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// labelClass orders labels relative to the all-digit group.
func labelClass(label string) int {
	switch {
	case label == "" || label[0] < '0':
		return 0
	case isDigits(label):
		return 1
	case label[0] <= '9':
		return 2
	default:
		return 3
	}
}

func labelLess(a, b string) bool {
	ca, cb := labelClass(a), labelClass(b)
	if ca != cb {
		return ca < cb
	}
	if ca == 1 {
		ta := strings.TrimLeft(a, "0")
		tb := strings.TrimLeft(b, "0")
		if len(ta) != len(tb) {
			return len(ta) < len(tb)
		}
		if ta != tb {
			return ta < tb
		}
	}
	return a < b
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

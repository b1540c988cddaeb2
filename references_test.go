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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"foo", "foo"},
		{"  Foo\t\n BAR ", "foo bar"},
		{"ẞ", "ss"},
		{"", ""},
	}
	for _, test := range tests {
		if got := NormalizeLabel(test.label); got != test.want {
			t.Errorf("NormalizeLabel(%q) = %q; want %q", test.label, got, test.want)
		}
	}
}

func TestReferenceMapLabels(t *testing.T) {
	m := ReferenceMap{
		"b":   {},
		"10":  {},
		"2":   {},
		"a":   {},
		"-x":  {},
		"1a":  {},
		"002": {},
	}
	want := []string{"-x", "002", "2", "10", "1a", "a", "b"}
	got := m.Labels()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Labels() (-want +got):\n%s", diff)
	}
}

func TestParseReferences(t *testing.T) {
	const markdown = "[Foo]: /first 'T'\n" +
		"[FOO]: /second\n" +
		"[bar]: <>\n"
	doc, err := Parse([]byte(markdown), nil)
	if err != nil {
		t.Fatal(err)
	}
	want := ReferenceMap{
		"foo": {Label: "Foo", Destination: "/first", Title: "T", TitlePresent: true},
		"bar": {Label: "bar"},
	}
	if diff := cmp.Diff(want, doc.References); diff != "" {
		t.Errorf("References (-want +got):\n%s", diff)
	}
	if !doc.References.MatchReference("foo") || doc.References.MatchReference("Foo") {
		t.Error("MatchReference does not use normalized labels")
	}
}

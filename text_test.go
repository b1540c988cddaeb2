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

import "testing"

func TestLeadingCharRef(t *testing.T) {
	tests := []struct {
		s    string
		want string
	}{
		{"&amp;x", "&amp;"},
		{"&#35;", "&#35;"},
		{"&#X1F600;", "&#X1F600;"},
		{"&amp", ""},
		{"&bogus;", ""},
		{"&ampx;", ""},
		{"amp;", ""},
		{"&#12345678;", ""},
	}
	for _, test := range tests {
		if got := LeadingCharRef(test.s); got != test.want {
			t.Errorf("LeadingCharRef(%q) = %q; want %q", test.s, got, test.want)
		}
	}
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"plain", "plain"},
		{`\*a\*`, "*a*"},
		{`\a`, `\a`},
		{`a\`, `a\`},
		{"&lt;b&gt;", "<b>"},
		{"&#65;&#x42;", "AB"},
		{"AT&T", "AT&T"},
		{`\&amp;`, "&amp;"},
	}
	for _, test := range tests {
		if got := decodeText([]byte(test.raw)); got != test.want {
			t.Errorf("decodeText(%q) = %q; want %q", test.raw, got, test.want)
		}
	}
}

func TestIsASCIIPunct(t *testing.T) {
	for c := 0; c < 128; c++ {
		want := false
		for _, p := range "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~" {
			if rune(c) == p {
				want = true
			}
		}
		if got := IsASCIIPunct(byte(c)); got != want {
			t.Errorf("IsASCIIPunct(%q) = %t; want %t", rune(c), got, want)
		}
	}
}

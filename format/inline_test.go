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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLayout(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *inlineBuilder)
		soft  softBreakMode
		width int
		want  []line
	}{
		{
			name:  "Empty",
			build: func(b *inlineBuilder) {},
			want:  nil,
		},
		{
			name: "KeepSoftBreaks",
			build: func(b *inlineBuilder) {
				b.text("a b")
				b.soft()
				b.text("c")
			},
			want: []line{{text: "a b"}, {text: "c"}},
		},
		{
			name: "JoinSoftBreaks",
			build: func(b *inlineBuilder) {
				b.text("a b")
				b.soft()
				b.text("c")
			},
			soft: softSpace,
			want: []line{{text: "a b c"}},
		},
		{
			name: "Fill",
			build: func(b *inlineBuilder) {
				b.text("aa bb")
				b.soft()
				b.text("cc dd")
			},
			width: 5,
			want:  []line{{text: "aa bb"}, {text: "cc dd"}},
		},
		{
			name: "LongWord",
			build: func(b *inlineBuilder) {
				b.text("a")
				b.text(" ")
				b.word("`long code`")
				b.text(" b")
			},
			width: 4,
			want:  []line{{text: "a"}, {text: "`long code`"}, {text: "b"}},
		},
		{
			name: "HardBreak",
			build: func(b *inlineBuilder) {
				b.text("a")
				b.hard()
				b.text("b")
			},
			want: []line{{text: "a", hard: true}, {text: "b"}},
		},
		{
			name: "MultilineWord",
			build: func(b *inlineBuilder) {
				b.text("x ")
				b.word("<a\nb>")
				b.text(" y")
			},
			want: []line{{text: "x <a"}, {text: "b> y", verbatim: true}},
		},
		{
			name: "TrailingSpace",
			build: func(b *inlineBuilder) {
				b.text("a ")
			},
			want: []line{{text: "a "}},
		},
		{
			name: "SpacesKeptInsideLine",
			build: func(b *inlineBuilder) {
				b.text("a  b")
			},
			width: 80,
			want:  []line{{text: "a  b"}},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b := newInlineBuilder()
			test.build(b)
			got := b.layout(test.soft, test.width)
			if diff := cmp.Diff(test.want, got, cmp.AllowUnexported(line{})); diff != "" {
				t.Errorf("layout (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInlineBuilderSince(t *testing.T) {
	b := newInlineBuilder()
	b.text("x ")
	b.word("[")
	mark, offset := b.pos()
	b.text("foo bar")
	b.soft()
	b.text("baz")
	if got, want := b.since(mark, offset), "foo bar baz"; got != want {
		t.Errorf("since(...) = %q; want %q", got, want)
	}
	if b.last != 'z' {
		t.Errorf("last = %q; want 'z'", b.last)
	}

	b = newInlineBuilder()
	b.word("[")
	mark, offset = b.pos()
	if got := b.since(mark, offset); got != "" {
		t.Errorf("since(...) with nothing written = %q; want \"\"", got)
	}
}

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

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		want     []string
	}{
		{
			name:     "Emphasis",
			markdown: "Hello, *World*!\n",
			want: []string{
				"Start(Paragraph)",
				`Text("Hello, ")`,
				"Start(Emphasis)",
				`Text("World")`,
				"End(Emphasis)",
				`Text("!")`,
				"End(Paragraph)",
			},
		},
		{
			name:     "Breaks",
			markdown: "a  \nb\n   c\n",
			want: []string{
				"Start(Paragraph)",
				`Text("a")`,
				"HardBreak",
				`Text("b")`,
				"SoftBreak",
				`Text("c")`,
				"End(Paragraph)",
			},
		},
		{
			name:     "BackslashBreakAfterSpace",
			markdown: "a \\\nb\n",
			want: []string{
				"Start(Paragraph)",
				`Text("a ")`,
				"HardBreak",
				`Text("b")`,
				"End(Paragraph)",
			},
		},
		{
			name:     "InvalidUTF8",
			markdown: "a\xffb\n",
			want: []string{
				"Start(Paragraph)",
				`Text("a\xffb")`,
				"End(Paragraph)",
			},
		},
		{
			name:     "Escapes",
			markdown: "&amp; \\*not\\* &bogus;\n",
			want: []string{
				"Start(Paragraph)",
				`Text("& *not* &bogus;")`,
				"End(Paragraph)",
			},
		},
		{
			name:     "InsecureCharacters",
			markdown: "Hello,\x00World",
			want: []string{
				"Start(Paragraph)",
				`Text("Hello,�World")`,
				"End(Paragraph)",
			},
		},
		{
			name:     "Blocks",
			markdown: "Title\n=====\n\n> quote\n\n***\n",
			want: []string{
				"Start(Heading)",
				`Text("Title")`,
				"End(Heading)",
				"Start(BlockQuote)",
				"Start(Paragraph)",
				`Text("quote")`,
				"End(Paragraph)",
				"End(BlockQuote)",
				"Rule",
			},
		},
		{
			name:     "CodeSpan",
			markdown: "`` a`b ``\n",
			want: []string{
				"Start(Paragraph)",
				"Code(\"a`b\")",
				"End(Paragraph)",
			},
		},
		{
			name:     "HTML",
			markdown: "<div>\nx\n</div>\n\na <b>c</b>\n",
			want: []string{
				"HTMLBlock",
				"Start(Paragraph)",
				`Text("a ")`,
				"HTML",
				`Text("c")`,
				"HTML",
				"End(Paragraph)",
			},
		},
		{
			name:     "Autolink",
			markdown: "<https://example.com/>\n",
			want: []string{
				"Start(Paragraph)",
				"Autolink",
				"End(Paragraph)",
			},
		},
		{
			name:     "Strikethrough",
			markdown: "~~gone~~\n",
			want: []string{
				"Start(Paragraph)",
				"Start(Strikethrough)",
				`Text("gone")`,
				"End(Strikethrough)",
				"End(Paragraph)",
			},
		},
		{
			name:     "Math",
			markdown: "$x$ and $$y$$\n",
			want: []string{
				"Start(Paragraph)",
				"InlineMath",
				`Text(" and ")`,
				"DisplayMath",
				"End(Paragraph)",
			},
		},
		{
			name:     "Footnote",
			markdown: "a[^n]\n\n[^n]: note\n",
			want: []string{
				"Start(Paragraph)",
				`Text("a")`,
				"FootnoteReference",
				"End(Paragraph)",
				"Start(FootnoteDefinition)",
				"Start(Paragraph)",
				`Text("note")`,
				"End(Paragraph)",
				"End(FootnoteDefinition)",
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			doc, err := Parse([]byte(test.markdown), nil)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.want, eventStrings(doc.Events)); diff != "" {
				t.Errorf("Parse(%q) events (-want +got):\n%s", test.markdown, diff)
			}
		})
	}
}

func TestParseLists(t *testing.T) {
	tests := []struct {
		markdown string
		want     Event
	}{
		{
			markdown: "- a\n- b\n",
			want:     Event{Kind: ListKind, Items: 2, Tight: true, Step: 1},
		},
		{
			markdown: "* a\n\n* b\n* c\n",
			want:     Event{Kind: ListKind, Items: 3, Step: 1},
		},
		{
			markdown: "3. a\n5. b\n7. c\n",
			want:     Event{Kind: ListKind, Ordered: true, Start: 3, Step: 2, Items: 3, Tight: true},
		},
		{
			markdown: "007) a\n",
			want:     Event{Kind: ListKind, Ordered: true, Start: 7, Step: 1, Items: 1, Tight: true},
		},
		{
			markdown: "1. a\n1. b\n",
			want:     Event{Kind: ListKind, Ordered: true, Start: 1, Step: 0, Items: 2, Tight: true},
		},
		{
			markdown: "1. # a\n1. b\n",
			want:     Event{Kind: ListKind, Ordered: true, Start: 1, Step: 0, Items: 2, Tight: true},
		},
		{
			markdown: "2. a\n   ===\n4. b\n",
			want:     Event{Kind: ListKind, Ordered: true, Start: 2, Step: 2, Items: 2, Tight: true},
		},
		{
			markdown: "1. ```go\n   x\n   ```\n1. b\n",
			want:     Event{Kind: ListKind, Ordered: true, Start: 1, Step: 0, Items: 2, Tight: true},
		},
		{
			markdown: "1. ```\n   x\n   ```\n1. b\n",
			want:     Event{Kind: ListKind, Ordered: true, Start: 1, Step: 0, Items: 2, Tight: true},
		},
		{
			markdown: "1.     code\n1. b\n",
			want:     Event{Kind: ListKind, Ordered: true, Start: 1, Step: 0, Items: 2, Tight: true},
		},
		{
			// A thematic break has no content to find the marker from.
			markdown: "1. ***\n1. b\n",
			want:     Event{Kind: ListKind, Ordered: true, Start: 1, Step: 1, Items: 2, Tight: true},
		},
	}
	for _, test := range tests {
		doc, err := Parse([]byte(test.markdown), nil)
		if err != nil {
			t.Errorf("Parse(%q): %v", test.markdown, err)
			continue
		}
		if diff := cmp.Diff(test.want, doc.Events[0]); diff != "" {
			t.Errorf("Parse(%q).Events[0] (-want +got):\n%s", test.markdown, diff)
		}
	}
}

func TestParseCodeBlocks(t *testing.T) {
	tests := []struct {
		markdown string
		want     Event
		text     string
	}{
		{
			markdown: "```\nx\n```\n",
			want:     Event{Kind: CodeBlockKind, Fence: '`'},
			text:     "x\n",
		},
		{
			markdown: "~~~ go  extra\nx\n\ny\n~~~\n",
			want:     Event{Kind: CodeBlockKind, Fence: '~', Info: "go  extra", Lang: "go"},
			text:     "x\n\ny\n",
		},
		{
			markdown: "    indented\n",
			want:     Event{Kind: CodeBlockKind},
			text:     "indented\n",
		},
	}
	for _, test := range tests {
		doc, err := Parse([]byte(test.markdown), nil)
		if err != nil {
			t.Errorf("Parse(%q): %v", test.markdown, err)
			continue
		}
		if len(doc.Events) != 3 {
			t.Errorf("Parse(%q) events = %v; want code block", test.markdown, doc.Events)
			continue
		}
		if diff := cmp.Diff(test.want, doc.Events[0]); diff != "" {
			t.Errorf("Parse(%q).Events[0] (-want +got):\n%s", test.markdown, diff)
		}
		if got := doc.Events[1].Text; got != test.text {
			t.Errorf("Parse(%q) code = %q; want %q", test.markdown, got, test.text)
		}
	}
}

func TestParseLinks(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		want     Event
	}{
		{
			name:     "Inline",
			markdown: "[a](/u \"t\")\n",
			want:     Event{Kind: LinkKind, Destination: "/u", Title: "t", TitlePresent: true, LinkType: InlineLink},
		},
		{
			name:     "EmptyTitle",
			markdown: "[a](/u \"\")\n",
			want:     Event{Kind: LinkKind, Destination: "/u", TitlePresent: true, LinkType: InlineLink},
		},
		{
			name:     "FullEmptyTitle",
			markdown: "[a][b]\n\n[b]: /u \"\"\n",
			want:     Event{Kind: LinkKind, Destination: "/u", TitlePresent: true, LinkType: FullReferenceLink, Label: "b"},
		},
		{
			name:     "Full",
			markdown: "[a][B  c]\n\n[b c]: /u\n",
			want:     Event{Kind: LinkKind, Destination: "/u", LinkType: FullReferenceLink, Label: "B  c"},
		},
		{
			name:     "Collapsed",
			markdown: "[a][]\n\n[a]: /u\n",
			want:     Event{Kind: LinkKind, Destination: "/u", LinkType: CollapsedReferenceLink},
		},
		{
			name:     "Shortcut",
			markdown: "[a]\n\n[a]: /u\n",
			want:     Event{Kind: LinkKind, Destination: "/u", LinkType: ShortcutReferenceLink},
		},
		{
			name:     "Image",
			markdown: "![alt](/i.png)\n",
			want:     Event{Kind: ImageKind, Destination: "/i.png", LinkType: InlineLink},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			doc, err := Parse([]byte(test.markdown), nil)
			if err != nil {
				t.Fatal(err)
			}
			if len(doc.Events) < 2 {
				t.Fatalf("Parse(%q) events = %v; want a link", test.markdown, doc.Events)
			}
			if diff := cmp.Diff(test.want, doc.Events[1]); diff != "" {
				t.Errorf("Parse(%q).Events[1] (-want +got):\n%s", test.markdown, diff)
			}
		})
	}
}

func TestParseTable(t *testing.T) {
	doc, err := Parse([]byte("| a | b |\n|:--|--:|\n| 1 | 2 |\n"), nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []Alignment{AlignLeft, AlignRight}
	if diff := cmp.Diff(want, doc.Events[0].Alignments); diff != "" {
		t.Errorf("table alignments (-want +got):\n%s", diff)
	}
	var rows, cells int
	for _, ev := range doc.Events {
		if ev.End {
			continue
		}
		switch ev.Kind {
		case TableRowKind:
			rows++
		case TableCellKind:
			cells++
		}
	}
	if rows != 1 || cells != 4 {
		t.Errorf("table has %d body rows and %d cells; want 1 and 4", rows, cells)
	}
}

func TestParseTaskList(t *testing.T) {
	doc, err := Parse([]byte("- [x] done\n- [ ] todo\n"), nil)
	if err != nil {
		t.Fatal(err)
	}
	var got []bool
	for _, ev := range doc.Events {
		if ev.Kind == TaskListMarkerKind {
			got = append(got, ev.Checked)
		}
	}
	if diff := cmp.Diff([]bool{true, false}, got); diff != "" {
		t.Errorf("task markers (-want +got):\n%s", diff)
	}
}

func TestParseExtensions(t *testing.T) {
	const markdown = "~~a~~ $b$\n"
	doc, err := Parse([]byte(markdown), &ParseOptions{Extensions: []Extension{}})
	if err != nil {
		t.Fatal(err)
	}
	if doc.Features != 0 {
		t.Errorf("Features = %#x; want 0", doc.Features)
	}
	want := []string{
		"Start(Paragraph)",
		`Text("~~a~~ $b$")`,
		"End(Paragraph)",
	}
	if diff := cmp.Diff(want, eventStrings(doc.Events)); diff != "" {
		t.Errorf("Parse(%q) events with no extensions (-want +got):\n%s", markdown, diff)
	}

	doc, err = Parse([]byte(markdown), nil)
	if err != nil {
		t.Fatal(err)
	}
	const all = TableFeature | StrikethroughFeature | TaskListFeature | FootnoteFeature | MathFeature
	if doc.Features != all {
		t.Errorf("Features = %#x; want %#x", doc.Features, all)
	}
}

func TestParseLineEnding(t *testing.T) {
	tests := []struct {
		markdown string
		want     string
	}{
		{"", "\n"},
		{"a", "\n"},
		{"a\nb\r\n", "\n"},
		{"a\r\nb\n", "\r\n"},
		{"a\rb", "\n"},
	}
	for _, test := range tests {
		doc, err := Parse([]byte(test.markdown), nil)
		if err != nil {
			t.Errorf("Parse(%q): %v", test.markdown, err)
			continue
		}
		if doc.LineEnding != test.want {
			t.Errorf("Parse(%q).LineEnding = %q; want %q", test.markdown, doc.LineEnding, test.want)
		}
	}
}

func TestParseFrontMatter(t *testing.T) {
	const markdown = "---\ntitle: Hi\n---\n# Body\n"
	doc, err := Parse([]byte(markdown), &ParseOptions{FrontMatter: true})
	if err != nil {
		t.Fatal(err)
	}
	if doc.FrontMatter != "---\ntitle: Hi\n---\n" || doc.FrontMatterFormat != YAMLFrontMatter {
		t.Errorf("front matter = %q (%v); want %q (YAML)", doc.FrontMatter, doc.FrontMatterFormat, "---\ntitle: Hi\n---\n")
	}
	if got := eventStrings(doc.Events); len(got) == 0 || got[0] != "Start(Heading)" {
		t.Errorf("events = %v; want heading first", got)
	}
}

func eventStrings(events []Event) []string {
	s := make([]string, len(events))
	for i, ev := range events {
		s[i] = ev.String()
	}
	return s
}

func TestEventString(t *testing.T) {
	tests := []struct {
		ev   Event
		want string
	}{
		{Event{Kind: ListKind}, "Start(List)"},
		{Event{Kind: ListKind, End: true}, "End(List)"},
		{Event{Kind: TextKind, Text: "a\n"}, `Text("a\n")`},
		{Event{Kind: ExtensionKind, Name: "mention"}, "Extension(mention)"},
		{Event{Kind: RuleKind}, "Rule"},
		{Event{Kind: 999}, "EventKind(999)"},
	}
	for _, test := range tests {
		if got := test.ev.String(); got != test.want {
			t.Errorf("%#v.String() = %q; want %q", test.ev, got, test.want)
		}
	}
}

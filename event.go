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

import "fmt"

// EventKind is the type of an [Event].
type EventKind uint16

// Structural event kinds.
// Events of these kinds come in Start/End pairs
// (see [Event.End]).
const (
	HeadingKind EventKind = 1 + iota
	ParagraphKind
	BlockQuoteKind
	ListKind
	ItemKind
	CodeBlockKind
	EmphasisKind
	StrongKind
	StrikethroughKind
	LinkKind
	ImageKind
	FootnoteDefinitionKind
	TableKind
	TableHeadKind
	TableRowKind
	TableCellKind

	leafKindStart
)

// Leaf event kinds.
const (
	// TextKind is a run of literal text.
	// Text holds the literal characters after escapes and entities are resolved.
	TextKind EventKind = leafKindStart + iota
	// CodeKind is an inline code span. Text holds its content.
	CodeKind
	// HTMLKind is inline raw HTML. Text holds it verbatim.
	HTMLKind
	// HTMLBlockKind is a block of raw HTML. Text holds it verbatim.
	HTMLBlockKind
	SoftBreakKind
	HardBreakKind
	// RuleKind is a thematic break.
	RuleKind
	// TaskListMarkerKind is a task list item's checkbox. See [Event.Checked].
	TaskListMarkerKind
	// FootnoteReferenceKind is a footnote reference. Name holds the label.
	FootnoteReferenceKind
	// AutolinkKind is an autolink. Text holds the text between the angle brackets.
	AutolinkKind
	// InlineMathKind is a math span. Text holds the TeX source.
	InlineMathKind
	// DisplayMathKind is display math. Text holds the TeX source.
	DisplayMathKind
	// ExtensionKind is an event contributed by a parser extension.
	// Name identifies the extension and Payload holds its data.
	ExtensionKind
)

// IsStructural reports whether events of the kind come in Start/End pairs.
func (kind EventKind) IsStructural() bool {
	return kind >= HeadingKind && kind < leafKindStart
}

var eventKindNames = map[EventKind]string{
	HeadingKind:            "Heading",
	ParagraphKind:          "Paragraph",
	BlockQuoteKind:         "BlockQuote",
	ListKind:               "List",
	ItemKind:               "Item",
	CodeBlockKind:          "CodeBlock",
	EmphasisKind:           "Emphasis",
	StrongKind:             "Strong",
	StrikethroughKind:      "Strikethrough",
	LinkKind:               "Link",
	ImageKind:              "Image",
	FootnoteDefinitionKind: "FootnoteDefinition",
	TableKind:              "Table",
	TableHeadKind:          "TableHead",
	TableRowKind:           "TableRow",
	TableCellKind:          "TableCell",
	TextKind:               "Text",
	CodeKind:               "Code",
	HTMLKind:               "HTML",
	HTMLBlockKind:          "HTMLBlock",
	SoftBreakKind:          "SoftBreak",
	HardBreakKind:          "HardBreak",
	RuleKind:               "Rule",
	TaskListMarkerKind:     "TaskListMarker",
	FootnoteReferenceKind:  "FootnoteReference",
	AutolinkKind:           "Autolink",
	InlineMathKind:         "InlineMath",
	DisplayMathKind:        "DisplayMath",
	ExtensionKind:          "Extension",
}

func (kind EventKind) String() string {
	if name, ok := eventKindNames[kind]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", uint16(kind))
}

// LinkType is the syntactic form of a link or image in the source.
type LinkType uint8

const (
	// InlineLink is written as [text](destination "title").
	InlineLink LinkType = iota
	// FullReferenceLink is written as [text][label].
	FullReferenceLink
	// CollapsedReferenceLink is written as [text][].
	CollapsedReferenceLink
	// ShortcutReferenceLink is written as [text].
	ShortcutReferenceLink
)

// Alignment is the alignment of a table column.
type Alignment uint8

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Event is a single structural or inline element of a Markdown document.
// Which fields are meaningful depends on Kind.
type Event struct {
	Kind EventKind
	// End is true for the closing event of a structural pair.
	End bool

	// Level is the heading level (1-6).
	Level int

	// Ordered is true for ordered lists.
	Ordered bool
	// Start is the first number of an ordered list.
	Start int
	// Step is the difference between the first two item numbers
	// of an ordered list in the source, or 1 if unknown.
	Step int
	// Items is the number of items in a list.
	Items int
	// Tight is true for tight lists.
	Tight bool

	// Text holds the content of leaf events and code blocks.
	Text string

	// Info is the raw info string of a fenced code block.
	Info string
	// Lang is the first word of Info.
	Lang string
	// Fence is the fence character used in the source ('`' or '~')
	// or zero for indented code blocks.
	Fence byte

	// Destination and Title are the link or image destination and title
	// in source form, with backslash escapes and entity references intact.
	Destination string
	Title       string
	// TitlePresent is true if the link or image has a title,
	// even an empty one.
	TitlePresent bool
	// LinkType is the source form of a link or image.
	LinkType LinkType
	// Label is the raw reference label for a FullReferenceLink.
	Label string

	// Checked is the state of a task list marker.
	Checked bool

	// Alignments holds the column alignments of a table.
	Alignments []Alignment
	// Align is the alignment of a table cell.
	Align Alignment

	// Name is a footnote label or the name of the extension
	// that produced an ExtensionKind event.
	Name string
	// Block is true if an ExtensionKind event stands for a block.
	Block bool
	// Payload is extension-defined data for ExtensionKind events.
	Payload any
}

// String returns a short description of the event, suitable for diagnostics.
func (ev Event) String() string {
	switch {
	case ev.Kind.IsStructural() && ev.End:
		return "End(" + ev.Kind.String() + ")"
	case ev.Kind.IsStructural():
		return "Start(" + ev.Kind.String() + ")"
	case ev.Kind == TextKind || ev.Kind == CodeKind:
		return fmt.Sprintf("%v(%q)", ev.Kind, ev.Text)
	case ev.Kind == ExtensionKind:
		return fmt.Sprintf("Extension(%s)", ev.Name)
	default:
		return ev.Kind.String()
	}
}

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

// Package mdformat parses [CommonMark] documents
// (with GitHub-flavored tables, strikethrough, task lists, footnotes,
// and dollar-delimited math)
// into a flat stream of events suitable for re-rendering as Markdown.
// The [zombiezen.com/go/mdformat/format] package consumes the stream.
//
// [CommonMark]: https://commonmark.org/
package mdformat

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
)

// Features is a set of syntax extensions.
// The formatter escapes characters that are only special
// when the corresponding feature is enabled.
type Features uint32

const (
	TableFeature Features = 1 << iota
	StrikethroughFeature
	TaskListFeature
	FootnoteFeature
	MathFeature
)

// Extension is a syntax extension to the parser.
type Extension interface {
	goldmark.Extender
	// Name returns the name used to enable the extension in configuration.
	Name() string
	// Features returns the syntax the extension adds.
	Features() Features
}

// EventConverter is implemented by an [Extension]
// that introduces its own [ast.Node] kinds.
// ConvertNode is called for nodes that are not part of CommonMark
// or the built-in extensions.
// If ok is true, the returned event (normally of [ExtensionKind])
// replaces the node and its children.
type EventConverter interface {
	ConvertNode(n ast.Node, source []byte) (ev Event, ok bool)
}

type builtinExtension struct {
	name     string
	features Features
	goldmark.Extender
}

func (e *builtinExtension) Name() string       { return e.name }
func (e *builtinExtension) Features() Features { return e.features }

// Built-in extensions.
var (
	TableExtension         Extension = &builtinExtension{"table", TableFeature, extension.Table}
	StrikethroughExtension Extension = &builtinExtension{"strikethrough", StrikethroughFeature, extension.Strikethrough}
	TaskListExtension      Extension = &builtinExtension{"tasklist", TaskListFeature, extension.TaskList}
	FootnoteExtension      Extension = &builtinExtension{"footnote", FootnoteFeature, extension.Footnote}
	MathExtension          Extension = &builtinExtension{"math", MathFeature, mathExtender{}}
)

// DefaultExtensions returns the extensions enabled by default.
func DefaultExtensions() []Extension {
	return []Extension{
		TableExtension,
		StrikethroughExtension,
		TaskListExtension,
		FootnoteExtension,
		MathExtension,
	}
}

// ParseOptions is the set of parameters to [Parse].
type ParseOptions struct {
	// Extensions is the list of syntax extensions to enable.
	// If nil, then [DefaultExtensions] is used.
	// An empty, non-nil slice parses plain CommonMark.
	Extensions []Extension
	// If FrontMatter is true,
	// then a leading YAML ("---") or TOML ("+++") metadata block
	// is set aside before parsing.
	FrontMatter bool
}

func (opts *ParseOptions) extensions() []Extension {
	if opts == nil || opts.Extensions == nil {
		return DefaultExtensions()
	}
	return opts.Extensions
}

func (opts *ParseOptions) markdown(rendererOptions ...renderer.Option) goldmark.Markdown {
	exts := opts.extensions()
	extenders := make([]goldmark.Extender, 0, len(exts))
	for _, e := range exts {
		extenders = append(extenders, e)
	}
	return goldmark.New(
		goldmark.WithExtensions(extenders...),
		goldmark.WithRendererOptions(rendererOptions...),
	)
}

// Document is the result of [Parse].
type Document struct {
	// Events is the document's content in order.
	Events []Event
	// References holds the document's link reference definitions.
	References ReferenceMap
	// LineEnding is the first line terminator in the source
	// ("\n" or "\r\n"), or "\n" if the source has none.
	LineEnding string
	// FrontMatter is the verbatim metadata block, including its delimiters
	// and a trailing newline, or empty if there is none.
	FrontMatter       string
	FrontMatterFormat FrontMatterFormat
	// Features is the union of the enabled extensions' features.
	Features Features
}

// ParseError is returned by [Parse] when the document contains a node
// that cannot be represented as events.
type ParseError struct {
	Kind ast.NodeKind
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse markdown: no event for %v node", e.Kind)
}

// Parse parses a Markdown document into events.
// Parse does not retain source.
func Parse(source []byte, opts *ParseOptions) (*Document, error) {
	doc := &Document{
		LineEnding: detectLineEnding(source),
		References: make(ReferenceMap),
	}
	source = normalizeSource(source)
	if opts != nil && opts.FrontMatter {
		var front []byte
		front, doc.FrontMatterFormat, source = splitFrontMatter(source)
		doc.FrontMatter = string(front)
	}
	for _, e := range opts.extensions() {
		doc.Features |= e.Features()
	}

	pc := parser.NewContext()
	root := opts.markdown().Parser().Parse(text.NewReader(source), parser.WithContext(pc))
	doc.References.extract(pc.References())

	c := &converter{
		source:     source,
		refs:       doc.References,
		extensions: opts.extensions(),
		footnotes:  footnoteNames(root),
	}
	Walk(root, &WalkOptions{
		Pre:  c.pre,
		Post: c.post,
	})
	if c.err != nil {
		return nil, c.err
	}
	doc.Events = c.events
	return doc, nil
}

// detectLineEnding returns the first line terminator in source.
func detectLineEnding(source []byte) string {
	if i := bytes.IndexAny(source, "\r\n"); i >= 0 && source[i] == '\r' && i+1 < len(source) && source[i+1] == '\n' {
		return "\r\n"
	}
	return "\n"
}

// normalizeSource converts all line terminators to LF
// and replaces NUL bytes with the Unicode replacement character.
func normalizeSource(source []byte) []byte {
	if bytes.IndexByte(source, '\r') >= 0 {
		source = bytes.ReplaceAll(source, []byte("\r\n"), []byte("\n"))
		source = bytes.ReplaceAll(source, []byte("\r"), []byte("\n"))
	}
	if bytes.IndexByte(source, 0) >= 0 {
		// Contains one or more NUL bytes.
		// Replace with Unicode replacement character.
		source = bytes.ReplaceAll(source, []byte{0}, []byte("\ufffd"))
	}
	return source
}

// footnoteNames maps footnote indices to their labels.
func footnoteNames(root ast.Node) map[int]string {
	names := make(map[int]string)
	for n := root.LastChild(); n != nil; n = n.PreviousSibling() {
		list, ok := n.(*east.FootnoteList)
		if !ok {
			continue
		}
		for c := list.FirstChild(); c != nil; c = c.NextSibling() {
			if fn, ok := c.(*east.Footnote); ok {
				names[fn.Index] = string(fn.Ref)
			}
		}
	}
	return names
}

type openNode struct {
	node ast.Node
	kind EventKind
}

// converter translates a goldmark syntax tree into events.
type converter struct {
	source     []byte
	refs       ReferenceMap
	extensions []Extension
	footnotes  map[int]string

	events []Event
	open   []openNode
	err    error
}

func (c *converter) start(n ast.Node, ev Event) bool {
	c.events = append(c.events, ev)
	c.open = append(c.open, openNode{node: n, kind: ev.Kind})
	return true
}

func (c *converter) leaf(ev Event) bool {
	c.events = append(c.events, ev)
	return false
}

func (c *converter) post(cursor *Cursor) bool {
	if len(c.open) == 0 || c.open[len(c.open)-1].node != cursor.Node() {
		return true
	}
	top := c.open[len(c.open)-1]
	c.open = c.open[:len(c.open)-1]
	c.events = append(c.events, Event{Kind: top.kind, End: true})
	return true
}

func (c *converter) pre(cursor *Cursor) bool {
	if c.err != nil {
		return false
	}
	switch n := cursor.Node().(type) {
	case *ast.Document, *east.FootnoteList:
		return true
	case *ast.Heading:
		return c.start(n, Event{Kind: HeadingKind, Level: n.Level})
	case *ast.Paragraph, *ast.TextBlock:
		return c.start(n, Event{Kind: ParagraphKind})
	case *ast.Blockquote:
		return c.start(n, Event{Kind: BlockQuoteKind})
	case *ast.List:
		return c.start(n, c.listEvent(n))
	case *ast.ListItem:
		return c.start(n, Event{Kind: ItemKind})
	case *ast.FencedCodeBlock:
		ev := Event{Kind: CodeBlockKind, Fence: c.fenceChar(n)}
		if n.Info != nil {
			ev.Info = strings.TrimSpace(string(n.Info.Segment.Value(c.source)))
			ev.Lang = string(n.Language(c.source))
		}
		c.codeBlock(n, ev)
		return false
	case *ast.CodeBlock:
		c.codeBlock(n, Event{Kind: CodeBlockKind})
		return false
	case *ast.HTMLBlock:
		sb := new(strings.Builder)
		writeLines(sb, c.source, n.Lines())
		if n.HasClosure() {
			sb.Write(n.ClosureLine.Value(c.source))
		}
		return c.leaf(Event{Kind: HTMLBlockKind, Text: sb.String()})
	case *ast.ThematicBreak:
		return c.leaf(Event{Kind: RuleKind})
	case *ast.Text:
		c.text(n)
		return false
	case *ast.String:
		c.appendText(string(n.Value))
		return false
	case *ast.CodeSpan:
		sb := new(strings.Builder)
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			t, ok := child.(*ast.Text)
			if !ok {
				continue
			}
			value := t.Segment.Value(c.source)
			if len(value) > 0 && value[len(value)-1] == '\n' {
				sb.Write(value[:len(value)-1])
				sb.WriteByte(' ')
			} else {
				sb.Write(value)
			}
		}
		return c.leaf(Event{Kind: CodeKind, Text: sb.String()})
	case *ast.Emphasis:
		if n.Level >= 2 {
			return c.start(n, Event{Kind: StrongKind})
		}
		return c.start(n, Event{Kind: EmphasisKind})
	case *ast.Link:
		return c.start(n, c.linkEvent(LinkKind, n, n.Destination, n.Title))
	case *ast.Image:
		return c.start(n, c.linkEvent(ImageKind, n, n.Destination, n.Title))
	case *ast.AutoLink:
		return c.leaf(Event{Kind: AutolinkKind, Text: string(n.Label(c.source))})
	case *ast.RawHTML:
		sb := new(strings.Builder)
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			sb.Write(seg.Value(c.source))
		}
		return c.leaf(Event{Kind: HTMLKind, Text: sb.String()})
	case *east.Strikethrough:
		return c.start(n, Event{Kind: StrikethroughKind})
	case *east.TaskCheckBox:
		return c.leaf(Event{Kind: TaskListMarkerKind, Checked: n.IsChecked})
	case *east.FootnoteLink:
		name, ok := c.footnotes[n.Index]
		if !ok {
			name = strconv.Itoa(n.Index)
		}
		return c.leaf(Event{Kind: FootnoteReferenceKind, Name: name})
	case *east.FootnoteBacklink:
		return false
	case *east.Footnote:
		return c.start(n, Event{Kind: FootnoteDefinitionKind, Name: string(n.Ref)})
	case *east.Table:
		aligns := make([]Alignment, len(n.Alignments))
		for i, a := range n.Alignments {
			aligns[i] = convertAlignment(a)
		}
		return c.start(n, Event{Kind: TableKind, Alignments: aligns})
	case *east.TableHeader:
		return c.start(n, Event{Kind: TableHeadKind})
	case *east.TableRow:
		return c.start(n, Event{Kind: TableRowKind})
	case *east.TableCell:
		return c.start(n, Event{Kind: TableCellKind, Align: convertAlignment(n.Alignment)})
	case *MathNode:
		if n.Display {
			return c.leaf(Event{Kind: DisplayMathKind, Text: string(n.Value)})
		}
		return c.leaf(Event{Kind: InlineMathKind, Text: string(n.Value)})
	default:
		for _, e := range c.extensions {
			conv, ok := e.(EventConverter)
			if !ok {
				continue
			}
			if ev, ok := conv.ConvertNode(n, c.source); ok {
				if ev.Kind.IsStructural() {
					c.err = fmt.Errorf("parse markdown: extension %s converted %v node to structural %v", e.Name(), n.Kind(), ev.Kind)
					return false
				}
				return c.leaf(ev)
			}
		}
		if n.HasChildren() {
			return true
		}
		c.err = &ParseError{Kind: n.Kind()}
		return false
	}
}

func (c *converter) text(n *ast.Text) {
	raw := n.Segment.Value(c.source)
	if len(c.events) > 0 {
		if k := c.events[len(c.events)-1].Kind; k == SoftBreakKind || k == HardBreakKind {
			raw = bytes.TrimLeft(raw, " \t")
		}
	}
	hard, soft := n.HardLineBreak(), n.SoftLineBreak()
	if (hard || soft) && !c.backslashBreak(n) {
		// Trim before decoding so that spaces written as entities survive.
		raw = bytes.TrimRight(raw, " \t")
	}
	if n.IsRaw() {
		c.appendText(string(raw))
	} else {
		c.appendText(decodeText(raw))
	}
	switch {
	case hard:
		c.events = append(c.events, Event{Kind: HardBreakKind})
	case soft:
		c.events = append(c.events, Event{Kind: SoftBreakKind})
	}
}

// backslashBreak reports whether n ends in a backslash hard line break.
// The parser keeps the whitespace before such a break.
func (c *converter) backslashBreak(n *ast.Text) bool {
	stop := n.Segment.Stop
	return n.HardLineBreak() && stop < len(c.source) && c.source[stop] == '\\'
}

// appendText adds a text event, coalescing it with a preceding text event.
func (c *converter) appendText(s string) {
	if s == "" {
		return
	}
	if len(c.events) > 0 {
		if last := &c.events[len(c.events)-1]; last.Kind == TextKind {
			last.Text += s
			return
		}
	}
	c.events = append(c.events, Event{Kind: TextKind, Text: s})
}

func (c *converter) codeBlock(n ast.Node, ev Event) {
	c.events = append(c.events, ev)
	sb := new(strings.Builder)
	writeLines(sb, c.source, n.Lines())
	c.events = append(c.events,
		Event{Kind: TextKind, Text: sb.String()},
		Event{Kind: CodeBlockKind, End: true},
	)
}

func writeLines(sb *strings.Builder, source []byte, lines *text.Segments) {
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
}

// fenceChar finds the character that opened a fenced code block.
func (c *converter) fenceChar(n *ast.FencedCodeBlock) byte {
	var pos int
	switch {
	case n.Info != nil:
		pos = n.Info.Segment.Start
	case n.Lines().Len() > 0:
		// Content starts on the line after the fence.
		pos = n.Lines().At(0).Start
		if pos > 0 && c.source[pos-1] == '\n' {
			pos--
		}
	default:
		return '`'
	}
	for pos--; pos >= 0; pos-- {
		switch c.source[pos] {
		case '`', '~':
			return c.source[pos]
		case ' ', '\t':
		default:
			return '`'
		}
	}
	return '`'
}

func (c *converter) listEvent(n *ast.List) Event {
	ev := Event{
		Kind:    ListKind,
		Ordered: n.IsOrdered(),
		Tight:   n.IsTight,
		Items:   n.ChildCount(),
		Step:    1,
	}
	if !ev.Ordered {
		return ev
	}
	ev.Start = n.Start
	first := n.FirstChild()
	if first == nil || first.NextSibling() == nil {
		return ev
	}
	n1, ok1 := c.itemNumber(first)
	n2, ok2 := c.itemNumber(first.NextSibling())
	if ok1 && ok2 && n2 >= n1 {
		ev.Step = n2 - n1
	}
	return ev
}

// itemNumber reads the number of an ordered list item's marker from the source.
// The marker is found by scanning back from the item's first content,
// past container indentation, blank lines, heading markers, and code fences.
func (c *converter) itemNumber(item ast.Node) (int, bool) {
	start, ok := contentStart(item.FirstChild())
	if !ok {
		return 0, false
	}
	i := start - 1
	for i >= 0 && strings.IndexByte(" \t\n>#`~", c.source[i]) >= 0 {
		i--
	}
	if i < 0 || (c.source[i] != '.' && c.source[i] != ')') {
		return 0, false
	}
	j := i
	for j > 0 && '0' <= c.source[j-1] && c.source[j-1] <= '9' {
		j--
	}
	if j == i {
		return 0, false
	}
	num, err := strconv.Atoi(string(c.source[j:i]))
	if err != nil {
		return 0, false
	}
	return num, true
}

// contentStart returns the source position of the first character
// of a list item's first block, if the block is a leaf with content.
func contentStart(child ast.Node) (int, bool) {
	if child == nil || child.Type() != ast.TypeBlock {
		return 0, false
	}
	if fenced, ok := child.(*ast.FencedCodeBlock); ok && fenced.Info != nil {
		return fenced.Info.Segment.Start, true
	}
	if child.Lines().Len() == 0 {
		return 0, false
	}
	return child.Lines().At(0).Start, true
}

func (c *converter) linkEvent(kind EventKind, n ast.Node, dest, title []byte) Event {
	ev := Event{
		Kind:        kind,
		Destination:  string(dest),
		Title:        string(title),
		TitlePresent: title != nil,
	}
	ev.LinkType, ev.Label = linkForm(c.source, n, c.refs)
	return ev
}

func convertAlignment(a east.Alignment) Alignment {
	switch a {
	case east.AlignLeft:
		return AlignLeft
	case east.AlignCenter:
		return AlignCenter
	case east.AlignRight:
		return AlignRight
	default:
		return AlignNone
	}
}

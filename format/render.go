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
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"zombiezen.com/go/mdformat"
)

// containerFrame is a block that prefixes the lines of its children.
type containerFrame struct {
	// kind is the kind of the block, or zero for the document.
	kind mdformat.EventKind
	// marker is the prefix of the first line.
	marker string
	// indent is the prefix of the remaining lines.
	indent string
	// used is true once the first line has been written.
	used bool
	// blocks is the number of child blocks started.
	blocks int
	// tight is true if child blocks are not separated by blank lines.
	tight bool
	// prevList describes the previous child block if it was a list.
	prevList *listFrame
}

// inlineBlock is a block whose content is inline events.
type inlineBlock struct {
	kind  mdformat.EventKind
	level int
	b     *inlineBuilder
	// itemStart is true for the first paragraph of a list item.
	itemStart bool
}

type openLink struct {
	ev     mdformat.Event
	mark   int
	offset int
}

type codeBlockState struct {
	ev   mdformat.Event
	text strings.Builder
}

// renderer holds the state of a single [Render] call.
type renderer struct {
	opts   *Options
	doc    *mdformat.Document
	events []mdformat.Event
	out    strings.Builder

	frames []*containerFrame
	lists  listStack
	open   []mdformat.EventKind

	inline    *inlineBlock
	emphasis  []string
	links     []openLink
	afterTask bool
	code      *codeBlockState
	table     *tableState

	// closeBracketAfter[i] is true if a text event after i
	// in the same inline block contains a ']'.
	closeBracketAfter []bool
	// backtickAfter[i] is true if an event after i
	// in the same inline block writes a backtick.
	backtickAfter []bool
}

func newRenderer(doc *mdformat.Document, opts *Options) *renderer {
	r := &renderer{
		opts:   opts,
		doc:    doc,
		events: doc.Events,
		frames: []*containerFrame{{}},
	}
	r.closeBracketAfter = make([]bool, len(doc.Events))
	r.backtickAfter = make([]bool, len(doc.Events))
	bracket, backtick := false, false
	for i := len(doc.Events) - 1; i >= 0; i-- {
		ev := doc.Events[i]
		r.closeBracketAfter[i] = bracket
		r.backtickAfter[i] = backtick
		switch ev.Kind {
		case mdformat.TextKind:
			bracket = bracket || strings.Contains(ev.Text, "]")
			backtick = backtick || strings.Contains(ev.Text, "`")
		case mdformat.CodeKind, mdformat.ExtensionKind:
			backtick = true
		case mdformat.HTMLKind, mdformat.AutolinkKind, mdformat.InlineMathKind, mdformat.DisplayMathKind:
			backtick = backtick || strings.Contains(ev.Text, "`")
		case mdformat.FootnoteReferenceKind:
			backtick = backtick || strings.Contains(ev.Name, "`")
		case mdformat.LinkKind, mdformat.ImageKind:
			backtick = backtick || linkHasBacktick(ev)
		case mdformat.ParagraphKind, mdformat.HeadingKind, mdformat.TableCellKind:
			bracket, backtick = false, false
		}
	}
	return r
}

// linkHasBacktick reports whether the destination, title, or label
// written after a link's text contains a backtick.
func linkHasBacktick(ev mdformat.Event) bool {
	return strings.Contains(ev.Destination, "`") ||
		strings.Contains(ev.Title, "`") ||
		strings.Contains(ev.Label, "`")
}

func (r *renderer) invariant(i int, ev mdformat.Event, format string, args ...any) error {
	return &InvariantError{
		Index: i,
		Event: ev,
		Msg:   fmt.Sprintf(format, args...),
	}
}

func (r *renderer) top() *containerFrame {
	return r.frames[len(r.frames)-1]
}

func (r *renderer) event(i int, ev mdformat.Event) error {
	if !ev.Kind.IsStructural() {
		return r.leaf(i, ev)
	}
	if !ev.End {
		r.open = append(r.open, ev.Kind)
		return r.start(i, ev)
	}
	if len(r.open) == 0 {
		return r.invariant(i, ev, "end without start")
	}
	if k := r.open[len(r.open)-1]; k != ev.Kind {
		return r.invariant(i, ev, "end does not match open %v", k)
	}
	r.open = r.open[:len(r.open)-1]
	return r.end(i, ev)
}

// finish checks that all blocks were closed
// and writes the link reference definitions.
func (r *renderer) finish() error {
	if len(r.open) > 0 {
		k := r.open[len(r.open)-1]
		return r.invariant(len(r.events), mdformat.Event{Kind: k}, "%v never ended", k)
	}
	labels := r.doc.References.Labels()
	if len(labels) == 0 {
		return nil
	}
	r.beginBlock()
	for _, label := range labels {
		def := r.doc.References[label]
		s := "[" + label + "]: " + definitionDestination(def.Destination)
		if def.TitlePresent {
			s += " " + linkTitle(def.Title)
		}
		for _, l := range strings.Split(s, "\n") {
			r.writeLine(l)
		}
	}
	return nil
}

func (r *renderer) requireBlock(i int, ev mdformat.Event) error {
	switch {
	case r.inline != nil:
		return r.invariant(i, ev, "block inside inline content")
	case r.code != nil:
		return r.invariant(i, ev, "block inside code block")
	case r.table != nil:
		return r.invariant(i, ev, "block inside table")
	}
	return nil
}

func (r *renderer) start(i int, ev mdformat.Event) error {
	switch ev.Kind {
	case mdformat.HeadingKind:
		if err := r.requireBlock(i, ev); err != nil {
			return err
		}
		if ev.Level < 1 || ev.Level > 6 {
			return r.invariant(i, ev, "heading level %d out of range", ev.Level)
		}
		r.beginBlock()
		r.inline = &inlineBlock{
			kind:  ev.Kind,
			level: min(ev.Level, r.opts.maxHeadingLevel()),
			b:     newInlineBuilder(),
		}
	case mdformat.ParagraphKind:
		if err := r.requireBlock(i, ev); err != nil {
			return err
		}
		r.beginBlock()
		f := r.top()
		r.inline = &inlineBlock{
			kind:      ev.Kind,
			b:         newInlineBuilder(),
			itemStart: f.kind == mdformat.ItemKind && f.blocks == 1,
		}
	case mdformat.BlockQuoteKind:
		if err := r.requireBlock(i, ev); err != nil {
			return err
		}
		r.beginBlock()
		r.frames = append(r.frames, &containerFrame{
			kind:   ev.Kind,
			marker: "> ",
			indent: "> ",
		})
	case mdformat.FootnoteDefinitionKind:
		if err := r.requireBlock(i, ev); err != nil {
			return err
		}
		r.beginBlock()
		r.frames = append(r.frames, &containerFrame{
			kind:   ev.Kind,
			marker: "[^" + ev.Name + "]: ",
			indent: "    ",
		})
	case mdformat.ListKind:
		if err := r.requireBlock(i, ev); err != nil {
			return err
		}
		parent := r.top()
		prev := parent.prevList
		sameLine := parent.kind == mdformat.ItemKind && !parent.used && parent.blocks == 0
		r.beginBlock()
		marker := byte('-')
		if ev.Ordered {
			marker = '.'
		}
		switch outer := r.lists.top(); {
		case prev != nil && prev.ordered == ev.Ordered && prev.marker == marker:
			// Adjacent lists are not merged: they must use different markers
			// or they would be read back as one list.
			marker = alternateMarker(marker)
		case sameLine && !ev.Ordered && outer != nil && !outer.ordered && outer.marker == marker:
			// "- - -" is a thematic break.
			marker = alternateMarker(marker)
		}
		step := ev.Step
		if r.opts.ConsecutiveNumbering {
			step = 1
		}
		r.lists.push(ev.Ordered, ev.Start, step, marker)
		r.frames = append(r.frames, &containerFrame{
			kind:  ev.Kind,
			tight: ev.Tight,
		})
	case mdformat.ItemKind:
		if err := r.requireBlock(i, ev); err != nil {
			return err
		}
		list := r.top()
		if list.kind != mdformat.ListKind {
			return r.invariant(i, ev, "%v", errItemOutsideList)
		}
		r.beginBlock()
		marker, err := r.lists.advanceTop()
		if err != nil {
			return r.invariant(i, ev, "%v", err)
		}
		r.frames = append(r.frames, &containerFrame{
			kind:   ev.Kind,
			marker: marker,
			indent: strings.Repeat(" ", len(marker)),
			tight:  list.tight,
		})
	case mdformat.CodeBlockKind:
		if err := r.requireBlock(i, ev); err != nil {
			return err
		}
		r.beginBlock()
		r.code = &codeBlockState{ev: ev}
	case mdformat.TableKind:
		if err := r.requireBlock(i, ev); err != nil {
			return err
		}
		r.beginBlock()
		r.table = &tableState{alignments: ev.Alignments}
	case mdformat.TableHeadKind, mdformat.TableRowKind:
		if r.table == nil || r.inline != nil {
			return r.invariant(i, ev, "table row outside of a table")
		}
		r.table.rows = append(r.table.rows, nil)
	case mdformat.TableCellKind:
		if r.table == nil || len(r.table.rows) == 0 || r.inline != nil {
			return r.invariant(i, ev, "table cell outside of a table row")
		}
		r.inline = &inlineBlock{kind: ev.Kind, b: newInlineBuilder()}
	case mdformat.EmphasisKind, mdformat.StrongKind, mdformat.StrikethroughKind:
		b, err := r.builder(i, ev)
		if err != nil {
			return err
		}
		alternate := b.last == '*' && !b.lastEscaped && r.underscoreCanClose(i)
		delim := emphasisDelimiter(ev.Kind, alternate)
		r.emphasis = append(r.emphasis, delim)
		b.word(delim)
	case mdformat.LinkKind, mdformat.ImageKind:
		b, err := r.builder(i, ev)
		if err != nil {
			return err
		}
		if ev.Kind == mdformat.ImageKind {
			b.word("![")
		} else {
			b.word("[")
		}
		mark, offset := b.pos()
		r.links = append(r.links, openLink{ev: ev, mark: mark, offset: offset})
	default:
		return r.invariant(i, ev, "unhandled start event")
	}
	return nil
}

func (r *renderer) end(i int, ev mdformat.Event) error {
	switch ev.Kind {
	case mdformat.HeadingKind:
		r.writeHeading()
	case mdformat.ParagraphKind:
		r.writeParagraph()
	case mdformat.BlockQuoteKind, mdformat.FootnoteDefinitionKind, mdformat.ItemKind:
		if !r.top().used {
			r.writeLine("")
		}
		r.frames = r.frames[:len(r.frames)-1]
	case mdformat.ListKind:
		list, err := r.lists.pop()
		if err != nil {
			return r.invariant(i, ev, "%v", err)
		}
		r.frames = r.frames[:len(r.frames)-1]
		r.top().prevList = &list
	case mdformat.CodeBlockKind:
		r.writeCodeBlock()
		r.code = nil
	case mdformat.TableKind:
		r.writeTable()
		r.table = nil
	case mdformat.TableHeadKind, mdformat.TableRowKind:
	case mdformat.TableCellKind:
		r.table.addCell(r.inline.b)
		r.inline = nil
	case mdformat.EmphasisKind, mdformat.StrongKind, mdformat.StrikethroughKind:
		delim := r.emphasis[len(r.emphasis)-1]
		r.emphasis = r.emphasis[:len(r.emphasis)-1]
		r.inline.b.word(delim)
	case mdformat.LinkKind, mdformat.ImageKind:
		r.endLink(i)
	}
	return nil
}

func (r *renderer) leaf(i int, ev mdformat.Event) error {
	if r.code != nil {
		if ev.Kind != mdformat.TextKind {
			return r.invariant(i, ev, "inside code block")
		}
		r.code.text.WriteString(ev.Text)
		return nil
	}
	switch ev.Kind {
	case mdformat.HTMLBlockKind:
		if err := r.requireBlock(i, ev); err != nil {
			return err
		}
		r.beginBlock()
		text := strings.TrimLeft(strings.TrimSuffix(ev.Text, "\n"), " \t")
		for _, l := range strings.Split(text, "\n") {
			r.writeLine(l)
		}
		return nil
	case mdformat.RuleKind:
		if err := r.requireBlock(i, ev); err != nil {
			return err
		}
		r.beginBlock()
		r.writeLine(r.thematicBreak())
		return nil
	case mdformat.ExtensionKind:
		return r.extension(i, ev)
	}

	b, err := r.builder(i, ev)
	if err != nil {
		return err
	}
	switch ev.Kind {
	case mdformat.TextKind:
		r.text(i, b, ev.Text)
	case mdformat.CodeKind:
		b.word(codeSpan(ev.Text, r.inline.kind == mdformat.TableCellKind))
	case mdformat.HTMLKind:
		b.word(ev.Text)
	case mdformat.AutolinkKind:
		b.word("<" + ev.Text + ">")
	case mdformat.SoftBreakKind:
		b.soft()
	case mdformat.HardBreakKind:
		if r.inline.kind != mdformat.ParagraphKind {
			// ATX headings and table cells are a single line.
			b.word("<br />")
		} else {
			b.hard()
		}
	case mdformat.TaskListMarkerKind:
		if ev.Checked {
			b.word("[x]")
		} else {
			b.word("[ ]")
		}
		r.afterTask = true
	case mdformat.FootnoteReferenceKind:
		b.word("[^" + ev.Name + "]")
	case mdformat.InlineMathKind:
		b.word("$" + ev.Text + "$")
	case mdformat.DisplayMathKind:
		b.word("$$" + ev.Text + "$$")
	default:
		return r.invariant(i, ev, "unhandled event")
	}
	return nil
}

// builder returns the builder of the current inline block.
func (r *renderer) builder(i int, ev mdformat.Event) (*inlineBuilder, error) {
	if r.inline == nil {
		return nil, r.invariant(i, ev, "inline content outside of a paragraph, heading, or table cell")
	}
	b := r.inline.b
	if r.afterTask {
		b.word(" ")
		r.afterTask = false
	}
	return b, nil
}

func (r *renderer) text(i int, b *inlineBuilder, s string) {
	if r.opts.NormalizeSpaces {
		s = collapseSpaces(s)
	}
	ctx := &escapeContext{
		prev:           b.last,
		next:           r.nextChar(i),
		features:       r.doc.Features,
		refs:           r.doc.References,
		inTable:        r.inline.kind == mdformat.TableCellKind,
		inLabel:        len(r.links) > 0,
		paragraphStart: r.inline.kind == mdformat.ParagraphKind && b.empty(),
		itemStart:      r.inline.itemStart && b.empty(),
		finalRun:       !r.closeBracketAfter[i],
		backtickAfter:  r.backtickAfter[i] || r.openLinkHasBacktick(),
		afterOpener:    i > 0 && !r.events[i-1].End && isDelimited(r.events[i-1].Kind),
		beforeCloser:   i+1 < len(r.events) && r.events[i+1].End && isDelimited(r.events[i+1].Kind),
	}
	b.text(escapeText(s, ctx))
}

func (r *renderer) openLinkHasBacktick() bool {
	for _, l := range r.links {
		if linkHasBacktick(l.ev) {
			return true
		}
	}
	return false
}

func (r *renderer) extension(i int, ev mdformat.Event) error {
	ext := r.opts.Extensions[ev.Name]
	if ext == nil {
		return r.invariant(i, ev, "no renderer for extension %q", ev.Name)
	}
	text, err := ext.RenderEvent(ev)
	if err != nil {
		return fmt.Errorf("format markdown: extension %s: %w", ev.Name, err)
	}
	if !ev.Block {
		b, err := r.builder(i, ev)
		if err != nil {
			return err
		}
		b.word(text)
		return nil
	}
	if err := r.requireBlock(i, ev); err != nil {
		return err
	}
	r.beginBlock()
	for _, l := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		r.writeLine(l)
	}
	return nil
}

// nextChar returns the first character that the event after i will write.
func (r *renderer) nextChar(i int) rune {
	if i+1 >= len(r.events) {
		return endChar
	}
	ev := r.events[i+1]
	if ev.End {
		switch ev.Kind {
		case mdformat.EmphasisKind, mdformat.StrongKind, mdformat.StrikethroughKind:
			if len(r.emphasis) > 0 {
				return rune(r.emphasis[len(r.emphasis)-1][0])
			}
			return unknownChar
		case mdformat.LinkKind, mdformat.ImageKind:
			return ']'
		default:
			return endChar
		}
	}
	switch ev.Kind {
	case mdformat.TextKind:
		for _, c := range ev.Text {
			if c == '\t' && r.opts.NormalizeSpaces {
				return ' '
			}
			return c
		}
		return unknownChar
	case mdformat.CodeKind:
		return '`'
	case mdformat.HTMLKind, mdformat.AutolinkKind:
		return '<'
	case mdformat.SoftBreakKind:
		return endChar
	case mdformat.HardBreakKind:
		if r.opts.HardBreak == SpacesBreak {
			return ' '
		}
		return '\\'
	case mdformat.EmphasisKind, mdformat.StrongKind:
		return '*'
	case mdformat.StrikethroughKind:
		return '~'
	case mdformat.LinkKind, mdformat.FootnoteReferenceKind, mdformat.TaskListMarkerKind:
		return '['
	case mdformat.ImageKind:
		return '!'
	case mdformat.InlineMathKind, mdformat.DisplayMathKind:
		return '$'
	default:
		return unknownChar
	}
}

func (r *renderer) endLink(i int) {
	l := r.links[len(r.links)-1]
	r.links = r.links[:len(r.links)-1]
	b := r.inline.b
	label := b.since(l.mark, l.offset)
	ev := l.ev

	switch ev.LinkType {
	case mdformat.FullReferenceLink:
		if ev.Label != "" {
			b.word("][" + ev.Label + "]")
			return
		}
	case mdformat.CollapsedReferenceLink, mdformat.ShortcutReferenceLink:
		if r.referenceMatches(label, ev) {
			next := r.nextChar(i)
			if ev.LinkType == mdformat.CollapsedReferenceLink || next == unknownChar || strings.ContainsRune("([:", next) {
				b.word("][]")
			} else {
				b.word("]")
			}
			return
		}
		if ref := r.findReference(ev); ref != "" {
			b.word("][" + ref + "]")
			return
		}
	}
	b.word("](" + inlineDestination(ev.Destination, ev.TitlePresent) + titleSuffix(ev.Title, ev.TitlePresent) + ")")
}

// referenceMatches reports whether label refers to the link's destination.
func (r *renderer) referenceMatches(label string, ev mdformat.Event) bool {
	def, ok := r.doc.References[mdformat.NormalizeLabel(label)]
	return ok && sameTarget(def, ev)
}

// findReference returns the label of a definition
// with the link's destination and title.
func (r *renderer) findReference(ev mdformat.Event) string {
	for _, label := range r.doc.References.Labels() {
		if sameTarget(r.doc.References[label], ev) {
			return label
		}
	}
	return ""
}

func sameTarget(def mdformat.LinkDefinition, ev mdformat.Event) bool {
	return def.Destination == ev.Destination &&
		def.Title == ev.Title &&
		def.TitlePresent == ev.TitlePresent
}

// beginBlock separates a new block from its previous sibling.
func (r *renderer) beginBlock() {
	f := r.top()
	if f.blocks > 0 && !f.tight {
		r.blankLine()
	}
	f.blocks++
	f.prevList = nil
}

// linePrefix returns the container prefixes for the next line.
func (r *renderer) linePrefix() string {
	sb := new(strings.Builder)
	for _, f := range r.frames {
		if !f.used {
			sb.WriteString(f.marker)
			f.used = true
		} else {
			sb.WriteString(f.indent)
		}
	}
	return sb.String()
}

func (r *renderer) prefixWidth() int {
	w := 0
	for _, f := range r.frames {
		w += runewidth.StringWidth(f.indent)
	}
	return w
}

func (r *renderer) writeLine(s string) {
	prefix := r.linePrefix()
	if s == "" {
		prefix = strings.TrimRight(prefix, " \t")
	}
	r.out.WriteString(prefix)
	r.out.WriteString(s)
	r.out.WriteString("\n")
}

func (r *renderer) blankLine() {
	indents := make([]string, 0, len(r.frames))
	for _, f := range r.frames {
		indents = append(indents, f.indent)
	}
	// Writing to a strings.Builder does not fail.
	writeTrimmedIndent(&r.out, indents)
	r.out.WriteString("\n")
}

func (r *renderer) writeParagraph() {
	ib := r.inline
	r.inline = nil
	r.afterTask = false

	mode, width := softNewline, 0
	switch {
	case r.opts.Wrap == WrapNo && len(r.frames) == 1:
		mode = softSpace
	case r.opts.Wrap > 0:
		width = max(r.opts.Wrap-r.prefixWidth(), 1)
	}
	for n, l := range ib.b.layout(mode, width) {
		text := l.text
		if !l.verbatim {
			text = escapeLineStart(text, n == 0, r.doc.Features)
			// Spaces before a backslash break are content.
			text = escapeLineEnd(text, l.hard && r.opts.HardBreak == BackslashBreak)
		}
		if l.hard {
			if r.opts.HardBreak == SpacesBreak {
				text += "  "
			} else {
				text += `\`
			}
		}
		r.writeLine(text)
	}
}

func (r *renderer) writeHeading() {
	ib := r.inline
	r.inline = nil
	r.afterTask = false

	content := joinLines(ib.b.layout(softSpace, 0))
	content = escapeHeadingEnd(escapeEdges(content))
	hashes := strings.Repeat("#", ib.level)
	if content == "" {
		r.writeLine(hashes)
	} else {
		r.writeLine(hashes + " " + content)
	}
}

// joinLines joins laid out lines into a single line.
func joinLines(lines []line) string {
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.text
	}
	return strings.Join(texts, " ")
}

func (r *renderer) writeCodeBlock() {
	ev := r.code.ev
	code := r.code.text.String()
	if f := r.opts.codeFormatter(ev.Lang); f != nil {
		formatted, err := f.FormatCode(ev.Lang, code)
		if err != nil {
			if r.opts.Logger != nil {
				r.opts.Logger.Warn("Code formatter failed; keeping original", "lang", ev.Lang, "err", err)
			}
		} else {
			code = formatted
		}
	}

	fence := ev.Fence
	if fence != '~' {
		fence = '`'
	}
	if fence == '`' && strings.Contains(ev.Info, "`") {
		fence = '~'
	}
	delim := strings.Repeat(string(fence), max(3, longestRun(code, fence)+1))
	r.writeLine(delim + ev.Info)
	if code != "" {
		for _, l := range strings.Split(strings.TrimSuffix(code, "\n"), "\n") {
			r.writeLine(l)
		}
	}
	r.writeLine(delim)
}

func (r *renderer) thematicBreak() string {
	if r.opts.StandardizeThematicBreaks {
		return standardThematicBreak
	}
	return "___"
}

// standardThematicBreak is the thematic break written
// when thematic breaks are standardized.
var standardThematicBreak = strings.Repeat("_", 70)

func isDelimited(kind mdformat.EventKind) bool {
	return kind == mdformat.EmphasisKind || kind == mdformat.StrongKind || kind == mdformat.StrikethroughKind
}

// emphasisDelimiter returns the delimiter for an emphasis, strong,
// or strikethrough span.
// If alternate is true, underscores are used instead of asterisks.
func emphasisDelimiter(kind mdformat.EventKind, alternate bool) string {
	switch kind {
	case mdformat.StrikethroughKind:
		return "~~"
	case mdformat.StrongKind:
		if alternate {
			return "__"
		}
		return "**"
	default:
		if alternate {
			return "_"
		}
		return "*"
	}
}

// underscoreCanClose reports whether an underscore delimiter
// for the span started at event i could close it.
// Underscores cannot close inside a word.
func (r *renderer) underscoreCanClose(i int) bool {
	end := r.matchingEnd(i)
	if end < 0 {
		return false
	}
	before := '.'
	if ev := r.events[end-1]; ev.Kind == mdformat.TextKind && ev.Text != "" {
		before, _ = utf8.DecodeLastRuneInString(ev.Text)
		if before == ' ' || before == '\t' {
			// Written as a character reference.
			before = ';'
		}
	}
	after := r.nextChar(end)
	if after == unknownChar {
		return false
	}
	leftFlanking := !isSpace(after) && (!isPunct(after) || isSpace(before) || isPunct(before))
	rightFlanking := !isSpace(before) && (!isPunct(before) || isSpace(after) || isPunct(after))
	return rightFlanking && (!leftFlanking || isPunct(after))
}

// matchingEnd returns the index of the event that ends
// the structural event at i, or -1 if there is none.
func (r *renderer) matchingEnd(i int) int {
	depth := 0
	for j := i + 1; j < len(r.events); j++ {
		ev := r.events[j]
		if !ev.Kind.IsStructural() {
			continue
		}
		if !ev.End {
			depth++
			continue
		}
		if depth == 0 {
			if ev.Kind != r.events[i].Kind {
				return -1
			}
			return j
		}
		depth--
	}
	return -1
}

func alternateMarker(c byte) byte {
	switch c {
	case '-':
		return '*'
	case '*':
		return '-'
	case '.':
		return ')'
	default:
		return '.'
	}
}

// collapseSpaces replaces runs of spaces and tabs with a single space.
func collapseSpaces(s string) string {
	if !strings.Contains(s, "\t") && !strings.Contains(s, "  ") {
		return s
	}
	sb := new(strings.Builder)
	sb.Grow(len(s))
	inSpace := false
	for i := 0; i < len(s); i++ {
		if c := s[i]; c == ' ' || c == '\t' {
			if !inSpace {
				sb.WriteByte(' ')
			}
			inSpace = true
			continue
		}
		inSpace = false
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// longestRun returns the length of the longest run of c in s.
func longestRun(s string, c byte) int {
	longest, n := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			n++
			longest = max(longest, n)
		} else {
			n = 0
		}
	}
	return longest
}

// codeSpan returns the Markdown for a code span with the given content.
func codeSpan(content string, inTable bool) string {
	if inTable {
		content = strings.ReplaceAll(content, "|", `\|`)
	}
	delim := strings.Repeat("`", longestRun(content, '`')+1)
	pad := strings.HasPrefix(content, "`") || strings.HasSuffix(content, "`") ||
		strings.HasPrefix(content, " ") && strings.HasSuffix(content, " ") && strings.Trim(content, " ") != ""
	if pad {
		return delim + " " + content + " " + delim
	}
	return delim + content + delim
}

// inlineDestination returns the destination part of an inline link.
func inlineDestination(dest string, hasTitle bool) string {
	if dest == "" {
		if hasTitle {
			return "<>"
		}
		return ""
	}
	if needsAngleBrackets(dest) {
		return "<" + escapeUnescaped(dest, "<>") + ">"
	}
	return dest
}

// definitionDestination returns the destination part
// of a link reference definition.
func definitionDestination(dest string) string {
	if dest == "" || needsAngleBrackets(dest) {
		return "<" + escapeUnescaped(dest, "<>") + ">"
	}
	return dest
}

// needsAngleBrackets reports whether a destination
// must be written between angle brackets.
func needsAngleBrackets(dest string) bool {
	if dest[0] == '<' {
		return true
	}
	depth := 0
	for i := 0; i < len(dest); i++ {
		switch c := dest[i]; {
		case c == '\\':
			i++
		case c <= ' ' || c == 0x7f:
			return true
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth < 0 {
				return true
			}
		}
	}
	return depth != 0
}

func titleSuffix(title string, present bool) string {
	if !present {
		return ""
	}
	return " " + linkTitle(title)
}

// linkTitle returns a link title between the first delimiters
// that do not appear in it.
func linkTitle(title string) string {
	switch {
	case !containsUnescaped(title, `"`):
		return `"` + title + `"`
	case !containsUnescaped(title, "'"):
		return "'" + title + "'"
	case !containsUnescaped(title, "()"):
		return "(" + title + ")"
	default:
		return `"` + escapeUnescaped(title, `"`) + `"`
	}
}

// containsUnescaped reports whether s contains any of the bytes in chars
// that is not preceded by a backslash escape.
func containsUnescaped(s string, chars string) bool {
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\':
			i++
		case strings.IndexByte(chars, s[i]) >= 0:
			return true
		}
	}
	return false
}

// escapeUnescaped adds a backslash before each byte in chars
// that is not already escaped.
func escapeUnescaped(s string, chars string) string {
	sb := new(strings.Builder)
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\' && i+1 < len(s):
			sb.WriteString(s[i : i+2])
			i++
		case strings.IndexByte(chars, s[i]) >= 0:
			sb.WriteByte('\\')
			sb.WriteByte(s[i])
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

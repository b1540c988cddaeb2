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

// Package format renders a parsed Markdown document
// as canonical Markdown that is equivalent to the original.
//
// The output uses consistent list markers and numbering,
// a single blank line between blocks, ATX headings, fenced code blocks,
// and only the backslash escapes needed to keep literal text literal.
// Formatting the output again produces the same text.
package format

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"zombiezen.com/go/mdformat"
)

// Wrap modes. Any value of at least 2 is a line width.
const (
	// WrapKeep keeps the line breaks of the source paragraphs.
	WrapKeep = 0
	// WrapNo joins the lines of top-level paragraphs.
	// Paragraphs inside list items, block quotes, and footnotes
	// keep their line breaks.
	WrapNo = -1
)

// EndOfLine is a line terminator policy.
type EndOfLine uint8

const (
	// LF terminates lines with "\n".
	LF EndOfLine = iota
	// CRLF terminates lines with "\r\n".
	CRLF
	// KeepEOL uses the first line terminator found in the source.
	KeepEOL
)

// ParseEndOfLine converts "lf", "crlf", or "keep" to an [EndOfLine].
func ParseEndOfLine(s string) (EndOfLine, error) {
	switch s {
	case "lf":
		return LF, nil
	case "crlf":
		return CRLF, nil
	case "keep":
		return KeepEOL, nil
	default:
		return 0, fmt.Errorf("unknown end of line %q (must be one of lf, crlf, keep)", s)
	}
}

// String returns the configuration name of the policy.
func (eol EndOfLine) String() string {
	switch eol {
	case LF:
		return "lf"
	case CRLF:
		return "crlf"
	case KeepEOL:
		return "keep"
	default:
		return fmt.Sprintf("EndOfLine(%d)", uint8(eol))
	}
}

func (eol EndOfLine) terminator(source string) string {
	switch eol {
	case CRLF:
		return "\r\n"
	case KeepEOL:
		if source == "" {
			return "\n"
		}
		return source
	default:
		return "\n"
	}
}

// HardBreakStyle is the syntax used for hard line breaks.
type HardBreakStyle uint8

const (
	// BackslashBreak writes a backslash at the end of the line.
	BackslashBreak HardBreakStyle = iota
	// SpacesBreak writes two spaces at the end of the line.
	SpacesBreak
)

// A CodeFormatter reformats the content of fenced code blocks
// written in a particular language.
type CodeFormatter interface {
	FormatCode(lang, code string) (string, error)
}

// CodeFormatterFunc is a function that implements [CodeFormatter].
type CodeFormatterFunc func(lang, code string) (string, error)

// FormatCode calls f(lang, code).
func (f CodeFormatterFunc) FormatCode(lang, code string) (string, error) {
	return f(lang, code)
}

// An ExtensionRenderer writes events of [mdformat.ExtensionKind]
// back as Markdown.
// The returned text is written verbatim,
// as a block if the event's Block field is set or inline otherwise.
type ExtensionRenderer interface {
	RenderEvent(ev mdformat.Event) (string, error)
}

// ExtensionRendererFunc is a function that implements [ExtensionRenderer].
type ExtensionRendererFunc func(ev mdformat.Event) (string, error)

// RenderEvent calls f(ev).
func (f ExtensionRendererFunc) RenderEvent(ev mdformat.Event) (string, error) {
	return f(ev)
}

// A PostProcessor transforms the formatted document text.
type PostProcessor interface {
	PostProcess(text string) (string, error)
}

// PostProcessorFunc is a function that implements [PostProcessor].
type PostProcessorFunc func(text string) (string, error)

// PostProcess calls f(text).
func (f PostProcessorFunc) PostProcess(text string) (string, error) {
	return f(text)
}

// Options is the set of parameters to [Render].
// A nil *Options is equivalent to the result of [DefaultOptions].
type Options struct {
	// Wrap is [WrapKeep], [WrapNo], or a line width of at least 2
	// to reflow paragraphs to.
	Wrap int
	// EndOfLine is the line terminator policy.
	EndOfLine EndOfLine
	// MaxHeadingLevel is the deepest heading level written.
	// Deeper headings are written at this level.
	// Zero means 6.
	MaxHeadingLevel int
	// If ConsecutiveNumbering is true, ordered list items are numbered
	// start, start+1, start+2, and so on.
	// Otherwise the difference between the first two numbers
	// of each source list is kept.
	ConsecutiveNumbering bool
	// If NormalizeSpaces is true, runs of spaces and tabs in text
	// are written as a single space.
	NormalizeSpaces bool
	// If StandardizeThematicBreaks is true, thematic breaks are written
	// as a full line of underscores instead of three.
	StandardizeThematicBreaks bool
	// HardBreak is the hard line break syntax.
	HardBreak HardBreakStyle

	// CodeFormatters maps code block languages to formatters.
	CodeFormatters map[string]CodeFormatter
	// Extensions maps extension names to the renderers
	// of their events.
	Extensions map[string]ExtensionRenderer
	// PostProcessors are applied in order after [Normalize].
	PostProcessors []PostProcessor

	// Parse is the set of parser options used by [Source].
	Parse *mdformat.ParseOptions
	// Logger receives code formatter failures.
	// If nil, failures are not logged.
	Logger *slog.Logger
}

// DefaultOptions returns the default formatting options.
func DefaultOptions() *Options {
	return &Options{
		Wrap:                      WrapKeep,
		EndOfLine:                 LF,
		MaxHeadingLevel:           6,
		NormalizeSpaces:           true,
		StandardizeThematicBreaks: true,
	}
}

func (opts *Options) maxHeadingLevel() int {
	if opts.MaxHeadingLevel < 1 || opts.MaxHeadingLevel > 6 {
		return 6
	}
	return opts.MaxHeadingLevel
}

func (opts *Options) codeFormatter(lang string) CodeFormatter {
	if lang == "" || opts.CodeFormatters == nil {
		return nil
	}
	if f := opts.CodeFormatters[lang]; f != nil {
		return f
	}
	return opts.CodeFormatters[strings.ToLower(lang)]
}

// InvariantError is returned by [Render] when the event stream
// is not properly nested.
// It indicates a bug in the producer of the events.
type InvariantError struct {
	// Index is the position of the offending event in the stream.
	Index int
	Event mdformat.Event
	Msg   string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("format markdown: event %d (%v): %s", e.Index, e.Event, e.Msg)
}

// Render formats the document as canonical Markdown.
// It returns an [*InvariantError] if the document's events are malformed,
// in which case no output is produced.
func Render(doc *mdformat.Document, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	r := newRenderer(doc, opts)
	for i, ev := range doc.Events {
		if err := r.event(i, ev); err != nil {
			return "", err
		}
	}
	if err := r.finish(); err != nil {
		return "", err
	}

	eol := opts.EndOfLine.terminator(doc.LineEnding)
	text := Normalize(r.out.String(), opts, doc.LineEnding)
	for _, p := range opts.PostProcessors {
		var err error
		text, err = p.PostProcess(text)
		if err != nil {
			return "", fmt.Errorf("format markdown: post-process: %w", err)
		}
	}
	if doc.FrontMatter != "" {
		front := strings.ReplaceAll(doc.FrontMatter, "\n", eol)
		if !strings.HasSuffix(front, eol) {
			front += eol
		}
		if text != "" {
			front += eol
		}
		text = front + text
	}
	return text, nil
}

// Format writes the document as canonical Markdown to w.
// The document is rendered completely before anything is written,
// so w receives either the whole output or nothing.
func Format(w io.Writer, doc *mdformat.Document, opts *Options) error {
	text, err := Render(doc, opts)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, text); err != nil {
		return fmt.Errorf("format markdown: %w", err)
	}
	return nil
}

// Source parses Markdown source with opts.Parse and formats it.
func Source(source []byte, opts *Options) ([]byte, error) {
	var parseOpts *mdformat.ParseOptions
	if opts != nil {
		parseOpts = opts.Parse
	}
	doc, err := mdformat.Parse(source, parseOpts)
	if err != nil {
		return nil, err
	}
	text, err := Render(doc, opts)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

// writeTrimmedIndent writes the concatenation of indents
// with trailing whitespace removed.
func writeTrimmedIndent(w io.StringWriter, indents []string) error {
	n := len(indents)
	for n > 0 && strings.TrimRight(indents[n-1], " \t") == "" {
		n--
	}
	for i, indent := range indents[:n] {
		if i == n-1 {
			indent = strings.TrimRight(indent, " \t")
		}
		if _, err := w.WriteString(indent); err != nil {
			return err
		}
	}
	return nil
}

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
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

type pieceKind uint8

const (
	// wordPiece is text that is never split across lines.
	wordPiece pieceKind = iota
	// spacePiece is literal whitespace where a line may be wrapped.
	spacePiece
	softPiece
	hardPiece
)

type piece struct {
	kind pieceKind
	text string
}

// inlineBuilder collects the Markdown of a paragraph, heading, or table cell
// until the block ends and its lines can be laid out.
type inlineBuilder struct {
	pieces []piece
	// last is the last character written, or endChar at the start of a line.
	last rune
	// lastEscaped is true if last was written with a backslash escape.
	lastEscaped bool
}

func newInlineBuilder() *inlineBuilder {
	return &inlineBuilder{last: endChar}
}

func (b *inlineBuilder) empty() bool {
	return len(b.pieces) == 0
}

// word appends text that must stay on one line.
// A newline in s forces a line break whose next line is not escaped.
func (b *inlineBuilder) word(s string) {
	if s == "" {
		return
	}
	if n := len(b.pieces); n > 0 && b.pieces[n-1].kind == wordPiece {
		b.pieces[n-1].text += s
	} else {
		b.pieces = append(b.pieces, piece{kind: wordPiece, text: s})
	}
	var size int
	b.last, size = utf8.DecodeLastRuneInString(s)
	b.lastEscaped = backslashes(s[:len(s)-size])%2 == 1
}

// backslashes returns the number of backslashes at the end of s.
func backslashes(s string) int {
	n := 0
	for n < len(s) && s[len(s)-1-n] == '\\' {
		n++
	}
	return n
}

// text appends escaped text, treating its spaces as wrap points.
func (b *inlineBuilder) text(s string) {
	for s != "" {
		i := strings.IndexByte(s, ' ')
		if i < 0 {
			b.word(s)
			return
		}
		b.word(s[:i])
		j := i
		for j < len(s) && s[j] == ' ' {
			j++
		}
		b.pieces = append(b.pieces, piece{kind: spacePiece, text: s[i:j]})
		b.last = ' '
		b.lastEscaped = false
		s = s[j:]
	}
}

func (b *inlineBuilder) soft() {
	b.pieces = append(b.pieces, piece{kind: softPiece})
	b.last = endChar
	b.lastEscaped = false
}

func (b *inlineBuilder) hard() {
	b.pieces = append(b.pieces, piece{kind: hardPiece})
	b.last = endChar
	b.lastEscaped = false
}

// since returns the text written after a position returned by pos,
// with line breaks and wrap points written as single spaces.
func (b *inlineBuilder) since(mark, offset int) string {
	sb := new(strings.Builder)
	for i, p := range b.pieces[mark:] {
		switch p.kind {
		case wordPiece:
			if i == 0 {
				sb.WriteString(p.text[min(offset, len(p.text)):])
			} else {
				sb.WriteString(p.text)
			}
		default:
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

// pos returns the current end of the written text
// as a piece index and a byte offset into that piece.
func (b *inlineBuilder) pos() (mark, offset int) {
	n := len(b.pieces)
	if n > 0 && b.pieces[n-1].kind == wordPiece {
		return n - 1, len(b.pieces[n-1].text)
	}
	return n, 0
}

// line is a laid out line of inline content.
type line struct {
	text string
	// hard is true if the line ends in a hard line break.
	hard bool
	// verbatim is true if the line continues a multi-line span
	// (raw HTML, math, or a code span) and must not be escaped.
	verbatim bool
}

// softBreakMode is what a soft line break becomes during layout.
type softBreakMode uint8

const (
	softNewline softBreakMode = iota
	softSpace
)

// layout splits the collected pieces into lines.
// If width is positive, lines are filled up to width columns
// and soft line breaks become wrap points.
func (b *inlineBuilder) layout(soft softBreakMode, width int) []line {
	var lines []line
	cur := new(strings.Builder)
	curWidth := 0
	pending := ""
	verbatim := false
	flush := func(hard bool) {
		lines = append(lines, line{text: cur.String(), hard: hard, verbatim: verbatim})
		cur.Reset()
		curWidth = 0
		pending = ""
		verbatim = false
	}
	for _, p := range b.pieces {
		switch p.kind {
		case wordPiece:
			first, rest, multiline := strings.Cut(p.text, "\n")
			w := runewidth.StringWidth(first)
			if width > 0 && cur.Len() > 0 && pending != "" && curWidth+runewidth.StringWidth(pending)+w > width {
				// Whitespace at a wrap point is dropped.
				flush(false)
			}
			if pending != "" {
				cur.WriteString(pending)
				curWidth += runewidth.StringWidth(pending)
			}
			pending = ""
			cur.WriteString(first)
			curWidth += w
			for multiline {
				flush(false)
				verbatim = true
				first, rest, multiline = strings.Cut(rest, "\n")
				cur.WriteString(first)
				curWidth = runewidth.StringWidth(first)
			}
		case spacePiece:
			pending += p.text
		case softPiece:
			switch {
			case width > 0 || soft == softSpace:
				if pending == "" {
					pending = " "
				}
			default:
				cur.WriteString(pending)
				flush(false)
			}
		case hardPiece:
			cur.WriteString(pending)
			flush(true)
		}
	}
	cur.WriteString(pending)
	if cur.Len() > 0 || len(lines) > 0 {
		flush(false)
	}
	return lines
}

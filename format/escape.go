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
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"zombiezen.com/go/mdformat"
)

const (
	// unknownChar stands for output that cannot be predicted,
	// such as the output of an extension renderer.
	unknownChar rune = -1
	// endChar stands for a line or block boundary.
	endChar rune = '\n'
)

// escapeContext is the state of the output around a text run
// that decides which characters are ambiguous.
type escapeContext struct {
	// prev is the last character written before the run.
	prev rune
	// next is the first character written after the run.
	next rune

	features mdformat.Features
	refs     mdformat.ReferenceMatcher

	inTable bool
	// inLabel is true inside the text of a link or image.
	inLabel bool
	// paragraphStart is true if the run begins a paragraph.
	paragraphStart bool
	// itemStart is true if the run begins the first paragraph of a list item.
	itemStart bool
	// finalRun is true if no later run in the same block contains a ']'.
	finalRun bool
	// afterOpener is true if the run directly follows an emphasis
	// or strikethrough opening delimiter.
	afterOpener bool
	// beforeCloser is true if the run directly precedes an emphasis
	// or strikethrough closing delimiter.
	beforeCloser bool
	// backtickAfter is true if a later event in the same block
	// writes a backtick.
	backtickAfter bool
}

// escapeText returns the Markdown for a run of literal text.
// Line-level constructs (headings, list markers, and such)
// are handled separately by [escapeLineStart]
// once the text has been laid out into lines.
func escapeText(s string, ctx *escapeContext) string {
	runes, invalid := decodeRunes(s)
	bracketEscapes := escapedBrackets(runes, ctx)
	lastBacktick := -1
	for i, c := range runes {
		if c == '`' {
			lastBacktick = i
		}
	}

	sb := new(strings.Builder)
	sb.Grow(len(s) + 8)
	last := ctx.prev
	put := func(escape bool, c rune) {
		if escape {
			sb.WriteByte('\\')
		}
		sb.WriteRune(c)
		last = c
	}
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		next := ctx.next
		if i+1 < len(runes) {
			next = runes[i+1]
		}
		if invalid[i] != 0 {
			sb.WriteByte(invalid[i])
			last = c
			continue
		}
		switch c {
		case '\\':
			put(next == unknownChar || next == endChar || next < unicode.MaxASCII && mdformat.IsASCIIPunct(byte(next)), c)
		case '`':
			// A backtick string only opens a code span if a matching one follows.
			put(ctx.backtickAfter || i < lastBacktick, c)
		case '[', ']':
			put(bracketEscapes[i], c)
		case '!':
			nextBracket := i+1 < len(runes) && runes[i+1] == '[' && !bracketEscapes[i+1] ||
				i+1 == len(runes) && ctx.next == '['
			put(nextBracket, c)
		case '&':
			put(mdformat.LeadingCharRef(string(runes[i:min(len(runes), i+40)])) != "", c)
		case '<':
			put(next == unknownChar || next == endChar ||
				next < unicode.MaxASCII && (isASCIIAlnum(byte(next)) || strings.ContainsRune("/!?.#$%&'*+=^_`{|}~-", next)), c)
		case '|':
			put(ctx.inTable, c)
		case '$':
			put(ctx.features&mdformat.MathFeature != 0 && (next == unknownChar || !isSpace(next)), c)
		case '*', '_', '~':
			if c == '~' && ctx.features&mdformat.StrikethroughFeature == 0 {
				put(false, c)
				continue
			}
			j := i + 1
			for j < len(runes) && runes[j] == c {
				j++
			}
			after := ctx.next
			if j < len(runes) {
				after = runes[j]
			}
			if c == '~' && (i == 0 && last == '~' || j == len(runes) && ctx.next == '~') {
				// A backslash escape would not stop the run
				// from merging with an adjacent strikethrough delimiter.
				for ; i < j; i++ {
					sb.WriteString("&#126;")
				}
				last = ';'
				i--
				continue
			}
			escape := delimiterRunActive(c, last, after)
			for ; i < j; i++ {
				put(escape, c)
			}
			i--
		case '\n':
			sb.WriteString("&#10;")
			last = ';'
		case '\r':
			sb.WriteString("&#13;")
			last = ';'
		case ' ', '\t':
			if i == 0 && ctx.afterOpener || i == len(runes)-1 && ctx.beforeCloser {
				sb.WriteString(spaceEntity(c))
				last = ';'
				continue
			}
			put(false, c)
		default:
			put(false, c)
		}
	}
	return sb.String()
}

// decodeRunes splits s into runes.
// invalid[i] holds the original byte if runes[i] stands for
// a byte that is not valid UTF-8, or zero otherwise.
func decodeRunes(s string) (runes []rune, invalid []byte) {
	runes = make([]rune, 0, len(s))
	invalid = make([]byte, 0, len(s))
	for i := 0; i < len(s); {
		c, size := utf8.DecodeRuneInString(s[i:])
		runes = append(runes, c)
		if c == utf8.RuneError && size == 1 {
			invalid = append(invalid, s[i])
		} else {
			invalid = append(invalid, 0)
		}
		i += size
	}
	return runes, invalid
}

// escapedBrackets decides which square brackets in a run need escaping.
// Brackets are paired within the run.
// A pair is escaped if it could become a link, image, footnote reference,
// task list marker, or link reference definition when written literally.
func escapedBrackets(runes []rune, ctx *escapeContext) []bool {
	var escapes []bool
	mark := func(i int) {
		if escapes == nil {
			escapes = make([]bool, len(runes))
		}
		escapes[i] = true
	}
	var stack []int
	for i, c := range runes {
		switch c {
		case '[':
			stack = append(stack, i)
		case ']':
			if len(stack) == 0 {
				if ctx.inLabel {
					mark(i)
				}
				continue
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if bracketPairUnsafe(runes, open, i, ctx) {
				mark(open)
				mark(i)
			}
		}
	}
	if ctx.inLabel || !ctx.finalRun {
		for _, open := range stack {
			mark(open)
		}
	}
	if escapes == nil {
		return make([]bool, len(runes))
	}
	return escapes
}

func bracketPairUnsafe(runes []rune, open, close int, ctx *escapeContext) bool {
	next := ctx.next
	if close+1 < len(runes) {
		next = runes[close+1]
	}
	if next == unknownChar || next == '(' || next == '[' {
		return true
	}
	if next == ':' && open == 0 && ctx.paragraphStart {
		// Link reference definition.
		return true
	}
	content := string(runes[open+1 : close])
	if ctx.features&mdformat.FootnoteFeature != 0 && strings.HasPrefix(content, "^") {
		return true
	}
	if open == 0 && ctx.itemStart && ctx.features&mdformat.TaskListFeature != 0 &&
		(content == " " || content == "x" || content == "X") {
		return true
	}
	return ctx.refs != nil && content != "" && ctx.refs.MatchReference(mdformat.NormalizeLabel(content))
}

// delimiterRunActive reports whether a run of c
// between the characters prev and next could open or close
// emphasis (or strikethrough).
// See https://spec.commonmark.org/0.30/#delimiter-run.
func delimiterRunActive(c, prev, next rune) bool {
	if next == unknownChar || prev == c || next == c {
		return true
	}
	leftFlanking := !isSpace(next) && (!isPunct(next) || isSpace(prev) || isPunct(prev))
	rightFlanking := !isSpace(prev) && (!isPunct(prev) || isSpace(next) || isPunct(next))
	if c == '_' {
		canOpen := leftFlanking && (!rightFlanking || isPunct(prev))
		canClose := rightFlanking && (!leftFlanking || isPunct(next))
		return canOpen || canClose
	}
	return leftFlanking || rightFlanking
}

func isSpace(c rune) bool {
	return c == endChar || unicode.IsSpace(c)
}

func isPunct(c rune) bool {
	if c >= 0 && c < unicode.MaxASCII {
		return mdformat.IsASCIIPunct(byte(c))
	}
	return unicode.IsPunct(c) || unicode.IsSymbol(c)
}

func isASCIIAlnum(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9'
}

func spaceEntity(c rune) string {
	if c == '\t' {
		return "&#9;"
	}
	return "&#32;"
}

var (
	thematicBreakLineRE = regexp.MustCompile(`^(?:(?:-[ \t]*){3,}|(?:\*[ \t]*){3,}|(?:_[ \t]*){3,})$`)
	atxLineRE           = regexp.MustCompile(`^#{1,6}(?:[ \t]|$)`)
	setextLineRE        = regexp.MustCompile(`^(?:=+|-+)[ \t]*$`)
	bulletLineRE        = regexp.MustCompile(`^[-+*](?:[ \t]|$)`)
	orderedLineRE       = regexp.MustCompile(`^([0-9]{1,9})[.)](?:[ \t]|$)`)
	tableDelimiterRE    = regexp.MustCompile(`^\|?[ \t]*:?-+:?[ \t]*(?:\|[ \t]*:?-+:?[ \t]*)*\|?[ \t]*$`)
	htmlBlockStartRE    = regexp.MustCompile(`(?i)^(?:<(?:script|pre|style|textarea)(?:[ \t>]|$)|<!--|<\?|<![a-z]|<!\[CDATA\[|</?(?:address|article|aside|base|basefont|blockquote|body|caption|center|col|colgroup|dd|details|dialog|dir|div|dl|dt|fieldset|figcaption|figure|footer|form|frame|frameset|h[1-6]|head|header|hr|html|iframe|legend|li|link|main|menu|menuitem|nav|noframes|ol|optgroup|option|p|param|search|section|summary|table|tbody|td|tfoot|th|thead|title|tr|track|ul)(?:[ \t>]|/>|$))`)
	headingClosingRE    = regexp.MustCompile(`(?:^|[ \t])(#+)$`)
)

// escapeLineStart escapes the beginning of a paragraph line
// that would otherwise start a block construct.
// first is true for the first line of the paragraph:
// some constructs can only interrupt a paragraph on later lines
// and others only start one.
func escapeLineStart(line string, first bool, features mdformat.Features) string {
	if line == "" {
		return line
	}
	switch c := line[0]; {
	case c == ' ' || c == '\t':
		return spaceEntity(rune(c)) + line[1:]
	case thematicBreakLineRE.MatchString(line),
		atxLineRE.MatchString(line),
		strings.HasPrefix(line, "~~~"),
		strings.HasPrefix(line, "```"),
		c == '>',
		!first && setextLineRE.MatchString(line),
		bulletLineRE.MatchString(line) && (first || len(line) > 1):
		return `\` + line
	}
	if m := orderedLineRE.FindStringSubmatchIndex(line); m != nil {
		n, _ := strconv.Atoi(line[m[2]:m[3]])
		if first || n == 1 {
			return line[:m[3]] + `\` + line[m[3]:]
		}
	}
	if !first && features&mdformat.TableFeature != 0 &&
		strings.ContainsAny(line, "|:") && tableDelimiterRE.MatchString(line) {
		i := strings.IndexByte(line, '-')
		return line[:i] + `\` + line[i:]
	}
	if !first && htmlBlockStartRE.MatchString(line) {
		return "    " + line
	}
	return line
}

// escapeLineEnd escapes trailing whitespace,
// which the parser would otherwise strip.
// hardBreak is true if a hard line break follows the line.
func escapeLineEnd(line string, hardBreak bool) string {
	if hardBreak || line == "" {
		return line
	}
	if c := line[len(line)-1]; c == ' ' || c == '\t' {
		return line[:len(line)-1] + spaceEntity(rune(c))
	}
	return line
}

// escapeHeadingEnd escapes a trailing run of '#' characters
// that would otherwise be read as a closing sequence.
func escapeHeadingEnd(content string) string {
	m := headingClosingRE.FindStringSubmatchIndex(content)
	if m == nil {
		return content
	}
	return content[:m[2]] + `\` + content[m[2]:]
}

// escapeEdges escapes the edges of a table cell or heading,
// whose surrounding whitespace the parser strips.
func escapeEdges(s string) string {
	if s == "" {
		return s
	}
	if c := s[0]; c == ' ' || c == '\t' {
		s = spaceEntity(rune(c)) + s[1:]
	}
	return escapeLineEnd(s, false)
}

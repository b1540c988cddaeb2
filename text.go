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
	"bytes"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"golang.org/x/net/html"
)

var charRefRegexp = regexp.MustCompile(`^&(?:#[xX][0-9a-fA-F]{1,6}|#[0-9]{1,7}|[a-zA-Z][a-zA-Z0-9]{0,31});`)

// LeadingCharRef returns the [entity or numeric character reference]
// at the beginning of s, or the empty string if s does not start with one.
//
// [entity or numeric character reference]: https://spec.commonmark.org/0.30/#entity-and-numeric-character-references
func LeadingCharRef(s string) string {
	ref := charRefRegexp.FindString(s)
	if ref == "" || ref[1] == '#' {
		return ref
	}
	// Only names in the HTML5 entity table count.
	// UnescapeString also accepts some names without a trailing semicolon,
	// so a partial match leaves more than the two code points
	// any single entity expands to.
	if u := html.UnescapeString(ref); u == ref || utf8.RuneCountInString(u) > 2 {
		return ""
	}
	return ref
}

// decodeText resolves backslash escapes and character references
// in inline source text.
func decodeText(raw []byte) string {
	if bytes.IndexByte(raw, '\\') < 0 && bytes.IndexByte(raw, '&') < 0 {
		return string(raw)
	}
	sb := new(strings.Builder)
	sb.Grow(len(raw))
	for i := 0; i < len(raw); {
		switch c := raw[i]; {
		case c == '\\' && i+1 < len(raw) && IsASCIIPunct(raw[i+1]):
			sb.WriteByte(raw[i+1])
			i += 2
		case c == '&':
			if ref := LeadingCharRef(string(raw[i:min(len(raw), i+40)])); ref != "" {
				sb.WriteString(html.UnescapeString(ref))
				i += len(ref)
			} else {
				sb.WriteByte('&')
				i++
			}
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String()
}

// IsASCIIPunct reports whether c is an [ASCII punctuation character].
//
// [ASCII punctuation character]: https://spec.commonmark.org/0.30/#ascii-punctuation-character
func IsASCIIPunct(c byte) bool {
	return '!' <= c && c <= '/' ||
		':' <= c && c <= '@' ||
		'[' <= c && c <= '`' ||
		'{' <= c && c <= '~'
}

// linkForm inspects the source after the text of a link or image
// to recover how it was written.
// When the form cannot be determined, linkForm reports an inline link,
// which is always a faithful way to write the resolved link.
func linkForm(source []byte, n ast.Node, refs ReferenceMatcher) (typ LinkType, label string) {
	cb := closeBracket(source, n)
	if cb < 0 || cb+1 > len(source) {
		return InlineLink, ""
	}
	next := cb + 1
	if sib, ok := n.NextSibling().(*ast.Text); ok && sib.Segment.Start == next {
		// What follows the bracket is plain text, not part of the link.
		return ShortcutReferenceLink, ""
	}
	if next >= len(source) {
		return ShortcutReferenceLink, ""
	}
	switch source[next] {
	case '(':
		if linkTailEnd(source, cb) < 0 {
			return ShortcutReferenceLink, ""
		}
		return InlineLink, ""
	case '[':
		end := closingLabelBracket(source, next)
		if end < 0 {
			return ShortcutReferenceLink, ""
		}
		label := string(source[next+1 : end])
		if strings.TrimSpace(label) == "" {
			return CollapsedReferenceLink, ""
		}
		if refs != nil && !refs.MatchReference(NormalizeLabel(label)) {
			return ShortcutReferenceLink, ""
		}
		return FullReferenceLink, label
	default:
		return ShortcutReferenceLink, ""
	}
}

// closeBracket returns the position of the ']' that ends the text
// of the link or image n, or -1 if it cannot be located.
func closeBracket(source []byte, n ast.Node) int {
	last := n.LastChild()
	if last == nil {
		return -1
	}
	end := nodeEnd(source, last)
	if end < 0 {
		return -1
	}
	end = skipBytes(source, end, " \t", -1)
	if end >= len(source) || source[end] != ']' {
		return -1
	}
	return end
}

// nodeEnd returns the source position just past the inline node n,
// or -1 if it cannot be determined.
func nodeEnd(source []byte, n ast.Node) int {
	switch n := n.(type) {
	case *ast.Text:
		if n.SoftLineBreak() || n.HardLineBreak() {
			return -1
		}
		return n.Segment.Stop
	case *ast.RawHTML:
		if n.Segments == nil || n.Segments.Len() == 0 {
			return -1
		}
		return n.Segments.At(n.Segments.Len() - 1).Stop
	case *ast.CodeSpan:
		end := lastChildEnd(source, n)
		if end < 0 {
			return -1
		}
		return skipBytes(source, skipBytes(source, end, " ", -1), "`", -1)
	case *ast.Emphasis:
		end := lastChildEnd(source, n)
		if end < 0 {
			return -1
		}
		return skipBytes(source, end, "*_", n.Level)
	case *east.Strikethrough:
		end := lastChildEnd(source, n)
		if end < 0 {
			return -1
		}
		return skipBytes(source, end, "~", 2)
	case *ast.Link, *ast.Image:
		cb := closeBracket(source, n)
		if cb < 0 {
			return -1
		}
		return linkTailEnd(source, cb)
	case *MathNode:
		return n.stop
	default:
		return -1
	}
}

func lastChildEnd(source []byte, n ast.Node) int {
	last := n.LastChild()
	if last == nil {
		return -1
	}
	return nodeEnd(source, last)
}

// skipBytes advances pos past at most limit bytes found in set.
// A negative limit means no limit.
func skipBytes(source []byte, pos int, set string, limit int) int {
	for pos < len(source) && limit != 0 && strings.IndexByte(set, source[pos]) >= 0 {
		pos++
		limit--
	}
	return pos
}

// linkTailEnd returns the position just past the destination, title,
// or label that follows the closing bracket at cb,
// or -1 if there is no well-formed inline tail.
func linkTailEnd(source []byte, cb int) int {
	i := cb + 1
	if i >= len(source) {
		return i
	}
	switch source[i] {
	case '[':
		end := closingLabelBracket(source, i)
		if end < 0 {
			return i
		}
		return end + 1
	case '(':
	default:
		return i
	}

	i = skipBytes(source, i+1, " \t\n", -1)
	if i < len(source) && source[i] == '<' {
		for i++; i < len(source) && source[i] != '>'; i++ {
			if source[i] == '\\' {
				i++
			} else if source[i] == '\n' {
				return -1
			}
		}
		if i >= len(source) {
			return -1
		}
		i++
	} else {
		depth := 0
	dest:
		for ; i < len(source); i++ {
			switch c := source[i]; {
			case c == '\\':
				i++
			case c == '(':
				depth++
			case c == ')':
				if depth == 0 {
					break dest
				}
				depth--
			case c <= ' ':
				break dest
			}
		}
	}
	i = skipBytes(source, i, " \t\n", -1)
	if i < len(source) && (source[i] == '"' || source[i] == '\'' || source[i] == '(') {
		closer := source[i]
		if closer == '(' {
			closer = ')'
		}
		for i++; i < len(source) && source[i] != closer; i++ {
			if source[i] == '\\' {
				i++
			}
		}
		if i >= len(source) {
			return -1
		}
		i = skipBytes(source, i+1, " \t\n", -1)
	}
	if i >= len(source) || source[i] != ')' {
		return -1
	}
	return i + 1
}

// closingLabelBracket returns the position of the unescaped ']'
// that closes the label opened at open, or -1.
func closingLabelBracket(source []byte, open int) int {
	for i := open + 1; i < len(source); i++ {
		switch source[i] {
		case '\\':
			i++
		case '[':
			return -1
		case ']':
			return i
		}
	}
	return -1
}

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

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindMath is the [ast.NodeKind] of [*MathNode].
var KindMath = ast.NewNodeKind("Math")

// MathNode is a math span: $...$ for inline math
// or $$...$$ for display math.
type MathNode struct {
	ast.BaseInline

	// Display is true for $$ delimiters.
	Display bool
	// Value is the TeX source between the delimiters.
	Value []byte

	// stop is the source offset just past the closing delimiter.
	stop int
}

// Kind implements [ast.Node].
func (n *MathNode) Kind() ast.NodeKind {
	return KindMath
}

// Dump implements [ast.Node].
func (n *MathNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Display": boolString(n.Display),
		"Value":   string(n.Value),
	}, nil)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// mathParser parses dollar-delimited math.
// An inline span opens with a '$' followed by a non-space
// and closes with a '$' preceded by a non-space and not followed by a digit.
// Display math may span lines.
type mathParser struct{}

func (mathParser) Trigger() []byte {
	return []byte{'$'}
}

func (mathParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, seg := block.PeekLine()
	if len(line) >= 2 && line[1] == '$' {
		return parseDisplayMath(block)
	}
	if len(line) < 2 || isMathSpace(line[1]) {
		return nil
	}
	for i := 1; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '\n', '\r':
			return nil
		case '$':
			if isMathSpace(line[i-1]) || i+1 < len(line) && '0' <= line[i+1] && line[i+1] <= '9' {
				continue
			}
			node := &MathNode{
				Value: bytes.Clone(line[1:i]),
				stop:  seg.Start + i + 1,
			}
			block.Advance(i + 1)
			return node
		}
	}
	return nil
}

func parseDisplayMath(block text.Reader) ast.Node {
	savedLine, savedPos := block.Position()
	line, seg := block.PeekLine()
	rest, offset := line[2:], 2
	var value []byte
	for {
		if i := bytes.Index(rest, []byte("$$")); i >= 0 {
			value = append(value, rest[:i]...)
			block.Advance(offset + i + 2)
			return &MathNode{
				Display: true,
				Value:   value,
				stop:    seg.Start + offset + i + 2,
			}
		}
		value = append(value, rest...)
		block.AdvanceLine()
		line, seg = block.PeekLine()
		if line == nil {
			block.SetPosition(savedLine, savedPos)
			return nil
		}
		rest, offset = line, 0
	}
}

func isMathSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// mathHTMLRenderer renders [*MathNode] as a span
// that client-side TeX renderers recognize.
type mathHTMLRenderer struct{}

func (r mathHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMath, r.renderMath)
}

func (mathHTMLRenderer) renderMath(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	m := n.(*MathNode)
	if m.Display {
		w.WriteString(`<span class="math display">`)
	} else {
		w.WriteString(`<span class="math inline">`)
	}
	w.Write(util.EscapeHTML(m.Value))
	w.WriteString("</span>")
	return ast.WalkSkipChildren, nil
}

type mathExtender struct{}

func (mathExtender) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(mathParser{}, 150),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(mathHTMLRenderer{}, 500),
	))
}

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
	"fmt"
	"io"

	"github.com/google/go-cmp/cmp"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"zombiezen.com/go/mdformat/internal/normhtml"
)

// RenderHTML writes the HTML rendering of a Markdown document to w.
// Raw HTML in the source is passed through.
// If front matter is enabled in opts, it is not rendered.
func RenderHTML(w io.Writer, source []byte, opts *ParseOptions) error {
	source = normalizeSource(source)
	if opts != nil && opts.FrontMatter {
		_, _, source = splitFrontMatter(source)
	}
	md := opts.markdown(gmhtml.WithUnsafe(), gmhtml.WithXHTML())
	if err := md.Convert(source, w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// CompareOptions is the set of parameters to [CompareHTML].
type CompareOptions struct {
	ParseOptions
	// IgnoreCode lists the code block languages whose content
	// is not compared.
	IgnoreCode []string
}

// CompareHTML reports whether two Markdown documents have the same meaning
// by comparing their HTML renderings,
// ignoring differences that do not affect how the HTML displays.
// If the documents differ, CompareHTML returns a human-readable diff
// of the normalized HTML (-original +formatted).
// An empty diff means the documents are equivalent.
func CompareHTML(original, formatted []byte, opts *CompareOptions) (diff string, err error) {
	var parseOpts *ParseOptions
	normOpts := new(normhtml.Options)
	if opts != nil {
		parseOpts = &opts.ParseOptions
		normOpts.IgnoreCode = opts.IgnoreCode
	}
	if parseOpts != nil && parseOpts.FrontMatter {
		f1, _, _ := splitFrontMatter(normalizeSource(original))
		f2, _, _ := splitFrontMatter(normalizeSource(formatted))
		if d := cmp.Diff(string(f1), string(f2)); d != "" {
			return "front matter (-original +formatted):\n" + d, nil
		}
	}

	buf1 := new(bytes.Buffer)
	if err := RenderHTML(buf1, original, parseOpts); err != nil {
		return "", fmt.Errorf("compare: original: %w", err)
	}
	buf2 := new(bytes.Buffer)
	if err := RenderHTML(buf2, formatted, parseOpts); err != nil {
		return "", fmt.Errorf("compare: formatted: %w", err)
	}
	html1 := string(normhtml.NormalizeHTML(buf1.Bytes(), normOpts))
	html2 := string(normhtml.NormalizeHTML(buf2.Bytes(), normOpts))
	return cmp.Diff(html1, html2), nil
}

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

// Package plugin provides a registry of code formatters
// and parser extensions for the Markdown formatter.
package plugin

import (
	"fmt"
	"slices"

	"zombiezen.com/go/mdformat"
	"zombiezen.com/go/mdformat/format"
)

// A ParserExtension bundles a syntax extension
// with the pieces the formatter needs to write its syntax back out.
type ParserExtension struct {
	// Syntax is the parser extension.
	// If it implements [mdformat.EventConverter],
	// the events it produces are rendered by Renderers.
	Syntax mdformat.Extension
	// Renderers maps [mdformat.Event] names of [mdformat.ExtensionKind]
	// to their renderers.
	Renderers map[string]format.ExtensionRenderer
	// PostProcessors are run on the formatted text
	// in order.
	PostProcessors []format.PostProcessor
}

// Name returns the name of the extension's syntax.
func (ext *ParserExtension) Name() string {
	return ext.Syntax.Name()
}

// A Registry is a set of named code formatters and parser extensions.
// Registries are not safe to modify concurrently,
// but [*Registry.Apply] may be called concurrently
// once registration is finished.
type Registry struct {
	codeFormatters map[string]format.CodeFormatter
	extensions     map[string]*ParserExtension
	// order is the extension names in registration order.
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		codeFormatters: make(map[string]format.CodeFormatter),
		extensions:     make(map[string]*ParserExtension),
	}
}

// Default returns a new registry containing the built-in
// code formatters and parser extensions.
func Default() *Registry {
	r := NewRegistry()
	for _, ext := range mdformat.DefaultExtensions() {
		if err := r.RegisterExtension(&ParserExtension{Syntax: ext}); err != nil {
			panic(err)
		}
	}
	builtins := []struct {
		lang string
		f    format.CodeFormatter
	}{
		{"go", GoFormatter},
		{"json", JSONFormatter},
		{"yaml", YAMLFormatter},
		{"yml", YAMLFormatter},
		{"toml", TOMLFormatter},
	}
	for _, b := range builtins {
		if err := r.RegisterCodeFormatter(b.lang, b.f); err != nil {
			panic(err)
		}
	}
	return r
}

// RegisterCodeFormatter registers f as the formatter
// for code blocks in the given language.
// It returns an error if a formatter is already registered for lang.
func (r *Registry) RegisterCodeFormatter(lang string, f format.CodeFormatter) error {
	if lang == "" {
		return fmt.Errorf("register code formatter: empty language")
	}
	if f == nil {
		return fmt.Errorf("register code formatter %q: nil formatter", lang)
	}
	if _, dup := r.codeFormatters[lang]; dup {
		return fmt.Errorf("register code formatter %q: already registered", lang)
	}
	r.codeFormatters[lang] = f
	return nil
}

// RegisterExtension registers a parser extension under its name.
// It returns an error if an extension with the same name
// is already registered.
func (r *Registry) RegisterExtension(ext *ParserExtension) error {
	if ext == nil || ext.Syntax == nil {
		return fmt.Errorf("register extension: missing syntax")
	}
	name := ext.Name()
	if name == "" {
		return fmt.Errorf("register extension: empty name")
	}
	if _, dup := r.extensions[name]; dup {
		return fmt.Errorf("register extension %q: already registered", name)
	}
	r.extensions[name] = ext
	r.order = append(r.order, name)
	return nil
}

// CodeFormatters returns the sorted list of languages
// that have a registered formatter.
func (r *Registry) CodeFormatters() []string {
	langs := make([]string, 0, len(r.codeFormatters))
	for lang := range r.codeFormatters {
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	return langs
}

// Extensions returns the names of the registered extensions
// in registration order.
func (r *Registry) Extensions() []string {
	return slices.Clone(r.order)
}

// Apply enables the named extensions and code formatters in opts.
// A nil extensions or codeFormatters slice enables everything registered;
// an empty, non-nil slice enables nothing.
// Extensions are applied in the order given,
// so their post-processors run in that order.
// Apply returns an error if a name is not registered.
func (r *Registry) Apply(opts *format.Options, extensions, codeFormatters []string) error {
	if extensions == nil {
		extensions = r.order
	}
	if codeFormatters == nil {
		codeFormatters = r.CodeFormatters()
	}

	parseOpts := &mdformat.ParseOptions{Extensions: make([]mdformat.Extension, 0, len(extensions))}
	if opts.Parse != nil {
		parseOpts.FrontMatter = opts.Parse.FrontMatter
	}
	var postProcessors []format.PostProcessor
	renderers := make(map[string]format.ExtensionRenderer)
	for _, name := range extensions {
		ext := r.extensions[name]
		if ext == nil {
			return fmt.Errorf("unknown extension %q (available: %q)", name, r.order)
		}
		parseOpts.Extensions = append(parseOpts.Extensions, ext.Syntax)
		for eventName, rend := range ext.Renderers {
			renderers[eventName] = rend
		}
		postProcessors = append(postProcessors, ext.PostProcessors...)
	}

	formatters := make(map[string]format.CodeFormatter, len(codeFormatters))
	for _, lang := range codeFormatters {
		f := r.codeFormatters[lang]
		if f == nil {
			return fmt.Errorf("unknown code formatter %q (available: %q)", lang, r.CodeFormatters())
		}
		formatters[lang] = f
	}

	opts.Parse = parseOpts
	opts.Extensions = renderers
	opts.PostProcessors = append(opts.PostProcessors, postProcessors...)
	opts.CodeFormatters = formatters
	return nil
}

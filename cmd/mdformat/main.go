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

// mdformat rewrites Markdown files in a canonical style.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"slices"
	"strconv"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
	"zombiezen.com/go/mdformat"
	"zombiezen.com/go/mdformat/format"
	"zombiezen.com/go/mdformat/internal/config"
	"zombiezen.com/go/mdformat/internal/logging"
	"zombiezen.com/go/mdformat/plugin"
)

// errFailed is returned when at least one file failed.
// The failures have already been reported.
var errFailed = errors.New("mdformat: failed")

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	check      bool
	wrap       string
	endOfLine  string
	number     bool
	validate   bool
	noValidate bool
	configPath string
	jobs       int
	logLevel   string

	log      *slog.Logger
	registry *plugin.Registry
	color    bool

	mu       sync.Mutex
	failed   int
	reformat int
}

func newApp() *app {
	return &app{
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		registry: plugin.Default(),
	}
}

func (a *app) command() *cobra.Command {
	c := &cobra.Command{
		Use:   "mdformat [flags] PATH [...]",
		Short: "Format Markdown files",
		Long: "mdformat rewrites Markdown files in place in a canonical style.\n" +
			"Directories are searched for *.md and *.markdown files. " +
			"A path of \"-\" formats standard input to standard output.",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, args)
		},
	}
	flags := c.Flags()
	flags.BoolVar(&a.check, "check", false, "report files that would be reformatted instead of writing them")
	flags.StringVar(&a.wrap, "wrap", "keep", "paragraph wrap mode: keep, no, or a line width")
	flags.StringVar(&a.endOfLine, "end-of-line", "lf", "line terminator: lf, crlf, or keep")
	flags.BoolVar(&a.number, "number", false, "number ordered list items consecutively")
	flags.BoolVar(&a.number, "consecutive-numbering", false, "alias for --number")
	flags.BoolVar(&a.validate, "validate", true, "check that formatting does not change the rendered HTML")
	flags.BoolVar(&a.noValidate, "no-validate", false, "skip the HTML check")
	flags.StringVar(&a.configPath, "config", "", "configuration `file` (default: "+config.FileName+" in the working directory)")
	flags.IntVarP(&a.jobs, "jobs", "j", runtime.GOMAXPROCS(0), "number of files to format in parallel")
	flags.StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn, or error")
	c.MarkFlagsMutuallyExclusive("validate", "no-validate")
	return c
}

func main() {
	a := newApp()
	if err := a.command().ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, "mdformat:", err)
		}
		os.Exit(1)
	}
}

func (a *app) run(cmd *cobra.Command, args []string) error {
	level, err := logging.ParseLevel(a.logLevel)
	if err != nil {
		return err
	}
	a.log = logging.New(a.stderr, level)
	a.color = isTerminal(a.stderr)

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if err := a.applyFlags(cmd, cfg); err != nil {
		return err
	}
	opts, err := cfg.Options(a.registry)
	if err != nil {
		return err
	}
	opts.Logger = a.log

	paths, err := collectPaths(args, cfg)
	if err != nil {
		return err
	}
	a.log.Debug("Formatting", "files", len(paths), "config", cfg.Path)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(a.jobs, 1))
	for _, path := range paths {
		path := path
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			var err error
			if path == stdinPath {
				err = a.formatStdin(opts, cfg.Validate)
			} else {
				err = a.formatFile(path, opts, cfg.Validate)
			}
			if err != nil && !errors.Is(err, errWouldReformat) {
				a.log.Error("Format failed", "path", path, "error", err)
				a.mu.Lock()
				a.failed++
				a.mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if a.failed > 0 || a.reformat > 0 {
		return errFailed
	}
	return nil
}

func (a *app) loadConfig() (*config.Config, error) {
	if a.configPath != "" {
		return config.LoadFile(a.configPath)
	}
	return config.Load(".")
}

// applyFlags overrides configuration values with flags given on the command line.
func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("wrap") {
		w, err := parseWrap(a.wrap)
		if err != nil {
			return err
		}
		cfg.Wrap = w
	}
	if flags.Changed("end-of-line") {
		eol, err := format.ParseEndOfLine(a.endOfLine)
		if err != nil {
			return err
		}
		cfg.EndOfLine = eol
	}
	if flags.Changed("number") || flags.Changed("consecutive-numbering") {
		cfg.Number = a.number
	}
	switch {
	case flags.Changed("no-validate"):
		cfg.Validate = !a.noValidate
	case flags.Changed("validate"):
		cfg.Validate = a.validate
	}
	return nil
}

func parseWrap(s string) (int, error) {
	switch s {
	case "keep":
		return format.WrapKeep, nil
	case "no":
		return format.WrapNo, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 2 {
		return 0, fmt.Errorf("invalid --wrap=%q (must be keep, no, or an integer of at least 2)", s)
	}
	return n, nil
}

var errWouldReformat = errors.New("would reformat")

func (a *app) formatFile(path string, opts *format.Options, validate bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := a.formatSource(src, opts, validate)
	if err != nil {
		return err
	}
	if bytes.Equal(src, out) {
		a.log.Debug("Unchanged", "path", path)
		return nil
	}
	if a.check {
		a.reportReformat(path)
		return errWouldReformat
	}
	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return err
	}
	a.log.Info("Formatted", "path", path)
	return nil
}

func (a *app) formatStdin(opts *format.Options, validate bool) error {
	src, err := io.ReadAll(a.stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	out, err := a.formatSource(src, opts, validate)
	if err != nil {
		return err
	}
	if a.check {
		if !bytes.Equal(src, out) {
			a.reportReformat(stdinPath)
			return errWouldReformat
		}
		return nil
	}
	if _, err := a.stdout.Write(out); err != nil {
		return fmt.Errorf("write stdout: %w", err)
	}
	return nil
}

func (a *app) formatSource(src []byte, opts *format.Options, validate bool) ([]byte, error) {
	out, err := format.Source(src, opts)
	if err != nil {
		return nil, err
	}
	if !validate {
		return out, nil
	}
	compareOpts := &mdformat.CompareOptions{
		ParseOptions: *opts.Parse,
	}
	for lang := range opts.CodeFormatters {
		compareOpts.IgnoreCode = append(compareOpts.IgnoreCode, lang)
	}
	slices.Sort(compareOpts.IgnoreCode)
	diff, err := mdformat.CompareHTML(src, out, compareOpts)
	if err != nil {
		return nil, err
	}
	if diff != "" {
		a.log.Debug("Rendered HTML differs", "diff", diff)
		return nil, errors.New("formatted document renders differently; the file was left unchanged")
	}
	return out, nil
}

func (a *app) reportReformat(path string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reformat++
	msg := "would reformat"
	if a.color {
		msg = "\x1b[1;33m" + msg + "\x1b[0m"
	}
	fmt.Fprintf(a.stderr, "%s %s\n", msg, path)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

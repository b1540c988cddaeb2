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

package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"zombiezen.com/go/mdformat/internal/config"
)

// stdinPath is the command-line argument that stands for standard input.
const stdinPath = "-"

// collectPaths expands the command-line arguments into the list of files to format.
// Directories are searched for Markdown files.
// Files matching the configuration's exclude patterns are dropped.
func collectPaths(args []string, cfg *config.Config) ([]string, error) {
	for _, pattern := range cfg.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	baseDir := "."
	if cfg.Path != "" {
		baseDir = filepath.Dir(cfg.Path)
	}
	baseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}

	var paths []string
	seen := make(map[string]struct{})
	add := func(path string) error {
		if _, dup := seen[path]; dup {
			return nil
		}
		seen[path] = struct{}{}
		excluded, err := isExcluded(baseDir, path, cfg.Exclude)
		if err != nil {
			return err
		}
		if !excluded {
			paths = append(paths, path)
		}
		return nil
	}
	for _, arg := range args {
		if arg == stdinPath {
			if _, dup := seen[arg]; !dup {
				seen[arg] = struct{}{}
				paths = append(paths, arg)
			}
			continue
		}
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if err := add(filepath.Clean(arg)); err != nil {
				return nil, err
			}
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || !isMarkdownFile(path) {
				return nil
			}
			return add(path)
		})
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}

func isMarkdownFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	default:
		return false
	}
}

// isExcluded reports whether path matches one of the patterns,
// which are relative to baseDir.
func isExcluded(baseDir, path string, patterns []string) (bool, error) {
	if len(patterns) == 0 {
		return false, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(baseDir, abs)
	if err != nil {
		return false, nil
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range patterns {
		// Patterns were validated in collectPaths.
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true, nil
		}
	}
	return false, nil
}

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

import "github.com/yuin/goldmark/ast"

// A Cursor describes an [ast.Node] encountered during [Walk].
type Cursor struct {
	node   ast.Node
	parent ast.Node
	depth  int
}

// Node returns the current node.
func (c *Cursor) Node() ast.Node {
	return c.node
}

// Parent returns the parent of the current node
// (as returned by [*Cursor.Node]).
func (c *Cursor) Parent() ast.Node {
	return c.parent
}

// Depth returns the number of ancestors between the current node
// and the root passed to [Walk].
func (c *Cursor) Depth() int {
	return c.depth
}

// WalkOptions is the set of parameters to [Walk].
type WalkOptions struct {
	// If Pre is not nil, it is called for each node before the node's children are traversed (pre-order).
	// If Pre returns false, no children are traversed, and Post is not called for that node.
	Pre func(c *Cursor) bool
	// If Post is not nil, it is called for each node after the node's children are traversed (post-order).
	// If Post returns false, traversal is terminated and Walk returns immediately.
	Post func(c *Cursor) bool
}

// Walk traverses an [ast.Node] tree starting with root,
// and calling [WalkOptions.Pre] and [WalkOptions.Post].
// Unlike [ast.Walk], it does not recurse,
// so deeply nested documents do not grow the goroutine stack.
func Walk(root ast.Node, opts *WalkOptions) {
	type walkFrame struct {
		node   ast.Node
		parent ast.Node
		depth  int
		post   bool
	}

	stack := []walkFrame{{node: root}}
	cursor := new(Cursor)
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cursor.node = curr.node
		cursor.parent = curr.parent
		cursor.depth = curr.depth
		if curr.post {
			if opts.Post != nil && !opts.Post(cursor) {
				break
			}
			continue
		}

		if opts.Pre != nil && !opts.Pre(cursor) {
			continue
		}
		curr.post = true
		stack = append(stack, curr)
		for child := curr.node.LastChild(); child != nil; child = child.PreviousSibling() {
			stack = append(stack, walkFrame{
				parent: curr.node,
				node:   child,
				depth:  curr.depth + 1,
			})
		}
	}
}

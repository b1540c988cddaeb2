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
	"errors"
	"strconv"
)

// maxListNumber is the largest number CommonMark permits in an ordered list marker.
const maxListNumber = 999999999

var (
	errListUnderflow   = errors.New("list end with no open list")
	errItemOutsideList = errors.New("list item outside of a list")
)

// listFrame is the numbering state of one open list.
type listFrame struct {
	ordered bool
	// start is the number of the first item.
	start int
	// current is the number the next item receives.
	current int
	// step is added to current after each item.
	step int
	// depth is the 1-based nesting level.
	depth int
	// marker is the bullet character ('-' or '*')
	// or the number delimiter ('.' or ')').
	marker byte
}

// itemMarker returns the marker text for the next item, including the trailing space.
func (f *listFrame) itemMarker() string {
	if !f.ordered {
		return string(f.marker) + " "
	}
	return strconv.Itoa(f.current) + string(f.marker) + " "
}

// listStack tracks the lists enclosing the current event.
// The top of the stack is the innermost list.
type listStack struct {
	frames []listFrame
}

// push opens a new innermost list.
func (s *listStack) push(ordered bool, start, step int, marker byte) *listFrame {
	start = min(max(start, 0), maxListNumber)
	s.frames = append(s.frames, listFrame{
		ordered: ordered,
		start:   start,
		current: start,
		step:    max(step, 0),
		depth:   len(s.frames) + 1,
		marker:  marker,
	})
	return &s.frames[len(s.frames)-1]
}

// pop closes the innermost list.
func (s *listStack) pop() (listFrame, error) {
	if len(s.frames) == 0 {
		return listFrame{}, errListUnderflow
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f, nil
}

// top returns the innermost list or nil if there are no open lists.
func (s *listStack) top() *listFrame {
	if len(s.frames) == 0 {
		return nil
	}
	return &s.frames[len(s.frames)-1]
}

// depth returns the number of open lists.
func (s *listStack) depth() int {
	return len(s.frames)
}

// advanceTop returns the marker for the innermost list's next item
// and moves the list's numbering forward.
func (s *listStack) advanceTop() (string, error) {
	f := s.top()
	if f == nil {
		return "", errItemOutsideList
	}
	marker := f.itemMarker()
	if f.ordered {
		f.current = min(f.current+f.step, maxListNumber)
	}
	return marker, nil
}

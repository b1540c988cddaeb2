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

package mdformat_test

import (
	"fmt"

	"zombiezen.com/go/mdformat"
)

func ExampleParse() {
	doc, err := mdformat.Parse([]byte("Hello, *World*!\n"), nil)
	if err != nil {
		panic(err)
	}
	for _, ev := range doc.Events {
		fmt.Println(ev)
	}
	// Output:
	// Start(Paragraph)
	// Text("Hello, ")
	// Start(Emphasis)
	// Text("World")
	// End(Emphasis)
	// Text("!")
	// End(Paragraph)
}

func ExampleCompareHTML() {
	diff, err := mdformat.CompareHTML(
		[]byte("* Hello\n* World\n"),
		[]byte("- Hello\n- World\n"),
		nil,
	)
	if err != nil {
		panic(err)
	}
	fmt.Printf("equivalent: %t\n", diff == "")
	// Output:
	// equivalent: true
}

// Copyright 2023 Ross Light
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

package normhtml

import "testing"

func TestNormalizeHTML(t *testing.T) {
	tests := []struct {
		b    string
		opts *Options
		want string
	}{
		{b: "<p>a  \t b</p>", want: "<p>a b</p>"},
		{b: "<p>a  \t\nb</p>", want: "<p>a b</p>"},
		{b: " <p>a  b</p>", want: "<p>a b</p>"},
		{b: "\n\t<p>\n\t\ta  b\t\t</p>\n\t", want: "<p>a b</p>"},
		{b: "<i>a  b</i> ", want: "<i>a b</i> "},
		{b: "  <center>\n<ul>\n<li>a</li>\n</ul>\n  </center>\n", want: "<center><ul><li>a</li></ul></center>"},
		{b: "<center>\n<ul>\n<li>a</li>\n</ul>\n</center>\n", want: "<center><ul><li>a</li></ul></center>"},
		{b: "<p>a<br />\nb</p>", want: "<p>a<br>b</p>"},
		{b: `<a title="bar" HREF="foo">x</a>`, want: `<a href="foo" title="bar">x</a>`},
		{b: "&forall;&amp;&gt;&lt;&quot;&#32;x", want: "\u2200&amp;&gt;&lt;&quot; x"},
		{b: "<pre><code>a  \n  b\n</code></pre>", want: "<pre><code>a  \n  b\n</code></pre>"},
		{
			b:    `<pre><code class="language-go">x:=1</code></pre>`,
			want: `<pre><code class="language-go">x:=1</code></pre>`,
		},
		{
			b:    `<pre><code class="language-go">x:=1</code></pre><p>after</p>`,
			opts: &Options{IgnoreCode: []string{"Go"}},
			want: `<pre><code class="language-go"></code></pre><p>after</p>`,
		},
		{
			b:    `<p><code class="language-go">x</code></p>`,
			opts: &Options{IgnoreCode: []string{"go"}},
			want: `<p><code class="language-go">x</code></p>`,
		},
	}
	for _, test := range tests {
		if got := NormalizeHTML([]byte(test.b), test.opts); string(got) != test.want {
			t.Errorf("NormalizeHTML(%q, %+v) = %q; want %q", test.b, test.opts, got, test.want)
		}
	}
}

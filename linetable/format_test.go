// Copyright 2021 Josh Deprez
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package linetable

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/language"
)

func TestScanAttribEvents(t *testing.T) {
	input := "[a]Hello A[/a] [b]Hello B[/b] [c][d][/c]No C, [e/]only D[/d]"

	pt := new(parsedString)
	if err := lineParser.ParseString("", input, pt); err != nil {
		t.Fatalf("lineParser.ParseString: %v", err)
	}
	lr := lineRenderer{}
	if err := lr.renderString(pt); err != nil {
		t.Fatalf("lineRenderer.renderString: %v", err)
	}
	as := lr.attStr()

	attA := &Attribute{Start: 0, End: 7, Name: "a"}
	attB := &Attribute{Start: 8, End: 15, Name: "b"}
	attC := &Attribute{Start: 16, End: 16, Name: "c"}
	attD := &Attribute{Start: 16, End: 28, Name: "d"}
	attE := &Attribute{Start: 22, End: 22, Name: "e"}

	type posAtts struct {
		Pos  int
		Atts []*Attribute
	}
	want := []posAtts{
		{0, []*Attribute{attA}},
		{7, []*Attribute{attA}},
		{8, []*Attribute{attB}},
		{15, []*Attribute{attB}},
		{16, []*Attribute{attC, attD}},
		{22, []*Attribute{attE}},
		{28, []*Attribute{attD}},
	}
	var got []posAtts
	as.ScanAttribEvents(func(pos int, atts []*Attribute) {
		got = append(got, posAtts{Pos: pos, Atts: atts})
	})

	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("ScanAttribEvents scan order diff:\n%s", diff)
	}
}

func TestRenderPluralFormatFunc(t *testing.T) {
	input := `[plural {0} one="% apple" other="% apples"]`
	pt := new(parsedString)
	if err := lineParser.ParseString("", input, pt); err != nil {
		t.Fatalf("lineParser.ParseString: %v", err)
	}

	for _, tc := range []struct {
		subst string
		want  string
	}{
		{"1", "1 apple"},
		{"2", "2 apples"},
	} {
		lr := lineRenderer{substs: []string{tc.subst}, lang: language.English}
		if err := lr.renderString(pt); err != nil {
			t.Fatalf("renderString(%q): %v", tc.subst, err)
		}
		if got := lr.attStr().String(); got != tc.want {
			t.Errorf("render(%q) = %q, want %q", tc.subst, got, tc.want)
		}
	}
}

func TestRenderSelectFormatFunc(t *testing.T) {
	input := `[select {0} m="He" f="She" nb="They"] went home.`
	pt := new(parsedString)
	if err := lineParser.ParseString("", input, pt); err != nil {
		t.Fatalf("lineParser.ParseString: %v", err)
	}
	lr := lineRenderer{substs: []string{"f"}, lang: language.English}
	if err := lr.renderString(pt); err != nil {
		t.Fatalf("renderString: %v", err)
	}
	if got, want := lr.attStr().String(), "She went home."; got != want {
		t.Errorf("render = %q, want %q", got, want)
	}
}

// TestRenderFormatFuncSpecExamples reproduces the round-trip examples given
// literally in spec.md's format-function expander section, using the
// positional-value embed syntax (no "value=" key).
func TestRenderFormatFuncSpecExamples(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plural",
			input: `there  [plural "1" one="is %" other="are %"] apple`,
			want:  "there  is 1 apple",
		},
		{
			name:  "select",
			input: `[select "blue" red="R" blue="B"]`,
			want:  "B",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			pt := new(parsedString)
			if err := lineParser.ParseString("", tc.input, pt); err != nil {
				t.Fatalf("lineParser.ParseString(%q): %v", tc.input, err)
			}
			lr := lineRenderer{lang: language.English}
			if err := lr.renderString(pt); err != nil {
				t.Fatalf("renderString(%q): %v", tc.input, err)
			}
			if got := lr.attStr().String(); got != tc.want {
				t.Errorf("render(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

// TestRenderFormatFuncMissingCategory checks that a missing category key
// yields the literal placeholder spec.md requires, rather than an error.
func TestRenderFormatFuncMissingCategory(t *testing.T) {
	input := `[select "green" red="R" blue="B"]`
	pt := new(parsedString)
	if err := lineParser.ParseString("", input, pt); err != nil {
		t.Fatalf("lineParser.ParseString: %v", err)
	}
	lr := lineRenderer{lang: language.English}
	if err := lr.renderString(pt); err != nil {
		t.Fatalf("renderString: %v", err)
	}
	if got, want := lr.attStr().String(), "<no replacement for green>"; got != want {
		t.Errorf("render = %q, want %q", got, want)
	}
}

// TestEscapedPercent checks that \% is a recognized escape sequence.
func TestEscapedPercent(t *testing.T) {
	input := `100\% done`
	pt := new(parsedString)
	if err := lineParser.ParseString("", input, pt); err != nil {
		t.Fatalf("lineParser.ParseString: %v", err)
	}
	lr := lineRenderer{lang: language.English}
	if err := lr.renderString(pt); err != nil {
		t.Fatalf("renderString: %v", err)
	}
	if got, want := lr.attStr().String(), "100% done"; got != want {
		t.Errorf("render = %q, want %q", got, want)
	}
}

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
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	cldr "github.com/razor-1/localizer-cldr"
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
)

var (
	// This lexer is a bit more general than needed since it allows things
	// like nested functions, but that gives nested format functions for
	// free.
	lineLexer = lexer.MustStateful(lexer.Rules{
		"Root": {
			{Name: "Escaped", Pattern: `\\[\{\}\[\]"\\%]`, Action: nil},
			{Name: "Markup", Pattern: `\[`, Action: lexer.Push("Markup")},
			{Name: "Subst", Pattern: `{`, Action: lexer.Push("Subst")},
			{Name: "Char", Pattern: `[%\{\["\\]|[^%\{\["\\]+`, Action: nil},
		},
		"Markup": {
			{Name: "Whitespace", Pattern: `\s+`, Action: nil},
			{Name: "Slash", Pattern: `/`, Action: nil},
			{Name: "Ident", Pattern: `\w+`, Action: nil},
			{Name: "Equals", Pattern: `=`, Action: nil},
			{Name: "Subst", Pattern: `{`, Action: lexer.Push("Subst")},
			{Name: "String", Pattern: `"`, Action: lexer.Push("String")},
			{Name: "MarkupEnd", Pattern: `\]`, Action: lexer.Pop()},
		},
		"Subst": {
			{Name: "Index", Pattern: `\d+`, Action: nil},
			{Name: "SubstEnd", Pattern: `}`, Action: lexer.Pop()},
		},
		"String": {
			{Name: "StringEnd", Pattern: `"`, Action: lexer.Pop()},
			lexer.Include("Root"),
		},
	})

	// A line is a kind of string, just missing the quotes.
	lineParser = participle.MustBuild(
		&parsedString{},
		participle.Lexer(lineLexer),
		participle.Elide("Whitespace"),
	)
)

// parsedString is used for both entire lines and the contents of
// double-quoted strings.
type parsedString struct {
	Fragments []*fragment `parser:"@@*"`
}

// fragment is part of a string or line, broken up so special pieces
// (escape sequences, markup, substitutions, and %) can be processed
// specially.
type fragment struct {
	Escaped string           `parser:"@Escaped"`
	Markup  *parsedMarkupTag `parser:"| Markup @@ MarkupEnd"`
	Subst   string           `parser:"| Subst @Index SubstEnd"`
	Text    string           `parser:"| @Char"`
}

// stringOrSubst appears as a quoted literal or a bare substitution token
// inside markup tags, e.g. the "value" and "R" in [select "value" key="R"].
type stringOrSubst struct {
	String *parsedString `parser:"String @@ StringEnd"`
	Subst  string        `parser:" | Subst @Index SubstEnd"`
}

// parsedMarkupTag is used for both format functions (select, plural,
// ordinal) and BBCode-esque markup tags ([b]Bold!?[/b]). A format function's
// embed is `[name "value" key1="value1" key2="value2" …]` (spec.md §4.8):
// Name is immediately followed by a bare positional Value, with no "value="
// key, then zero or more keyed Props.
type parsedMarkupTag struct {
	OpeningSlash string         `parser:"@Slash?"` // indicates closing tag of a pair
	Name         string         `parser:"@Ident?"` // used for all except close-all tag [/]
	Value        *stringOrSubst `parser:"@@?"`     // positional value, format functions only
	Props        []*parsedProp  `parser:"@@*"`     // key="value" properties
	ClosingSlash string         `parser:"@Slash?"` // indicates self-closing tag
}

// parsedProp is a key="value" property of a format function or markup tag.
type parsedProp struct {
	Key   string         `parser:"@Ident Equals"`
	Value *stringOrSubst `parser:"@@"`
}

type lineRenderer struct {
	builder strings.Builder
	attribs map[int][]*Attribute    // lazily created; position -> tag event
	open    map[string][]*Attribute // lazily created; name -> stack of open tags
	substs  []string
	lang    language.Tag
}

func (b *lineRenderer) attStr() *AttributedString {
	return &AttributedString{str: b.builder.String(), atts: b.attribs}
}

func (b *lineRenderer) openTag(name string, props []*parsedProp) error {
	var m map[string]string
	if len(props) > 0 {
		m = make(map[string]string)
		for _, prop := range props {
			v, err := b.evalStringOrSubst(prop.Value)
			if err != nil {
				return err
			}
			m[prop.Key] = v
		}
	}
	a := &Attribute{Start: b.builder.Len(), Name: name, Props: m}
	if b.open == nil {
		b.open = make(map[string][]*Attribute)
	}
	if b.attribs == nil {
		b.attribs = make(map[int][]*Attribute)
	}
	b.open[name] = append(b.open[name], a)
	b.attribs[a.Start] = append(b.attribs[a.Start], a)
	return nil
}

func (b *lineRenderer) closeTag(name string) error {
	if b.open == nil {
		return fmt.Errorf("tag %q not open", name)
	}
	as := b.open[name]
	l := len(as)
	if l == 0 {
		return fmt.Errorf("tag %q not open", name)
	}
	a, as := as[l-1], as[:l-1]
	b.open[name] = as
	a.End = b.builder.Len()
	if a.Start == a.End {
		return nil
	}
	b.attribs[a.End] = append(b.attribs[a.End], a)
	return nil
}

func (b *lineRenderer) closeAll() {
	for name, as := range b.open {
		for _, a := range as {
			a.End = b.builder.Len()
			b.attribs[a.End] = append(b.attribs[a.End], a)
		}
		delete(b.open, name)
	}
}

func (b *lineRenderer) renderString(p *parsedString) error {
	for _, f := range p.Fragments {
		if err := b.renderFragment(f); err != nil {
			return err
		}
	}
	return nil
}

func (b *lineRenderer) renderFragment(s *fragment) error {
	if s == nil {
		return nil
	}
	switch {
	case s.Escaped != "":
		b.builder.WriteString(s.Escaped[1:])
	case s.Markup != nil:
		return b.renderMarkupTag(s.Markup)
	case s.Subst != "":
		b.builder.WriteString(b.evalSubst(s.Subst))
	default:
		b.builder.WriteString(s.Text)
	}
	return nil
}

func (b *lineRenderer) evalSubst(index string) string {
	n, err := strconv.Atoi(index)
	if err != nil || n < 0 || n >= len(b.substs) {
		return "{" + index + "}"
	}
	return b.substs[n]
}

// formKeyTable maps plural.Form values to the identifiers used in plural
// and ordinal format functions.
var formKeyTable = []string{
	plural.Other: "other",
	plural.Zero:  "zero",
	plural.One:   "one",
	plural.Two:   "two",
	plural.Few:   "few",
	plural.Many:  "many",
}

func (b *lineRenderer) renderMarkupTag(f *parsedMarkupTag) error {
	switch {
	case f.Name == "select":
		// [select "value" m="bro" f="sis" nb="doc"]
		return b.renderSelectFormatFunc(f)

	case f.Name == "plural":
		// [plural "1" one="an apple" other="% apples"]
		return b.renderPluralFormatFunc(f, plural.Cardinal)

	case f.Name == "ordinal":
		// [ordinal "1" one="%st" two="%nd" ...]
		return b.renderPluralFormatFunc(f, plural.Ordinal)

	case f.OpeningSlash == "/" && f.Name == "":
		// Close-all tag [/]
		b.closeAll()
		return nil

	case f.OpeningSlash == "/":
		// Close tag [/foo]
		return b.closeTag(f.Name)

	case f.ClosingSlash == "/":
		// Self-closing tag [foo/]
		if err := b.openTag(f.Name, f.Props); err != nil {
			return err
		}
		return b.closeTag(f.Name)

	case f.Name != "":
		// Open tag [foo]
		return b.openTag(f.Name, f.Props)

	default:
		b.builder.WriteString("[]")
		return nil
	}
}

// evalValueValue returns the string value of the format function's
// positional "value" token, which every format function takes immediately
// after its name.
func (b *lineRenderer) evalValueValue(f *parsedMarkupTag) (string, error) {
	if f.Value == nil {
		return "", fmt.Errorf("%s: missing positional value", f.Name)
	}
	return b.evalStringOrSubst(f.Value)
}

// noReplacement renders the placeholder spec.md §4.8 requires for a missing
// category key, rather than erroring.
func noReplacement(category string) string {
	return fmt.Sprintf("<no replacement for %s>", category)
}

func (b *lineRenderer) renderSelectFormatFunc(f *parsedMarkupTag) error {
	input, err := b.evalValueValue(f)
	if err != nil {
		return err
	}
	val, ok := b.propValueForKey(f, input)
	if !ok {
		b.builder.WriteString(noReplacement(input))
		return nil
	}
	return b.renderFormatFuncValue(val, input)
}

func (b *lineRenderer) renderPluralFormatFunc(f *parsedMarkupTag, rules *plural.Rules) error {
	input, err := b.evalValueValue(f)
	if err != nil {
		return err
	}
	ops, err := cldr.NewOperands(input)
	if err != nil {
		return err
	}
	form := rules.MatchPlural(b.lang, int(ops.I), int(ops.V), int(ops.W), int(ops.F), int(ops.T))
	if int(form) > len(formKeyTable) {
		return fmt.Errorf("plural form %v not supported", form)
	}
	category := formKeyTable[form]
	val, ok := b.propValueForKey(f, category)
	if !ok {
		b.builder.WriteString(noReplacement(category))
		return nil
	}
	return b.renderFormatFuncValue(val, input)
}

func (b *lineRenderer) evalStringOrSubst(s *stringOrSubst) (string, error) {
	if s.Subst != "" {
		return b.evalSubst(s.Subst), nil
	}
	inb := &lineRenderer{substs: b.substs, lang: b.lang}
	if err := inb.renderString(s.String); err != nil {
		return "", err
	}
	return inb.builder.String(), nil
}

// propValueForKey searches f.Props for the option matching key and returns
// its value, and whether it was found.
func (b *lineRenderer) propValueForKey(f *parsedMarkupTag, key string) (*stringOrSubst, bool) {
	for _, opt := range f.Props {
		if opt.Key == key {
			return opt.Value, true
		}
	}
	return nil, false
}

func (b *lineRenderer) renderFormatFuncValue(s *stringOrSubst, input string) error {
	// Format func values have an additional token that needs special
	// handling (%).
	if s.Subst != "" {
		b.builder.WriteString(b.evalSubst(s.Subst))
		return nil
	}
	for _, v := range s.String.Fragments {
		if v.Text == "%" {
			b.builder.WriteString(input)
			continue
		}
		if err := b.renderFragment(v); err != nil {
			return err
		}
	}
	return nil
}

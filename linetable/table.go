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

// Package linetable loads and renders the line/metadata CSV tables that
// accompany a compiled dialogue program. Both the CSV format and the
// rendering pipeline (substitutions, markup tags, CLDR plural/ordinal format
// functions) are out of the core interpreter's scope, but a reference host
// needs them to turn a Line event into text, so they live here rather than
// in the root package.
package linetable

import (
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	dialogue "github.com/dialoguevm/yarnvm"
	"github.com/dialoguevm/yarnvm/bytecode"
)

// LoadProgram loads a compiled program container and its accompanying
// string table in one call. Given a programPath named foo/bar/file.yarnc,
// it expects foo/bar/file-Lines.csv and foo/bar/file-Metadata.csv alongside
// it. langCode must be a valid BCP 47 language tag.
func LoadProgram(programPath, langCode string) (*bytecode.Program, *StringTable, error) {
	data, err := os.ReadFile(programPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading program file: %w", err)
	}
	prog, err := bytecode.Unmarshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding program: %w", err)
	}
	st, err := LoadStringTableFile(stringTablePath(programPath), langCode)
	if err != nil {
		return nil, nil, err
	}
	return prog, st, nil
}

// LoadProgramFS is LoadProgram reading from an fs.FS instead of the host
// filesystem.
func LoadProgramFS(fsys fs.FS, programPath, langCode string) (*bytecode.Program, *StringTable, error) {
	data, err := fs.ReadFile(fsys, programPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading program file: %w", err)
	}
	prog, err := bytecode.Unmarshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding program: %w", err)
	}
	st, err := LoadStringTableFileFS(fsys, stringTablePath(programPath), langCode)
	if err != nil {
		return nil, nil, err
	}
	return prog, st, nil
}

func stringTablePath(programPath string) string {
	base := strings.TrimSuffix(programPath, ".yarnc")
	return fmt.Sprintf("%s-Lines.csv", base)
}

func metadataTablePath(stringTablePath string) string {
	base := strings.TrimSuffix(stringTablePath, "-Lines.csv")
	return fmt.Sprintf("%s-Metadata.csv", base)
}

// StringTable contains all the information from a string table, keyed by
// string ID.
type StringTable struct {
	Language language.Tag
	Table    map[string]*StringTableRow
}

// LoadStringTableFile loads a CSV string table given a file path. If
// stringTablePath is foo/bar/file-Lines.csv then it expects a corresponding
// metadata file at foo/bar/file-Metadata.csv. It assumes the first row of
// both files is a header. langCode must be a valid BCP 47 language tag.
func LoadStringTableFile(stringTablePath, langCode string) (*StringTable, error) {
	f, err := os.Open(stringTablePath)
	if err != nil {
		return nil, fmt.Errorf("opening string table file: %w", err)
	}
	defer f.Close()
	st, err := ReadStringTable(f, langCode)
	if err != nil {
		return nil, fmt.Errorf("reading string table: %w", err)
	}
	mf, err := os.Open(metadataTablePath(stringTablePath))
	if err != nil {
		return nil, fmt.Errorf("opening metadata file: %w", err)
	}
	defer mf.Close()
	if err := st.readMetadata(mf); err != nil {
		return nil, fmt.Errorf("reading metadata file: %w", err)
	}
	return st, nil
}

// LoadStringTableFileFS is LoadStringTableFile reading from an fs.FS.
func LoadStringTableFileFS(fsys fs.FS, stringTablePath, langCode string) (*StringTable, error) {
	f, err := fsys.Open(stringTablePath)
	if err != nil {
		return nil, fmt.Errorf("opening string table file: %w", err)
	}
	defer f.Close()
	st, err := ReadStringTable(f, langCode)
	if err != nil {
		return nil, fmt.Errorf("reading string table: %w", err)
	}
	mf, err := fsys.Open(metadataTablePath(stringTablePath))
	if err != nil {
		return nil, fmt.Errorf("opening metadata file: %w", err)
	}
	defer mf.Close()
	if err := st.readMetadata(mf); err != nil {
		return nil, fmt.Errorf("reading metadata table: %w", err)
	}
	return st, nil
}

// ReadStringTable reads a CSV string table from r. It assumes the first row
// is a header. langCode must be a valid BCP 47 language tag. Each line
// number is parsed as an int and each text is parsed eagerly, so malformed
// substitution tokens or markup tags surface here rather than at render
// time.
func ReadStringTable(r io.Reader, langCode string) (*StringTable, error) {
	lang, err := language.Parse(langCode)
	if err != nil {
		return nil, fmt.Errorf("invalid lang code: %w", err)
	}

	st := make(map[string]*StringTableRow)
	header := true
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 5
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv read: %w", err)
		}
		if header {
			header = false
			continue
		}
		ln, err := strconv.Atoi(rec[4])
		if err != nil {
			return nil, fmt.Errorf("line number not an int: %w", err)
		}
		id := rec[0]
		row := &StringTableRow{
			ID:         id,
			Text:       rec[1],
			File:       rec[2],
			Node:       rec[3],
			LineNumber: ln,
		}
		if err := row.parseIfNeeded(); err != nil {
			return nil, fmt.Errorf("text for id %s could not be parsed: %w", id, err)
		}
		st[id] = row
	}
	return &StringTable{Language: lang, Table: st}, nil
}

// readMetadata extracts tags from the metadata table.
func (t *StringTable) readMetadata(r io.Reader) error {
	header := true
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // rows carry a variable number of tag fields
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("csv error: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(rec) < 4 {
			continue
		}
		id := rec[0]
		row, ok := t.Table[id]
		if !ok {
			return fmt.Errorf("unexpected ID in metadata table: %q", id)
		}
		row.Tags = rec[3:]
	}
	return nil
}

// Render looks up the row corresponding to line.ID, interpolates
// substitutions from line.Substitutions, applies format functions, and
// processes style tags into attributes.
func (t *StringTable) Render(line dialogue.Line) (*AttributedString, error) {
	row := t.Table[line.ID]
	if row == nil {
		return nil, fmt.Errorf("string table row for id %q not found or nil", line.ID)
	}
	return row.Render(line.Substitutions, t.Language)
}

// StringTableRow contains all the information from one row in a string
// table.
type StringTableRow struct {
	ID, Text, File, Node string
	LineNumber            int

	origText   string // parsedText needs updating if Text changes
	parsedText *parsedString

	Tags []string // set by the metadata table
}

// Render interpolates substitutions, applies format functions, and
// processes style tags into attributes.
func (r *StringTableRow) Render(substs []string, lang language.Tag) (*AttributedString, error) {
	if err := r.parseIfNeeded(); err != nil {
		return nil, err
	}
	lr := lineRenderer{substs: substs, lang: lang}
	if err := lr.renderString(r.parsedText); err != nil {
		return nil, err
	}
	return lr.attStr(), nil
}

// parseIfNeeded parses r.Text, if it has not been parsed already.
func (r *StringTableRow) parseIfNeeded() error {
	if r.Text == r.origText && r.parsedText != nil {
		return nil
	}
	filename := fmt.Sprintf("%s:%d", r.File, r.LineNumber)
	pt := new(parsedString)
	if err := lineParser.ParseString(filename, r.Text, pt); err != nil {
		return err
	}
	r.origText = r.Text
	r.parsedText = pt
	return nil
}

// AttributedString is a string with additional attributes, such as
// presentation or styling information, that apply to the whole string or
// substrings.
type AttributedString struct {
	str  string
	atts map[int][]*Attribute // position -> attributes starting or ending here
}

func (s *AttributedString) String() string { return s.str }

// ScanAttribEvents calls visit with each change in attribute state. pos is
// the byte position in the string where the change occurs. atts contains
// the attributes that either start or end at pos, in the order they were
// read from the original markup. Self-closing tags, or an open/close pair
// marking up nothing, appear in atts only once.
func (s *AttributedString) ScanAttribEvents(visit func(pos int, atts []*Attribute)) {
	events := make([]int, 0, len(s.atts))
	for i := range s.atts {
		events = append(events, i)
	}
	sort.Ints(events)
	for _, pos := range events {
		visit(pos, s.atts[pos])
	}
}

// Attribute describes a range within a string with additional information
// provided by markup tags. Start and End specify the range in bytes. Name
// is the tag name, and Props contains any additional key="value" tag
// properties.
type Attribute struct {
	Start, End int
	Name       string
	Props      map[string]string
}

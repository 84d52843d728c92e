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

package dialoguetest

import (
	"strings"
	"testing"

	"golang.org/x/text/language"

	dialogue "github.com/dialoguevm/yarnvm"
	"github.com/dialoguevm/yarnvm/bytecode"
	"github.com/dialoguevm/yarnvm/linetable"
)

func TestReadTestPlan(t *testing.T) {
	src := `
# a comment
line: Hello there.
option: Go left
option: Go right
select: 2
command: wave
stop
`
	tp, err := ReadTestPlan(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ReadTestPlan: %v", err)
	}
	want := []TestStep{
		{"line", "Hello there."},
		{"option", "Go left"},
		{"option", "Go right"},
		{"select", "2"},
		{"command", "wave"},
	}
	if len(tp.Steps) != len(want) {
		t.Fatalf("len(Steps) = %d, want %d", len(tp.Steps), len(want))
	}
	for i, s := range tp.Steps {
		if s != want[i] {
			t.Errorf("Steps[%d] = %v, want %v", i, s, want[i])
		}
	}
}

func newStringTable(rows map[string]string) *linetable.StringTable {
	table := make(map[string]*linetable.StringTableRow)
	for id, text := range rows {
		table[id] = &linetable.StringTableRow{ID: id, Text: text}
	}
	return &linetable.StringTable{Language: language.English, Table: table}
}

func TestTestPlanRun(t *testing.T) {
	prog := &bytecode.Program{
		Nodes: map[string]*bytecode.Node{
			"Start": {
				Name: "Start",
				Instructions: []*bytecode.Instruction{
					{Opcode: bytecode.OpRunLine, Operands: []*bytecode.Operand{
						bytecode.StringOperand("line:greet"), bytecode.FloatOperand(0),
					}},
					{Opcode: bytecode.OpAddOption, Operands: []*bytecode.Operand{
						bytecode.StringOperand("opt:left"), bytecode.StringOperand("Start"), bytecode.FloatOperand(0),
					}},
					{Opcode: bytecode.OpAddOption, Operands: []*bytecode.Operand{
						bytecode.StringOperand("opt:right"), bytecode.StringOperand("Start"), bytecode.FloatOperand(0),
					}},
					{Opcode: bytecode.OpShowOptions},
					{Opcode: bytecode.OpPop}, // discard the destination node name pushed by SelectOption
					{Opcode: bytecode.OpStop},
				},
			},
		},
	}

	st := newStringTable(map[string]string{
		"line:greet": "Hello there.",
		"opt:left":   "Go left",
		"opt:right":  "Go right",
	})

	tp, err := ReadTestPlan(strings.NewReader("line: Hello there.\noption: Go left\noption: Go right\nselect: 2\n"))
	if err != nil {
		t.Fatalf("ReadTestPlan: %v", err)
	}
	tp.StringTable = st

	vm := dialogue.New(prog)
	if err := vm.SetNode("Start"); err != nil {
		t.Fatalf("SetNode: %v", err)
	}
	if err := tp.Run(vm); err != nil {
		t.Fatalf("tp.Run: %v", err)
	}
	if err := tp.Complete(); err != nil {
		t.Errorf("tp.Complete: %v", err)
	}
}

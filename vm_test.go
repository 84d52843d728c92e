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

package dialogue

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dialoguevm/yarnvm/bytecode"
)

const traceOutput = false

// inst is a short constructor to keep program tables readable.
func inst(op bytecode.OpCode, operands ...*bytecode.Operand) *bytecode.Instruction {
	return &bytecode.Instruction{Opcode: op, Operands: operands}
}

func str(s string) *bytecode.Operand   { return bytecode.StringOperand(s) }
func num(f float32) *bytecode.Operand  { return bytecode.FloatOperand(f) }
func boolOp(b bool) *bytecode.Operand  { return bytecode.BoolOperand(b) }

// singleLineProgram has one node that runs one line then stops (scenario S1).
func singleLineProgram() *bytecode.Program {
	return &bytecode.Program{
		Nodes: map[string]*bytecode.Node{
			"Start": {
				Name: "Start",
				Instructions: []*bytecode.Instruction{
					inst(bytecode.OpRunLine, str("line:hello"), num(0)),
					inst(bytecode.OpStop),
				},
			},
		},
	}
}

// optionsProgram presents two options; selecting one jumps to the matching
// node (scenario S2).
func optionsProgram() *bytecode.Program {
	return &bytecode.Program{
		Nodes: map[string]*bytecode.Node{
			"Start": {
				Name: "Start",
				Instructions: []*bytecode.Instruction{
					inst(bytecode.OpAddOption, str("opt:a"), str("NodeA"), num(0)),
					inst(bytecode.OpAddOption, str("opt:b"), str("NodeB"), num(0)),
					inst(bytecode.OpShowOptions),
					inst(bytecode.OpRunNode),
				},
			},
			"NodeA": {
				Name:         "NodeA",
				Instructions: []*bytecode.Instruction{inst(bytecode.OpStop)},
			},
			"NodeB": {
				Name:         "NodeB",
				Instructions: []*bytecode.Instruction{inst(bytecode.OpStop)},
			},
		},
	}
}

// exprProgram pushes two numbers, calls Add, stores the result, then emits
// a line with that value substituted (scenario S3).
func exprProgram() *bytecode.Program {
	return &bytecode.Program{
		Nodes: map[string]*bytecode.Node{
			"Start": {
				Name: "Start",
				Instructions: []*bytecode.Instruction{
					inst(bytecode.OpPushFloat, num(2)),
					inst(bytecode.OpPushFloat, num(3)),
					inst(bytecode.OpPushFloat, num(2)), // argc sentinel
					inst(bytecode.OpCallFunc, str("Add")),
					inst(bytecode.OpStoreVariable, str("$sum")),
					inst(bytecode.OpPop),
					inst(bytecode.OpPushVariable, str("$sum")),
					inst(bytecode.OpRunLine, str("line:sum"), num(1)),
					inst(bytecode.OpStop),
				},
			},
		},
	}
}

// conditionalSkipProgram uses JumpIfFalse to skip a line when a pushed
// condition is false (scenario S4), leaving the condition on the stack per
// spec.md's peek-not-pop semantics, so a following POP is required.
func conditionalSkipProgram(cond bool) *bytecode.Program {
	return &bytecode.Program{
		Nodes: map[string]*bytecode.Node{
			"Start": {
				Name: "Start",
				Labels: map[string]int32{
					"skip": 5,
					"end":  6,
				},
				Instructions: []*bytecode.Instruction{
					inst(bytecode.OpPushBool, boolOp(cond)),
					inst(bytecode.OpJumpIfFalse, str("skip")),
					inst(bytecode.OpPop),
					inst(bytecode.OpRunLine, str("line:shown"), num(0)),
					inst(bytecode.OpJumpTo, str("end")), // the condition was already popped on this path
					inst(bytecode.OpPop),                // target of "skip": pops the leftover condition
					inst(bytecode.OpStop),
				},
			},
		},
	}
}

// emptyOptionsProgram calls SHOW_OPTIONS with nothing added, which must be
// treated as dialogue completion rather than a stuck wait (scenario S6).
func emptyOptionsProgram() *bytecode.Program {
	return &bytecode.Program{
		Nodes: map[string]*bytecode.Node{
			"Start": {
				Name:         "Start",
				Instructions: []*bytecode.Instruction{inst(bytecode.OpShowOptions)},
			},
		},
	}
}

func TestSingleLine(t *testing.T) {
	vm := New(singleLineProgram())
	if err := vm.SetNode("Start"); err != nil {
		t.Fatalf("SetNode: %v", err)
	}
	reason, err := vm.Continue()
	if err != nil {
		t.Fatalf("Continue: %v", err)
	}
	line, ok := reason.(LineSuspend)
	if !ok {
		t.Fatalf("Continue reason = %T, want LineSuspend", reason)
	}
	if line.Line.ID != "line:hello" {
		t.Errorf("Line.ID = %q, want line:hello", line.Line.ID)
	}

	reason, err = vm.Continue()
	if err != nil {
		t.Fatalf("Continue: %v", err)
	}
	if _, ok := reason.(DialogueCompleteSuspend); !ok {
		t.Fatalf("Continue reason = %T, want DialogueCompleteSuspend", reason)
	}
	if vm.VisitCounter["Start"] != 1 {
		t.Errorf("VisitCounter[Start] = %d, want 1", vm.VisitCounter["Start"])
	}
}

func TestOptionsSelection(t *testing.T) {
	vm := New(optionsProgram())
	if err := vm.SetNode("Start"); err != nil {
		t.Fatalf("SetNode: %v", err)
	}
	reason, err := vm.Continue()
	if err != nil {
		t.Fatalf("Continue: %v", err)
	}
	opts, ok := reason.(OptionsSuspend)
	if !ok {
		t.Fatalf("Continue reason = %T, want OptionsSuspend", reason)
	}
	if len(opts.Options) != 2 {
		t.Fatalf("len(Options) = %d, want 2", len(opts.Options))
	}
	if vm.ExecutionState() != WaitingOnOptionSelection {
		t.Errorf("ExecutionState = %v, want WaitingOnOptionSelection", vm.ExecutionState())
	}

	if _, err := vm.Continue(); !errors.Is(err, ErrWaitingOnOptions) {
		t.Errorf("Continue while waiting = %v, want ErrWaitingOnOptions", err)
	}

	if err := vm.SelectOption(1); err != nil {
		t.Fatalf("SelectOption(1): %v", err)
	}
	reason, err = vm.Continue()
	if err != nil {
		t.Fatalf("Continue after SelectOption: %v", err)
	}
	change, ok := reason.(NodeChangeSuspend)
	if !ok {
		t.Fatalf("Continue reason = %T, want NodeChangeSuspend", reason)
	}
	if change.Start != "NodeB" || change.End != "Start" {
		t.Errorf("NodeChangeSuspend = %+v, want Start=NodeB End=Start", change)
	}
}

func TestExpressionAndFunctionCall(t *testing.T) {
	vm := New(exprProgram())
	if err := vm.SetNode("Start"); err != nil {
		t.Fatalf("SetNode: %v", err)
	}
	reason, err := vm.Continue()
	if err != nil {
		t.Fatalf("Continue: %v", err)
	}
	line, ok := reason.(LineSuspend)
	if !ok {
		t.Fatalf("Continue reason = %T, want LineSuspend", reason)
	}
	want := []string{"5"}
	if diff := cmp.Diff(line.Line.Substitutions, want); diff != "" {
		t.Errorf("Substitutions diff (-got +want):\n%s", diff)
	}
	if v, _ := vm.Vars.GetValue("$sum"); v != float32(5) {
		t.Errorf("$sum = %v, want 5", v)
	}
}

func TestConditionalSkip(t *testing.T) {
	for _, cond := range []bool{true, false} {
		vm := New(conditionalSkipProgram(cond))
		if err := vm.SetNode("Start"); err != nil {
			t.Fatalf("SetNode: %v", err)
		}
		reason, err := vm.Continue()
		if err != nil {
			t.Fatalf("Continue: %v", err)
		}
		if cond {
			line, ok := reason.(LineSuspend)
			if !ok || line.Line.ID != "line:shown" {
				t.Errorf("cond=true: reason = %#v, want LineSuspend{line:shown}", reason)
			}
			if _, err := vm.Continue(); err != nil {
				t.Fatalf("final Continue: %v", err)
			}
		} else if _, ok := reason.(DialogueCompleteSuspend); !ok {
			t.Errorf("cond=false: reason = %T, want DialogueCompleteSuspend", reason)
		}
	}
}

func TestEmptyOptionsIsDialogueComplete(t *testing.T) {
	vm := New(emptyOptionsProgram())
	if err := vm.SetNode("Start"); err != nil {
		t.Fatalf("SetNode: %v", err)
	}
	reason, err := vm.Continue()
	if err != nil {
		t.Fatalf("Continue: %v", err)
	}
	if _, ok := reason.(DialogueCompleteSuspend); !ok {
		t.Fatalf("Continue reason = %T, want DialogueCompleteSuspend", reason)
	}
}

func TestSelectOptionOutOfRange(t *testing.T) {
	vm := New(optionsProgram())
	if err := vm.SetNode("Start"); err != nil {
		t.Fatalf("SetNode: %v", err)
	}
	if _, err := vm.Continue(); err != nil {
		t.Fatalf("Continue: %v", err)
	}
	if err := vm.SelectOption(5); !errors.Is(err, ErrOptionIndexOutOfRange) {
		t.Errorf("SelectOption(5) = %v, want ErrOptionIndexOutOfRange", err)
	}
}

func TestSetNodeUnknown(t *testing.T) {
	vm := New(singleLineProgram())
	if err := vm.SetNode("Nowhere"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("SetNode(Nowhere) = %v, want ErrNodeNotFound", err)
	}
	if vm.ExecutionState() != Stopped {
		t.Errorf("ExecutionState = %v, want Stopped", vm.ExecutionState())
	}
}

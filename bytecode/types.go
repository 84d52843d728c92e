// Copyright 2016 Josh Deprez
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

// Package bytecode defines the compiled-program wire schema consumed by the
// dialogue virtual machine, and a decoder for the length-prefixed protobuf
// container a compiler produces. The compiler itself, and the format of
// source dialogue text, are out of scope.
package bytecode

// OpCode identifies the operation an Instruction performs. The integer
// encoding must match the ordering a compiler emits; it is a public,
// load-bearing contract, not an implementation detail.
type OpCode int32

// The fixed set of opcodes the interpreter understands. Ordering matches the
// wire encoding used by the reference compiler.
const (
	OpJumpTo OpCode = iota
	OpJump
	OpRunLine
	OpRunCommand
	OpAddOption
	OpShowOptions
	OpPushString
	OpPushFloat
	OpPushBool
	OpPushNull
	OpJumpIfFalse
	OpPop
	OpCallFunc
	OpPushVariable
	OpStoreVariable
	OpStop
	OpRunNode
)

func (op OpCode) String() string {
	if s, ok := opCodeNames[op]; ok {
		return s
	}
	return "OP_UNKNOWN"
}

var opCodeNames = map[OpCode]string{
	OpJumpTo:        "JUMP_TO",
	OpJump:          "JUMP",
	OpRunLine:       "RUN_LINE",
	OpRunCommand:    "RUN_COMMAND",
	OpAddOption:     "ADD_OPTION",
	OpShowOptions:   "SHOW_OPTIONS",
	OpPushString:    "PUSH_STRING",
	OpPushFloat:     "PUSH_FLOAT",
	OpPushBool:      "PUSH_BOOL",
	OpPushNull:      "PUSH_NULL",
	OpJumpIfFalse:   "JUMP_IF_FALSE",
	OpPop:           "POP",
	OpCallFunc:      "CALL_FUNC",
	OpPushVariable:  "PUSH_VARIABLE",
	OpStoreVariable: "STORE_VARIABLE",
	OpStop:          "STOP",
	OpRunNode:       "RUN_NODE",
}

// Operand is one argument to an Instruction. Exactly one of the fields is
// meaningful, selected by Kind.
type Operand struct {
	Kind        OperandKind
	StringValue string
	BoolValue   bool
	FloatValue  float32
}

// OperandKind discriminates the union inside Operand.
type OperandKind int

const (
	OperandString OperandKind = iota
	OperandBool
	OperandFloat
)

// StringOperand is a convenience constructor for a string-valued Operand.
func StringOperand(s string) *Operand { return &Operand{Kind: OperandString, StringValue: s} }

// BoolOperand is a convenience constructor for a bool-valued Operand.
func BoolOperand(b bool) *Operand { return &Operand{Kind: OperandBool, BoolValue: b} }

// FloatOperand is a convenience constructor for a float-valued Operand.
func FloatOperand(f float32) *Operand { return &Operand{Kind: OperandFloat, FloatValue: f} }

// Instruction is one opcode plus its fixed-shape operand list.
type Instruction struct {
	Opcode   OpCode
	Operands []*Operand
}

// Node is a named, ordered sequence of instructions with a label table and
// node-level tags/headers. Nodes are immutable once loaded into a Program.
type Node struct {
	Name         string
	Instructions []*Instruction
	// Labels maps a label name to the instruction index it refers to.
	Labels map[string]int32
	// Tags holds node-level header values (e.g. "title", or free-form tags
	// applied by the author).
	Tags []string
	// SourceTextStringID optionally identifies a line-table row holding the
	// node's raw source text, used by some tooling (not by the VM).
	SourceTextStringID string
}

// Program is the immutable compiled form the VM executes: an ordered mapping
// from node name to Node, plus any statically-known initial variable values.
type Program struct {
	Nodes         map[string]*Node
	InitialValues map[string]*Operand
}

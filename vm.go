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

package dialogue

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/dialoguevm/yarnvm/bytecode"
)

// VM is a single instance of the dialogue virtual machine. It owns mutable
// state (the value stack, options, variables, visit counter) and a function
// Library; the Program it executes is logically immutable and may be shared
// by many VMs (spec.md §9).
type VM struct {
	// Program is the compiled bytecode this VM executes.
	Program *bytecode.Program

	// Library is consulted by CALL_FUNC. New populates it with the built-in
	// functions; a host may add to or override it afterwards.
	Library Library

	// Vars stores variables read and written by PUSH_VARIABLE/STORE_VARIABLE.
	Vars VariableStorage

	// VisitCounter maps node name to the number of times that node has
	// completed (by reaching end-of-instructions, STOP, or an empty
	// SHOW_OPTIONS) or been left via RUN_NODE. Exposed mutable for host
	// save/restore.
	VisitCounter map[string]int

	// TraceLogf, if not nil, is called before each instruction executes with
	// the current stack, accumulated options, and a disassembly of the
	// instruction about to run.
	TraceLogf func(format string, args ...interface{})

	currentNodeName string
	execState       ExecutionState
	state           state
}

// New constructs a VM for program, registering the built-in function
// library (spec.md §4.7) and an empty MapVariableStorage. Execution state is
// Stopped until SetNode is called.
func New(program *bytecode.Program) *VM {
	vm := &VM{
		Program:      program,
		Library:      defaultLibrary(),
		Vars:         make(MapVariableStorage),
		VisitCounter: make(map[string]int),
		execState:    Stopped,
	}
	vm.Library["visited"] = ReturningFunc(Fixed(1), func(vm *VM, args []Value) (Value, error) {
		name, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("%w: visited(%T)", ErrWrongType, args[0])
		}
		return vm.VisitCounter[name] > 0, nil
	})
	vm.Library["visited_count"] = ReturningFunc(Fixed(1), func(vm *VM, args []Value) (Value, error) {
		name, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("%w: visited_count(%T)", ErrWrongType, args[0])
		}
		return float32(vm.VisitCounter[name]), nil
	})
	return vm
}

// EnableRNG adds the optional dice/random/random_range/random_test built-ins
// (spec.md §4.7, "gated by configuration") using rnd as their source of
// randomness.
func (vm *VM) EnableRNG(rnd *rand.Rand) {
	withRNG(vm.Library, rnd)
}

// ExecutionState reports the VM's current coarse-grained state.
func (vm *VM) ExecutionState() ExecutionState { return vm.execState }

// CurrentNode reports the name of the node currently selected, or "" if
// none is.
func (vm *VM) CurrentNode() string { return vm.currentNodeName }

// SetNode selects a node to run, resetting the program counter, value
// stack, and accumulated options. It does not clear variables or the visit
// counter (spec.md §3, §4.1). Constructing a new VM, rather than calling
// SetNode on an existing one, is the supported way to reset everything for a
// new conversation.
func (vm *VM) SetNode(name string) error {
	if vm.Program == nil || len(vm.Program.Nodes) == 0 {
		vm.execState = Stopped
		return ErrNoProgram
	}
	node, ok := vm.Program.Nodes[name]
	if !ok {
		vm.execState = Stopped
		return fmt.Errorf("%q: %w", name, ErrNodeNotFound)
	}
	vm.currentNodeName = name
	vm.state.reset(node)
	vm.execState = Suspended
	return nil
}

// Continue runs instructions until a suspension reason is produced or an
// error occurs (spec.md §4.2). Precondition: a node has been selected and
// the VM is not waiting on an option selection.
func (vm *VM) Continue() (SuspendReason, error) {
	if vm.currentNodeName == "" {
		return nil, ErrNotRunning
	}
	if vm.execState == WaitingOnOptionSelection {
		return nil, ErrWaitingOnOptions
	}
	vm.execState = Running

	for {
		if vm.state.pc >= len(vm.state.node.Instructions) {
			name := vm.currentNodeName
			vm.VisitCounter[name]++
			vm.execState = Stopped
			vm.currentNodeName = ""
			vm.state.reset(nil)
			return DialogueCompleteSuspend{LastNode: name}, nil
		}

		inst := vm.state.node.Instructions[vm.state.pc]
		if vm.TraceLogf != nil {
			vm.TraceLogf("stack=%v options=%v", vm.state.stack, vm.state.options)
			vm.TraceLogf("%s %06d %s", vm.currentNodeName, vm.state.pc, FormatInstruction(inst))
		}

		reason, err := vm.execute(inst)
		if err != nil {
			return nil, fmt.Errorf("%s %06d %s: %w", vm.currentNodeName, vm.state.pc, FormatInstruction(inst), err)
		}
		vm.state.pc++
		if reason != nil {
			return reason, nil
		}
	}
}

// SelectOption resumes a VM suspended on an Options event, choosing the
// option at index (spec.md §4.3). The destination node name is pushed onto
// the stack as a String value; the next Continue call will typically fetch
// a RUN_NODE or JUMP consuming it.
func (vm *VM) SelectOption(index int) error {
	if vm.execState != WaitingOnOptionSelection {
		return ErrNotWaitingOnOptions
	}
	if index < 0 || index >= len(vm.state.options) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrOptionIndexOutOfRange, index, len(vm.state.options))
	}
	dest := vm.state.options[index].DestinationNode
	vm.state.push(dest)
	vm.state.options = nil
	vm.execState = Suspended
	return nil
}

// execute runs a single instruction. It returns a non-nil SuspendReason if
// the instruction produced one; a nil reason and nil error mean "executed,
// keep going" (spec.md §4.2 step 3, spec.md §7's internal NoOperation
// signal, folded here into a plain nil rather than a surfaced sentinel).
func (vm *VM) execute(inst *bytecode.Instruction) (SuspendReason, error) {
	switch inst.Opcode {
	case bytecode.OpJumpTo:
		return nil, vm.execJumpTo(inst.Operands)
	case bytecode.OpJump:
		return nil, vm.execJump()
	case bytecode.OpRunLine:
		return vm.execRunLine(inst.Operands)
	case bytecode.OpRunCommand:
		return vm.execRunCommand(inst.Operands)
	case bytecode.OpAddOption:
		return nil, vm.execAddOption(inst.Operands)
	case bytecode.OpShowOptions:
		return vm.execShowOptions()
	case bytecode.OpPushString:
		vm.state.push(inst.Operands[0].StringValue)
		return nil, nil
	case bytecode.OpPushFloat:
		vm.state.push(inst.Operands[0].FloatValue)
		return nil, nil
	case bytecode.OpPushBool:
		vm.state.push(inst.Operands[0].BoolValue)
		return nil, nil
	case bytecode.OpPushNull:
		vm.state.push(nil)
		return nil, nil
	case bytecode.OpJumpIfFalse:
		return nil, vm.execJumpIfFalse(inst.Operands)
	case bytecode.OpPop:
		_, err := vm.state.pop()
		return nil, err
	case bytecode.OpCallFunc:
		return nil, vm.execCallFunc(inst.Operands)
	case bytecode.OpPushVariable:
		return nil, vm.execPushVariable(inst.Operands)
	case bytecode.OpStoreVariable:
		return nil, vm.execStoreVariable(inst.Operands)
	case bytecode.OpStop:
		return vm.execStop()
	case bytecode.OpRunNode:
		return vm.execRunNode()
	default:
		return nil, fmt.Errorf("invalid opcode %v", inst.Opcode)
	}
}

func (vm *VM) jumpTarget(label string) (int, error) {
	pc, ok := vm.state.node.Labels[label]
	if !ok {
		return 0, fmt.Errorf("%q in node %q: %w", label, vm.currentNodeName, ErrLabelNotFound)
	}
	return int(pc), nil
}

func (vm *VM) execJumpTo(operands []*bytecode.Operand) error {
	target, err := vm.jumpTarget(operands[0].StringValue)
	if err != nil {
		return err
	}
	vm.state.pc = target - 1
	return nil
}

func (vm *VM) execJump() error {
	label, err := vm.state.peekString()
	if err != nil {
		return err
	}
	target, err := vm.jumpTarget(label)
	if err != nil {
		return err
	}
	vm.state.pc = target - 1
	return nil
}

// operandInt reads the n-of-substitutions operand, if present; absence
// means zero.
func operandInt(operands []*bytecode.Operand, i int) (int, error) {
	if i >= len(operands) {
		return 0, nil
	}
	op := operands[i]
	if op.Kind != bytecode.OperandFloat {
		return 0, fmt.Errorf("%w: operand %d is not numeric", ErrWrongType, i)
	}
	return int(op.FloatValue), nil
}

func (vm *VM) execRunLine(operands []*bytecode.Operand) (SuspendReason, error) {
	n, err := operandInt(operands, 1)
	if err != nil {
		return nil, err
	}
	subs, err := vm.state.popNStrings(n)
	if err != nil {
		return nil, err
	}
	line := Line{ID: operands[0].StringValue, Substitutions: subs}
	vm.execState = Suspended
	return LineSuspend{Line: line}, nil
}

func (vm *VM) execRunCommand(operands []*bytecode.Operand) (SuspendReason, error) {
	n, err := operandInt(operands, 1)
	if err != nil {
		return nil, err
	}
	subs, err := vm.state.popNStrings(n)
	if err != nil {
		return nil, err
	}
	text := operands[0].StringValue
	for k, s := range subs {
		text = strings.Replace(text, fmt.Sprintf("{%d}", k), s, 1)
	}
	vm.execState = Suspended
	return CommandSuspend{Text: text}, nil
}

func (vm *VM) execAddOption(operands []*bytecode.Operand) error {
	n, err := operandInt(operands, 2)
	if err != nil {
		return err
	}
	subs, err := vm.state.popNStrings(n)
	if err != nil {
		return err
	}
	line := Line{ID: operands[0].StringValue, Substitutions: subs}
	vm.state.options = append(vm.state.options, Option{
		Index:           len(vm.state.options),
		Line:            line,
		DestinationNode: operands[1].StringValue,
	})
	return nil
}

func (vm *VM) execShowOptions() (SuspendReason, error) {
	if len(vm.state.options) == 0 {
		name := vm.currentNodeName
		vm.VisitCounter[name]++
		vm.execState = Stopped
		vm.currentNodeName = ""
		vm.state.reset(nil)
		return DialogueCompleteSuspend{LastNode: name}, nil
	}
	opts := vm.state.options
	vm.execState = WaitingOnOptionSelection
	return OptionsSuspend{Options: opts}, nil
}

func (vm *VM) execJumpIfFalse(operands []*bytecode.Operand) error {
	top, err := vm.state.peek()
	if err != nil {
		return err
	}
	b, err := ConvertToBool(top)
	if err != nil {
		return err
	}
	if b {
		return nil
	}
	target, err := vm.jumpTarget(operands[0].StringValue)
	if err != nil {
		return err
	}
	vm.state.pc = target - 1
	return nil
}

func (vm *VM) execCallFunc(operands []*bytecode.Operand) error {
	name := operands[0].StringValue
	fn, ok := vm.Library[name]
	if !ok {
		return fmt.Errorf("%q: %w", name, ErrFunctionNotFound)
	}

	argcVal, err := vm.state.pop()
	if err != nil {
		return err
	}
	argc, err := ConvertToInt(argcVal)
	if err != nil {
		return err
	}
	if !fn.Arity.IsVariadic() && int(fn.Arity) != argc {
		return fmt.Errorf("%q wants %d args, got %d: %w", name, int(fn.Arity), argc, ErrFunctionArity)
	}
	if argc < 0 {
		return fmt.Errorf("%q: negative arg count %d: %w", name, argc, ErrFunctionArity)
	}

	args := make([]Value, argc)
	for i := argc - 1; i >= 0; i-- {
		v, err := vm.state.pop()
		if err != nil {
			return err
		}
		args[i] = v
	}

	result, err := fn.Call(vm, args)
	if err != nil {
		return err
	}
	if fn.Returns {
		vm.state.push(result)
	}
	return nil
}

func (vm *VM) execPushVariable(operands []*bytecode.Operand) error {
	name := operands[0].StringValue
	if v, ok := vm.Vars.GetValue(name); ok {
		vm.state.push(v)
		return nil
	}
	if vm.Program.InitialValues != nil {
		if op, ok := vm.Program.InitialValues[name]; ok {
			vm.state.push(operandValue(op))
			return nil
		}
	}
	vm.state.push(nil)
	return nil
}

func operandValue(op *bytecode.Operand) Value {
	switch op.Kind {
	case bytecode.OperandBool:
		return op.BoolValue
	case bytecode.OperandFloat:
		return op.FloatValue
	case bytecode.OperandString:
		return op.StringValue
	default:
		return nil
	}
}

func (vm *VM) execStoreVariable(operands []*bytecode.Operand) error {
	top, err := vm.state.peek()
	if err != nil {
		return err
	}
	vm.Vars.SetValue(operands[0].StringValue, top)
	return nil
}

func (vm *VM) execStop() (SuspendReason, error) {
	name := vm.currentNodeName
	vm.VisitCounter[name]++
	vm.execState = Stopped
	vm.currentNodeName = ""
	vm.state.reset(nil)
	return DialogueCompleteSuspend{LastNode: name}, nil
}

func (vm *VM) execRunNode() (SuspendReason, error) {
	target, err := vm.state.popString()
	if err != nil {
		return nil, err
	}
	outgoing := vm.currentNodeName
	vm.VisitCounter[outgoing]++
	if err := vm.SetNode(target); err != nil {
		return nil, err
	}
	// SetNode reset pc to 0; compensate for the uniform post-instruction
	// increment Continue applies, so the next instruction executed is really
	// instruction 0 of the new node (spec.md §4.5 RUN_NODE, §9 "Jump target
	// encoding").
	vm.state.pc = -1
	return NodeChangeSuspend{Start: target, End: outgoing}, nil
}


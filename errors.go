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

// Package dialogue implements a stack-based bytecode interpreter for an
// interactive, screenwriting-oriented dialogue language. It drives
// conversations by yielding lines, option menus, and commands to a host,
// suspending after each until the host calls Continue again.
package dialogue

// Sentinel errors returned by the virtual machine. They are implemented as a
// named string type (rather than a struct or a separate errors package) so
// that errors.Is comparisons are cheap and the zero-dependency idiom matches
// the rest of this codebase.
const (
	// ErrNoProgram indicates the VM has no program, or the program has no
	// nodes.
	ErrNoProgram = vmError("no program loaded, or program has no nodes")

	// ErrNodeNotFound indicates SetNode (or RUN_NODE) named a node that
	// isn't in the program.
	ErrNodeNotFound = vmError("node not found")

	// ErrLabelNotFound indicates a jump instruction named a label that isn't
	// in the current node's label table. This is always a compiler bug.
	ErrLabelNotFound = vmError("label not found")

	// ErrStackUnderflow indicates an instruction tried to pop or peek an
	// empty stack.
	ErrStackUnderflow = vmError("stack underflow")

	// ErrWrongType indicates a stack value or operand had an unexpected
	// type for the operation being performed.
	ErrWrongType = vmError("wrong type")

	// ErrNotConvertible indicates a value could not be converted to the
	// type an operation required.
	ErrNotConvertible = vmError("not convertible")

	// ErrFunctionNotFound indicates CALL_FUNC named a function that isn't
	// registered in the Library.
	ErrFunctionNotFound = vmError("function not found in library")

	// ErrFunctionArity indicates CALL_FUNC supplied a different number of
	// arguments than a fixed-arity function declares. This is always a
	// compiler bug.
	ErrFunctionArity = vmError("function arity mismatch")

	// ErrNotRunning indicates Continue was called with no node selected.
	ErrNotRunning = vmError("no node selected")

	// ErrWaitingOnOptions indicates Continue was called while the VM is
	// waiting for SelectOption.
	ErrWaitingOnOptions = vmError("vm is waiting on option selection")

	// ErrNotWaitingOnOptions indicates SelectOption was called when the VM
	// was not suspended on an Options event.
	ErrNotWaitingOnOptions = vmError("vm is not waiting on option selection")

	// ErrOptionIndexOutOfRange indicates SelectOption was passed an index
	// that doesn't correspond to any accumulated option.
	ErrOptionIndexOutOfRange = vmError("option index out of range")
)

// vmError implements error as a plain string, so sentinel errors can be
// declared as consts and compared with errors.Is without allocating.
type vmError string

func (e vmError) Error() string { return string(e) }

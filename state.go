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

	"github.com/dialoguevm/yarnvm/bytecode"
)

// ExecutionState is the VM's coarse-grained state (spec.md §3).
type ExecutionState int

const (
	// Stopped: no node selected, or the most recent node ran to completion.
	Stopped ExecutionState = iota
	// Running: a Continue call is actively executing instructions.
	Running
	// Suspended: Continue returned control to the host, and the next
	// Continue call will resume execution.
	Suspended
	// WaitingOnOptionSelection: SHOW_OPTIONS published options; the host
	// must call SelectOption before Continue can run again.
	WaitingOnOptionSelection
)

func (s ExecutionState) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Running:
		return "Running"
	case Suspended:
		return "Suspended"
	case WaitingOnOptionSelection:
		return "WaitingOnOptionSelection"
	default:
		return fmt.Sprintf("ExecutionState(%d)", int(s))
	}
}

// state holds everything that is reset by set_node: the current node, the
// program counter, the value stack, and the options being accumulated for
// the next SHOW_OPTIONS. Variables and the visit counter outlive set_node
// (spec.md §3).
type state struct {
	node    *bytecode.Node
	pc      int
	stack   []Value
	options []Option
}

func (s *state) reset(node *bytecode.Node) {
	s.node = node
	s.pc = 0
	s.stack = nil
	s.options = nil
}

func (s *state) push(x Value) { s.stack = append(s.stack, x) }

func (s *state) pop() (Value, error) {
	x, err := s.peek()
	if err != nil {
		return nil, err
	}
	s.stack = s.stack[:len(s.stack)-1]
	return x, nil
}

func (s *state) peek() (Value, error) {
	if len(s.stack) == 0 {
		return nil, ErrStackUnderflow
	}
	return s.stack[len(s.stack)-1], nil
}

func (s *state) peekString() (string, error) {
	x, err := s.peek()
	if err != nil {
		return "", err
	}
	str, ok := x.(string)
	if !ok {
		return "", fmt.Errorf("%w: top of stack is %T, not string", ErrWrongType, x)
	}
	return str, nil
}

func (s *state) popString() (string, error) {
	x, err := s.pop()
	if err != nil {
		return "", err
	}
	str, ok := x.(string)
	if !ok {
		return "", fmt.Errorf("%w: top of stack is %T, not string", ErrWrongType, x)
	}
	return str, nil
}

func (s *state) popBool() (bool, error) {
	x, err := s.pop()
	if err != nil {
		return false, err
	}
	b, ok := x.(bool)
	if !ok {
		return false, fmt.Errorf("%w: top of stack is %T, not bool", ErrWrongType, x)
	}
	return b, nil
}

// popNStrings pops n values from the stack, converts each to a string (via
// ConvertToString, not a type assertion -- substitution values are whatever
// expression results ended up on the stack), and returns them oldest-first
// (i.e. the first value pushed of the n ends up at index 0).
func (s *state) popNStrings(n int) ([]string, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative count %d", ErrWrongType, n)
	}
	if n == 0 {
		return nil, nil
	}
	if n > len(s.stack) {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrStackUnderflow, n, len(s.stack))
	}
	rem := len(s.stack) - n
	ss := make([]string, n)
	for i, x := range s.stack[rem:] {
		ss[i] = ConvertToString(x)
	}
	s.stack = s.stack[:rem]
	return ss, nil
}

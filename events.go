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

// Line represents a line of dialogue: a string ID the host resolves against
// its own line table, plus substitution values produced by the bytecode.
// Lines are produced only by the interpreter and never mutated after
// emission (spec.md §3).
type Line struct {
	ID            string
	Substitutions []string
}

// Option is one entry the player could choose from at an Options suspension.
type Option struct {
	// Index is assigned in insertion order when the option was accumulated,
	// and is the value to pass back to VM.SelectOption.
	Index           int
	Line            Line
	DestinationNode string
}

// SuspendReason is the closed set of reasons Continue can return (spec.md
// §4.4). It is a sealed interface: every implementation lives in this
// package, so callers can exhaustively type-switch on it.
type SuspendReason interface {
	suspendReason()
}

// LineSuspend is returned when RUN_LINE delivers a line for presentation.
type LineSuspend struct {
	Line Line
}

func (LineSuspend) suspendReason() {}

// OptionsSuspend is returned when SHOW_OPTIONS publishes the accumulated
// option list. The VM's execution state becomes WaitingOnOptionSelection
// until SelectOption is called.
type OptionsSuspend struct {
	Options []Option
}

func (OptionsSuspend) suspendReason() {}

// CommandSuspend is returned when RUN_COMMAND dispatches a command, after
// substitution.
type CommandSuspend struct {
	Text string
}

func (CommandSuspend) suspendReason() {}

// NodeChangeSuspend is returned by RUN_NODE, before the target node's first
// instruction executes.
type NodeChangeSuspend struct {
	Start string // node now entered
	End   string // node that just completed (the one RUN_NODE was called from)
}

func (NodeChangeSuspend) suspendReason() {}

// DialogueCompleteSuspend is returned by STOP, by reaching the end of a
// node's instructions, or by SHOW_OPTIONS with no accumulated options.
type DialogueCompleteSuspend struct {
	LastNode string
}

func (DialogueCompleteSuspend) suspendReason() {}

// InvalidOptionSuspend is reserved for option-name dispatch errors surfaced
// to the host (spec.md §4.4). No opcode in this bytecode format emits it
// directly; it exists for hosts layering named-option dispatch on top of the
// core VM (see SPEC_FULL.md §5).
type InvalidOptionSuspend struct {
	Name string
}

func (InvalidOptionSuspend) suspendReason() {}

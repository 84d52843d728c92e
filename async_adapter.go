// Copyright 2023 Josh Deprez
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
	"sync/atomic"
)

// ErrAlreadyStopped is returned when the AsyncAdapter cannot advance the
// virtual machine, because it is already stopped.
const ErrAlreadyStopped = vmError("VM already stopped or stopping")

// VMState enumerates the different states that AsyncAdapter can be in. It
// mirrors VM.ExecutionState, but as seen from a second goroutine: Paused and
// PausedOptions distinguish the two reasons a host might need to respond
// differently (presenting a line/command versus presenting a menu).
type VMState int32

const (
	// VMStateRunning means a Continue call is in flight on the driver
	// goroutine; no event is available yet.
	VMStateRunning VMState = iota

	// VMStatePaused means an event other than Options was delivered and is
	// waiting on the Events channel; Continue will not run again until Go is
	// called.
	VMStatePaused

	// VMStatePausedOptions means an Options event was delivered; Continue
	// will not run again until GoWithChoice is called.
	VMStatePausedOptions

	// VMStateStopped means execution has not begun, or has ended (dialogue
	// completion, Abort, or an error).
	VMStateStopped
)

func (s VMState) String() string {
	switch s {
	case VMStateRunning:
		return "Running"
	case VMStatePaused:
		return "Paused"
	case VMStatePausedOptions:
		return "PausedOptions"
	case VMStateStopped:
		return "Stopped"
	}
	return fmt.Sprintf("(invalid VMState %d)", s)
}

// VMStateMismatchErr is returned when AsyncAdapter is told to do something
// (Go, GoWithChoice, or Abort) that requires it to be in a different state
// than the one it is actually in.
type VMStateMismatchErr struct {
	Got, Want, Next VMState
}

func (e VMStateMismatchErr) Error() string {
	return fmt.Sprintf("VM is %v, so cannot transition from %v to %v", e.Got, e.Want, e.Next)
}

// AsyncAdapter drives a *VM on its own goroutine, so that a host whose main
// loop lives on a different goroutine (a render loop, a UI event loop) never
// calls Continue or SelectOption directly. Events is where SuspendReason
// values and terminal errors arrive; Go/GoWithChoice/Abort are the only
// thread-safe ways to tell the driver goroutine to proceed.
//
// This replaces the teacher's push-callback adapter (which drove a
// DialogueHandler interface) with one that drives the suspend/resume VM
// contract instead: the VM no longer blocks inside handler calls, so there
// is nothing left to unblock except "run Continue/SelectOption again",
// which is exactly what Go and GoWithChoice request.
type AsyncAdapter struct {
	vm    *VM
	state atomic.Int32

	events chan asyncEvent
	msgCh  chan asyncMsg
}

type asyncEvent struct {
	reason SuspendReason
	err    error
}

// NewAsyncAdapter returns a new AsyncAdapter wrapping vm. vm must have had
// SetNode called already; the driver goroutine is started immediately and
// runs Continue once right away.
func NewAsyncAdapter(vm *VM) *AsyncAdapter {
	a := &AsyncAdapter{
		vm:     vm,
		events: make(chan asyncEvent, 1),
		msgCh:  make(chan asyncMsg, 1),
	}
	a.state.Store(int32(VMStateRunning))
	go a.run()
	return a
}

// Events is where suspend reasons (and the terminal error, if any) are
// delivered. The channel is closed after a DialogueCompleteSuspend or an
// error is sent.
func (a *AsyncAdapter) Events() <-chan asyncEvent { return a.events }

// State returns the current state.
func (a *AsyncAdapter) State() VMState {
	return VMState(a.state.Load())
}

func (a *AsyncAdapter) stateTransition(old, new VMState) error {
	if !a.state.CompareAndSwap(int32(old), int32(new)) {
		return VMStateMismatchErr{Got: a.State(), Want: old, Next: new}
	}
	return nil
}

// Go resumes the VM after a non-Options event. Returns an error if the VM
// is not Paused.
func (a *AsyncAdapter) Go() error {
	if err := a.stateTransition(VMStatePaused, VMStateRunning); err != nil {
		return err
	}
	a.msgCh <- goMsg{}
	return nil
}

// GoWithChoice resumes the VM after an Options event, selecting option
// index. Returns an error if the VM is not PausedOptions.
func (a *AsyncAdapter) GoWithChoice(index int) error {
	if err := a.stateTransition(VMStatePausedOptions, VMStateRunning); err != nil {
		return err
	}
	a.msgCh <- choiceMsg{index}
	return nil
}

// Abort stops the driver goroutine as soon as it next checks for a message.
// If the VM is already stopped, an error is returned.
func (a *AsyncAdapter) Abort() error {
	if old := a.state.Swap(int32(VMStateStopped)); old == int32(VMStateStopped) {
		return ErrAlreadyStopped
	}
	a.msgCh <- abortMsg{}
	return nil
}

func (a *AsyncAdapter) run() {
	for {
		reason, err := a.vm.Continue()
		if err != nil {
			a.state.Store(int32(VMStateStopped))
			a.events <- asyncEvent{err: err}
			close(a.events)
			return
		}

		// Store the state this event leads to before delivering it, so that a
		// receiver of the event always observes that state.
		_, done := reason.(DialogueCompleteSuspend)
		_, isOptions := reason.(OptionsSuspend)
		switch {
		case done:
			a.state.Store(int32(VMStateStopped))
		case isOptions:
			a.state.Store(int32(VMStatePausedOptions))
		default:
			a.state.Store(int32(VMStatePaused))
		}
		a.events <- asyncEvent{reason: reason}

		if done {
			close(a.events)
			return
		}

		if isOptions {
			choice, err := a.waitForChoice()
			if err != nil {
				a.state.Store(int32(VMStateStopped))
				a.events <- asyncEvent{err: err}
				close(a.events)
				return
			}
			if err := a.vm.SelectOption(choice); err != nil {
				a.state.Store(int32(VMStateStopped))
				a.events <- asyncEvent{err: err}
				close(a.events)
				return
			}
			a.state.Store(int32(VMStateRunning))
			continue
		}

		if err := a.waitForGo(); err != nil {
			a.state.Store(int32(VMStateStopped))
			a.events <- asyncEvent{err: err}
			close(a.events)
			return
		}
		a.state.Store(int32(VMStateRunning))
	}
}

func (a *AsyncAdapter) waitForGo() error {
	switch msg := (<-a.msgCh).(type) {
	case goMsg:
		return nil
	case abortMsg:
		return msg.err()
	default:
		return fmt.Errorf("invalid message type %T received", msg)
	}
}

func (a *AsyncAdapter) waitForChoice() (int, error) {
	switch msg := (<-a.msgCh).(type) {
	case choiceMsg:
		return msg.choice, nil
	case abortMsg:
		return -1, msg.err()
	default:
		return -1, fmt.Errorf("invalid message type %T received", msg)
	}
}

// AsyncAdapter's driver goroutine waits on msgCh for one of these.
type asyncMsg interface {
	asyncMsgTag()
}

type goMsg struct{}

func (goMsg) asyncMsgTag() {}

type choiceMsg struct {
	choice int
}

func (choiceMsg) asyncMsgTag() {}

type abortMsg struct{}

func (abortMsg) asyncMsgTag() {}

func (abortMsg) err() error { return errAborted }

const errAborted = vmError("aborted by host")

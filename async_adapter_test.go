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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAsyncAdapterDrivesLineThenStop(t *testing.T) {
	vm := New(singleLineProgram())
	if err := vm.SetNode("Start"); err != nil {
		t.Fatalf("SetNode: %v", err)
	}
	aa := NewAsyncAdapter(vm)

	ev := <-aa.Events()
	if ev.err != nil {
		t.Fatalf("first event error = %v", ev.err)
	}
	if _, ok := ev.reason.(LineSuspend); !ok {
		t.Fatalf("first event = %T, want LineSuspend", ev.reason)
	}
	if aa.State() != VMStatePaused {
		t.Errorf("State() = %v, want Paused", aa.State())
	}
	if err := aa.Go(); err != nil {
		t.Fatalf("Go: %v", err)
	}

	ev, ok := <-aa.Events()
	if !ok {
		t.Fatal("Events channel closed before DialogueComplete")
	}
	if ev.err != nil {
		t.Fatalf("second event error = %v", ev.err)
	}
	if _, ok := ev.reason.(DialogueCompleteSuspend); !ok {
		t.Fatalf("second event = %T, want DialogueCompleteSuspend", ev.reason)
	}
	if aa.State() != VMStateStopped {
		t.Errorf("State() = %v, want Stopped", aa.State())
	}
	if _, ok := <-aa.Events(); ok {
		t.Error("Events channel should be closed after DialogueComplete")
	}
}

func TestAsyncAdapterDrivesOptions(t *testing.T) {
	vm := New(optionsProgram())
	if err := vm.SetNode("Start"); err != nil {
		t.Fatalf("SetNode: %v", err)
	}
	aa := NewAsyncAdapter(vm)

	ev := <-aa.Events()
	opts, ok := ev.reason.(OptionsSuspend)
	if !ok {
		t.Fatalf("event = %T, want OptionsSuspend", ev.reason)
	}
	if len(opts.Options) != 2 {
		t.Fatalf("len(Options) = %d, want 2", len(opts.Options))
	}
	if aa.State() != VMStatePausedOptions {
		t.Errorf("State() = %v, want PausedOptions", aa.State())
	}
	if err := aa.GoWithChoice(1); err != nil {
		t.Fatalf("GoWithChoice: %v", err)
	}

	ev = <-aa.Events()
	change, ok := ev.reason.(NodeChangeSuspend)
	if !ok {
		t.Fatalf("event = %T, want NodeChangeSuspend", ev.reason)
	}
	if change.Start != "NodeB" {
		t.Errorf("NodeChangeSuspend.Start = %q, want NodeB", change.Start)
	}
}

func TestAsyncAdapterStateMismatch(t *testing.T) {
	vm := New(singleLineProgram())
	if err := vm.SetNode("Start"); err != nil {
		t.Fatalf("SetNode: %v", err)
	}
	aa := NewAsyncAdapter(vm)
	<-aa.Events() // LineSuspend; state is now Paused

	want := VMStateMismatchErr{Got: VMStatePaused, Want: VMStatePausedOptions, Next: VMStateRunning}
	if diff := cmp.Diff(aa.GoWithChoice(0), want); diff != "" {
		t.Errorf("GoWithChoice while Paused error diff (-got +want):\n%s", diff)
	}
	if err := aa.Go(); err != nil {
		t.Fatalf("Go: %v", err)
	}
	<-aa.Events() // DialogueCompleteSuspend
}

func TestAsyncAdapterAbort(t *testing.T) {
	vm := New(singleLineProgram())
	if err := vm.SetNode("Start"); err != nil {
		t.Fatalf("SetNode: %v", err)
	}
	aa := NewAsyncAdapter(vm)
	<-aa.Events() // LineSuspend

	if err := aa.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	ev, ok := <-aa.Events()
	if !ok {
		t.Fatal("Events channel closed before delivering abort error")
	}
	if !errors.Is(ev.err, errAborted) {
		t.Errorf("event error = %v, want errAborted", ev.err)
	}

	if err := aa.Abort(); !errors.Is(err, ErrAlreadyStopped) {
		t.Errorf("second Abort = %v, want ErrAlreadyStopped", err)
	}
}

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

import "errors"

// FakeDriver runs a VM to completion by itself, recording every line and
// command it sees and picking an option (by default, always option 0) at
// every Options suspension. It exists for tests and smoke-checks that need
// a conversation driven end-to-end without a real presentation layer,
// mirroring the do-nothing-handler role the teacher's FakeDialogueHandler
// played for the old callback VM.
type FakeDriver struct {
	// Choose picks an option index given the accumulated options. If nil,
	// FakeDriver always picks option 0.
	Choose func(options []Option) int

	Lines    []Line
	Commands []string
}

// Run drives vm (which must already have SetNode called) until it suspends
// on DialogueComplete or returns an error.
func (f *FakeDriver) Run(vm *VM) error {
	for {
		reason, err := vm.Continue()
		if err != nil {
			return err
		}
		switch r := reason.(type) {
		case LineSuspend:
			f.Lines = append(f.Lines, r.Line)
		case CommandSuspend:
			f.Commands = append(f.Commands, r.Text)
		case OptionsSuspend:
			if len(r.Options) == 0 {
				return errors.New("no options delivered")
			}
			choice := 0
			if f.Choose != nil {
				choice = f.Choose(r.Options)
			}
			if err := vm.SelectOption(choice); err != nil {
				return err
			}
		case NodeChangeSuspend:
			// Nothing to do; Continue will keep running the new node.
		case DialogueCompleteSuspend:
			return nil
		case InvalidOptionSuspend:
			return errors.New("invalid option: " + r.Name)
		}
	}
}

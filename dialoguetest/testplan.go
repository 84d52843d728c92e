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

// Package dialoguetest provides a .testplan-driven integration harness for
// exercising a VM end to end against a recorded script of expected lines,
// options, and commands. It lives in its own package (rather than the root
// dialogue package) because it needs both the VM's suspend-reason types and
// linetable's line renderer, and linetable already imports the root package
// for Line.
package dialoguetest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	dialogue "github.com/dialoguevm/yarnvm"
	"github.com/dialoguevm/yarnvm/linetable"
)

// TestStep is one line of a .testplan script.
type TestStep struct {
	Type     string
	Contents string
}

func (s TestStep) String() string { return s.Type + ": " + s.Contents }

// TestPlan is a recorded script of expected events: lines and options are
// checked against the StringTable's rendering, and the option to select at
// each menu is fixed in advance.
type TestPlan struct {
	StringTable *linetable.StringTable
	Steps       []TestStep
	Step        int

	dialogueCompleted bool
}

// LoadTestPlanFile loads a test plan given a file path.
func LoadTestPlanFile(testPlanPath string) (*TestPlan, error) {
	f, err := os.Open(testPlanPath)
	if err != nil {
		return nil, fmt.Errorf("opening testplan file: %w", err)
	}
	defer f.Close()
	tp, err := ReadTestPlan(f)
	if err != nil {
		return nil, fmt.Errorf("reading testplan file: %w", err)
	}
	return tp, nil
}

// ReadTestPlan reads a testplan from r.
func ReadTestPlan(r io.Reader) (*TestPlan, error) {
	var tp TestPlan
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		txt := strings.TrimSpace(sc.Text())
		if txt == "" || strings.HasPrefix(txt, "#") {
			continue
		}
		if strings.HasPrefix(txt, "stop") {
			// Superfluous stop at end of file.
			break
		}
		tok := strings.SplitN(txt, ":", 2)
		if len(tok) < 2 {
			return nil, fmt.Errorf("malformed step %q", txt)
		}
		tp.Steps = append(tp.Steps, TestStep{
			Type:     strings.TrimSpace(tok[0]),
			Contents: strings.TrimSpace(tok[1]),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return &tp, nil
}

// Complete reports whether the plan was followed all the way through,
// including receiving DialogueComplete.
func (p *TestPlan) Complete() error {
	if p.Step != len(p.Steps) {
		return fmt.Errorf("on step %d %v", p.Step, p.Steps[p.Step])
	}
	if !p.dialogueCompleted {
		return errors.New("did not receive DialogueComplete")
	}
	return nil
}

func (p *TestPlan) checkLine(line dialogue.Line) error {
	if p.Step >= len(p.Steps) {
		return errors.New("next testplan step after end")
	}
	step := p.Steps[p.Step]
	if step.Type != "line" {
		return fmt.Errorf("testplan got line, want %q", step.Type)
	}
	p.Step++
	text, err := p.StringTable.Render(line)
	if err != nil {
		return err
	}
	if text.String() != step.Contents {
		return fmt.Errorf("testplan got line %q, want %q", text, step.Contents)
	}
	return nil
}

// chooseOption checks every option against the plan, then returns the index
// the plan says to select.
func (p *TestPlan) chooseOption(opts []dialogue.Option) (int, error) {
	for _, opt := range opts {
		if p.Step >= len(p.Steps) {
			return 0, errors.New("next testplan step after end")
		}
		step := p.Steps[p.Step]
		if step.Type != "option" {
			return 0, fmt.Errorf("testplan got option, want %q", step.Type)
		}
		p.Step++
		text, err := p.StringTable.Render(opt.Line)
		if err != nil {
			return 0, err
		}
		if text.String() != step.Contents {
			return 0, fmt.Errorf("testplan got option line %q, want %q", text, step.Contents)
		}
	}
	if p.Step >= len(p.Steps) {
		return 0, errors.New("next testplan step after end")
	}
	step := p.Steps[p.Step]
	if step.Type != "select" {
		return 0, fmt.Errorf("testplan got select, want %q", step.Type)
	}
	p.Step++
	n, err := strconv.Atoi(step.Contents)
	if err != nil {
		return 0, fmt.Errorf("converting testplan step to int: %w", err)
	}
	return n - 1, nil
}

func (p *TestPlan) checkCommand(command string) error {
	if p.Step >= len(p.Steps) {
		return errors.New("next testplan step after end")
	}
	step := p.Steps[p.Step]
	if step.Type != "command" {
		return fmt.Errorf("testplan got command, want %q", step.Type)
	}
	p.Step++
	if command != step.Contents {
		return fmt.Errorf("testplan got command %q, want %q", command, step.Contents)
	}
	return nil
}

// Run drives vm (which must already have SetNode called) to completion,
// checking every line, option menu, and command against the plan in order.
func (p *TestPlan) Run(vm *dialogue.VM) error {
	for {
		reason, err := vm.Continue()
		if err != nil {
			return err
		}
		switch r := reason.(type) {
		case dialogue.LineSuspend:
			if err := p.checkLine(r.Line); err != nil {
				return err
			}
		case dialogue.CommandSuspend:
			if err := p.checkCommand(r.Text); err != nil {
				return err
			}
		case dialogue.OptionsSuspend:
			choice, err := p.chooseOption(r.Options)
			if err != nil {
				return err
			}
			if err := vm.SelectOption(choice); err != nil {
				return err
			}
		case dialogue.NodeChangeSuspend:
			// Nothing to check; the plan doesn't record node transitions.
		case dialogue.DialogueCompleteSuspend:
			p.dialogueCompleted = true
			return nil
		case dialogue.InvalidOptionSuspend:
			return fmt.Errorf("invalid option: %s", r.Name)
		}
	}
}

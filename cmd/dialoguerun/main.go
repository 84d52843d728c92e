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

// The dialoguerun binary runs a compiled dialogue program as a text game on
// the terminal.
//
// Quick usage from the root of the repo:
//
//	go run ./cmd/dialoguerun \
//	    --program=path/to/Example.yarnc \
//	    --lang=en-AU
package main

import (
	"flag"
	"fmt"
	"log"

	dialogue "github.com/dialoguevm/yarnvm"
	"github.com/dialoguevm/yarnvm/linetable"
)

func main() {
	programPath := flag.String("program", "", "Path to the compiled program (e.g. Example.yarnc); *-Lines.csv and *-Metadata.csv must sit alongside it")
	startNode := flag.String("start", "Start", "Name of the node to run")
	langCode := flag.String("lang", "en-AU", "BCP 47 language tag for the string table")
	trace := flag.Bool("trace", false, "Log each instruction as it executes")
	flag.Parse()

	if *programPath == "" {
		log.Fatal("-program is required")
	}

	program, stringTable, err := linetable.LoadProgram(*programPath, *langCode)
	if err != nil {
		log.Fatalf("Couldn't load program: %v", err)
	}

	vm := dialogue.New(program)
	if *trace {
		vm.TraceLogf = log.Printf
	}
	if err := vm.SetNode(*startNode); err != nil {
		log.Fatalf("Couldn't start node %q: %v", *startNode, err)
	}

	for {
		reason, err := vm.Continue()
		if err != nil {
			log.Fatalf("dialogue VM error: %v", err)
		}
		switch r := reason.(type) {
		case dialogue.LineSuspend:
			printLine(stringTable, r.Line)
		case dialogue.CommandSuspend:
			fmt.Printf("<<%s>>\n", r.Text)
		case dialogue.OptionsSuspend:
			choice := promptOptions(stringTable, r.Options)
			if err := vm.SelectOption(choice); err != nil {
				log.Fatalf("SelectOption(%d): %v", choice, err)
			}
		case dialogue.NodeChangeSuspend:
			if *trace {
				log.Printf("node change: %s -> %s", r.End, r.Start)
			}
		case dialogue.DialogueCompleteSuspend:
			fmt.Println("-- dialogue complete --")
			return
		}
	}
}

func printLine(st *linetable.StringTable, line dialogue.Line) {
	text, err := st.Render(line)
	if err != nil {
		log.Fatalf("rendering line %q: %v", line.ID, err)
	}
	fmt.Println(text)
	fmt.Print("(Press ENTER to continue)")
	fmt.Scanln()
	// VT100: move to column 1, go up a line, erase it (clears the prompt).
	fmt.Print("\r\033[A\033[2K")
}

func promptOptions(st *linetable.StringTable, opts []dialogue.Option) int {
	fmt.Println("Choose:")
	for _, opt := range opts {
		text, err := st.Render(opt.Line)
		if err != nil {
			log.Fatalf("rendering option %q: %v", opt.Line.ID, err)
		}
		fmt.Printf("%d: %s\n", opt.Index+1, text)
	}
	for {
		fmt.Print("Enter the number corresponding to your choice: ")
		var choice int
		if _, err := fmt.Scanln(&choice); err != nil {
			continue
		}
		if choice < 1 || choice > len(opts) {
			continue
		}
		return choice - 1
	}
}

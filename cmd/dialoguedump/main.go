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

// The dialoguedump binary prints a compiled dialogue program in a
// pseudo-assembler format, for debugging a compiler or a hand-written
// program container.
//
// Quick usage from the root of the repo:
//
//	go run ./cmd/dialoguedump path/to/Example.yarnc
package main

import (
	"fmt"
	"log"
	"os"

	dialogue "github.com/dialoguevm/yarnvm"
	"github.com/dialoguevm/yarnvm/bytecode"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: dialoguedump PROGRAM_FILE")
		os.Exit(1)
	}
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("Couldn't read program file: %v", err)
	}
	program, err := bytecode.Unmarshal(data)
	if err != nil {
		log.Fatalf("Couldn't decode program: %v", err)
	}
	if err := dialogue.FormatProgram(os.Stdout, program); err != nil {
		log.Fatalf("FormatProgram: %v", err)
	}
}

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

package bytecode

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers, matching the proto3 schema in spec.md §6.
const (
	programFieldNodes         = 1
	programFieldInitialValues = 2

	nodeFieldName               = 1
	nodeFieldInstructions       = 2
	nodeFieldLabels             = 3
	nodeFieldTags               = 4
	nodeFieldSourceTextStringID = 5

	instructionFieldOpcode   = 1
	instructionFieldOperands = 2

	operandFieldStringValue = 1
	operandFieldBoolValue   = 2
	operandFieldFloatValue  = 3

	mapEntryFieldKey   = 1
	mapEntryFieldValue = 2
)

// Unmarshal decodes a Program from its length-prefixed protobuf encoding.
// Binary container decoding is an external collaborator of the VM (spec.md
// §1); this is a minimal decoder against the wire format directly, rather
// than a full generated-descriptor pipeline, since no compiler or
// marshal-side tooling lives in this module.
func Unmarshal(data []byte) (*Program, error) {
	prog := &Program{
		Nodes:         make(map[string]*Node),
		InitialValues: make(map[string]*Operand),
	}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case programFieldNodes:
			entry, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			data = data[n:]
			name, node, err := decodeNodeEntry(entry)
			if err != nil {
				return nil, fmt.Errorf("decoding nodes entry: %w", err)
			}
			prog.Nodes[name] = node
		case programFieldInitialValues:
			entry, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			data = data[n:]
			name, op, err := decodeOperandEntry(entry)
			if err != nil {
				return nil, fmt.Errorf("decoding initial_values entry: %w", err)
			}
			prog.InitialValues[name] = op
		default:
			n, err := skipField(data, typ)
			if err != nil {
				return nil, err
			}
			data = data[n:]
		}
	}
	return prog, nil
}

func decodeNodeEntry(entry []byte) (string, *Node, error) {
	var key string
	var node *Node
	for len(entry) > 0 {
		num, typ, n := protowire.ConsumeTag(entry)
		if n < 0 {
			return "", nil, protowire.ParseError(n)
		}
		entry = entry[n:]
		switch num {
		case mapEntryFieldKey:
			s, n, err := consumeString(entry)
			if err != nil {
				return "", nil, err
			}
			entry = entry[n:]
			key = s
		case mapEntryFieldValue:
			b, n := protowire.ConsumeBytes(entry)
			if n < 0 {
				return "", nil, protowire.ParseError(n)
			}
			entry = entry[n:]
			nd, err := decodeNode(b)
			if err != nil {
				return "", nil, err
			}
			node = nd
		default:
			n, err := skipField(entry, typ)
			if err != nil {
				return "", nil, err
			}
			entry = entry[n:]
		}
	}
	if node == nil {
		node = &Node{Labels: make(map[string]int32)}
	}
	node.Name = key
	return key, node, nil
}

func decodeNode(data []byte) (*Node, error) {
	node := &Node{Labels: make(map[string]int32)}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case nodeFieldName:
			s, n, err := consumeString(data)
			if err != nil {
				return nil, err
			}
			data = data[n:]
			node.Name = s
		case nodeFieldInstructions:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			data = data[n:]
			inst, err := decodeInstruction(b)
			if err != nil {
				return nil, err
			}
			node.Instructions = append(node.Instructions, inst)
		case nodeFieldLabels:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			data = data[n:]
			k, v, err := decodeLabelEntry(b)
			if err != nil {
				return nil, err
			}
			node.Labels[k] = v
		case nodeFieldTags:
			s, n, err := consumeString(data)
			if err != nil {
				return nil, err
			}
			data = data[n:]
			node.Tags = append(node.Tags, s)
		case nodeFieldSourceTextStringID:
			s, n, err := consumeString(data)
			if err != nil {
				return nil, err
			}
			data = data[n:]
			node.SourceTextStringID = s
		default:
			n, err := skipField(data, typ)
			if err != nil {
				return nil, err
			}
			data = data[n:]
		}
	}
	return node, nil
}

func decodeLabelEntry(entry []byte) (string, int32, error) {
	var key string
	var value int32
	for len(entry) > 0 {
		num, typ, n := protowire.ConsumeTag(entry)
		if n < 0 {
			return "", 0, protowire.ParseError(n)
		}
		entry = entry[n:]
		switch num {
		case mapEntryFieldKey:
			s, n, err := consumeString(entry)
			if err != nil {
				return "", 0, err
			}
			entry = entry[n:]
			key = s
		case mapEntryFieldValue:
			v, n := protowire.ConsumeVarint(entry)
			if n < 0 {
				return "", 0, protowire.ParseError(n)
			}
			entry = entry[n:]
			value = int32(v)
		default:
			n, err := skipField(entry, typ)
			if err != nil {
				return "", 0, err
			}
			entry = entry[n:]
		}
	}
	return key, value, nil
}

func decodeInstruction(data []byte) (*Instruction, error) {
	inst := &Instruction{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case instructionFieldOpcode:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			data = data[n:]
			inst.Opcode = OpCode(int32(v))
		case instructionFieldOperands:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			data = data[n:]
			op, err := decodeOperand(b)
			if err != nil {
				return nil, err
			}
			inst.Operands = append(inst.Operands, op)
		default:
			n, err := skipField(data, typ)
			if err != nil {
				return nil, err
			}
			data = data[n:]
		}
	}
	return inst, nil
}

func decodeOperandEntry(entry []byte) (string, *Operand, error) {
	var key string
	var op *Operand
	for len(entry) > 0 {
		num, typ, n := protowire.ConsumeTag(entry)
		if n < 0 {
			return "", nil, protowire.ParseError(n)
		}
		entry = entry[n:]
		switch num {
		case mapEntryFieldKey:
			s, n, err := consumeString(entry)
			if err != nil {
				return "", nil, err
			}
			entry = entry[n:]
			key = s
		case mapEntryFieldValue:
			b, n := protowire.ConsumeBytes(entry)
			if n < 0 {
				return "", nil, protowire.ParseError(n)
			}
			entry = entry[n:]
			o, err := decodeOperand(b)
			if err != nil {
				return "", nil, err
			}
			op = o
		default:
			n, err := skipField(entry, typ)
			if err != nil {
				return "", nil, err
			}
			entry = entry[n:]
		}
	}
	return key, op, nil
}

func decodeOperand(data []byte) (*Operand, error) {
	op := &Operand{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case operandFieldStringValue:
			s, n, err := consumeString(data)
			if err != nil {
				return nil, err
			}
			data = data[n:]
			op.Kind = OperandString
			op.StringValue = s
		case operandFieldBoolValue:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			data = data[n:]
			op.Kind = OperandBool
			op.BoolValue = protowire.DecodeBool(v)
		case operandFieldFloatValue:
			v, n := protowire.ConsumeFixed32(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			data = data[n:]
			op.Kind = OperandFloat
			op.FloatValue = math.Float32frombits(v)
		default:
			n, err := skipField(data, typ)
			if err != nil {
				return nil, err
			}
			data = data[n:]
		}
	}
	return op, nil
}

func consumeString(data []byte) (string, int, error) {
	b, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return "", 0, protowire.ParseError(n)
	}
	return string(b), n, nil
}

func skipField(data []byte, typ protowire.Type) (int, error) {
	n := protowire.ConsumeFieldValue(0, typ, data)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return n, nil
}

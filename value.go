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
	"strconv"
)

// Value is the VM's tagged value: one of string, float32, bool, or nil
// (Null). It is represented as a plain interface{}, matching what goes on
// the stack and in variable storage, rather than a dedicated sum type with a
// discriminant field -- Go's dynamic typing already gives us that for free,
// and the builtin library (funcs.go-derived) and the call protocol
// (Function.Call's []Value arguments) both operate on interface{} directly.
//
// The reference VM's Number is a 32-bit float (spec.md §9); this
// implementation keeps that width rather than widening to float64, so that
// scenario results round to the documented representations.
type Value = interface{}

// ConvertToBool coerces a Value to bool: true for non-empty strings,
// non-zero non-NaN numbers, and the bool true; false for everything else,
// including nil.
func ConvertToBool(x Value) (bool, error) {
	if x == nil {
		return false, nil
	}
	switch t := x.(type) {
	case bool:
		return t, nil
	case float32:
		return t == t && t != 0, nil
	case float64:
		return t == t && t != 0, nil
	case int:
		return t != 0, nil
	case string:
		return t != "", nil
	default:
		return false, fmt.Errorf("%w: cannot convert %T to bool", ErrNotConvertible, x)
	}
}

// ConvertToInt coerces a Value to int. Used by the call protocol to read the
// argument-count sentinel CALL_FUNC expects on top of the stack.
func ConvertToInt(x Value) (int, error) {
	if x == nil {
		return 0, nil
	}
	switch t := x.(type) {
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case float32:
		return int(t), nil
	case float64:
		return int(t), nil
	case int:
		return t, nil
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrNotConvertible, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: cannot convert %T to int", ErrNotConvertible, x)
	}
}

// ConvertToFloat32 coerces a Value to float32.
func ConvertToFloat32(x Value) (float32, error) {
	if x == nil {
		return 0, nil
	}
	switch t := x.(type) {
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case float32:
		return t, nil
	case float64:
		return float32(t), nil
	case int:
		return float32(t), nil
	case string:
		f, err := strconv.ParseFloat(t, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrNotConvertible, err)
		}
		return float32(f), nil
	default:
		return 0, fmt.Errorf("%w: cannot convert %T to float32", ErrNotConvertible, x)
	}
}

// ConvertToFloat64 coerces a Value to float64.
func ConvertToFloat64(x Value) (float64, error) {
	f, err := ConvertToFloat32(x)
	return float64(f), err
}

// ConvertToString coerces a Value to string, in a way that matches what the
// dialogue language's string concatenation operator expects: nil becomes
// "null", and booleans are title-cased ("True"/"False"). spec.md §9 flags a
// known "Frue" typo in one reference implementation path and specifies the
// correct pair; this is that correct pair.
func ConvertToString(x Value) string {
	if x == nil {
		return "null"
	}
	if b, ok := x.(bool); ok {
		if b {
			return "True"
		}
		return "False"
	}
	return fmt.Sprint(x)
}

// compareOrdered reports whether x and y can be compared (same kind, and
// that kind is string or a number), and if so whether x < y and x > y.
// Per spec.md §3, comparisons between other kinds (or mismatched kinds) are
// undefined: neither less nor greater.
func compareOrdered(x, y Value) (less, greater, ok bool) {
	switch xt := x.(type) {
	case string:
		yt, isStr := y.(string)
		if !isStr {
			return false, false, false
		}
		return xt < yt, xt > yt, true
	case float32, float64, int:
		xf, err := ConvertToFloat64(xt)
		if err != nil {
			return false, false, false
		}
		switch y.(type) {
		case float32, float64, int:
			yf, err := ConvertToFloat64(y)
			if err != nil {
				return false, false, false
			}
			return xf < yf, xf > yf, true
		default:
			return false, false, false
		}
	default:
		return false, false, false
	}
}

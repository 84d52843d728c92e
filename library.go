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
	"math"
	"math/big"
	"math/rand"
	"strings"
)

// Arity describes how many arguments a Function accepts. It is a named
// integer type: a non-negative value is a fixed count, and any negative
// value (canonically Variadic, -1) means the function accepts zero or more
// arguments. Fixed and Variadic are the constructors to use; IsVariadic is
// the only test CALL_FUNC applies.
type Arity int

// Variadic marks a Function as accepting any number of arguments.
const Variadic Arity = -1

// Fixed returns an Arity requiring exactly n arguments.
func Fixed(n int) Arity { return Arity(n) }

// IsVariadic reports whether the arity accepts any number of arguments.
func (a Arity) IsVariadic() bool { return a < 0 }

// Function is a callable registered in a Library. Void functions return no
// result; Returning functions produce exactly one Value. Call receives the
// arguments in left-to-right order (the first push is args[0]) and a handle
// to the invoking VM, so built-ins like visited and dice can read VM-owned
// state without circular ownership (spec.md §9).
type Function struct {
	Arity   Arity
	Returns bool
	Call    func(vm *VM, args []Value) (Value, error)
}

// VoidFunc builds a Function that performs a side effect and returns nothing.
func VoidFunc(arity Arity, fn func(vm *VM, args []Value) error) *Function {
	return &Function{
		Arity: arity,
		Call: func(vm *VM, args []Value) (Value, error) {
			return nil, fn(vm, args)
		},
	}
}

// ReturningFunc builds a Function that produces exactly one Value.
func ReturningFunc(arity Arity, fn func(vm *VM, args []Value) (Value, error)) *Function {
	return &Function{
		Arity:   arity,
		Returns: true,
		Call:    fn,
	}
}

// Library maps function names to their implementations. CALL_FUNC looks up
// functions here by name; names and arities are part of the public contract
// because a compiler emits references by name (spec.md §4.7).
type Library map[string]*Function

// merge copies every entry of other into l, overwriting any existing names,
// and returns l. Used to let a host override or extend the built-ins.
func (l Library) merge(other Library) Library {
	for name, fn := range other {
		l[name] = fn
	}
	return l
}

// defaultLibrary returns a fresh Library containing every built-in function
// from spec.md §4.7, except visited/visited_count (which need a *VM handle
// bound at construction time; see New) and the optional RNG functions
// (gated separately, see withRNG and VM.EnableRNG).
func defaultLibrary() Library {
	lib := Library{
		// Arithmetic.
		"Add":      ReturningFunc(Fixed(2), builtinAdd),
		"Minus":    numericBinary(func(x, y float32) float32 { return x - y }),
		"Multiply": numericBinary(func(x, y float32) float32 { return x * y }),
		"Divide":   numericBinary(func(x, y float32) float32 { return x / y }),
		"Modulo":   numericBinary(func(x, y float32) float32 { return float32(math.Mod(float64(x), float64(y))) }),

		// Unary.
		"UnaryMinus": ReturningFunc(Fixed(1), builtinUnaryMinus),

		// Comparison.
		"EqualTo":              ReturningFunc(Fixed(2), builtinEqualTo),
		"NotEqualTo":           ReturningFunc(Fixed(2), builtinNotEqualTo),
		"GreaterThan":          comparisonBinary(func(less, greater bool) bool { return greater }),
		"GreaterThanOrEqualTo": comparisonBinary(func(less, greater bool) bool { return !less }),
		"LessThan":             comparisonBinary(func(less, greater bool) bool { return less }),
		"LessThanOrEqualTo":    comparisonBinary(func(less, greater bool) bool { return !greater }),

		// Logic.
		"And": boolBinary(func(x, y bool) bool { return x && y }),
		"Or":  boolBinary(func(x, y bool) bool { return x || y }),
		"Xor": boolBinary(func(x, y bool) bool { return x != y }),
		"Not": ReturningFunc(Fixed(1), func(vm *VM, args []Value) (Value, error) {
			b, err := ConvertToBool(args[0])
			if err != nil {
				return nil, err
			}
			return !b, nil
		}),

		// Number utility.
		"floor": numericUnary(func(x float32) float32 { return float32(math.Floor(float64(x))) }),
		"ceil":  numericUnary(func(x float32) float32 { return float32(math.Ceil(float64(x))) }),
		"decimal": numericUnary(func(x float32) float32 {
			_, frac := math.Modf(math.Abs(float64(x)))
			return float32(frac)
		}),
		"round": numericUnary(func(x float32) float32 { return float32(math.Round(float64(x))) }),
		"inc":   numericUnary(func(x float32) float32 { return float32(math.Trunc(float64(x)) + 1) }),
		"dec":   numericUnary(func(x float32) float32 { return float32(math.Ceil(float64(x))) - 1 }),
		"round_places": ReturningFunc(Fixed(2), func(vm *VM, args []Value) (Value, error) {
			n, err := ConvertToFloat64(args[0])
			if err != nil {
				return nil, err
			}
			places, err := ConvertToInt(args[1])
			if err != nil {
				return nil, err
			}
			if places < 0 {
				places = 0
			}
			s := new(big.Float).SetFloat64(n).Text('f', places)
			f, _, err := big.ParseFloat(s, 10, 24, big.ToNearestEven)
			if err != nil {
				return nil, err
			}
			result, _ := f.Float32()
			return result, nil
		}),
	}
	return lib
}

// withRNG adds the optional dice/random functions (gated by configuration
// per spec.md §4.7) to lib, backed by rnd.
func withRNG(lib Library, rnd *rand.Rand) Library {
	lib["dice"] = ReturningFunc(Fixed(1), func(vm *VM, args []Value) (Value, error) {
		n, err := ConvertToInt(args[0])
		if err != nil {
			return nil, err
		}
		if n <= 0 {
			return nil, fmt.Errorf("%w: dice(%d) needs a positive side count", ErrNotConvertible, n)
		}
		return float32(rnd.Intn(n) + 1), nil
	})
	lib["random"] = ReturningFunc(Fixed(0), func(vm *VM, args []Value) (Value, error) {
		return rnd.Float32(), nil
	})
	lib["random_range"] = ReturningFunc(Fixed(2), func(vm *VM, args []Value) (Value, error) {
		a, err := ConvertToInt(args[0])
		if err != nil {
			return nil, err
		}
		b, err := ConvertToInt(args[1])
		if err != nil {
			return nil, err
		}
		if b < a {
			a, b = b, a
		}
		return float32(rnd.Intn(b-a+1) + a), nil
	})
	lib["random_test"] = ReturningFunc(Fixed(1), func(vm *VM, args []Value) (Value, error) {
		p, err := ConvertToFloat64(args[0])
		if err != nil {
			return nil, err
		}
		return rnd.Float64() < p, nil
	})
	return lib
}

func numericBinary(fn func(x, y float32) float32) *Function {
	return ReturningFunc(Fixed(2), func(vm *VM, args []Value) (Value, error) {
		x, err := numericOperand(args[0])
		if err != nil {
			return nil, err
		}
		y, err := numericOperand(args[1])
		if err != nil {
			return nil, err
		}
		return fn(x, y), nil
	})
}

func numericUnary(fn func(x float32) float32) *Function {
	return ReturningFunc(Fixed(1), func(vm *VM, args []Value) (Value, error) {
		x, err := ConvertToFloat32(args[0])
		if err != nil {
			return nil, err
		}
		return fn(x), nil
	})
}

func boolBinary(fn func(x, y bool) bool) *Function {
	return ReturningFunc(Fixed(2), func(vm *VM, args []Value) (Value, error) {
		x, err := ConvertToBool(args[0])
		if err != nil {
			return nil, err
		}
		y, err := ConvertToBool(args[1])
		if err != nil {
			return nil, err
		}
		return fn(x, y), nil
	})
}

func comparisonBinary(pick func(less, greater bool) bool) *Function {
	return ReturningFunc(Fixed(2), func(vm *VM, args []Value) (Value, error) {
		less, greater, ok := compareOrdered(args[0], args[1])
		if !ok {
			return nil, fmt.Errorf("%w: %v and %v are not comparable", ErrWrongType, args[0], args[1])
		}
		return pick(less, greater), nil
	})
}

// numericOperand coerces x to float32, treating nil as 0 (per spec.md
// §4.7: "Null coerces to 0"), but rejecting strings and bools so that
// Add (which special-cases strings itself) is the only place
// concatenation happens.
func numericOperand(x Value) (float32, error) {
	if x == nil {
		return 0, nil
	}
	switch x.(type) {
	case float32, float64, int:
		return ConvertToFloat32(x)
	default:
		return 0, fmt.Errorf("%w: %T is not numeric", ErrWrongType, x)
	}
}

func builtinAdd(vm *VM, args []Value) (Value, error) {
	x, y := args[0], args[1]
	if xs, ok := x.(string); ok {
		return xs + ConvertToString(y), nil
	}
	if ys, ok := y.(string); ok {
		return ConvertToString(x) + ys, nil
	}
	if x == nil {
		return numericOperand(y)
	}
	if y == nil {
		return numericOperand(x)
	}
	xf, err := numericOperand(x)
	if err != nil {
		return nil, err
	}
	yf, err := numericOperand(y)
	if err != nil {
		return nil, err
	}
	return xf + yf, nil
}

func builtinUnaryMinus(vm *VM, args []Value) (Value, error) {
	switch x := args[0].(type) {
	case float32:
		return -x, nil
	case float64:
		return float32(-x), nil
	case int:
		return float32(-x), nil
	case nil:
		return float32(math.Copysign(0, -1)), nil
	case string:
		if strings.TrimSpace(x) == "" {
			return float32(math.Copysign(0, -1)), nil
		}
		return float32(math.NaN()), nil
	default:
		return float32(math.NaN()), nil
	}
}

func builtinEqualTo(vm *VM, args []Value) (Value, error) {
	return valuesEqual(args[0], args[1]), nil
}

func builtinNotEqualTo(vm *VM, args []Value) (Value, error) {
	return !valuesEqual(args[0], args[1]), nil
}

func valuesEqual(x, y Value) bool {
	if x == nil || y == nil {
		return x == y
	}
	if less, greater, ok := compareOrdered(x, y); ok {
		return !less && !greater
	}
	if xb, ok := x.(bool); ok {
		yb, ok := y.(bool)
		return ok && xb == yb
	}
	return x == y
}

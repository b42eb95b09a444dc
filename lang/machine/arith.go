package machine

import (
	"math"

	"github.com/corvid-lang/corvid/lang/object"
)

// asFloat coerces an Int or Real value to float64, reporting whether v was
// numeric at all.
func asFloat(v object.Value) (float64, bool) {
	switch n := v.(type) {
	case object.Int:
		return float64(n), true
	case *object.Real:
		return n.Val, true
	default:
		return 0, false
	}
}

func (vm *VM) real(f float64) error {
	r := &object.Real{Val: f}
	vm.alloc(r)
	return vm.push(r)
}

// binaryAdd implements ADD's three overloads: numeric addition (promoting to
// Real on integer overflow), string concatenation, and list concatenation
// (§4.3 "Arithmetic"). Operands are peeked, not popped, until the result is
// computed: the list branch copies elements out of the source lists, and
// those sources must stay rooted (reachable from the operand stack) through
// vm.alloc, a GC safepoint (§4.4 "Safepoints"), or their elements could be
// swept before the new list referencing them is registered.
func (vm *VM) binaryAdd() error {
	b, a := vm.peek(0), vm.peek(1)

	if as, ok := a.(*object.String); ok {
		bs, ok := b.(*object.String)
		if !ok {
			return vm.runtimeErrorf("operands to '+' must both be strings")
		}
		s := vm.internString(as.Val + bs.Val)
		vm.stack = vm.stack[:len(vm.stack)-2]
		return vm.push(s)
	}
	if al, ok := a.(*object.List); ok {
		bl, ok := b.(*object.List)
		if !ok {
			return vm.runtimeErrorf("operands to '+' must both be lists")
		}
		items := make([]object.Value, 0, len(al.Items)+len(bl.Items))
		items = append(items, al.Items...)
		items = append(items, bl.Items...)
		l := &object.List{Items: items}
		vm.alloc(l)
		vm.stack = vm.stack[:len(vm.stack)-2]
		return vm.push(l)
	}

	ai, aIsInt := a.(object.Int)
	bi, bIsInt := b.(object.Int)
	if aIsInt && bIsInt {
		vm.stack = vm.stack[:len(vm.stack)-2]
		if result, ok := addInt64(int64(ai), int64(bi)); ok {
			return vm.push(object.Int(result))
		}
		return vm.real(float64(ai) + float64(bi))
	}

	af, aOk := asFloat(a)
	bf, bOk := asFloat(b)
	if !aOk || !bOk {
		return vm.runtimeErrorf("operands to '+' must be numbers, strings, or lists")
	}
	vm.stack = vm.stack[:len(vm.stack)-2]
	return vm.real(af + bf)
}

// addInt64 reports a+b along with whether it stayed within int64 range,
// using the standard twos-complement overflow test.
func addInt64(a, b int64) (int64, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}

// subInt64/mulInt64 mirror addInt64 for SUB/MUL's overflow-to-Real policy
// (DESIGN.md "Integer overflow in ADD/SUB/MUL").
func subInt64(a, b int64) (int64, bool) {
	diff := a - b
	if (b < 0 && diff < a) || (b > 0 && diff > a) {
		return 0, false
	}
	return diff, true
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	p := a * b
	if p/b != a {
		return 0, false
	}
	return p, true
}

// binaryArith implements SUB/MUL/DIV/MOD, all of which require numeric
// operands (§4.3 "Arithmetic"). Integer overflow on SUB/MUL promotes to
// Real; integer divide-by-zero is a runtime error; real divide-by-zero
// yields the platform's inf/NaN.
func (vm *VM) binaryArith(op byte) error {
	b, a := vm.pop(), vm.pop()

	ai, aIsInt := a.(object.Int)
	bi, bIsInt := b.(object.Int)
	if aIsInt && bIsInt {
		switch op {
		case '-':
			if r, ok := subInt64(int64(ai), int64(bi)); ok {
				return vm.push(object.Int(r))
			}
			return vm.real(float64(ai) - float64(bi))
		case '*':
			if r, ok := mulInt64(int64(ai), int64(bi)); ok {
				return vm.push(object.Int(r))
			}
			return vm.real(float64(ai) * float64(bi))
		case '/':
			if bi == 0 {
				return vm.runtimeErrorf("integer division by zero")
			}
			if int64(ai)%int64(bi) == 0 {
				return vm.push(object.Int(ai / bi))
			}
			return vm.real(float64(ai) / float64(bi))
		case '%':
			if bi == 0 {
				return vm.runtimeErrorf("integer division by zero")
			}
			return vm.push(ai % bi)
		}
	}

	af, aOk := asFloat(a)
	bf, bOk := asFloat(b)
	if !aOk || !bOk {
		return vm.runtimeErrorf("operands to arithmetic operator must be numbers")
	}
	switch op {
	case '-':
		return vm.real(af - bf)
	case '*':
		return vm.real(af * bf)
	case '/':
		return vm.real(af / bf) // bf == 0 yields platform inf/NaN, per spec
	case '%':
		return vm.real(math.Mod(af, bf))
	}
	return vm.runtimeErrorf("unknown arithmetic operator")
}

// binaryLess implements LESS, coercing int<->real but never extending to
// strings (DESIGN.md "Comparison operators and strings").
func (vm *VM) binaryLess() error {
	b, a := vm.pop(), vm.pop()

	ai, aIsInt := a.(object.Int)
	bi, bIsInt := b.(object.Int)
	if aIsInt && bIsInt {
		return vm.push(object.Bool(ai < bi))
	}
	af, aOk := asFloat(a)
	bf, bOk := asFloat(b)
	if !aOk || !bOk {
		return vm.runtimeErrorf("operands to '<' must be numbers")
	}
	return vm.push(object.Bool(af < bf))
}

// unaryNeg implements NEG: numeric negation only.
func (vm *VM) unaryNeg() error {
	v := vm.pop()
	switch n := v.(type) {
	case object.Int:
		if n == math.MinInt64 {
			return vm.real(-float64(n))
		}
		return vm.push(-n)
	case *object.Real:
		return vm.real(-n.Val)
	default:
		return vm.runtimeErrorf("operand to unary '-' must be a number")
	}
}

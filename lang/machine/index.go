package machine

import "github.com/corvid-lang/corvid/lang/object"

// normalizeIndex applies Python-style negative indexing and bounds-checks
// against length, returning an error message prefix suitable for the caller
// to wrap if the result is out of range.
func normalizeIndex(idx, length int) (int, bool) {
	if idx < 0 {
		idx += length
	}
	if idx < 0 || idx >= length {
		return 0, false
	}
	return idx, true
}

// getIndex implements GET_INDEX on lists, strings, and instances (§4.3
// "Indexing").
func (vm *VM) getIndex() error {
	idx, obj := vm.pop(), vm.pop()
	switch o := obj.(type) {
	case *object.List:
		i, ok := idx.(object.Int)
		if !ok {
			return vm.runtimeErrorf("list index must be an integer")
		}
		n, ok := normalizeIndex(int(i), len(o.Items))
		if !ok {
			return vm.runtimeErrorf("list index out of range")
		}
		return vm.push(o.Items[n])
	case *object.String:
		i, ok := idx.(object.Int)
		if !ok {
			return vm.runtimeErrorf("string index must be an integer")
		}
		runes := []rune(o.Val)
		n, ok := normalizeIndex(int(i), len(runes))
		if !ok {
			return vm.runtimeErrorf("string index out of range")
		}
		return vm.push(vm.internString(string(runes[n])))
	case *object.Instance:
		key, ok := fieldKey(idx)
		if !ok {
			return vm.runtimeErrorf("instance index must be a string")
		}
		v, ok := o.Fields.Get(key)
		if !ok {
			return vm.push(object.Nil{})
		}
		return vm.push(v)
	default:
		return vm.runtimeErrorf("cannot index a %s", object.KindName(obj))
	}
}

// setIndex implements SET_INDEX: bounds-checked element replacement on a
// list, or upsert into an instance's field table. Strings are immutable and
// not assignable by index (§4.3 "Indexing" lists string indexing as
// get-only).
func (vm *VM) setIndex() error {
	value, idx, obj := vm.pop(), vm.pop(), vm.pop()
	switch o := obj.(type) {
	case *object.List:
		i, ok := idx.(object.Int)
		if !ok {
			return vm.runtimeErrorf("list index must be an integer")
		}
		n, ok := normalizeIndex(int(i), len(o.Items))
		if !ok {
			return vm.runtimeErrorf("list index out of range")
		}
		o.Items[n] = value
		return vm.push(value)
	case *object.Instance:
		key, ok := fieldKey(idx)
		if !ok {
			return vm.runtimeErrorf("instance index must be a string")
		}
		o.Fields.Put(key, value)
		return vm.push(value)
	default:
		return vm.runtimeErrorf("cannot assign into a %s", object.KindName(obj))
	}
}

// fieldKey extracts the string key used for an instance's field-table index
// (§3 Instance: a swiss-table keyed by string).
func fieldKey(v object.Value) (string, bool) {
	s, ok := v.(*object.String)
	if !ok {
		return "", false
	}
	return s.Val, true
}

// clampSlice normalizes and clamps begin/end against length per §4.3
// "GET_SLICE".
func clampSlice(begin, end, length int) (int, int) {
	if begin < 0 {
		begin += length
	}
	if end < 0 {
		end += length
	}
	if begin < 0 {
		begin = 0
	}
	if begin > length {
		begin = length
	}
	if end < 0 {
		end = 0
	}
	if end > length {
		end = length
	}
	if end < begin {
		end = begin
	}
	return begin, end
}

// getSlice implements GET_SLICE on lists and strings. The operands stay on
// the operand stack (peeked, not popped) through vm.alloc/vm.internString —
// both GC safepoints (§4.4 "Safepoints") — so the source list stays rooted
// long enough to keep its elements alive while the new slice is built; only
// once the result is registered are the three operands dropped.
func (vm *VM) getSlice() error {
	endV := vm.peek(0)
	beginV := vm.peek(1)
	obj := vm.peek(2)

	beginI, ok := beginV.(object.Int)
	if !ok {
		return vm.runtimeErrorf("slice bounds must be integers")
	}
	endI, ok := endV.(object.Int)
	if !ok {
		return vm.runtimeErrorf("slice bounds must be integers")
	}

	var result object.Value
	switch o := obj.(type) {
	case *object.List:
		b, e := clampSlice(int(beginI), int(endI), len(o.Items))
		items := make([]object.Value, e-b)
		copy(items, o.Items[b:e])
		l := &object.List{Items: items}
		vm.alloc(l)
		result = l
	case *object.String:
		runes := []rune(o.Val)
		b, e := clampSlice(int(beginI), int(endI), len(runes))
		result = vm.internString(string(runes[b:e]))
	default:
		return vm.runtimeErrorf("cannot slice a %s", object.KindName(obj))
	}

	vm.stack = vm.stack[:len(vm.stack)-3]
	return vm.push(result)
}

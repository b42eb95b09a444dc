package machine

import (
	"unsafe"

	"github.com/corvid-lang/corvid/lang/object"
)

// addr exposes a Value slot's address for descending-order comparisons. The
// VM's operand stack is preallocated to its full StackMax capacity in New
// and never reallocated, so &vm.stack[i] is stable for the VM's lifetime —
// exactly the "pointer to a Value slot" §3 Upvalue calls for.
func addr(v *object.Value) uintptr { return uintptr(unsafe.Pointer(v)) }

// captureUpvalue returns the open upvalue for stack slot, reusing an
// existing entry if one is already open for it, inserting a new one into the
// descending-slot-order open list otherwise (§4.3 "Upvalues").
func (vm *VM) captureUpvalue(slot int) *object.Upvalue {
	target := &vm.stack[slot]

	var prev *object.Upvalue
	cur := vm.openUpvalues
	for cur != nil && addr(cur.Location) > addr(target) {
		prev = cur
		cur = cur.NextOpen
	}
	if cur != nil && cur.Location == target {
		return cur
	}

	uv := &object.Upvalue{Location: target}
	vm.alloc(uv)
	uv.NextOpen = cur
	if prev == nil {
		vm.openUpvalues = uv
	} else {
		prev.NextOpen = uv
	}
	return uv
}

// closeUpvalues closes every open upvalue whose location is at or beyond
// slot: its current value is copied into its own Closed field and Location
// is redirected there, detaching it from the VM stack (§4.3 "CLOSE_UPVALUE
// ... for every open upvalue whose location >= last").
func (vm *VM) closeUpvalues(slot int) {
	target := &vm.stack[slot]
	for vm.openUpvalues != nil && addr(vm.openUpvalues.Location) >= addr(target) {
		uv := vm.openUpvalues
		uv.Closed = *uv.Location
		uv.Location = &uv.Closed
		vm.openUpvalues = uv.NextOpen
		uv.NextOpen = nil
	}
}

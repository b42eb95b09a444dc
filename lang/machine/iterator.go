package machine

import "github.com/corvid-lang/corvid/lang/object"

// currentIterator peeks the stack top as an *object.Iterator, the shape
// GET_ITVAL/SET_ITVAL/GET_ITKEY all share.
func (vm *VM) currentIterator() (*object.Iterator, error) {
	it, ok := vm.peek(0).(*object.Iterator)
	if !ok {
		return nil, vm.runtimeErrorf("expected an iterator")
	}
	if it.Cursor < 0 || it.Cursor >= len(it.Keys) {
		return nil, vm.runtimeErrorf("iterator is not positioned at a valid entry")
	}
	return it, nil
}

// iterVal implements GET_ITVAL: the value at the iterator's current key in
// the snapshotted instance field table (DESIGN.md "SET_ITVAL during
// concurrent field-table mutation").
func (vm *VM) iterVal() error {
	it, err := vm.currentIterator()
	if err != nil {
		return err
	}
	vm.pop()
	v, ok := it.Inst.Fields.Get(it.Key())
	if !ok {
		return vm.push(object.Nil{})
	}
	return vm.push(v)
}

// iterSetVal implements SET_ITVAL: mutates (or re-inserts, if the field was
// removed since the iterator was created) the value at the current key.
func (vm *VM) iterSetVal() error {
	value := vm.peek(0)
	it, ok := vm.peek(1).(*object.Iterator)
	if !ok {
		return vm.runtimeErrorf("expected an iterator")
	}
	if it.Cursor < 0 || it.Cursor >= len(it.Keys) {
		return vm.runtimeErrorf("iterator is not positioned at a valid entry")
	}
	it.Inst.Fields.Put(it.Key(), value)
	vm.pop()
	vm.pop()
	return vm.push(value)
}

// iterKey implements GET_ITKEY: the current key as an interned string.
func (vm *VM) iterKey() error {
	it, err := vm.currentIterator()
	if err != nil {
		return err
	}
	vm.pop()
	return vm.push(vm.internString(it.Key()))
}

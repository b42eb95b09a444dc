package natives

import (
	"fmt"

	"github.com/corvid-lang/corvid/lang/object"
)

// registerCollections installs the list- and instance-oriented natives:
// push/pop for lists, and keys/iterate for instances (the "native factory"
// §4.3 "Iterators" defers to this package).
func registerCollections(env Env, def func(name, sig string, fn object.NativeFn)) {
	def("push", "LA", pushFn)
	def("pop", "L", popFn)
	def("keys", "I", keysFn(env))
	def("iterate", "I", iterateFn(env))
	def("advance", "A", advanceFn)
}

// pushFn appends its second argument to the list in place, returning nil.
func pushFn(args []object.Value) (object.Value, error) {
	l := args[0].(*object.List)
	l.Items = append(l.Items, args[1])
	return object.Nil{}, nil
}

// popFn removes and returns the list's last element, erroring on an empty
// list.
func popFn(args []object.Value) (object.Value, error) {
	l := args[0].(*object.List)
	if len(l.Items) == 0 {
		return nil, fmt.Errorf("cannot pop from an empty list")
	}
	last := l.Items[len(l.Items)-1]
	l.Items = l.Items[:len(l.Items)-1]
	return last, nil
}

// keysFn returns an instance's field names as a new list of interned
// strings, in the iteration order captured at the time of the call.
func keysFn(env Env) object.NativeFn {
	return func(args []object.Value) (object.Value, error) {
		inst := args[0].(*object.Instance)
		items := make([]object.Value, 0, inst.Fields.Len())
		inst.Fields.ForEach(func(k string, _ object.Value) bool {
			items = append(items, env.Intern(k))
			return true
		})
		l := &object.List{Items: items}
		env.Alloc(l)
		return l, nil
	}
}

// advanceFn advances an iterator and reports whether it now sits on a valid
// entry; the signature mini-language has no letter for Iterator, so the
// type check happens here instead of via checkSignature.
func advanceFn(args []object.Value) (object.Value, error) {
	it, ok := args[0].(*object.Iterator)
	if !ok {
		return nil, fmt.Errorf("expected an iterator")
	}
	return object.Bool(it.Next()), nil
}

// iterateFn opens an Iterator over an instance's field table, snapshotting
// its keys at creation time (DESIGN.md "SET_ITVAL during concurrent
// field-table mutation").
func iterateFn(env Env) object.NativeFn {
	return func(args []object.Value) (object.Value, error) {
		inst := args[0].(*object.Instance)
		keys := make([]string, 0, inst.Fields.Len())
		inst.Fields.ForEach(func(k string, _ object.Value) bool {
			keys = append(keys, k)
			return true
		})
		it := &object.Iterator{Inst: inst, Keys: keys, Cursor: -1}
		env.Alloc(it)
		return it, nil
	}
}

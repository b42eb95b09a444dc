// Package natives implements the built-in functions the Language exposes as
// Native values in the VM's globals table (§6 "Native signature
// mini-language"; §4.3 "Iterators... opened via a native factory (not
// specified here)").
package natives

import (
	"fmt"
	"strconv"
	"time"

	"github.com/corvid-lang/corvid/lang/object"
)

// Env supplies the heap operations a native needs to allocate or intern
// values: the caller (lang/machine) owns the heap and its GC roots, so
// natives never touch *gc.Heap directly.
type Env struct {
	Alloc  func(object.Object) object.Object
	Intern func(string) *object.String
}

// Register installs every built-in native function into globals.
func Register(env Env, globals *object.Table[object.Value]) {
	def := func(name, sig string, fn object.NativeFn) {
		n := &object.Native{Name: name, Signature: sig, Fn: fn}
		env.Alloc(n)
		globals.Put(name, n)
	}

	def("clock", "", clockFn(env))
	def("length", "Q", lengthFn)
	def("type", "A", typeFn(env))
	def("str", "A", strFn(env))
	def("num", "S", numFn(env))

	registerCollections(env, def)
}

// clockFn returns the elapsed process time in seconds as a Real, the
// traditional clox "clock" native.
var processStart = time.Now()

func clockFn(env Env) object.NativeFn {
	return func(args []object.Value) (object.Value, error) {
		r := &object.Real{Val: time.Since(processStart).Seconds()}
		env.Alloc(r)
		return r, nil
	}
}

// lengthFn returns a string's rune count or a list's element count.
func lengthFn(args []object.Value) (object.Value, error) {
	switch v := args[0].(type) {
	case *object.String:
		return object.Int(len([]rune(v.Val))), nil
	case *object.List:
		return object.Int(len(v.Items)), nil
	default:
		return nil, fmt.Errorf("expected a string or list")
	}
}

// typeFn returns the dynamic type name of its argument as an interned
// string.
func typeFn(env Env) object.NativeFn {
	return func(args []object.Value) (object.Value, error) {
		return env.Intern(object.KindName(args[0])), nil
	}
}

// strFn renders its argument the way PRINT would, as a string.
func strFn(env Env) object.NativeFn {
	return func(args []object.Value) (object.Value, error) {
		return env.Intern(args[0].String()), nil
	}
}

// numFn parses a string as an int (preferred) or real, reporting a runtime
// error on malformed input.
func numFn(env Env) object.NativeFn {
	return func(args []object.Value) (object.Value, error) {
		s := args[0].(*object.String).Val
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return object.Int(i), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", s)
		}
		r := &object.Real{Val: f}
		env.Alloc(r)
		return r, nil
	}
}

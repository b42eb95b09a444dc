// Package object defines the Language's Value and Object model: the tagged
// immediate values (nil, bool, int) and the heap object variants (string,
// real, list, function, closure, upvalue, class, instance, bound method,
// iterator, native, dynvar) that make up every runtime datum. It has no
// dependency on the compiler or the virtual machine; they build on top of
// it.
package object

import "fmt"

// Value is any datum the Language's virtual machine can hold: Nil, Bool,
// Int, or an Object. It is implemented as a small closed set of Go types
// rather than a tagged struct, matching the "closed enumeration of kinds"
// design called for by the data model: the compiler only ever needs a type
// switch, never a virtual dispatch table, to tell variants apart.
type Value interface {
	isValue()
	// String renders the value the way PRINT would (no quoting of strings).
	String() string
}

// Nil is the Language's nil value. The zero value of Nil is the only valid
// instance.
type Nil struct{}

func (Nil) isValue()        {}
func (Nil) String() string  { return "nil" }

// Bool is the Language's boolean value.
type Bool bool

func (Bool) isValue() {}
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Int is the Language's integer value, at least 31 bits wide; Go's int64
// gives ample headroom while keeping arithmetic branch-free.
type Int int64

func (Int) isValue()          {}
func (i Int) String() string  { return fmt.Sprintf("%d", int64(i)) }

// Empty is a sentinel Value distinct from Nil, which is a valid user-visible
// value. Table is backed by swiss.Map and has no empty-slot sentinel, so
// nothing in this module creates an Empty; it is never observable from the
// Language itself.
type Empty struct{}

func (Empty) isValue()       {}
func (Empty) String() string { return "<empty>" }

// Truthy implements the Language's truthiness rule: false and nil are
// falsy, every other value — including 0, "", and [] — is truthy.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case Nil:
		return false
	case Bool:
		return bool(v)
	default:
		return true
	}
}

// Equal implements the Language's equality operator. Strings compare by
// intern identity (pointer equality, since all live strings are interned),
// reals by numeric value, int/bool/nil by plain equality. Cross-type
// comparisons (including Int vs Real) are always false.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case *String:
		bv, ok := b.(*String)
		return ok && av == bv // interned: pointer identity
	case *Real:
		bv, ok := b.(*Real)
		return ok && av.Val == bv.Val
	default:
		return a == b
	}
}

// KindName returns a human-readable name for the dynamic type of v, used in
// error messages and by the reflective native signature checker.
func KindName(v Value) string {
	switch v.(type) {
	case Nil:
		return "nil"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case *Real:
		return "real"
	case *String:
		return "string"
	case *List:
		return "list"
	case *Function:
		return "function"
	case *Closure:
		return "closure"
	case *Class:
		return "class"
	case *Instance:
		return "instance"
	case *BoundMethod:
		return "bound method"
	case *Iterator:
		return "iterator"
	case *Native:
		return "native"
	case *Dynvar:
		return "dynvar"
	default:
		return fmt.Sprintf("%T", v)
	}
}

package object

import "fmt"

// Header is the common GC bookkeeping embedded in every heap object: a
// forward link threading all live objects into one global list (so the
// sweep phase can walk them without a separate registry) and a mark bit.
type Header struct {
	Next   Object
	Marked bool
}

// GCHeader returns the object's embedded Header, letting the collector walk
// and mark it without knowing the concrete variant.
func (h *Header) GCHeader() *Header { return h }

// Object is any heap-allocated Value: it carries a Header for the garbage
// collector in addition to being a plain Value.
type Object interface {
	Value
	GCHeader() *Header
}

// String is an immutable, interned, UTF-8 string.
type String struct {
	Header
	Val  string
	Hash uint32
}

func (*String) isValue()         {}
func (s *String) String() string { return s.Val }

// HashString computes the hash used for interning and map keys (FNV-1a,
// matching the 32-bit hash conventionally used by clox-derived VMs).
func HashString(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// Real is a heap-boxed floating point number; the Language's only numeric
// type besides Int.
type Real struct {
	Header
	Val float64
}

func (*Real) isValue()         {}
func (r *Real) String() string { return fmt.Sprintf("%g", r.Val) }

// List is a growable array of Values.
type List struct {
	Header
	Items []Value
}

func (*List) isValue() {}
func (l *List) String() string {
	s := "["
	for i, v := range l.Items {
		if i > 0 {
			s += ", "
		}
		s += printElem(v)
	}
	return s + "]"
}

func printElem(v Value) string {
	if s, ok := v.(*String); ok {
		return fmt.Sprintf("%q", s.Val)
	}
	return v.String()
}

// FuncKind distinguishes the shapes a compiled Function can take, each with
// slightly different call/return conventions.
type FuncKind uint8

const (
	FuncScript FuncKind = iota
	FuncPlain
	FuncLambda
	FuncMethod
	FuncInitializer
)

// Function is a compiled, not-yet-closed-over function: its arity, upvalue
// layout and chunk, but no captured environment (that's what Closure adds).
type Function struct {
	Header
	Name        string
	Arity       int
	Variadic    bool
	UpvalueCnt  int
	Kind        FuncKind
	Chunk       *Chunk
}

func (*Function) isValue() {}
func (f *Function) String() string {
	if f.Name == "" {
		return "<script>"
	}
	return fmt.Sprintf("<fun %s>", f.Name)
}

// Upvalue is a reified reference to a captured local: open while its stack
// slot is live (Location points into the VM's operand stack), closed once
// copied into its own Closed field.
type Upvalue struct {
	Header
	Location *Value // points into the VM stack while open, or at &Closed once closed
	Closed   Value
	NextOpen *Upvalue // next entry in the VM's open-upvalue list
}

func (*Upvalue) isValue()         {}
func (u *Upvalue) String() string { return "<upvalue>" }

// Closure pairs a Function with its captured upvalues.
type Closure struct {
	Header
	Fn       *Function
	Upvalues []*Upvalue
}

func (*Closure) isValue() {}
func (c *Closure) String() string {
	if c.Fn.Name == "" {
		return "<script>"
	}
	return fmt.Sprintf("<fun %s>", c.Fn.Name)
}

// Class is a single-inheritance class: a name and a method table mapping
// method name to Closure, backed by a swiss-table Table the way the VM's
// globals table is (§3 Class, §4.3).
type Class struct {
	Header
	Name    string
	Methods *Table[*Closure]
}

func (*Class) isValue()         {}
func (c *Class) String() string { return fmt.Sprintf("<class %s>", c.Name) }

// NewClass allocates a Class with an empty method table.
func NewClass(name string) *Class {
	return &Class{Name: name, Methods: NewTable[*Closure](8)}
}

// Instance is an object of a Class with its own field table, backed by a
// swiss-table Table.
type Instance struct {
	Header
	Class  *Class
	Fields *Table[Value]
}

func (*Instance) isValue()         {}
func (i *Instance) String() string { return fmt.Sprintf("<%s instance>", i.Class.Name) }

// NewInstance allocates an Instance of cls with an empty field table.
func NewInstance(cls *Class) *Instance {
	return &Instance{Class: cls, Fields: NewTable[Value](8)}
}

// BoundMethod pairs a receiver with one of its class's closures, produced by
// property access of a method name.
type BoundMethod struct {
	Header
	Receiver Value
	Method   *Closure
}

func (*BoundMethod) isValue() {}
func (b *BoundMethod) String() string {
	if b.Method.Fn.Name == "" {
		return "<script>"
	}
	return fmt.Sprintf("<fun %s>", b.Method.Fn.Name)
}

// Iterator walks an Instance's field table in an unspecified but stable
// order, positioned by Cursor (-1 = before first entry).
type Iterator struct {
	Header
	Inst   *Instance // the instance whose Fields are read and written through Keys
	Keys   []string  // snapshot of the field table's keys at creation time
	Cursor int
}

func (*Iterator) isValue()         {}
func (*Iterator) String() string   { return "<iterator>" }

// Next advances the cursor and reports whether a new current entry exists.
func (it *Iterator) Next() bool {
	it.Cursor++
	return it.Cursor < len(it.Keys)
}

// Key returns the current entry's key, valid only when Next last returned
// true.
func (it *Iterator) Key() string { return it.Keys[it.Cursor] }

// NativeFn is the Go implementation behind a Native value. It receives the
// arguments (already arity/type-checked against Signature) and returns a
// result or an error that becomes a runtime error.
type NativeFn func(args []Value) (Value, error)

// Native is a built-in function implemented in Go, exposed to the Language
// under Name with parameter types described by Signature (see the native
// signature mini-language).
type Native struct {
	Header
	Name      string
	Signature string
	Fn        NativeFn
}

func (*Native) isValue()         {}
func (n *Native) String() string { return fmt.Sprintf("<native %s>", n.Name) }

// Dynvar records a dynamic-scoping binding in flight: the variable name and
// the value the global table held (if any) before CALL_BIND overwrote it, so
// it can be restored.
type Dynvar struct {
	Header
	Name     string
	Prev     Value
	WasBound bool
}

func (*Dynvar) isValue()         {}
func (*Dynvar) String() string   { return "<dynvar>" }

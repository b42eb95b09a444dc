// Package machine implements the Language's stack-based virtual machine: the
// value/call-frame state, the dispatch loop, closure capture and upvalue
// lifecycle, method binding, indexing/slicing, and the variadic-call and
// dynvar/handle opcode semantics built on top of lang/object and lang/gc.
package machine

import (
	"context"
	"fmt"
	"io"

	"github.com/corvid-lang/corvid/lang/compiler"
	"github.com/corvid-lang/corvid/lang/gc"
	"github.com/corvid-lang/corvid/lang/object"
)

// frame is one call frame: the executing closure, its instruction pointer,
// and the operand-stack index of its first slot (slot 0 is the
// receiver/callee, matching the compiler's reserved local 0).
type frame struct {
	closure *object.Closure
	ip      int
	base    int
}

// VM is one instance of the virtual machine: operand stack, frame array,
// open-upvalue list, globals table, and the heap it allocates through. It is
// exclusively owned by a single goroutine (§5 "no locking is required or
// permitted").
type VM struct {
	ctx context.Context
	cfg Config

	heap *gc.Heap

	stdout io.Writer
	stderr io.Writer

	stack  []object.Value
	frames []frame

	openUpvalues *object.Upvalue // head of the descending-slot-order open list

	argMarks []int // runtime arg-count sentinels, one per in-flight argument/list-literal being built (§4.2 "UNPACK... updates arg-count sentinel")

	Globals    *object.Table[object.Value]
	initString *object.String

	hadStackOverflow bool
}

// New creates a VM backed by heap, governed by cfg, writing PRINT/PRINTLN
// output to stdout and trace/diagnostic output to stderr. ctx is polled at
// every dispatch tick (§4.3 "interrupted"); cancelling it aborts execution
// with a RuntimeError the next tick sees.
func New(ctx context.Context, heap *gc.Heap, cfg Config, stdout, stderr io.Writer) *VM {
	if ctx == nil {
		ctx = context.Background()
	}
	vm := &VM{
		ctx:     ctx,
		cfg:     cfg,
		heap:    heap,
		stdout:  stdout,
		stderr:  stderr,
		// Preallocated to its full capacity and never regrown: open upvalues
		// hold raw *Value pointers into this array (see captureUpvalue), and
		// those must stay valid for as long as they're reachable, which a
		// reallocating append would break.
		stack:   make([]object.Value, 0, cfg.StackMax),
		Globals: object.NewTable[object.Value](64),
	}
	vm.initString = heap.InternString("init", vm.GCRoots)
	return vm
}

// GCRoots implements gc.RootWalker for this VM: the operand stack, every
// frame's closure, the open-upvalue list, the globals table, and
// initString (§4.4 "Mark").
func (vm *VM) GCRoots(push func(object.Value)) {
	for _, v := range vm.stack {
		push(v)
	}
	for _, fr := range vm.frames {
		push(fr.closure)
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.NextOpen {
		push(uv)
	}
	vm.Globals.ForEach(func(_ string, v object.Value) bool {
		push(v)
		return true
	})
	push(vm.initString)
}

func (vm *VM) alloc(o object.Object) object.Object { return vm.heap.Alloc(o, vm.GCRoots) }

func (vm *VM) internString(s string) *object.String { return vm.heap.InternString(s, vm.GCRoots) }

// Alloc and InternString expose the VM's heap operations to callers wiring
// up native functions (lang/natives' Env), so a native's allocations are
// registered with the same collector and root set as everything else.
func (vm *VM) Alloc(o object.Object) object.Object { return vm.alloc(o) }

func (vm *VM) InternString(s string) *object.String { return vm.internString(s) }

func (vm *VM) push(v object.Value) error {
	if len(vm.stack) >= vm.cfg.StackMax {
		vm.hadStackOverflow = true
		return vm.runtimeErrorf("stack overflow")
	}
	vm.stack = append(vm.stack, v)
	return nil
}

func (vm *VM) pop() object.Value {
	n := len(vm.stack) - 1
	v := vm.stack[n]
	vm.stack = vm.stack[:n]
	return v
}

func (vm *VM) peek(distance int) object.Value {
	return vm.stack[len(vm.stack)-1-distance]
}

// runtimeErrorf builds a *RuntimeError carrying the current call stack's
// trace, innermost frame first (§7).
func (vm *VM) runtimeErrorf(format string, args ...any) error {
	err := &RuntimeError{Msg: fmt.Sprintf(format, args...)}
	for i := len(vm.frames) - 1; i >= 0; i-- {
		fr := &vm.frames[i]
		fn := fr.closure.Fn
		line := 0
		if fn.Chunk != nil {
			line = fn.Chunk.GetLine(fr.ip)
		}
		name := fn.Name
		if name == "" {
			name = "script"
		} else {
			name += "()"
		}
		err.Trace = append(err.Trace, TraceLine{Line: line, Func: name})
	}
	return err
}

// Interpret runs a freshly compiled top-level script Function to completion.
// A gray-stack overflow deep in the collector (gc.FatalError) is the one
// condition §4.4 calls fatal rather than an ordinary RuntimeError; Interpret
// recovers the panic and reports it as *FatalError so the driver can exit
// the process instead of continuing the REPL (§7 "Recoverable vs fatal").
func (vm *VM) Interpret(fn *object.Function) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if fe, ok := r.(*gc.FatalError); ok {
				err = &FatalError{Msg: fe.Error()}
				return
			}
			panic(r)
		}
	}()

	cl := &object.Closure{Fn: fn}
	vm.alloc(cl)
	if err := vm.push(cl); err != nil {
		return err
	}
	if err := vm.callValue(cl, 0); err != nil {
		return err
	}
	_, err = vm.runLoop(0)
	return err
}

// runLoop drives dispatch until the frame stack depth returns to stopDepth
// (inclusive exit), returning the value the completed call left behind, or
// an error. stopDepth == 0 is the top-level Interpret call: the script frame
// drops its receiver slot and leaves nothing to return. stopDepth > 0 is the
// nested-call convention CALL_HAND/CALL_BIND use to run one thunk closure to
// completion without recursing into a second dispatch implementation.
func (vm *VM) runLoop(stopDepth int) (object.Value, error) {
	for len(vm.frames) > stopDepth {
		select {
		case <-vm.ctx.Done():
			return nil, vm.runtimeErrorf("Interrupted.")
		default:
		}
		if vm.hadStackOverflow {
			return nil, vm.runtimeErrorf("stack overflow")
		}
		if err := vm.step(); err != nil {
			return nil, err
		}
	}
	if stopDepth == 0 {
		return object.Nil{}, nil
	}
	return vm.pop(), nil
}

// --- fetch helpers ---

func (vm *VM) curFrame() *frame { return &vm.frames[len(vm.frames)-1] }

func (vm *VM) readByte() byte {
	fr := vm.curFrame()
	b := fr.closure.Fn.Chunk.Code[fr.ip]
	fr.ip++
	return b
}

func (vm *VM) readU16() uint16 {
	hi := vm.readByte()
	lo := vm.readByte()
	return uint16(hi)<<8 | uint16(lo)
}

func (vm *VM) readConstant() object.Value {
	idx := vm.readByte()
	return vm.curFrame().closure.Fn.Chunk.Constants[idx]
}

func (vm *VM) readString() *object.String {
	s, _ := vm.readConstant().(*object.String)
	return s
}

// step executes exactly one bytecode instruction in the current frame.
func (vm *VM) step() error { //nolint:gocyclo
	fr := vm.curFrame()
	if vm.cfg.Trace {
		vm.traceInstruction(fr)
	}
	op := compiler.Opcode(vm.readByte())
	switch op {
	case compiler.OP_CONSTANT:
		return vm.push(vm.readConstant())
	case compiler.OP_NIL:
		return vm.push(object.Nil{})
	case compiler.OP_TRUE:
		return vm.push(object.Bool(true))
	case compiler.OP_FALSE:
		return vm.push(object.Bool(false))
	case compiler.OP_ZERO:
		return vm.push(object.Int(0))
	case compiler.OP_INT:
		return vm.push(object.Int(vm.readByte()))

	case compiler.OP_POP:
		vm.pop()
		return nil
	case compiler.OP_SWAP:
		n := len(vm.stack)
		vm.stack[n-1], vm.stack[n-2] = vm.stack[n-2], vm.stack[n-1]
		return nil
	case compiler.OP_DUP:
		return vm.push(vm.peek(0))

	case compiler.OP_GET_LOCAL:
		idx := int(vm.readByte())
		return vm.push(vm.stack[fr.base+idx])
	case compiler.OP_SET_LOCAL:
		idx := int(vm.readByte())
		vm.stack[fr.base+idx] = vm.peek(0)
		return nil

	case compiler.OP_GET_GLOBAL:
		name := vm.readString()
		v, ok := vm.Globals.Get(name.Val)
		if !ok {
			return vm.runtimeErrorf("undefined variable '%s'", name.Val)
		}
		return vm.push(v)
	case compiler.OP_DEF_GLOBAL:
		name := vm.readString()
		vm.Globals.Put(name.Val, vm.peek(0))
		vm.pop()
		return nil
	case compiler.OP_SET_GLOBAL:
		name := vm.readString()
		if !vm.Globals.Has(name.Val) {
			return vm.runtimeErrorf("undefined variable '%s'", name.Val)
		}
		vm.Globals.Put(name.Val, vm.peek(0))
		return nil

	case compiler.OP_GET_UPVALUE:
		idx := int(vm.readByte())
		uv := fr.closure.Upvalues[idx]
		return vm.push(*uv.Location)
	case compiler.OP_SET_UPVALUE:
		idx := int(vm.readByte())
		uv := fr.closure.Upvalues[idx]
		*uv.Location = vm.peek(0)
		return nil
	case compiler.OP_CLOSE_UPVALUE:
		vm.closeUpvalues(len(vm.stack) - 1)
		vm.pop()
		return nil

	case compiler.OP_GET_PROPERTY:
		return vm.getProperty(vm.readString())
	case compiler.OP_SET_PROPERTY:
		return vm.setProperty(vm.readString())
	case compiler.OP_GET_SUPER:
		name := vm.readString()
		super, _ := vm.pop().(*object.Class)
		inst := vm.pop()
		return vm.bindMethod(super, name.Val, inst)

	case compiler.OP_EQUAL:
		b, a := vm.pop(), vm.pop()
		return vm.push(object.Bool(object.Equal(a, b)))
	case compiler.OP_LESS:
		return vm.binaryLess()
	case compiler.OP_ADD:
		return vm.binaryAdd()
	case compiler.OP_SUB:
		return vm.binaryArith('-')
	case compiler.OP_MUL:
		return vm.binaryArith('*')
	case compiler.OP_DIV:
		return vm.binaryArith('/')
	case compiler.OP_MOD:
		return vm.binaryArith('%')
	case compiler.OP_NOT:
		return vm.push(object.Bool(!object.Truthy(vm.pop())))
	case compiler.OP_NEG:
		return vm.unaryNeg()

	case compiler.OP_PRINT:
		fmt.Fprint(vm.stdout, displayString(vm.pop()))
		return nil
	case compiler.OP_PRINTLN:
		fmt.Fprintln(vm.stdout, displayString(vm.pop()))
		return nil
	case compiler.OP_PRINTQ:
		v := vm.pop()
		if _, isNil := v.(object.Nil); !isNil {
			fmt.Fprintln(vm.stdout, displayString(v))
		}
		return nil

	case compiler.OP_JUMP:
		off := vm.readU16()
		fr.ip += int(off)
		return nil
	case compiler.OP_JUMP_OR:
		off := vm.readU16()
		if object.Truthy(vm.peek(0)) {
			fr.ip += int(off)
		} else {
			vm.pop()
		}
		return nil
	case compiler.OP_JUMP_AND:
		off := vm.readU16()
		if !object.Truthy(vm.peek(0)) {
			fr.ip += int(off)
		} else {
			vm.pop()
		}
		return nil
	case compiler.OP_JUMP_TRUE:
		off := vm.readU16()
		if object.Truthy(vm.pop()) {
			fr.ip += int(off)
		}
		return nil
	case compiler.OP_JUMP_FALSE:
		off := vm.readU16()
		if !object.Truthy(vm.pop()) {
			fr.ip += int(off)
		}
		return nil
	case compiler.OP_LOOP:
		off := vm.readU16()
		fr.ip -= int(off)
		return nil

	case compiler.OP_ARGMARK:
		vm.argMarks = append(vm.argMarks, 0)
		return nil
	case compiler.OP_UNPACK:
		return vm.unpack()

	case compiler.OP_CALL:
		argCount := int(vm.readByte()) + vm.popArgMark()
		callee := vm.peek(argCount)
		return vm.callValue(callee, argCount)
	case compiler.OP_CALL0:
		argCount := vm.popArgMark()
		return vm.callValue(vm.peek(argCount), argCount)
	case compiler.OP_CALL1:
		argCount := 1 + vm.popArgMark()
		return vm.callValue(vm.peek(argCount), argCount)
	case compiler.OP_CALL2:
		argCount := 2 + vm.popArgMark()
		return vm.callValue(vm.peek(argCount), argCount)
	case compiler.OP_VCALL:
		argCount := int(vm.readByte()) + vm.popArgMark()
		return vm.callValue(vm.peek(argCount), argCount)

	case compiler.OP_INVOKE:
		name := vm.readString()
		argCount := int(vm.readByte()) + vm.popArgMark()
		return vm.invoke(name.Val, argCount)
	case compiler.OP_VINVOKE:
		name := vm.readString()
		argCount := int(vm.readByte()) + vm.popArgMark()
		return vm.invoke(name.Val, argCount)
	case compiler.OP_SUPER_INVOKE:
		name := vm.readString()
		argCount := int(vm.readByte()) + vm.popArgMark()
		super, _ := vm.pop().(*object.Class)
		return vm.invokeFromClass(super, name.Val, argCount)
	case compiler.OP_VSUPER_INVOKE:
		name := vm.readString()
		argCount := int(vm.readByte()) + vm.popArgMark()
		super, _ := vm.pop().(*object.Class)
		return vm.invokeFromClass(super, name.Val, argCount)

	case compiler.OP_CLOSURE:
		return vm.closeOverFunction()
	case compiler.OP_RETURN:
		return vm.doReturn()
	case compiler.OP_RETURN_NIL:
		if err := vm.push(object.Nil{}); err != nil {
			return err
		}
		return vm.doReturn()

	case compiler.OP_CLASS:
		name := vm.readString()
		cls := object.NewClass(name.Val)
		vm.alloc(cls)
		return vm.push(cls)
	case compiler.OP_INHERIT:
		super, ok := vm.peek(1).(*object.Class)
		if !ok {
			return vm.runtimeErrorf("superclass must be a class")
		}
		sub := vm.peek(0).(*object.Class)
		super.Methods.ForEach(func(k string, m *object.Closure) bool {
			sub.Methods.Put(k, m)
			return true
		})
		vm.pop() // subclass popped, superclass stays as the "super" local
		return nil
	case compiler.OP_METHOD:
		name := vm.readString()
		m, _ := vm.pop().(*object.Closure)
		cls := vm.peek(0).(*object.Class)
		cls.Methods.Put(name.Val, m)
		return nil

	case compiler.OP_LIST:
		count := int(vm.readByte()) + vm.popArgMark()
		return vm.makeList(count)
	case compiler.OP_VLIST:
		count := int(vm.readByte()) + vm.popArgMark()
		return vm.makeList(count)
	case compiler.OP_GET_INDEX:
		return vm.getIndex()
	case compiler.OP_SET_INDEX:
		return vm.setIndex()
	case compiler.OP_GET_SLICE:
		return vm.getSlice()

	case compiler.OP_GET_ITVAL:
		return vm.iterVal()
	case compiler.OP_SET_ITVAL:
		return vm.iterSetVal()
	case compiler.OP_GET_ITKEY:
		return vm.iterKey()

	case compiler.OP_CALL_HAND:
		return vm.callHand()
	case compiler.OP_CALL_BIND:
		name := vm.readString()
		return vm.callBind(name.Val)

	default:
		return vm.runtimeErrorf("unknown opcode %d", op)
	}
}

func (vm *VM) popArgMark() int {
	n := len(vm.argMarks) - 1
	v := vm.argMarks[n]
	vm.argMarks = vm.argMarks[:n]
	return v
}

func (vm *VM) makeList(count int) error {
	// Elements stay on the operand stack (and therefore rooted) through
	// vm.alloc, which may itself trigger a collection (§4.4 "Safepoints");
	// only after the List is registered do we pop them off.
	items := make([]object.Value, count)
	copy(items, vm.stack[len(vm.stack)-count:])
	l := &object.List{Items: items}
	vm.alloc(l)
	vm.stack = vm.stack[:len(vm.stack)-count]
	return vm.push(l)
}

func (vm *VM) unpack() error {
	v := vm.pop()
	list, ok := v.(*object.List)
	if !ok {
		return vm.runtimeErrorf("can only unpack a list with '..'")
	}
	for _, item := range list.Items {
		if err := vm.push(item); err != nil {
			return err
		}
	}
	if len(vm.argMarks) > 0 {
		vm.argMarks[len(vm.argMarks)-1] += len(list.Items)
	}
	return nil
}

func (vm *VM) closeOverFunction() error {
	fnVal := vm.readConstant()
	fn, _ := fnVal.(*object.Function)
	cl := &object.Closure{Fn: fn, Upvalues: make([]*object.Upvalue, fn.UpvalueCnt)}
	fr := vm.curFrame()
	for i := 0; i < fn.UpvalueCnt; i++ {
		b := vm.readByte()
		isLocal := b&0x80 != 0
		idx := int(b &^ 0x80)
		if isLocal {
			cl.Upvalues[i] = vm.captureUpvalue(fr.base + idx)
		} else {
			cl.Upvalues[i] = fr.closure.Upvalues[idx]
		}
	}
	vm.alloc(cl)
	return vm.push(cl)
}

func (vm *VM) doReturn() error {
	result := vm.pop()
	fr := vm.curFrame()
	vm.closeUpvalues(fr.base)
	vm.frames = vm.frames[:len(vm.frames)-1]
	vm.stack = vm.stack[:fr.base]
	if len(vm.frames) == 0 {
		// script frame: drop the receiver slot, no result to leave behind.
		return nil
	}
	return vm.push(result)
}

package machine

import "github.com/corvid-lang/corvid/lang/object"

// callValue dispatches a call to whatever kind of callee sits at the bottom
// of the argCount arguments already on the stack (§4.3 "Calls").
func (vm *VM) callValue(callee object.Value, argCount int) error {
	switch v := callee.(type) {
	case *object.Closure:
		return vm.callClosure(v, argCount)
	case *object.Class:
		return vm.callClass(v, argCount)
	case *object.BoundMethod:
		vm.stack[len(vm.stack)-argCount-1] = v.Receiver
		return vm.callClosure(v.Method, argCount)
	case *object.Native:
		return vm.callNative(v, argCount)
	default:
		return vm.runtimeErrorf("can only call functions and classes")
	}
}

// callClosure pushes a new frame for cl, after checking (and, for variadic
// functions, adjusting) argCount against its arity.
func (vm *VM) callClosure(cl *object.Closure, argCount int) error {
	fn := cl.Fn
	if fn.Variadic {
		fixed := fn.Arity - 1
		if argCount < fixed {
			return vm.runtimeErrorf("expected at least %d arguments but got %d", fixed, argCount)
		}
		restCount := argCount - fixed
		// Rest args stay on the stack (rooted) through vm.alloc, a GC
		// safepoint, and are only popped once rest itself is registered.
		items := make([]object.Value, restCount)
		copy(items, vm.stack[len(vm.stack)-restCount:])
		rest := &object.List{Items: items}
		vm.alloc(rest)
		vm.stack = vm.stack[:len(vm.stack)-restCount]
		if err := vm.push(rest); err != nil {
			return err
		}
		argCount = fn.Arity
	} else if argCount != fn.Arity {
		return vm.runtimeErrorf("expected %d arguments but got %d", fn.Arity, argCount)
	}

	if len(vm.frames) >= vm.cfg.FramesMax {
		return vm.runtimeErrorf("stack overflow")
	}
	base := len(vm.stack) - argCount - 1
	vm.frames = append(vm.frames, frame{closure: cl, base: base})
	return nil
}

// callClass implements calling a Class value directly: it allocates an
// instance, replaces the receiver slot, and invokes "init" if present.
func (vm *VM) callClass(cls *object.Class, argCount int) error {
	inst := object.NewInstance(cls)
	vm.alloc(inst)
	vm.stack[len(vm.stack)-argCount-1] = inst
	if initMethod, ok := cls.Methods.Get("init"); ok {
		return vm.callClosure(initMethod, argCount)
	}
	if argCount != 0 {
		return vm.runtimeErrorf("expected 0 arguments but got %d", argCount)
	}
	return nil
}

func (vm *VM) callNative(n *object.Native, argCount int) error {
	args := make([]object.Value, argCount)
	copy(args, vm.stack[len(vm.stack)-argCount:])
	if err := checkSignature(n.Signature, args); err != nil {
		return vm.runtimeErrorf("%s: %s", n.Name, err)
	}
	result, err := n.Fn(args)
	vm.stack = vm.stack[:len(vm.stack)-argCount-1]
	if err != nil {
		return vm.runtimeErrorf("%s: %s", n.Name, err)
	}
	if result == nil {
		result = object.Nil{}
	}
	return vm.push(result)
}

// invoke resolves name on the receiver argCount slots below the stack top
// (an Instance field shadowing a method, or the class method table), then
// calls it — the fused GET_PROPERTY+CALL fast path (§4.2 INVOKE).
func (vm *VM) invoke(name string, argCount int) error {
	receiver := vm.peek(argCount)
	inst, ok := receiver.(*object.Instance)
	if !ok {
		return vm.runtimeErrorf("only instances have methods")
	}
	if field, ok := inst.Fields.Get(name); ok {
		vm.stack[len(vm.stack)-argCount-1] = field
		return vm.callValue(field, argCount)
	}
	return vm.invokeFromClass(inst.Class, name, argCount)
}

func (vm *VM) invokeFromClass(cls *object.Class, name string, argCount int) error {
	m, ok := cls.Methods.Get(name)
	if !ok {
		return vm.runtimeErrorf("undefined property '%s'", name)
	}
	return vm.callClosure(m, argCount)
}

// bindMethod looks up name on cls, wraps it with receiver into a
// BoundMethod, and pushes it.
func (vm *VM) bindMethod(cls *object.Class, name string, receiver object.Value) error {
	m, ok := cls.Methods.Get(name)
	if !ok {
		return vm.runtimeErrorf("undefined property '%s'", name)
	}
	bound := &object.BoundMethod{Receiver: receiver, Method: m}
	vm.alloc(bound)
	return vm.push(bound)
}

// getProperty implements GET_PROPERTY: instance field lookup, falling back
// to a bound method if no field of that name exists.
func (vm *VM) getProperty(name *object.String) error {
	inst, ok := vm.peek(0).(*object.Instance)
	if !ok {
		return vm.runtimeErrorf("only instances have properties")
	}
	if field, ok := inst.Fields.Get(name.Val); ok {
		vm.pop()
		return vm.push(field)
	}
	if _, ok := inst.Class.Methods.Get(name.Val); ok {
		vm.pop()
		return vm.bindMethod(inst.Class, name.Val, inst)
	}
	return vm.runtimeErrorf("undefined property '%s'", name.Val)
}

func (vm *VM) setProperty(name *object.String) error {
	inst, ok := vm.peek(1).(*object.Instance)
	if !ok {
		return vm.runtimeErrorf("only instances have properties")
	}
	value := vm.peek(0)
	inst.Fields.Put(name.Val, value)
	vm.pop()
	vm.pop()
	return vm.push(value)
}

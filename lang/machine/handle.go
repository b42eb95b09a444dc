package machine

import "github.com/corvid-lang/corvid/lang/object"

// runThunk calls a zero-argument closure to completion using runLoop's
// nested-call convention, returning its result or the error it raised.
func (vm *VM) runThunk(thunk object.Value) (object.Value, error) {
	depth := len(vm.frames)
	if err := vm.push(thunk); err != nil {
		return nil, err
	}
	if err := vm.callValue(thunk, 0); err != nil {
		return nil, err
	}
	return vm.runLoop(depth)
}

// callHand implements CALL_HAND: run the body thunk; if it raises a runtime
// error (other than an interrupt, which always propagates), unwind the
// frames and stack the failing body left behind back to the point of this
// dispatch, then run the handler thunk and use its result (DESIGN.md
// "Handler/dynvar semantics"). The stack holds [handlerClosure, bodyClosure],
// body on top, per compiler.handleExpr.
//
// runLoop does not unwind on error: a failure deep in the body's call chain
// leaves every intervening frame (and its stack slots) in place. Running
// the handler on top of that stale state, then letting the outer runLoop
// resume those leftover frames afterward, is wrong — the frames must be
// dropped first.
func (vm *VM) callHand() error {
	body := vm.pop()
	handler := vm.pop()

	frameMark := len(vm.frames)
	stackMark := len(vm.stack)

	result, err := vm.runThunk(body)
	if err != nil {
		if Interrupted(err) {
			return err
		}
		vm.closeUpvalues(stackMark)
		vm.frames = vm.frames[:frameMark]
		vm.stack = vm.stack[:stackMark]

		result, err = vm.runThunk(handler)
		if err != nil {
			return err
		}
	}
	return vm.push(result)
}

// callBind implements CALL_BIND <name>: the globals-shadowing dynvar
// protocol — save the current global binding of name (if any), overwrite it
// with value, call the thunk, then restore the saved binding whether or not
// the thunk raised (§4.3 "Dynamic variables", DESIGN.md's resolved open
// question). The stack holds [value, thunkClosure], thunk on top.
func (vm *VM) callBind(name string) error {
	thunk := vm.pop()
	value := vm.pop()

	dv := &object.Dynvar{Name: name}
	if prev, ok := vm.Globals.Get(name); ok {
		dv.Prev, dv.WasBound = prev, true
	}
	vm.alloc(dv)

	vm.Globals.Put(name, value)
	result, err := vm.runThunk(thunk)

	if dv.WasBound {
		vm.Globals.Put(name, dv.Prev)
	} else {
		vm.Globals.Delete(name)
	}

	if err != nil {
		return err
	}
	return vm.push(result)
}

package compiler

import (
	"github.com/corvid-lang/corvid/lang/object"
	"github.com/corvid-lang/corvid/lang/token"
)

// expression parses one expression at PrecAssignment, the lowest precedence
// at which an assignment target is legal.
func (c *Compiler) expression() { c.parsePrecedence(PrecAssignment) }

// parsePrecedence is the heart of the Pratt dispatch: it reads one prefix
// token, then repeatedly consumes infix tokens whose precedence is at least
// prec.
func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	prefix := getRule(c.previous).prefix
	if prefix == nil {
		c.error("expect expression")
		return
	}
	canAssign := prec <= PrecAssignment
	prefix(c, canAssign)

	for prec <= getRule(c.current).prec {
		c.advance()
		infix := getRule(c.previous).infix
		infix(c, canAssign)
	}

	if canAssign && c.matchTok(token.EQ) {
		c.error("invalid assignment target")
	}
}

func (c *Compiler) grouping(_ bool) {
	c.expression()
	c.consume(token.RPAREN, "expect ')' after expression")
}

func (c *Compiler) literal(_ bool) {
	switch c.previous {
	case token.NIL:
		c.emitOp(OP_NIL)
	case token.TRUE:
		c.emitOp(OP_TRUE)
	case token.FALSE:
		c.emitOp(OP_FALSE)
	}
}

func (c *Compiler) intLit(_ bool) { c.emitConstant(object.Int(c.prevVal.Int)) }

func (c *Compiler) realLit(_ bool) {
	c.emitConstant(&object.Real{Val: c.prevVal.Real})
}

func (c *Compiler) stringLit(_ bool) {
	c.emitConstant(c.intern(c.prevVal.Str))
}

func (c *Compiler) unary(_ bool) {
	op := c.previous
	c.parsePrecedence(PrecUnary)
	switch op {
	case token.MINUS:
		c.emitOp(OP_NEG)
	case token.BANG:
		c.emitOp(OP_NOT)
	}
}

// binary handles left-associative infix operators, including the
// comparison operators that lower to LESS with SWAP/NOT wrappers (§4.1).
func (c *Compiler) binary(_ bool) {
	op := c.previous
	r := getRule(op)
	c.parsePrecedence(r.prec + 1)

	switch op {
	case token.PLUS:
		c.emitOp(OP_ADD)
	case token.MINUS:
		c.emitOp(OP_SUB)
	case token.STAR:
		c.emitOp(OP_MUL)
	case token.SLASH:
		c.emitOp(OP_DIV)
	case token.PERCENT:
		c.emitOp(OP_MOD)
	case token.EQEQ:
		c.emitOp(OP_EQUAL)
	case token.BANGEQ:
		c.emitOps(OP_EQUAL, OP_NOT)
	case token.LT:
		c.emitOp(OP_LESS)
	case token.GT:
		c.emitOps(OP_SWAP, OP_LESS)
	case token.LE:
		c.emitOp(OP_SWAP)
		c.emitOps(OP_LESS, OP_NOT)
	case token.GE:
		c.emitOps(OP_LESS, OP_NOT)
	}
}

func (c *Compiler) and_(_ bool) {
	endJump := c.emitJump(OP_JUMP_AND)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or_(_ bool) {
	endJump := c.emitJump(OP_JUMP_OR)
	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

// ifExpr compiles the ternary `if (cond : then : else)` expression form
// (SPEC_FULL.md E.3), sharing the same JUMP_FALSE/JUMP shape as the `if`
// statement.
func (c *Compiler) ifExpr(_ bool) {
	c.consume(token.LPAREN, "expect '(' after 'if'")
	c.expression()
	c.consume(token.COLON, "expect ':' after ternary 'if' condition")

	thenJump := c.emitJump(OP_JUMP_FALSE)
	c.expression()
	elseJump := c.emitJump(OP_JUMP)

	c.patchJump(thenJump)
	c.consume(token.COLON, "expect ':' after ternary 'if' then-branch")
	c.expression()
	c.patchJump(elseJump)
	c.consume(token.RPAREN, "expect ')' after ternary 'if'")
}

func (c *Compiler) namedVariable(name string, canAssign bool) {
	var getOp, setOp Opcode
	var arg int
	if idx := resolveLocal(c.fr, name); idx != -1 {
		getOp, setOp, arg = OP_GET_LOCAL, OP_SET_LOCAL, idx
	} else if idx := resolveUpvalue(c.fr, name); idx != -1 {
		getOp, setOp, arg = OP_GET_UPVALUE, OP_SET_UPVALUE, idx
	} else {
		arg = int(c.identifierConstant(name))
		getOp, setOp = OP_GET_GLOBAL, OP_SET_GLOBAL
	}

	if canAssign && c.matchTok(token.EQ) {
		c.expression()
		c.emitByte(setOp, byte(arg))
		return
	}
	c.emitByte(getOp, byte(arg))
}

func (c *Compiler) variable(canAssign bool) { c.namedVariable(c.prevVal.Raw, canAssign) }

// variableNamed emits a read of name without consuming any tokens; used for
// the compiler-synthesized references to a class's own name and to `super`.
func (c *Compiler) variableNamed(name string, canAssign bool) { c.namedVariable(name, canAssign) }

func (c *Compiler) this_(_ bool) {
	if c.class == nil {
		c.error("'this' can only be used inside a method")
		return
	}
	c.namedVariable("this", false)
}

func (c *Compiler) super_(_ bool) {
	if c.class == nil {
		c.error("'super' can only be used inside a method")
	} else if !c.class.hasSuperclass {
		c.error("'super' can only be used in a class with a superclass")
	}
	c.consume(token.DOT, "expect '.' after 'super'")
	c.consume(token.IDENT, "expect superclass method name")
	nameConst := c.identifierConstant(c.prevVal.Raw)

	c.namedVariable("this", false)
	if c.matchTok(token.LPAREN) {
		argCount, variadic := c.argumentList()
		c.namedVariable("super", false)
		if variadic {
			c.emitByte(OP_VSUPER_INVOKE, nameConst)
			c.emit(byte(argCount))
		} else {
			c.emitByte(OP_SUPER_INVOKE, nameConst)
			c.emit(byte(argCount))
		}
		return
	}
	c.namedVariable("super", false)
	c.emitByte(OP_GET_SUPER, nameConst)
}

// dot compiles `recv.name`, `recv.name = expr` and `recv.name(args)`. The
// pseudo-fields "val" and "key" are reserved for iterator access (§4.2
// "Iterators"): `it.val`/`it.key` compile to the dedicated GET_ITVAL/
// GET_ITKEY opcodes instead of GET_PROPERTY, and `it.val = expr` to
// SET_ITVAL, since an Iterator is never a valid instance-field receiver.
// The choice is made by name alone, so a real instance's fields named
// "val" or "key" cannot be read or assigned with dot syntax: the iterator
// opcodes reject any receiver that is not an Iterator.
func (c *Compiler) dot(canAssign bool) {
	c.consume(token.IDENT, "expect property name after '.'")
	name := c.prevVal.Raw
	nameConst := c.identifierConstant(name)

	switch {
	case canAssign && c.matchTok(token.EQ):
		c.expression()
		if name == "val" {
			c.emitOp(OP_SET_ITVAL)
		} else {
			c.emitByte(OP_SET_PROPERTY, nameConst)
		}
	case c.matchTok(token.LPAREN):
		argCount, variadic := c.argumentList()
		if variadic {
			c.emitByte(OP_VINVOKE, nameConst)
		} else {
			c.emitByte(OP_INVOKE, nameConst)
		}
		c.emit(byte(argCount))
	case name == "val":
		c.emitOp(OP_GET_ITVAL)
	case name == "key":
		c.emitOp(OP_GET_ITKEY)
	default:
		c.emitByte(OP_GET_PROPERTY, nameConst)
	}
}

// argumentList compiles a parenthesized call argument list, already past
// the opening '('. It handles `..expr` spread arguments (SPEC_FULL.md /
// §4.1 "Variadics") by emitting OP_UNPACK after each spread argument and
// reporting that the call must use the V-prefixed opcode. It opens with
// OP_ARGMARK, establishing the runtime arg-count sentinel §4.2 describes;
// every call-family opcode (CALL/CALL0/1/2/VCALL) consumes exactly one.
func (c *Compiler) argumentList() (argCount int, variadic bool) {
	c.emitOp(OP_ARGMARK)
	if !c.check(token.RPAREN) {
		for {
			if c.matchTok(token.DOTDOT) {
				variadic = true
				c.parsePrecedence(PrecAssignment)
				c.emitOp(OP_UNPACK)
			} else {
				c.expression()
				argCount++
			}
			if argCount > 255 {
				c.error("too many arguments in call")
			}
			if !c.matchTok(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "expect ')' after arguments")
	return argCount, variadic
}

func (c *Compiler) call(_ bool) {
	argCount, variadic := c.argumentList()
	switch {
	case variadic:
		c.emitByte(OP_VCALL, byte(argCount))
	case argCount == 0:
		c.emitOp(OP_CALL0)
	case argCount == 1:
		c.emitOp(OP_CALL1)
	case argCount == 2:
		c.emitOp(OP_CALL2)
	default:
		c.emitByte(OP_CALL, byte(argCount))
	}
}

// list compiles a list literal `[a, b, ..c]`. Like argumentList, it opens
// with OP_ARGMARK so LIST/VLIST can read the runtime count contributed by
// any `..` spread elements.
func (c *Compiler) list(_ bool) {
	c.emitOp(OP_ARGMARK)
	count, variadic := 0, false
	if !c.check(token.RBRACK) {
		for {
			if c.matchTok(token.DOTDOT) {
				variadic = true
				c.parsePrecedence(PrecAssignment)
				c.emitOp(OP_UNPACK)
			} else {
				c.expression()
				count++
			}
			if count > 255 {
				c.error("too many elements in list literal")
			}
			if !c.matchTok(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RBRACK, "expect ']' after list elements")
	if variadic {
		c.emitByte(OP_VLIST, byte(count))
	} else {
		c.emitByte(OP_LIST, byte(count))
	}
}

// index compiles `expr[i]`, `expr[i] = v`, and `expr[a:b]` slicing.
func (c *Compiler) index(canAssign bool) {
	c.expression()
	if c.matchTok(token.COLON) {
		c.expression()
		c.consume(token.RBRACK, "expect ']' after slice")
		c.emitOp(OP_GET_SLICE)
		return
	}
	c.consume(token.RBRACK, "expect ']' after index")
	if canAssign && c.matchTok(token.EQ) {
		c.expression()
		c.emitOp(OP_SET_INDEX)
		return
	}
	c.emitOp(OP_GET_INDEX)
}

// spread is only reachable as a prefix token in contexts argumentList/list
// already special-case (they peek for DOTDOT before calling expression); it
// exists purely to give DOTDOT a table entry so a stray `..` outside those
// contexts reports a clean parse error instead of "expect expression".
func (c *Compiler) spread(_ bool) {
	c.error("'..' is only valid before an argument or list element")
}

// handleExpr compiles `handle(thunkExpr : bodyExpr)`. Per SPEC_FULL.md E.3,
// both operands compile as zero-argument thunks so CALL_HAND can genuinely
// intercept a runtime error raised while evaluating the body.
func (c *Compiler) handleExpr(_ bool) {
	c.consume(token.LPAREN, "expect '(' after 'handle'")
	handlerFn := c.thunkFunction(object.FuncLambda, c.expression)
	c.emitClosure(handlerFn)
	c.consume(token.COLON, "expect ':' after handler expression")
	bodyFn := c.thunkFunction(object.FuncLambda, c.expression)
	c.emitClosure(bodyFn)
	c.consume(token.RPAREN, "expect ')' after 'handle' body")
	c.emitOp(OP_CALL_HAND)
}

// dynvarExpr compiles `dynvar(name = value : body)`.
func (c *Compiler) dynvarExpr(_ bool) {
	c.consume(token.LPAREN, "expect '(' after 'dynvar'")
	c.consume(token.IDENT, "expect variable name")
	nameConst := c.identifierConstant(c.prevVal.Raw)
	c.consume(token.EQ, "expect '=' after dynvar name")
	c.expression()
	c.consume(token.COLON, "expect ':' after dynvar value")
	bodyFn := c.thunkFunction(object.FuncLambda, c.expression)
	c.emitClosure(bodyFn)
	c.consume(token.RPAREN, "expect ')' after 'dynvar' body")
	c.emitByte(OP_CALL_BIND, nameConst)
}

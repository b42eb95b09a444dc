package compiler

import (
	"github.com/corvid-lang/corvid/lang/gc"
	"github.com/corvid-lang/corvid/lang/object"
	"github.com/corvid-lang/corvid/lang/scanner"
	"github.com/corvid-lang/corvid/lang/token"
)

// Precedence is the Pratt dispatch table's precedence ladder, low to high.
type Precedence int

//nolint:revive
const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecPostfix
)

type parseFn func(c *Compiler, canAssign bool)

type rule struct {
	prefix parseFn
	infix  parseFn
	prec   Precedence
}

var rules = map[token.Token]rule{}

func init() {
	set := func(tok token.Token, prefix, infix parseFn, prec Precedence) {
		rules[tok] = rule{prefix: prefix, infix: infix, prec: prec}
	}
	set(token.LPAREN, (*Compiler).grouping, (*Compiler).call, PrecPostfix)
	set(token.LBRACK, (*Compiler).list, (*Compiler).index, PrecPostfix)
	set(token.DOT, nil, (*Compiler).dot, PrecPostfix)
	set(token.MINUS, (*Compiler).unary, (*Compiler).binary, PrecTerm)
	set(token.PLUS, nil, (*Compiler).binary, PrecTerm)
	set(token.SLASH, nil, (*Compiler).binary, PrecFactor)
	set(token.STAR, nil, (*Compiler).binary, PrecFactor)
	set(token.PERCENT, nil, (*Compiler).binary, PrecFactor)
	set(token.BANG, (*Compiler).unary, nil, PrecNone)
	set(token.BANGEQ, nil, (*Compiler).binary, PrecEquality)
	set(token.EQEQ, nil, (*Compiler).binary, PrecEquality)
	set(token.GT, nil, (*Compiler).binary, PrecComparison)
	set(token.GE, nil, (*Compiler).binary, PrecComparison)
	set(token.LT, nil, (*Compiler).binary, PrecComparison)
	set(token.LE, nil, (*Compiler).binary, PrecComparison)
	set(token.IDENT, (*Compiler).variable, nil, PrecNone)
	set(token.STRING, (*Compiler).stringLit, nil, PrecNone)
	set(token.INT, (*Compiler).intLit, nil, PrecNone)
	set(token.REAL, (*Compiler).realLit, nil, PrecNone)
	set(token.AND, nil, (*Compiler).and_, PrecAnd)
	set(token.OR, nil, (*Compiler).or_, PrecOr)
	set(token.IF, (*Compiler).ifExpr, nil, PrecNone)
	set(token.NIL, (*Compiler).literal, nil, PrecNone)
	set(token.TRUE, (*Compiler).literal, nil, PrecNone)
	set(token.FALSE, (*Compiler).literal, nil, PrecNone)
	set(token.THIS, (*Compiler).this_, nil, PrecNone)
	set(token.SUPER, (*Compiler).super_, nil, PrecNone)
	set(token.HANDLE, (*Compiler).handleExpr, nil, PrecNone)
	set(token.DYNVAR, (*Compiler).dynvarExpr, nil, PrecNone)
	set(token.DOTDOT, (*Compiler).spread, nil, PrecNone)
}

func getRule(tok token.Token) rule { return rules[tok] }

type local struct {
	name     string
	depth    int
	captured bool
}

type upvalueEntry struct {
	index   byte
	isLocal bool
}

type loopCtx struct {
	scopeDepth int
	breaks     []int
	enclosing  *loopCtx
}

type classCtx struct {
	hasSuperclass bool
	enclosing     *classCtx
}

// frame is one function's compile-time state: locals, upvalues, loop and
// scope context, and the Function being built.
type frame struct {
	fn         *object.Function
	kind       object.FuncKind
	locals     []local
	upvalues   []upvalueEntry
	scopeDepth int
	loop       *loopCtx
	enclosing  *frame
}

// Compiler holds all process-wide state for one compile: the current token
// pair, error/panic-mode tracking, the frame stack (via enclosing pointers)
// and the enclosing class chain.
type Compiler struct {
	sc   *scanner.Scanner
	heap *gc.Heap

	previous token.Token
	prevVal  token.Value
	current  token.Token
	curVal   token.Value

	hadError  bool
	panicMode bool
	errs      ErrorList

	fr    *frame
	class *classCtx

	// lastUpvalues holds the upvalue table of the most recently popped
	// frame, so the CLOSURE opcode's trailing bytes can be emitted by the
	// enclosing frame right after endFrame returns.
	lastUpvalues []upvalueEntry
}

// Compile compiles source into a top-level script Function, or returns a
// non-nil ErrorList (via the returned error) on failure. heap is used to
// intern string constants as they are emitted.
func Compile(source []byte, heap *gc.Heap) (*object.Function, error) {
	c := &Compiler{heap: heap}
	c.sc = &scanner.Scanner{}
	c.sc.Init(source, c.scanError)

	c.fr = &frame{fn: &object.Function{Chunk: &object.Chunk{}, Kind: object.FuncScript}, kind: object.FuncScript}
	// slot 0 is reserved for the receiver/callee, matching the VM's frame
	// base convention.
	c.fr.locals = append(c.fr.locals, local{name: "", depth: 0})

	c.advance()
	for !c.matchTok(token.EOF) {
		c.declaration()
	}
	fn := c.endFrame()

	if c.hadError {
		return nil, c.errs
	}
	return fn, nil
}

func (c *Compiler) scanError(line int, msg string) {
	c.errs = append(c.errs, &Error{Line: line, Msg: msg})
	c.hadError = true
}

// --- token stream plumbing ---

func (c *Compiler) advance() {
	c.previous, c.prevVal = c.current, c.curVal
	for {
		var v token.Value
		tok := c.sc.Scan(&v)
		c.current, c.curVal = tok, v
		if tok != token.ERROR {
			break
		}
		c.errorAtCurrent(v.Raw)
	}
}

func (c *Compiler) check(tok token.Token) bool { return c.current == tok }

func (c *Compiler) matchTok(tok token.Token) bool {
	if !c.check(tok) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(tok token.Token, msg string) {
	if c.current == tok {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.current, c.curVal, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(c.previous, c.prevVal, msg) }

func (c *Compiler) errorAt(tok token.Token, val token.Value, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	c.errs = append(c.errs, &Error{Line: val.Line, Lexeme: val.Raw, Msg: msg, AtEnd: tok == token.EOF})
}

// synchronize implements panic-mode recovery: skip tokens until a likely
// statement boundary.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current != token.EOF {
		if c.previous == token.SEMI {
			return
		}
		switch c.current {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF,
			token.WHILE, token.PRINT, token.RETURN, token.CASE:
			return
		}
		c.advance()
	}
}

// --- emission helpers ---

func (c *Compiler) chunk() *object.Chunk { return c.fr.fn.Chunk }

func (c *Compiler) emit(b byte) { c.chunk().Write(b, c.prevVal.Line) }

func (c *Compiler) emitOp(op Opcode) { c.emit(byte(op)) }

func (c *Compiler) emitOps(op1, op2 Opcode) { c.emitOp(op1); c.emitOp(op2) }

func (c *Compiler) emitByte(op Opcode, arg byte) { c.emitOp(op); c.emit(arg) }

func (c *Compiler) emitU16(op Opcode, arg uint16) {
	c.emitOp(op)
	c.emit(byte(arg >> 8))
	c.emit(byte(arg))
}

// emitJump writes a jump opcode with a two-byte placeholder operand and
// returns the offset of the first placeholder byte, for patchJump.
func (c *Compiler) emitJump(op Opcode) int {
	c.emitOp(op)
	off := len(c.chunk().Code)
	c.emit(0xff)
	c.emit(0xff)
	return off
}

func (c *Compiler) patchJump(off int) {
	jump := len(c.chunk().Code) - off - 2
	if jump > 0xffff {
		c.error("too much code to jump over")
	}
	c.chunk().Code[off] = byte(jump >> 8)
	c.chunk().Code[off+1] = byte(jump)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(OP_LOOP)
	off := len(c.chunk().Code) - loopStart + 2
	if off > 0xffff {
		c.error("loop body too large")
	}
	c.emit(byte(off >> 8))
	c.emit(byte(off))
}

func (c *Compiler) makeConstant(v object.Value) byte {
	idx, err := c.chunk().AddConstant(v)
	if err != nil {
		c.error(err.Error())
		return 0
	}
	return idx
}

func (c *Compiler) emitConstant(v object.Value) {
	switch n := v.(type) {
	case object.Int:
		if n == 0 {
			c.emitOp(OP_ZERO)
			return
		}
		if n > 0 && n <= 255 {
			c.emitByte(OP_INT, byte(n))
			return
		}
	}
	c.emitByte(OP_CONSTANT, c.makeConstant(v))
}

func (c *Compiler) intern(s string) *object.String {
	return c.heap.InternString(s, c.gcRoots)
}

// gcRoots implements gc.RootWalker over the in-progress compiler frame
// chain's Function constants, satisfying the "compiler roots" requirement
// of the Memory Manager's mark phase (§4.4).
func (c *Compiler) gcRoots(push func(object.Value)) {
	for fr := c.fr; fr != nil; fr = fr.enclosing {
		if fr.fn == nil {
			continue
		}
		push(fr.fn)
		for _, k := range fr.fn.Chunk.Constants {
			push(k)
		}
	}
}

func (c *Compiler) endFrame() *object.Function {
	c.emitReturn()
	fn := c.fr.fn
	fn.UpvalueCnt = len(c.fr.upvalues)
	c.lastUpvalues = c.fr.upvalues
	c.fr = c.fr.enclosing
	return fn
}

func (c *Compiler) emitReturn() {
	if c.fr.kind == object.FuncInitializer {
		c.emitByte(OP_GET_LOCAL, 0)
		c.emitOp(OP_RETURN)
		return
	}
	c.emitOp(OP_RETURN_NIL)
}

// --- scope & variable resolution ---

func (c *Compiler) beginScope() { c.fr.scopeDepth++ }

func (c *Compiler) endScope() {
	c.fr.scopeDepth--
	fr := c.fr
	for len(fr.locals) > 0 && fr.locals[len(fr.locals)-1].depth > fr.scopeDepth {
		if fr.locals[len(fr.locals)-1].captured {
			c.emitOp(OP_CLOSE_UPVALUE)
		} else {
			c.emitOp(OP_POP)
		}
		fr.locals = fr.locals[:len(fr.locals)-1]
	}
}

func (c *Compiler) identifierConstant(name string) byte {
	return c.makeConstant(c.intern(name))
}

func (c *Compiler) addLocal(name string) {
	if len(c.fr.locals) >= 256 {
		c.error("too many local variables in function")
		return
	}
	c.fr.locals = append(c.fr.locals, local{name: name, depth: -1})
}

func (c *Compiler) declareVariable(name string) {
	if c.fr.scopeDepth == 0 {
		return
	}
	for i := len(c.fr.locals) - 1; i >= 0; i-- {
		l := c.fr.locals[i]
		if l.depth != -1 && l.depth < c.fr.scopeDepth {
			break
		}
		if l.name == name {
			c.error("variable with this name already declared in this scope")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) parseVariable(msg string) byte {
	c.consume(token.IDENT, msg)
	name := c.prevVal.Raw
	c.declareVariable(name)
	if c.fr.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(name)
}

func (c *Compiler) markInitialized() {
	if c.fr.scopeDepth == 0 {
		return
	}
	c.fr.locals[len(c.fr.locals)-1].depth = c.fr.scopeDepth
}

func (c *Compiler) defineVariable(global byte) {
	if c.fr.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitByte(OP_DEF_GLOBAL, global)
}

func resolveLocal(fr *frame, name string) int {
	for i := len(fr.locals) - 1; i >= 0; i-- {
		if fr.locals[i].name == name {
			return i
		}
	}
	return -1
}

func addUpvalue(fr *frame, index byte, isLocal bool) int {
	for i, u := range fr.upvalues {
		if u.index == index && u.isLocal == isLocal {
			return i
		}
	}
	fr.upvalues = append(fr.upvalues, upvalueEntry{index: index, isLocal: isLocal})
	return len(fr.upvalues) - 1
}

func resolveUpvalue(fr *frame, name string) int {
	if fr.enclosing == nil {
		return -1
	}
	if idx := resolveLocal(fr.enclosing, name); idx != -1 {
		fr.enclosing.locals[idx].captured = true
		return addUpvalue(fr, byte(idx), true)
	}
	if idx := resolveUpvalue(fr.enclosing, name); idx != -1 {
		return addUpvalue(fr, byte(idx), false)
	}
	return -1
}

// --- declarations & statements ---

func (c *Compiler) declaration() {
	switch {
	case c.matchTok(token.CLASS):
		c.classDecl()
	case c.matchTok(token.FUN):
		c.funDecl()
	case c.matchTok(token.VAR):
		c.varDecl()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDecl() {
	global := c.parseVariable("expect variable name")
	if c.matchTok(token.EQ) {
		c.expression()
	} else {
		c.emitOp(OP_NIL)
	}
	c.consume(token.SEMI, "expect ';' after variable declaration")
	c.defineVariable(global)
}

func (c *Compiler) funDecl() {
	global := c.parseVariable("expect function name")
	c.markInitialized()
	c.function(object.FuncPlain, c.prevVal.Raw)
	c.defineVariable(global)
}

func (c *Compiler) statement() {
	switch {
	case c.matchTok(token.PRINT):
		c.printStmt()
	case c.matchTok(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	case c.matchTok(token.IF):
		c.ifStmt()
	case c.matchTok(token.WHILE):
		c.whileStmt()
	case c.matchTok(token.FOR):
		c.forStmt()
	case c.matchTok(token.CASE):
		c.caseStmt()
	case c.matchTok(token.RETURN):
		c.returnStmt()
	case c.matchTok(token.BREAK):
		c.breakStmt()
	default:
		c.exprStmt()
	}
}

func (c *Compiler) block() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBRACE, "expect '}' after block")
}

// printStmt compiles `print expr, expr, ...;` (or bare `print;`, which
// prints an empty line), matching original_source/compiler.c's
// comma-separated multi-value form: every expression but the last is
// emitted with PRINT, the last with PRINTLN.
func (c *Compiler) printStmt() {
	if c.matchTok(token.SEMI) {
		c.emitConstant(c.intern(""))
		c.emitOp(OP_PRINTLN)
		return
	}
	c.expression()
	for c.matchTok(token.COMMA) {
		c.emitOp(OP_PRINT)
		c.expression()
	}
	c.consume(token.SEMI, "expect ';' after 'print' arguments")
	c.emitOp(OP_PRINTLN)
}

// exprStmt compiles a bare expression statement. At true top level (the
// script frame, not a nested function), an expression not terminated by
// ';' implicitly prints its value via PRINTQ — the REPL's "type an
// expression to see its value" behavior described in §6.
func (c *Compiler) exprStmt() {
	c.expression()
	if c.fr.kind == object.FuncScript && c.fr.enclosing == nil {
		if c.matchTok(token.SEMI) {
			c.emitOp(OP_POP)
		} else {
			c.emitOp(OP_PRINTQ)
		}
		return
	}
	c.consume(token.SEMI, "expect ';' after expression")
	c.emitOp(OP_POP)
}

func (c *Compiler) ifStmt() {
	c.consume(token.LPAREN, "expect '(' after 'if'")
	c.expression()
	c.consume(token.RPAREN, "expect ')' after condition")

	thenJump := c.emitJump(OP_JUMP_FALSE)
	c.statement()

	elseJump := c.emitJump(OP_JUMP)
	c.patchJump(thenJump)

	if c.matchTok(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStmt() {
	loopStart := len(c.chunk().Code)
	c.loopPush()

	c.consume(token.LPAREN, "expect '(' after 'while'")
	c.expression()
	c.consume(token.RPAREN, "expect ')' after condition")

	exitJump := c.emitJump(OP_JUMP_FALSE)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.loopPop()
}

func (c *Compiler) forStmt() {
	c.beginScope()
	c.consume(token.LPAREN, "expect '(' after 'for'")

	switch {
	case c.matchTok(token.SEMI):
		// no initializer
	case c.matchTok(token.VAR):
		c.varDecl()
	default:
		c.exprStmt()
	}

	loopStart := len(c.chunk().Code)
	c.loopPush()

	exitJump := -1
	if !c.matchTok(token.SEMI) {
		c.expression()
		c.consume(token.SEMI, "expect ';' after loop condition")
		exitJump = c.emitJump(OP_JUMP_FALSE)
	}

	if !c.check(token.RPAREN) {
		bodyJump := c.emitJump(OP_JUMP)
		incrStart := len(c.chunk().Code)
		c.expression()
		c.emitOp(OP_POP)
		c.consume(token.RPAREN, "expect ')' after for clauses")

		c.emitLoop(loopStart)
		loopStart = incrStart
		c.patchJump(bodyJump)
	} else {
		c.consume(token.RPAREN, "expect ')' after for clauses")
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
	}

	c.loopPop()
	c.endScope()
}

func (c *Compiler) loopPush() {
	c.fr.loop = &loopCtx{scopeDepth: c.fr.scopeDepth, enclosing: c.fr.loop}
}

func (c *Compiler) loopPop() {
	for _, off := range c.fr.loop.breaks {
		c.patchJump(off)
	}
	c.fr.loop = c.fr.loop.enclosing
}

func (c *Compiler) breakStmt() {
	if c.fr.loop == nil {
		c.error("'break' outside of a loop")
		c.consume(token.SEMI, "expect ';' after 'break'")
		return
	}
	fr := c.fr
	for i := len(fr.locals) - 1; i >= 0 && fr.locals[i].depth > fr.loop.scopeDepth; i-- {
		if fr.locals[i].captured {
			c.emitOp(OP_CLOSE_UPVALUE)
		} else {
			c.emitOp(OP_POP)
		}
	}
	off := c.emitJump(OP_JUMP)
	if len(fr.loop.breaks) >= 16 {
		c.error("too many 'break' statements in one loop")
	}
	fr.loop.breaks = append(fr.loop.breaks, off)
	c.consume(token.SEMI, "expect ';' after 'break'")
}

// caseStmt compiles `case (subject) { when a, b: stmt...  when c: stmt... else: stmt... }`.
func (c *Compiler) caseStmt() {
	c.consume(token.LPAREN, "expect '(' after 'case'")
	c.expression()
	c.consume(token.RPAREN, "expect ')' after case subject")
	c.consume(token.LBRACE, "expect '{' before case body")

	var endJumps []int
	branches := 0
	seenElse := false
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		if seenElse {
			c.error("'else' must be the last case branch")
		}
		switch {
		case c.matchTok(token.WHEN):
			branches++
			if branches > 127 {
				c.error("too many 'when' branches in 'case'")
			}
			var labelJumps []int
			labels := 0
			for {
				labels++
				if labels > 31 {
					c.error("too many labels in one 'when' branch")
				}
				c.emitOp(OP_DUP)
				c.expression()
				c.emitOp(OP_EQUAL)
				matchJump := c.emitJump(OP_JUMP_TRUE)
				labelJumps = append(labelJumps, matchJump)
				if !c.matchTok(token.COMMA) {
					break
				}
			}
			fallThrough := c.emitJump(OP_JUMP)
			for _, j := range labelJumps {
				c.patchJump(j)
			}
			c.emitOp(OP_POP) // drop the duplicated subject on a true match
			c.consume(token.COLON, "expect ':' after 'when' label(s)")
			if c.check(token.WHEN) || c.check(token.ELSE) || c.check(token.RBRACE) {
				c.error("empty 'when' branch")
			}
			for !c.check(token.WHEN) && !c.check(token.ELSE) && !c.check(token.RBRACE) && !c.check(token.EOF) {
				c.declaration()
			}
			endJumps = append(endJumps, c.emitJump(OP_JUMP))
			c.patchJump(fallThrough)

		case c.matchTok(token.ELSE):
			seenElse = true
			c.consume(token.COLON, "expect ':' after 'else'")
			c.emitOp(OP_POP) // drop subject before the default branch
			for !c.check(token.RBRACE) && !c.check(token.EOF) {
				c.declaration()
			}

		default:
			c.error("expect 'when' or 'else' in 'case' body")
			c.advance()
		}
	}
	if !seenElse {
		c.emitOp(OP_POP)
	}
	c.consume(token.RBRACE, "expect '}' after case body")
	for _, j := range endJumps {
		c.patchJump(j)
	}
}

func (c *Compiler) returnStmt() {
	if c.fr.kind == object.FuncScript {
		c.error("cannot return from top-level code")
	}
	if c.matchTok(token.SEMI) {
		c.emitReturn()
		return
	}
	if c.fr.kind == object.FuncInitializer {
		c.error("cannot return a value from an initializer")
	}
	c.expression()
	c.consume(token.SEMI, "expect ';' after return value")
	c.emitOp(OP_RETURN)
}

// --- class & function compilation ---

func (c *Compiler) classDecl() {
	c.consume(token.IDENT, "expect class name")
	name := c.prevVal.Raw
	nameConst := c.identifierConstant(name)
	c.declareVariable(name)

	c.emitByte(OP_CLASS, nameConst)
	c.defineVariable(nameConst)

	c.class = &classCtx{enclosing: c.class}

	if c.matchTok(token.LT) {
		c.consume(token.IDENT, "expect superclass name")
		c.variableNamed(c.prevVal.Raw, false)
		if c.prevVal.Raw == name {
			c.error("a class cannot inherit from itself")
		}
		c.beginScope()
		c.addLocal("super")
		c.markInitialized()

		c.variableNamed(name, false)
		c.emitOp(OP_INHERIT)
		c.class.hasSuperclass = true
	}

	c.variableNamed(name, false)
	c.consume(token.LBRACE, "expect '{' before class body")
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RBRACE, "expect '}' after class body")
	c.emitOp(OP_POP)

	if c.class.hasSuperclass {
		c.endScope()
	}
	c.class = c.class.enclosing
}

func (c *Compiler) method() {
	c.consume(token.IDENT, "expect method name")
	name := c.prevVal.Raw
	nameConst := c.identifierConstant(name)
	kind := object.FuncMethod
	if name == "init" {
		kind = object.FuncInitializer
	}
	c.function(kind, name)
	c.emitByte(OP_METHOD, nameConst)
}

func (c *Compiler) function(kind object.FuncKind, name string) {
	fn := &object.Function{Chunk: &object.Chunk{}, Kind: kind, Name: name}
	c.fr = &frame{fn: fn, kind: kind, enclosing: c.fr}
	c.fr.locals = append(c.fr.locals, local{name: "", depth: 0})
	if kind == object.FuncMethod || kind == object.FuncInitializer {
		c.fr.locals[0].name = "this"
	}
	c.beginScope()

	c.consume(token.LPAREN, "expect '(' after function name")
	if !c.check(token.RPAREN) {
		sawRest := false
		for {
			if sawRest {
				c.error("rest parameter must be the last parameter")
			}
			if c.matchTok(token.DOTDOT) {
				sawRest = true
				fn.Variadic = true
			}
			fn.Arity++
			paramConst := c.parseVariable("expect parameter name")
			c.defineVariable(paramConst)
			if !c.matchTok(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "expect ')' after parameters")

	if c.matchTok(token.ARROW) {
		c.expression()
		c.consume(token.SEMI, "expect ';' after arrow-body expression")
		c.emitOp(OP_RETURN)
	} else {
		c.consume(token.LBRACE, "expect '{' before function body")
		c.block()
	}

	got := c.endFrame()
	c.emitClosure(got)
}

// thunkFunction compiles expr as a zero-argument lambda body, used by
// handle/dynvar per SPEC_FULL.md E.3.
func (c *Compiler) thunkFunction(kind object.FuncKind, compileBody func()) *object.Function {
	fn := &object.Function{Chunk: &object.Chunk{}, Kind: kind}
	c.fr = &frame{fn: fn, kind: kind, enclosing: c.fr}
	c.fr.locals = append(c.fr.locals, local{name: "", depth: 0})
	c.beginScope()
	compileBody()
	c.emitOp(OP_RETURN)
	return c.endFrame()
}

// emitClosure writes CLOSURE <constIdx> followed by one byte per upvalue the
// just-finished frame captured (see endFrame, which stashes that frame's
// upvalue table in c.lastUpvalues before popping it).
func (c *Compiler) emitClosure(fn *object.Function) {
	idx := c.makeConstant(fn)
	c.emitByte(OP_CLOSURE, idx)
	for _, uv := range c.lastUpvalues {
		b := uv.index
		if uv.isLocal {
			b |= 0x80
		}
		c.emit(b)
	}
}

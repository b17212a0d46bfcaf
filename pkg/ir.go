package pysub

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// The LLVM backend lowers the statically-typeable subset of the language
// ahead of time: scalars, arithmetic, comparisons, if/elif/else, while,
// break/continue and print. Lists and scalar retyping have no static
// lowering and are rejected.

type IRGenerator interface {
	Do() (IR, *Error)
}

type IR interface {
	fmt.Stringer
}

// slot is a stack-allocated variable with a fixed type.
type slot struct {
	typ ValueType
	ptr value.Value
}

// loopTargets holds the branch destinations of an active while loop:
// continue jumps back to cond, break jumps to end.
type loopTargets struct {
	cond *ir.Block
	end  *ir.Block
}

type LLVMIRBuilder struct {
	mod   *ir.Module
	fn    *ir.Func
	block *ir.Block

	printf      *ir.Func
	intFormat   value.Value
	trueFormat  value.Value
	falseFormat value.Value

	slots map[string]*slot
	loops []*loopTargets
}

func NewLLVMIRBuilder() *LLVMIRBuilder {
	builder := &LLVMIRBuilder{
		mod:   ir.NewModule(),
		slots: make(map[string]*slot),
	}

	defineBuiltins(builder)

	builder.fn = builder.mod.NewFunc("main", types.I32)
	builder.block = builder.fn.NewBlock("")
	return builder
}

func (b *LLVMIRBuilder) program(program *Program) *Error {
	// Slots are allocated up front in the entry block so every store and
	// load is dominated by its alloca, whatever the branch structure.
	if err := b.declareSlots(program.Statements); err != nil {
		return err
	}

	for _, stmt := range program.Statements {
		if err := b.statement(stmt); err != nil {
			return err
		}
	}

	if b.block.Term == nil {
		b.block.NewRet(constant.NewInt(types.I32, 0))
	}

	return nil
}

// declareSlots walks the statements in program order and fixes one static
// type per assigned variable. A variable whose assignments disagree on the
// type cannot be lowered.
func (b *LLVMIRBuilder) declareSlots(stmts []Statement) *Error {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *AssignmentStatement:
			target, ok := s.Target.(*NameTarget)
			if !ok {
				return semanticErrorf(s.Target.Pos(), "Lists are not supported by the LLVM backend")
			}

			typ, err := b.exprType(s.Value)
			if err != nil {
				return err
			}

			if sl, exists := b.slots[target.Name]; exists {
				if sl.typ != typ {
					return typeErrorf(target.Loc, "Variable '%s' cannot change type in compiled mode", target.Name)
				}
				continue
			}

			b.slots[target.Name] = &slot{
				typ: typ,
				ptr: b.block.NewAlloca(irType(typ)),
			}
		case *IfStatement:
			if err := b.declareSlots(s.Then); err != nil {
				return err
			}
			for _, elif := range s.Elifs {
				if err := b.declareSlots(elif.Block); err != nil {
					return err
				}
			}
			if err := b.declareSlots(s.Else); err != nil {
				return err
			}
		case *WhileStatement:
			if err := b.declareSlots(s.Body); err != nil {
				return err
			}
		}
	}

	return nil
}

func (b *LLVMIRBuilder) statement(stmt Statement) *Error {
	switch s := stmt.(type) {
	case *AssignmentStatement:
		return b.assignment(s)
	case *PrintStatement:
		return b.print(s)
	case *IfStatement:
		return b.ifChain(s)
	case *WhileStatement:
		return b.whileLoop(s)
	case *BreakStatement:
		if len(b.loops) == 0 {
			return semanticErrorf(s.Loc, "Break statement not allowed outside of loop")
		}

		b.block.NewBr(b.loops[len(b.loops)-1].end)
		b.block = b.fn.NewBlock("")
		return nil
	case *ContinueStatement:
		if len(b.loops) == 0 {
			return semanticErrorf(s.Loc, "Continue statement not allowed outside of loop")
		}

		b.block.NewBr(b.loops[len(b.loops)-1].cond)
		b.block = b.fn.NewBlock("")
		return nil
	case *ListDeclarationStatement:
		return semanticErrorf(s.Loc, "Lists are not supported by the LLVM backend")
	case *ListAppendStatement:
		return semanticErrorf(s.Loc, "Lists are not supported by the LLVM backend")
	default:
		return internalErrorf(stmt.Pos(), "Unknown statement type")
	}
}

func (b *LLVMIRBuilder) assignment(s *AssignmentStatement) *Error {
	target, ok := s.Target.(*NameTarget)
	if !ok {
		return semanticErrorf(s.Target.Pos(), "Lists are not supported by the LLVM backend")
	}

	typ, err := b.exprType(s.Value)
	if err != nil {
		return err
	}

	v, err := b.expr(s.Value)
	if err != nil {
		return err
	}

	sl, exists := b.slots[target.Name]
	if !exists {
		return internalErrorf(target.Loc, "Missing slot for variable '%s'", target.Name)
	}
	if sl.typ != typ {
		return typeErrorf(target.Loc, "Variable '%s' cannot change type in compiled mode", target.Name)
	}

	b.block.NewStore(v, sl.ptr)
	return nil
}

func (b *LLVMIRBuilder) print(s *PrintStatement) *Error {
	typ, err := b.exprType(s.Value)
	if err != nil {
		return err
	}

	v, err := b.expr(s.Value)
	if err != nil {
		return err
	}

	switch typ {
	case TypeInt:
		b.block.NewCall(b.printf, b.intFormat, v)
	case TypeBool:
		format := b.block.NewSelect(v, b.trueFormat, b.falseFormat)
		b.block.NewCall(b.printf, format)
	default:
		return internalErrorf(s.Loc, "Unknown value type in print statement")
	}

	return nil
}

func (b *LLVMIRBuilder) ifChain(s *IfStatement) *Error {
	end := b.fn.NewBlock("")

	conds := []Expr{s.Cond}
	blocks := [][]Statement{s.Then}
	for _, elif := range s.Elifs {
		conds = append(conds, elif.Cond)
		blocks = append(blocks, elif.Block)
	}

	for i := range conds {
		typ, err := b.exprType(conds[i])
		if err != nil {
			return err
		}
		if typ != TypeBool {
			return semanticErrorf(conds[i].Pos(), "If condition must be boolean")
		}

		cond, err := b.expr(conds[i])
		if err != nil {
			return err
		}

		taken := b.fn.NewBlock("")
		next := b.fn.NewBlock("")
		b.block.NewCondBr(cond, taken, next)

		b.block = taken
		for _, stmt := range blocks[i] {
			if err := b.statement(stmt); err != nil {
				return err
			}
		}
		if b.block.Term == nil {
			b.block.NewBr(end)
		}

		b.block = next
	}

	for _, stmt := range s.Else {
		if err := b.statement(stmt); err != nil {
			return err
		}
	}
	if b.block.Term == nil {
		b.block.NewBr(end)
	}

	b.block = end
	return nil
}

func (b *LLVMIRBuilder) whileLoop(s *WhileStatement) *Error {
	cond := b.fn.NewBlock("")
	body := b.fn.NewBlock("")
	end := b.fn.NewBlock("")

	b.block.NewBr(cond)
	b.block = cond

	typ, err := b.exprType(s.Cond)
	if err != nil {
		return err
	}
	if typ != TypeBool {
		return semanticErrorf(s.Cond.Pos(), "While condition must be boolean")
	}

	cv, err := b.expr(s.Cond)
	if err != nil {
		return err
	}
	b.block.NewCondBr(cv, body, end)

	b.loops = append(b.loops, &loopTargets{cond: cond, end: end})
	b.block = body
	for _, stmt := range s.Body {
		if err := b.statement(stmt); err != nil {
			return err
		}
	}
	if b.block.Term == nil {
		b.block.NewBr(cond)
	}
	b.loops = b.loops[:len(b.loops)-1]

	b.block = end
	return nil
}

func (b *LLVMIRBuilder) expr(expr Expr) (value.Value, *Error) {
	switch e := expr.(type) {
	case *NumberExpr:
		return constant.NewInt(types.I32, int64(e.Value)), nil
	case *BoolExpr:
		return constant.NewBool(e.Value), nil
	case *Identifier:
		sl, ok := b.slots[e.Name]
		if !ok {
			return nil, semanticErrorf(e.Loc, "Variable '%s' is not defined", e.Name)
		}

		return b.block.NewLoad(irType(sl.typ), sl.ptr), nil
	case *IndexExpr:
		return nil, semanticErrorf(e.Loc, "Lists are not supported by the LLVM backend")
	case *UnaryExpr:
		return b.unaryExpression(e)
	case *BinaryExpr:
		return b.binaryExpression(e)
	default:
		return nil, internalErrorf(expr.Pos(), "Unknown expression type")
	}
}

func (b *LLVMIRBuilder) unaryExpression(e *UnaryExpr) (value.Value, *Error) {
	typ, err := b.exprType(e.Operand)
	if err != nil {
		return nil, err
	}

	v, err := b.expr(e.Operand)
	if err != nil {
		return nil, err
	}

	switch e.Operation {
	case UnaryNegative:
		if typ != TypeInt {
			return nil, typeErrorf(e.Loc, "Operand of unary '-' must be integer")
		}

		return b.block.NewMul(v, constant.NewInt(types.I32, -1)), nil
	case UnaryNot:
		if typ != TypeBool {
			return nil, typeErrorf(e.Loc, "Operand of 'not' must be boolean")
		}

		return b.block.NewXor(v, constant.NewBool(true)), nil
	default:
		return nil, internalErrorf(e.Loc, "Unknown unary operation")
	}
}

func (b *LLVMIRBuilder) binaryExpression(e *BinaryExpr) (value.Value, *Error) {
	leftType, err := b.exprType(e.Op1)
	if err != nil {
		return nil, err
	}

	rightType, err := b.exprType(e.Op2)
	if err != nil {
		return nil, err
	}

	v1, err := b.expr(e.Op1)
	if err != nil {
		return nil, err
	}

	v2, err := b.expr(e.Op2)
	if err != nil {
		return nil, err
	}

	switch e.Operation {
	case BinaryOr, BinaryAnd:
		// Compiled boolean operators are strict: both operands are
		// type-checked and evaluated, with no short-circuit. A right
		// operand that the interpreter would skip (an undefined name, a
		// division by zero) is still checked and run here.
		if leftType != TypeBool || rightType != TypeBool {
			return nil, typeErrorf(e.Loc, "Operands of '%s' must be boolean", e.Operation)
		}

		if e.Operation == BinaryOr {
			return b.block.NewOr(v1, v2), nil
		}

		return b.block.NewAnd(v1, v2), nil
	case BinaryEq, BinaryNeq:
		if leftType == TypeUndefined || leftType != rightType {
			return nil, typeErrorf(e.Loc, "Operands of '==' and '!=' must be of the same type (int or bool)")
		}

		pred := enum.IPredEQ
		if e.Operation == BinaryNeq {
			pred = enum.IPredNE
		}

		return b.block.NewICmp(pred, v1, v2), nil
	case BinaryLt, BinaryLe, BinaryGt, BinaryGe:
		if leftType != TypeInt || rightType != TypeInt {
			return nil, typeErrorf(e.Loc, "Operands of '<', '<=', '>', '>=' must be integers")
		}

		var pred enum.IPred
		switch e.Operation {
		case BinaryLt:
			pred = enum.IPredSLT
		case BinaryLe:
			pred = enum.IPredSLE
		case BinaryGt:
			pred = enum.IPredSGT
		default:
			pred = enum.IPredSGE
		}

		return b.block.NewICmp(pred, v1, v2), nil
	case BinaryAddition, BinarySubtraction, BinaryMultiplication, BinaryDivision:
		if leftType != TypeInt || rightType != TypeInt {
			return nil, typeErrorf(e.Loc, "Operands of arithmetic expressions must be integers")
		}

		switch e.Operation {
		case BinaryAddition:
			return b.block.NewAdd(v1, v2), nil
		case BinarySubtraction:
			return b.block.NewSub(v1, v2), nil
		case BinaryMultiplication:
			return b.block.NewMul(v1, v2), nil
		default:
			return b.block.NewSDiv(v1, v2), nil
		}
	default:
		return nil, internalErrorf(e.Loc, "Unknown binary operation")
	}
}

// exprType is the static counterpart of the evaluator's datatype walk,
// resolved against the fixed slot types.
func (b *LLVMIRBuilder) exprType(expr Expr) (ValueType, *Error) {
	switch e := expr.(type) {
	case *NumberExpr:
		return TypeInt, nil
	case *BoolExpr:
		return TypeBool, nil
	case *Identifier:
		sl, ok := b.slots[e.Name]
		if !ok {
			return TypeUndefined, semanticErrorf(e.Loc, "Variable '%s' is not defined", e.Name)
		}

		return sl.typ, nil
	case *IndexExpr:
		return TypeUndefined, semanticErrorf(e.Loc, "Lists are not supported by the LLVM backend")
	case *UnaryExpr:
		typ, err := b.exprType(e.Operand)
		if err != nil {
			return TypeUndefined, err
		}

		if e.Operation == UnaryNot && typ == TypeBool {
			return TypeBool, nil
		}

		if e.Operation == UnaryNegative && typ == TypeInt {
			return TypeInt, nil
		}

		return TypeUndefined, nil
	case *BinaryExpr:
		leftType, err := b.exprType(e.Op1)
		if err != nil {
			return TypeUndefined, err
		}

		rightType, err := b.exprType(e.Op2)
		if err != nil {
			return TypeUndefined, err
		}

		switch e.Operation {
		case BinaryOr, BinaryAnd:
			if leftType == TypeBool && rightType == TypeBool {
				return TypeBool, nil
			}
		case BinaryEq, BinaryNeq:
			if leftType != TypeUndefined && leftType == rightType {
				return TypeBool, nil
			}
		case BinaryLt, BinaryLe, BinaryGt, BinaryGe:
			if leftType == TypeInt && rightType == TypeInt {
				return TypeBool, nil
			}
		case BinaryAddition, BinarySubtraction, BinaryMultiplication, BinaryDivision:
			if leftType == TypeInt && rightType == TypeInt {
				return TypeInt, nil
			}
		}

		return TypeUndefined, nil
	default:
		return TypeUndefined, internalErrorf(expr.Pos(), "Unknown expression type")
	}
}

func irType(typ ValueType) types.Type {
	if typ == TypeBool {
		return types.I1
	}

	return types.I32
}

type LLVMGenerator struct {
	program *Program
}

func NewLLVMGenerator(program *Program) *LLVMGenerator {
	return &LLVMGenerator{
		program: program,
	}
}

func (g *LLVMGenerator) Do() (IR, *Error) {
	builder := NewLLVMIRBuilder()
	if err := builder.program(g.program); err != nil {
		return nil, err
	}

	return builder.mod, nil
}

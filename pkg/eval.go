package pysub

import (
	"fmt"
	"io"
)

// ctrl is the control-flow signal returned by statement execution. break and
// continue are ordinary return values, not errors or panics.
type ctrl int

const (
	ctrlNormal ctrl = iota
	ctrlBreak
	ctrlContinue
)

// Evaluator walks the syntax tree against a mutable symbol table. It keeps
// two control stacks: condMet tracks whether a branch of the innermost
// if/elif/else chain has fired, loops tracks whether the innermost while is
// still live (break flips it to false).
type Evaluator struct {
	program *Program
	symbols *SymbolTable
	out     io.Writer

	condMet []bool
	loops   []bool
}

func NewEvaluator(program *Program, out io.Writer) *Evaluator {
	return &Evaluator{
		program: program,
		symbols: NewSymbolTable(),
		out:     out,
	}
}

func (v *Evaluator) Run() *Error {
	for _, stmt := range v.program.Statements {
		c, err := v.execStatement(stmt)
		if err != nil {
			return err
		}

		if c != ctrlNormal {
			return internalErrorf(stmt.Pos(), "Loose control flow outside of loop")
		}
	}

	return nil
}

func (v *Evaluator) execStatement(stmt Statement) (ctrl, *Error) {
	switch s := stmt.(type) {
	case *AssignmentStatement:
		return ctrlNormal, v.execAssignment(s)
	case *ListDeclarationStatement:
		return ctrlNormal, v.execListDeclaration(s)
	case *ListAppendStatement:
		return ctrlNormal, v.execListAppend(s)
	case *PrintStatement:
		return ctrlNormal, v.execPrint(s)
	case *IfStatement:
		return v.execIf(s)
	case *WhileStatement:
		return ctrlNormal, v.execWhile(s)
	case *BreakStatement:
		if len(v.loops) == 0 {
			return ctrlNormal, semanticErrorf(s.Loc, "Break statement not allowed outside of loop")
		}

		v.loops[len(v.loops)-1] = false
		return ctrlBreak, nil
	case *ContinueStatement:
		if len(v.loops) == 0 {
			return ctrlNormal, semanticErrorf(s.Loc, "Continue statement not allowed outside of loop")
		}

		return ctrlContinue, nil
	default:
		return ctrlNormal, internalErrorf(stmt.Pos(), "Unknown statement type")
	}
}

func (v *Evaluator) execAssignment(s *AssignmentStatement) *Error {
	value, err := v.eval(s.Value)
	if err != nil {
		return err
	}

	switch target := s.Target.(type) {
	case *NameTarget:
		// Creating, updating and retyping a scalar, and rebinding a list
		// name as a scalar, are all the same operation on the table.
		v.symbols.SetVariable(target.Name, value)
		return nil
	case *IndexTarget:
		if !v.symbols.IsListDefined(target.Name) {
			return semanticErrorf(target.Loc, "List '%s' is not defined", target.Name)
		}

		index, err := v.eval(target.Index)
		if err != nil {
			return err
		}

		if index.Typ != TypeInt {
			return semanticErrorf(target.Index.Pos(), "List index must be an integer")
		}

		if !v.symbols.SetListElement(target.Name, int(index.Int), value) {
			return indexErrorf(target.Loc, "List index out of bounds")
		}

		return nil
	default:
		return internalErrorf(s.Loc, "Unknown location type in assignment statement")
	}
}

func (v *Evaluator) execListDeclaration(s *ListDeclarationStatement) *Error {
	if v.symbols.IsDefined(s.Name) {
		return semanticErrorf(s.Loc, "Identifier '%s' is already defined", s.Name)
	}

	v.symbols.AddList(s.Name)
	return nil
}

func (v *Evaluator) execListAppend(s *ListAppendStatement) *Error {
	if !v.symbols.IsListDefined(s.Name) {
		return semanticErrorf(s.Loc, "List '%s' is not defined", s.Name)
	}

	value, err := v.eval(s.Value)
	if err != nil {
		return err
	}

	v.symbols.AppendToList(s.Name, value)
	return nil
}

func (v *Evaluator) execPrint(s *PrintStatement) *Error {
	value, err := v.eval(s.Value)
	if err != nil {
		return err
	}

	switch value.Typ {
	case TypeInt:
		fmt.Fprintf(v.out, "%d\n", value.Int)
	case TypeBool:
		if value.Bool {
			fmt.Fprintln(v.out, "True")
		} else {
			fmt.Fprintln(v.out, "False")
		}
	default:
		return internalErrorf(s.Loc, "Unknown value type in print statement")
	}

	return nil
}

// execIf runs an if/elif/else chain in a single pass: at most one branch
// fires, tracked by the chain's condMet frame.
func (v *Evaluator) execIf(s *IfStatement) (ctrl, *Error) {
	v.condMet = append(v.condMet, false)
	defer func() {
		v.condMet = v.condMet[:len(v.condMet)-1]
	}()

	cond, err := v.eval(s.Cond)
	if err != nil {
		return ctrlNormal, err
	}

	if cond.Typ != TypeBool {
		return ctrlNormal, semanticErrorf(s.Cond.Pos(), "If condition must be boolean")
	}

	if cond.Bool {
		v.condMet[len(v.condMet)-1] = true

		c, err := v.execBlock(s.Then)
		if c != ctrlNormal || err != nil {
			return c, err
		}
	}

	for _, elif := range s.Elifs {
		if v.condMet[len(v.condMet)-1] {
			break
		}

		cond, err := v.eval(elif.Cond)
		if err != nil {
			return ctrlNormal, err
		}

		if cond.Typ != TypeBool {
			return ctrlNormal, semanticErrorf(elif.Cond.Pos(), "Elif condition must be boolean")
		}

		if cond.Bool {
			v.condMet[len(v.condMet)-1] = true

			c, err := v.execBlock(elif.Block)
			if c != ctrlNormal || err != nil {
				return c, err
			}
		}
	}

	if s.Else != nil && !v.condMet[len(v.condMet)-1] {
		v.condMet[len(v.condMet)-1] = true

		c, err := v.execBlock(s.Else)
		if c != ctrlNormal || err != nil {
			return c, err
		}
	}

	return ctrlNormal, nil
}

func (v *Evaluator) execBlock(block []Statement) (ctrl, *Error) {
	for _, stmt := range block {
		c, err := v.execStatement(stmt)
		if c != ctrlNormal || err != nil {
			return c, err
		}
	}

	return ctrlNormal, nil
}

func (v *Evaluator) execWhile(s *WhileStatement) *Error {
	v.loops = append(v.loops, true)
	defer func() {
		v.loops = v.loops[:len(v.loops)-1]
	}()

	for {
		cond, err := v.eval(s.Cond)
		if err != nil {
			return err
		}

		if cond.Typ != TypeBool {
			return semanticErrorf(s.Cond.Pos(), "While condition must be boolean")
		}

		if !cond.Bool {
			return nil
		}

		if !v.loops[len(v.loops)-1] {
			return nil
		}

		for _, stmt := range s.Body {
			c, err := v.execStatement(stmt)
			if err != nil {
				return err
			}

			// break flips the loop flag; both signals halt the current
			// body traversal.
			if c == ctrlBreak || c == ctrlContinue {
				break
			}
		}
	}
}

func (v *Evaluator) eval(expr Expr) (Value, *Error) {
	switch e := expr.(type) {
	case *NumberExpr:
		return IntValue(e.Value), nil
	case *BoolExpr:
		return BoolValue(e.Value), nil
	case *Identifier:
		value, ok := v.symbols.GetVariable(e.Name)
		if !ok {
			return Value{}, semanticErrorf(e.Loc, "Variable '%s' is not defined", e.Name)
		}

		return value, nil
	case *IndexExpr:
		return v.evalIndex(e)
	case *UnaryExpr:
		return v.evalUnary(e)
	case *BinaryExpr:
		return v.evalBinary(e)
	default:
		return Value{}, internalErrorf(expr.Pos(), "Unknown expression type")
	}
}

func (v *Evaluator) evalIndex(e *IndexExpr) (Value, *Error) {
	if !v.symbols.IsListDefined(e.Name) {
		return Value{}, semanticErrorf(e.Loc, "List '%s' is not defined", e.Name)
	}

	index, err := v.eval(e.Index)
	if err != nil {
		return Value{}, err
	}

	if index.Typ != TypeInt {
		return Value{}, typeErrorf(e.Index.Pos(), "List index must be an integer")
	}

	value, ok := v.symbols.GetListElement(e.Name, int(index.Int))
	if !ok {
		return Value{}, indexErrorf(e.Loc, "List index out of bounds")
	}

	return value, nil
}

func (v *Evaluator) evalUnary(e *UnaryExpr) (Value, *Error) {
	switch e.Operation {
	case UnaryNot:
		typ, err := v.datatypeOf(e.Operand)
		if err != nil {
			return Value{}, err
		}

		if typ != TypeBool {
			return Value{}, typeErrorf(e.Loc, "Operand of 'not' must be boolean")
		}

		value, err := v.eval(e.Operand)
		if err != nil {
			return Value{}, err
		}

		return BoolValue(!value.Bool), nil
	case UnaryNegative:
		typ, err := v.datatypeOf(e.Operand)
		if err != nil {
			return Value{}, err
		}

		if typ != TypeInt {
			return Value{}, typeErrorf(e.Loc, "Operand of unary '-' must be integer")
		}

		value, err := v.eval(e.Operand)
		if err != nil {
			return Value{}, err
		}

		return IntValue(-value.Int), nil
	default:
		return Value{}, internalErrorf(e.Loc, "Unknown unary operation")
	}
}

func (v *Evaluator) evalBinary(e *BinaryExpr) (Value, *Error) {
	switch e.Operation {
	case BinaryOr, BinaryAnd:
		return v.evalBoolOp(e)
	case BinaryEq, BinaryNeq:
		return v.evalEquality(e)
	case BinaryLt, BinaryLe, BinaryGt, BinaryGe:
		return v.evalComparison(e)
	case BinaryAddition, BinarySubtraction, BinaryMultiplication, BinaryDivision:
		return v.evalArithmetic(e)
	default:
		return Value{}, internalErrorf(e.Loc, "Unknown binary operation")
	}
}

// evalBoolOp checks each operand's type right before evaluating that
// operand, so a short-circuited right side is neither checked nor run.
func (v *Evaluator) evalBoolOp(e *BinaryExpr) (Value, *Error) {
	if err := v.requireType(e.Op1, TypeBool, e); err != nil {
		return Value{}, err
	}

	left, err := v.eval(e.Op1)
	if err != nil {
		return Value{}, err
	}

	if e.Operation == BinaryOr && left.Bool {
		return BoolValue(true), nil
	}

	if e.Operation == BinaryAnd && !left.Bool {
		return BoolValue(false), nil
	}

	if err := v.requireType(e.Op2, TypeBool, e); err != nil {
		return Value{}, err
	}

	right, err := v.eval(e.Op2)
	if err != nil {
		return Value{}, err
	}

	return BoolValue(right.Bool), nil
}

func (v *Evaluator) requireType(operand Expr, want ValueType, e *BinaryExpr) *Error {
	typ, err := v.datatypeOf(operand)
	if err != nil {
		return err
	}

	if typ != want {
		return typeErrorf(e.Loc, "Operands of '%s' must be boolean", e.Operation)
	}

	return nil
}

func (v *Evaluator) evalEquality(e *BinaryExpr) (Value, *Error) {
	leftType, err := v.datatypeOf(e.Op1)
	if err != nil {
		return Value{}, err
	}

	rightType, err := v.datatypeOf(e.Op2)
	if err != nil {
		return Value{}, err
	}

	if leftType == TypeUndefined || rightType == TypeUndefined || leftType != rightType {
		return Value{}, typeErrorf(e.Loc, "Operands of '==' and '!=' must be of the same type (int or bool)")
	}

	left, err := v.eval(e.Op1)
	if err != nil {
		return Value{}, err
	}

	right, err := v.eval(e.Op2)
	if err != nil {
		return Value{}, err
	}

	var equal bool
	if leftType == TypeInt {
		equal = left.Int == right.Int
	} else {
		equal = left.Bool == right.Bool
	}

	if e.Operation == BinaryNeq {
		equal = !equal
	}

	return BoolValue(equal), nil
}

func (v *Evaluator) evalComparison(e *BinaryExpr) (Value, *Error) {
	left, right, err := v.evalIntOperands(e, "Operands of '<', '<=', '>', '>=' must be integers")
	if err != nil {
		return Value{}, err
	}

	switch e.Operation {
	case BinaryLt:
		return BoolValue(left < right), nil
	case BinaryLe:
		return BoolValue(left <= right), nil
	case BinaryGt:
		return BoolValue(left > right), nil
	case BinaryGe:
		return BoolValue(left >= right), nil
	default:
		return Value{}, internalErrorf(e.Loc, "Unknown operator in relational expression")
	}
}

func (v *Evaluator) evalArithmetic(e *BinaryExpr) (Value, *Error) {
	left, right, err := v.evalIntOperands(e, "Operands of arithmetic expressions must be integers")
	if err != nil {
		return Value{}, err
	}

	switch e.Operation {
	case BinaryAddition:
		return IntValue(left + right), nil
	case BinarySubtraction:
		return IntValue(left - right), nil
	case BinaryMultiplication:
		return IntValue(left * right), nil
	case BinaryDivision:
		if right == 0 {
			return Value{}, zeroDivisionErrorf(e.Loc, "Division by zero")
		}

		return IntValue(left / right), nil
	default:
		return Value{}, internalErrorf(e.Loc, "Unknown operator in arithmetic expression")
	}
}

func (v *Evaluator) evalIntOperands(e *BinaryExpr, msg string) (int32, int32, *Error) {
	leftType, err := v.datatypeOf(e.Op1)
	if err != nil {
		return 0, 0, err
	}

	rightType, err := v.datatypeOf(e.Op2)
	if err != nil {
		return 0, 0, err
	}

	if leftType != TypeInt || rightType != TypeInt {
		return 0, 0, typeErrorf(e.Loc, msg)
	}

	left, err := v.eval(e.Op1)
	if err != nil {
		return 0, 0, err
	}

	right, err := v.eval(e.Op2)
	if err != nil {
		return 0, 0, err
	}

	return left.Int, right.Int, nil
}

// datatypeOf computes the type an expression would evaluate to, without
// running its operators. Name references must already be bound; list
// subscripts are evaluated to find the stored element's type.
func (v *Evaluator) datatypeOf(expr Expr) (ValueType, *Error) {
	switch e := expr.(type) {
	case *NumberExpr:
		return TypeInt, nil
	case *BoolExpr:
		return TypeBool, nil
	case *Identifier:
		value, ok := v.symbols.GetVariable(e.Name)
		if !ok {
			return TypeUndefined, semanticErrorf(e.Loc, "Variable '%s' is not defined", e.Name)
		}

		return value.Typ, nil
	case *IndexExpr:
		value, err := v.evalIndex(e)
		if err != nil {
			return TypeUndefined, err
		}

		return value.Typ, nil
	case *UnaryExpr:
		typ, err := v.datatypeOf(e.Operand)
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
		leftType, err := v.datatypeOf(e.Op1)
		if err != nil {
			return TypeUndefined, err
		}

		rightType, err := v.datatypeOf(e.Op2)
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

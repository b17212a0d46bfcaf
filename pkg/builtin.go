package pysub

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// defineBuiltins declares the C printf the compiled program prints through,
// plus the format strings for the two value types.
func defineBuiltins(b *LLVMIRBuilder) {
	printf := b.mod.NewFunc("printf", types.I32, ir.NewParam("format", types.I8Ptr))
	printf.Sig.Variadic = true
	b.printf = printf

	b.intFormat = defineFormat(b.mod, "._printf_fmt_int", "%d\n\x00")
	b.trueFormat = defineFormat(b.mod, "._printf_fmt_true", "True\n\x00")
	b.falseFormat = defineFormat(b.mod, "._printf_fmt_false", "False\n\x00")
}

func defineFormat(mod *ir.Module, name, format string) value.Value {
	data := constant.NewCharArrayFromString(format)
	glob := mod.NewGlobalDef(name, data)

	zero := constant.NewInt(types.I32, 0)
	return constant.NewGetElementPtr(types.NewArray(uint64(len(format)), types.I8), glob, zero, zero)
}

package test

import (
	"fmt"
	"math/rand"
	"strings"
)

// GetRandomProgram produces a syntactically valid source of roughly n
// statements, used to feed the lexer benchmarks.
func GetRandomProgram(n int) string {
	var sb strings.Builder
	sb.WriteString("x = 0\n")
	sb.WriteString("y = 1\n")

	for i := 0; i < n; i++ {
		switch rand.Intn(5) {
		case 0:
			fmt.Fprintf(&sb, "x = x + %d\n", rand.Intn(100))
		case 1:
			fmt.Fprintf(&sb, "y = y * %d - x\n", 1+rand.Intn(9))
		case 2:
			fmt.Fprintf(&sb, "print(x + y)\n")
		case 3:
			fmt.Fprintf(&sb, "if x < %d:\n    x = x + 1\nelse:\n    x = x - 1\n", rand.Intn(1000))
		case 4:
			fmt.Fprintf(&sb, "while False:\n    y = y + 1\n")
		}
	}

	return sb.String()
}

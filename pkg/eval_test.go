package pysub

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(data string) (string, *Error) {
	var out bytes.Buffer
	err := NewInterpreterWithOutput(&out).RunFromReader(strings.NewReader(data))

	return out.String(), err
}

func TestEvaluator(t *testing.T) {
	cases := []struct {
		data   string
		expect string
	}{
		{
			"x = 2\ny = 3\nprint(x + y * 4)\n",
			"14\n",
		},
		{
			"i = 0\ns = 0\nwhile i < 5:\n    s = s + i\n    i = i + 1\nprint(s)\n",
			"10\n",
		},
		{
			"n = 10\nif n < 5:\n    print(1)\nelif n < 15:\n    print(2)\nelse:\n    print(3)\n",
			"2\n",
		},
		{
			"L = list()\nL.append(1)\nL.append(2)\nL.append(3)\nL[1] = 20\nprint(L[0])\nprint(L[1])\nprint(L[2])\n",
			"1\n20\n3\n",
		},
		{
			"i = 0\nwhile i < 10:\n    if i == 3:\n        break\n    print(i)\n    i = i + 1\n",
			"0\n1\n2\n",
		},
		{
			// continue skips the print for 2 and 4
			"i = 0\nwhile i < 6:\n    i = i + 1\n    if i == 2 or i == 4:\n        continue\n    print(i)\n",
			"1\n3\n5\n6\n",
		},
		{
			"print(True)\nprint(False)\nprint(not True)\n",
			"True\nFalse\nFalse\n",
		},
		{
			"print(7 // 2)\nprint(-7 // 2)\nprint(0 - 7 // 2)\n",
			"3\n-3\n-3\n",
		},
		{
			// Scalars are retypeable; the last assignment wins.
			"x = 1\nx = True\nprint(x)\nx = 5\nprint(x)\n",
			"True\n5\n",
		},
		{
			// Assigning a scalar over a list name drops the list binding.
			"L = list()\nL.append(1)\nL = 5\nprint(L)\n",
			"5\n",
		},
		{
			// Lists may mix element types.
			"L = list()\nL.append(1)\nL.append(True)\nprint(L[0])\nprint(L[1])\n",
			"1\nTrue\n",
		},
		{
			"print(1 == 1)\nprint(1 != 1)\nprint(True == False)\nprint(True != False)\n",
			"True\nFalse\nFalse\nTrue\n",
		},
		{
			"print(1 < 2 and 2 <= 2)\nprint(3 > 4 or 4 >= 5)\n",
			"True\nFalse\n",
		},
		{
			// Short-circuit: the undefined name on the right is never touched.
			"print(True or missing)\nprint(False and missing)\n",
			"True\nFalse\n",
		},
		{
			// Two's-complement wrap on 32-bit integers.
			"print(2147483647 + 1)\n",
			"-2147483648\n",
		},
		{
			"print(- - 5)\nprint(not not True)\n",
			"5\nTrue\n",
		},
		{
			// Nested loops: break only leaves the innermost one.
			"i = 0\nwhile i < 2:\n    j = 0\n    while True:\n        j = j + 1\n        if j == 2:\n            break\n    print(j)\n    i = i + 1\n",
			"2\n2\n",
		},
		{
			// elif conditions after a met branch are skipped entirely.
			"x = 1\nif True:\n    print(1)\nelif missing:\n    print(2)\n",
			"1\n",
		},
		{
			"L = list()\ni = 0\nwhile i < 4:\n    L.append(i * i)\n    i = i + 1\nprint(L[3])\n",
			"9\n",
		},
	}

	for _, c := range cases {
		got, err := run(c.data)
		require.Nil(t, err, "input %q", c.data)
		assert.Equal(t, c.expect, got, "input %q", c.data)
	}
}

func TestEvaluatorErrors(t *testing.T) {
	cases := []struct {
		data string
		fail Category
	}{
		{"print(1 // 0)\n", ZeroDivision},
		{"print(1 + True)\n", TypeError},
		{"print(True + True)\n", TypeError},
		{"print(1 == True)\n", TypeError},
		{"print(1 < True)\n", TypeError},
		{"print(not 1)\n", TypeError},
		{"print(not - 1)\n", TypeError},
		{"print(- True)\n", TypeError},
		{"print(1 or True)\n", TypeError},
		{"print(True and 1)\n", TypeError},
		{"print(missing)\n", SemanticError},
		{"print(missing + 1)\n", SemanticError},
		{"break\n", SemanticError},
		{"continue\n", SemanticError},
		{"if True:\n    break\n", SemanticError},
		{"if 1:\n    print(1)\n", SemanticError},
		{"while 1:\n    print(1)\n", SemanticError},
		{"L = list()\nL = list()\n", SemanticError},
		{"x = 1\nx = list()\n", SemanticError},
		{"L.append(1)\n", SemanticError},
		{"x = 1\nx.append(1)\n", SemanticError},
		{"L = list()\nprint(L[0])\n", IndexError},
		{"L = list()\nL.append(1)\nprint(L[1])\n", IndexError},
		{"L = list()\nL.append(1)\nprint(L[-1])\n", IndexError},
		{"L = list()\nL[0] = 1\n", IndexError},
		{"L[0] = 1\n", SemanticError},
		{"L = list()\nL[True] = 1\n", SemanticError},
		{"L = list()\nL.append(1)\nprint(L[True])\n", TypeError},
		{"x = 1\nprint(x[0])\n", SemanticError},
		{"L = list()\nprint(L)\n", SemanticError},
	}

	for _, c := range cases {
		_, err := run(c.data)
		require.NotNil(t, err, "input %q", c.data)
		assert.Equal(t, c.fail, err.Category, "input %q", c.data)
	}
}

func TestEvaluatorErrorPositions(t *testing.T) {
	_, err := run("print(1 // 0)\n")
	require.NotNil(t, err)

	assert.Equal(t, ZeroDivision, err.Category)
	assert.Equal(t, 1, err.Line)
	assert.Equal(t, 8, err.Column)
	assert.Equal(t, "Division by zero", err.Message)
}

func TestEvaluatorStopsAtFirstError(t *testing.T) {
	out, err := run("print(1)\nprint(1 // 0)\nprint(2)\n")
	require.NotNil(t, err)

	assert.Equal(t, ZeroDivision, err.Category)
	assert.Equal(t, "1\n", out)
}

func TestSymbolTable(t *testing.T) {
	table := NewSymbolTable()

	table.SetVariable("x", IntValue(4))
	v, ok := table.GetVariable("x")
	require.True(t, ok)
	assert.Equal(t, IntValue(4), v)

	// Retype
	table.SetVariable("x", BoolValue(true))
	v, _ = table.GetVariable("x")
	assert.Equal(t, BoolValue(true), v)

	table.AddList("L")
	assert.True(t, table.IsListDefined("L"))
	assert.True(t, table.AppendToList("L", IntValue(1)))
	assert.True(t, table.AppendToList("L", IntValue(2)))

	size, ok := table.ListSize("L")
	require.True(t, ok)
	assert.Equal(t, 2, size)

	assert.True(t, table.SetListElement("L", 1, IntValue(20)))
	el, ok := table.GetListElement("L", 1)
	require.True(t, ok)
	assert.Equal(t, IntValue(20), el)

	_, ok = table.GetListElement("L", 2)
	assert.False(t, ok)
	assert.False(t, table.SetListElement("L", -1, IntValue(0)))

	// Scalar assignment over a list name drops the list.
	table.SetVariable("L", IntValue(9))
	assert.False(t, table.IsListDefined("L"))
	assert.True(t, table.IsVariableDefined("L"))
}

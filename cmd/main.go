package main

import (
	"flag"
	"fmt"
	"os"

	"go.pysub.dev/pkg"
)

func main() {
	emitLLVM := flag.Bool("emit-llvm", false, "lower the program to LLVM IR on stdout instead of running it")
	flag.Parse()

	if flag.NArg() < 1 {
		fail(&pysub.Error{
			Category: pysub.MissingFileError,
			Message:  "No input file provided",
		})
	}

	filename := flag.Arg(0)
	if *emitLLVM {
		emit(filename)
		return
	}

	if err := pysub.NewInterpreter().Run(filename); err != nil {
		fail(err)
	}
}

func emit(filename string) {
	file, err := os.Open(filename)
	if err != nil {
		fail(&pysub.Error{
			Category: pysub.FileOpenError,
			Message:  "Could not open input file: " + filename,
		})
	}
	defer file.Close()

	program, perr := pysub.Parse(file)
	if perr != nil {
		fail(perr)
	}

	mod, perr := pysub.NewLLVMGenerator(program).Do()
	if perr != nil {
		fail(perr)
	}

	fmt.Print(mod)
}

func fail(err *pysub.Error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}

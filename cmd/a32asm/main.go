// main.go - Command line front end for the Aurora-32 assembler

/*
    ___                                      ________
   /   | __  ___________  _________ _      |__  /__ \
  / /| |/ / / / ___/ __ \/ ___/ __ `/________/_ <__/ /
 / ___ / /_/ / /  / /_/ / /  / /_/ /_____/___/ // __/
/_/  |_\__,_/_/   \____/_/   \__,_/      /____//____/

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/Aurora32
Buy me a coffee: https://ko-fi.com/intuition/tip

License: GPLv3 or later
*/

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/intuitionamiga/Aurora32/assembler"
)

func main() {
	flags := flag.NewFlagSet("a32asm", flag.ExitOnError)
	output := flags.String("o", "a.bin", "output image path")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: a32asm [-o out.bin] source.s\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}
	if flags.NArg() != 1 {
		flags.Usage()
		os.Exit(1)
	}

	src, err := os.ReadFile(flags.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "a32asm: %v\n", err)
		os.Exit(1)
	}

	asm := assembler.New()
	image, err := asm.Assemble(string(src))
	if err != nil {
		fmt.Fprintf(os.Stderr, "a32asm: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*output, image, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "a32asm: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s: %d bytes at origin 0x%04x\n", *output, len(image), asm.Origin())
}

package main

import (
	"os"

	_ "ripper/pkg/sites/index"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

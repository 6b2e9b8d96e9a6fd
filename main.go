package main

import (
	"os"

	"github.com/numtide/notes/cmd"
)

func main() {
	// cobra has already printed the error
	root, _ := cmd.NewRoot()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

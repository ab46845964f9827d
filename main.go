package main

import (
	"github.com/mirovec/cauchyfec/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}

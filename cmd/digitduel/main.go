package main

import (
	"github.com/nwestbury/digitduel/internal/cli"
)

func main() {
	cli.Execute()
}

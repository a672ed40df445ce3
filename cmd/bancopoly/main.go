package main

import (
	"github.com/dalessandro07/bancopoly/internal/cli"
)

func main() {
	cli.Execute()
}

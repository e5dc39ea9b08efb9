package main

import (
	"fmt"
	"os"

	"github.com/cleuton/arquitetura360/cli"
)

func main() {
	if err := cli.Start(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

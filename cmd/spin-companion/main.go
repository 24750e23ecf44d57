package main

import "github.com/fermyon/spin-companion/pkg/cli"

func main() {
	cli.Execute()
}

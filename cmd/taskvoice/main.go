package main

import "github.com/taskvoice/taskvoice/internal/cli"

func main() {
	cli.Execute()
}

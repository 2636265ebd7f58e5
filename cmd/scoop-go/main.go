package main

import "scoop-go/internal/cli"

func main() {
	cli.Execute()
}

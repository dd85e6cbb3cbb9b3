package main

import "github.com/rnwolfe/gh/cmd"

func main() {
	cmd.Execute()
}

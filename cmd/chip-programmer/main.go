package main

import "github.com/oshokin/roadrunner/cmd/chip-programmer/cmd"

func main() {
	cmd.Execute()
}

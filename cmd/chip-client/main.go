package main

import "github.com/oshokin/roadrunner/cmd/chip-client/cmd"

func main() {
	cmd.Execute()
}
